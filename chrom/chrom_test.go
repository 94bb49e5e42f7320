package chrom

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMitochondrial(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"chrM", true},
		{"chrm", true},
		{"MT", true},
		{"mt", true},
		{"M", true},
		{"chrMT", true},
		{"chr1", false},
		{"chrX", false},
		{"MT_contig", false},
		{"scaffold_17", false}, // unknown contigs count as autosomal
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, IsMitochondrial(test.name), test.name)
	}
}

func TestPartition(t *testing.T) {
	mito, nonMito := Partition([]string{"chr1", "chrM", "chr2", "scaffold_17"})
	assert.Equal(t, []string{"chrM"}, mito)
	assert.Equal(t, []string{"chr1", "chr2", "scaffold_17"}, nonMito)

	mito, nonMito = Partition(nil)
	assert.Empty(t, mito)
	assert.Empty(t, nonMito)
}

func TestReadChromNames(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	chr1, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	require.NoError(t, err)
	chrM, err := sam.NewReference("chrM", "", "", 16569, nil, nil)
	require.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chr1, chrM})
	require.NoError(t, err)

	bamPath := filepath.Join(tempDir, "header.bam")
	out, err := os.Create(bamPath)
	require.NoError(t, err)
	bw, err := bam.NewWriter(out, header, 1)
	require.NoError(t, err)
	require.NoError(t, bw.Close())
	require.NoError(t, out.Close())

	names, err := ReadChromNames(bamPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"chr1", "chrM"}, names)
}

func TestReadChromNamesBadFile(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	notBam := filepath.Join(tempDir, "not.bam")
	require.NoError(t, ioutil.WriteFile(notBam, []byte("plain text"), 0644))
	_, err := ReadChromNames(notBam)
	assert.Error(t, err)
}
