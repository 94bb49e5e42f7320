package atac

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/chipseq/sample"
	"github.com/grailbio/chipseq/tool"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atacSample(t *testing.T, tempDir string) *sample.Sample {
	gtfPath := filepath.Join(tempDir, "anno.gtf")
	gtfLine := strings.Join([]string{
		"chr1", "HAVANA", "transcript", "5000", "6000", ".", "+", ".", `gene_id "g1";`,
	}, "\t")
	require.NoError(t, ioutil.WriteFile(gtfPath, []byte(gtfLine+"\n"), 0644))
	return &sample.Sample{
		Name:                   "s1",
		WorkDir:                tempDir,
		GTFFile:                gtfPath,
		MitochondrialChroms:    []string{"chrM"},
		NonMitochondrialChroms: []string{"chr1", "chr2"},
		Config:                 sample.Config{ChipMethod: "atac"},
		Atac:                   sample.Atac{Align: map[string]string{"NF": filepath.Join(tempDir, "s1-NF.bam")}},
		PeaksFiles: map[string]map[string][]string{
			"NF": {"macs2": []string{filepath.Join(tempDir, "s1_peaks.narrowPeak")}},
		},
	}
}

func TestRunAtaqvSkipsNonAtac(t *testing.T) {
	runner := &tool.RecordingRunner{}
	s := &sample.Sample{Name: "s1", Config: sample.Config{ChipMethod: "chip"}}
	out, err := RunAtaqv(context.Background(), s, runner)
	require.NoError(t, err)
	assert.Equal(t, "", out)
	assert.Empty(t, runner.Commands)
}

func TestRunAtaqvSkipsMissingInputs(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	runner := &tool.RecordingRunner{}

	// No NF peaks recorded.
	s := atacSample(t, tempDir)
	s.PeaksFiles = nil
	out, err := RunAtaqv(context.Background(), s, runner)
	require.NoError(t, err)
	assert.Equal(t, "", out)

	// No NF BAM recorded.
	s = atacSample(t, tempDir)
	s.Atac.Align = nil
	out, err = RunAtaqv(context.Background(), s, runner)
	require.NoError(t, err)
	assert.Equal(t, "", out)

	assert.Empty(t, runner.Commands)
}

func TestRunAtaqvSkipsMissingBinary(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	runner := &tool.RecordingRunner{}

	s := atacSample(t, tempDir)
	s.Config.Programs = map[string]string{"ataqv": filepath.Join(tempDir, "no-such-ataqv")}
	out, err := RunAtaqv(context.Background(), s, runner)
	require.NoError(t, err)
	assert.Equal(t, "", out)
	assert.Empty(t, runner.Commands)
}

func TestRunAtaqvIdempotent(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	runner := &tool.RecordingRunner{}

	s := atacSample(t, tempDir)
	outFile, err := createSeeded(
		filepath.Join(tempDir, "qc", "s1", "ataqv", "s1.ataqv.json.gz"), "cached")
	require.NoError(t, err)

	got, err := RunAtaqv(context.Background(), s, runner)
	require.NoError(t, err)
	assert.Equal(t, outFile, got)
	assert.Empty(t, runner.Commands)
}

func TestRunAtaqv(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	runner := &tool.RecordingRunner{}

	s := atacSample(t, tempDir)
	// Any resolvable executable stands in for ataqv; the runner records
	// instead of executing.
	s.Config.Programs = map[string]string{"ataqv": "/bin/sh"}

	out, err := RunAtaqv(context.Background(), s, runner)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "qc", "s1", "ataqv", "s1.ataqv.json.gz"), out)

	require.Len(t, runner.Commands, 1)
	cmd := runner.Commands[0]
	assert.Contains(t, cmd, "--peak-file "+filepath.Join(tempDir, "s1_peaks.narrowPeak"))
	assert.Contains(t, cmd, "--name s1")
	assert.Contains(t, cmd, "--mitochondrial-reference-name chrM")
	assert.Contains(t, cmd, "--ignore-read-groups")
	assert.Contains(t, cmd, "None "+filepath.Join(tempDir, "s1-NF.bam"))

	// The cached auxiliary inputs were built next to the report.
	tssBed, err := ioutil.ReadFile(filepath.Join(tempDir, "qc", "s1", "ataqv", "TSS.bed"))
	require.NoError(t, err)
	assert.Equal(t, "chr1\t3999\t6000\n", string(tssBed))
	autosomal, err := ioutil.ReadFile(filepath.Join(tempDir, "qc", "s1", "ataqv", "autosomal.txt"))
	require.NoError(t, err)
	assert.Equal(t, "chr1\nchr2\n", string(autosomal))
}

func TestMakeAutosomalReference(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	out := filepath.Join(tempDir, "autosomal.txt")
	got, err := makeAutosomalReference(out, []string{"chr1", "chr2", "chrX"})
	require.NoError(t, err)
	assert.Equal(t, out, got)
	content, err := ioutil.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "chr1\nchr2\nchrX\n", string(content))

	// Cached on the second call: the file is not rewritten.
	require.NoError(t, ioutil.WriteFile(out, []byte("seeded"), 0644))
	_, err = makeAutosomalReference(out, []string{"other"})
	require.NoError(t, err)
	content, err = ioutil.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "seeded", string(content))
}
