package atac

import (
	"context"
	"fmt"
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

// writeRedirectTarget mimics the shell redirection in a recorded view
// command so the transactional rename has something non-empty to promote.
func writeRedirectTarget(command string) error {
	i := strings.LastIndex(command, "> ")
	if i < 0 {
		return nil
	}
	return ioutil.WriteFile(strings.TrimSpace(command[i+2:]), []byte("bam"), 0644)
}

func TestSplitByFragmentSize(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	bamPath := filepath.Join(tempDir, "s1.bam")
	require.NoError(t, ioutil.WriteFile(bamPath, []byte("bam"), 0644))
	runner := &tool.RecordingRunner{OnRun: writeRedirectTarget}
	s := &sample.Sample{Name: "s1", WorkDir: tempDir, WorkBAM: bamPath, Config: sample.Config{Cores: 2}}

	require.NoError(t, SplitByFragmentSize(context.Background(), s, "", runner))

	stem := strings.TrimSuffix(bamPath, ".bam")
	assert.Equal(t, map[string]string{
		"NF":   stem + "-NF.bam",
		"MN":   stem + "-MN.bam",
		"DN":   stem + "-DN.bam",
		"TN":   stem + "-TN.bam",
		"full": bamPath,
	}, s.Atac.Align)
	for _, label := range []string{"NF", "MN", "DN", "TN"} {
		assert.FileExists(t, fmt.Sprintf("%s-%s.bam", stem, label))
	}

	// A view and an index per range.
	require.Len(t, runner.Commands, 8)
	assert.Contains(t, runner.Commands[0], `template_length > 0 and template_length < 100`)
	assert.Contains(t, runner.Commands[1], "index")
	assert.Contains(t, runner.Commands[6], `template_length > 558 and template_length < 615`)
}

func TestSplitByFragmentSizeIdempotent(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	bamPath := filepath.Join(tempDir, "s1.bam")
	require.NoError(t, ioutil.WriteFile(bamPath, []byte("bam"), 0644))
	stem := strings.TrimSuffix(bamPath, ".bam")
	for _, r := range FragmentSizeRanges {
		_, err := createSeeded(fmt.Sprintf("%s-%s.bam", stem, r.Label), "bam")
		require.NoError(t, err)
	}

	runner := &tool.RecordingRunner{}
	s := &sample.Sample{Name: "s1", WorkDir: tempDir, WorkBAM: bamPath}
	require.NoError(t, SplitByFragmentSize(context.Background(), s, bamPath, runner))

	assert.Empty(t, runner.Commands)
	assert.Len(t, s.Atac.Align, 5)
	assert.Equal(t, bamPath, s.Atac.Align["full"])
}
