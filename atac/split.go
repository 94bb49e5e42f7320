package atac

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/grailbio/chipseq/sample"
	"github.com/grailbio/chipseq/tool"
	"github.com/grailbio/chipseq/util"
)

// SplitByFragmentSize splits a BAM into the nucleosome-free and
// mono/di/tri-nucleosome subsets defined by FragmentSizeRanges, indexing
// each output. bamPath defaults to the sample's working BAM. Existing
// outputs are kept; the resulting mapping, including the "full" entry for
// the unsplit BAM, is recorded under the sample's Atac namespace.
func SplitByFragmentSize(ctx context.Context, s *sample.Sample, bamPath string, r tool.Runner) error {
	if bamPath == "" {
		bamPath = s.WorkBAM
	}
	sambamba := s.Config.Program("sambamba")
	stem := strings.TrimSuffix(bamPath, filepath.Ext(bamPath))
	align := make(map[string]string, len(FragmentSizeRanges)+1)
	for _, arange := range FragmentSizeRanges {
		outFile := fmt.Sprintf("%s-%s.bam", stem, arange.Label)
		if !util.FileExists(outFile) {
			err := util.WithTransaction(outFile, func(tmpPath string) error {
				cmd := fmt.Sprintf(`%s view --format bam --nthreads %d -F "template_length > %d and template_length < %d" %s > %s`,
					sambamba, s.Config.NumCores(), arange.Min, arange.Max, bamPath, tmpPath)
				message := fmt.Sprintf("Splitting %s regions from %s.", arange.Label, bamPath)
				return r.Run(ctx, cmd, message)
			})
			if err != nil {
				return err
			}
			cmd := fmt.Sprintf("%s index --nthreads %d %s", sambamba, s.Config.NumCores(), outFile)
			if err := r.Run(ctx, cmd, fmt.Sprintf("Indexing %s.", outFile)); err != nil {
				return err
			}
		}
		align[arange.Label] = outFile
	}
	align["full"] = bamPath
	s.Atac.Align = align
	return nil
}
