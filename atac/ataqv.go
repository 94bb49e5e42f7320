package atac

import (
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/chipseq/gtf"
	"github.com/grailbio/chipseq/sample"
	"github.com/grailbio/chipseq/tool"
	"github.com/grailbio/chipseq/util"
)

// tssPadding is the number of bases added on each side of a transcription
// start site for the ataqv TSS enrichment calculation.
const tssPadding = 1000

// RunAtaqv runs the ataqv QC report on the nucleosome-free fraction of an
// ATAC-seq sample and returns the path of the gzipped JSON metrics. It
// returns ("", nil) for non-ATAC samples and whenever an input or the ataqv
// binary is missing; those are logged skips, not errors.
func RunAtaqv(ctx context.Context, s *sample.Sample, r tool.Runner) (string, error) {
	if s.Config.ChipMethod != "atac" {
		return "", nil
	}
	outDir := filepath.Join(s.WorkDir, "qc", s.Name, "ataqv")
	outFile := filepath.Join(outDir, s.Name+".ataqv.json.gz")
	peakFile := s.NFPeaks()
	bamFile := s.NFBam()
	if peakFile == "" {
		log.Printf("NF peak file for %s not found, skipping ataqv", s.Name)
		return "", nil
	}
	if bamFile == "" {
		log.Printf("NF BAM file for %s not found, skipping ataqv", s.Name)
		return "", nil
	}
	if util.FileExists(outFile) {
		return outFile, nil
	}
	if len(s.MitochondrialChroms) == 0 {
		log.Printf("no mitochondrial chromosome known for %s, skipping ataqv", s.Name)
		return "", nil
	}
	ataqv := tool.LookPath(s.Config.Program("ataqv"))
	if ataqv == "" {
		log.Printf("ataqv executable not found, skipping running ataqv")
		return "", nil
	}
	tssFile, err := gtf.WriteTSSBed(ctx, s.GTFFile, filepath.Join(outDir, "TSS.bed"), tssPadding)
	if err != nil {
		return "", err
	}
	autosomalRef, err := makeAutosomalReference(filepath.Join(outDir, "autosomal.txt"), s.NonMitochondrialChroms)
	if err != nil {
		return "", err
	}
	mitoName := s.MitochondrialChroms[0]
	err = util.WithTransaction(outFile, func(tmpPath string) error {
		cmd := fmt.Sprintf("%s --peak-file %s --name %s --metrics-file %s "+
			"--tss-file %s --autosomal-reference-file %s "+
			"--ignore-read-groups --mitochondrial-reference-name %s "+
			"None %s",
			ataqv, peakFile, s.Name, tmpPath, tssFile, autosomalRef, mitoName, bamFile)
		message := fmt.Sprintf("Running ataqv on the NF fraction of %s.", s.Name)
		return r.Run(ctx, cmd, message)
	})
	if err != nil {
		return "", err
	}
	return outFile, nil
}

// makeAutosomalReference writes the non-mitochondrial chromosome names, one
// per line. The reference metadata does not say which chromosomes are sex
// chromosomes or scaffolds, so everything non-mitochondrial is listed.
func makeAutosomalReference(outFile string, nonMito []string) (string, error) {
	if util.FileExists(outFile) {
		return outFile, nil
	}
	err := util.WithTransaction(outFile, func(tmpPath string) error {
		var b strings.Builder
		for _, chrom := range nonMito {
			fmt.Fprintf(&b, "%s\n", chrom)
		}
		return ioutil.WriteFile(tmpPath, []byte(b.String()), 0644)
	})
	if err != nil {
		return "", err
	}
	return outFile, nil
}
