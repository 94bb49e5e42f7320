package main

/*
chipseq-atac runs the post-alignment ATAC-seq stages for one sample:
library-complexity metrics, fragment-size splitting of the aligned BAM, and
the ataqv QC report on the nucleosome-free fraction.
*/

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/chipseq/atac"
	"github.com/grailbio/chipseq/chrom"
	"github.com/grailbio/chipseq/sample"
	"github.com/grailbio/chipseq/tool"
)

var (
	name    = flag.String("name", "", "Sample name (required)")
	workDir = flag.String("work-dir", ".", "Pipeline work directory")
	gtfPath = flag.String("gtf", "", "GTF annotation for the TSS enrichment input")
	method  = flag.String("method", "atac", "Assay method, 'atac' or 'chip'")
	genome  = flag.String("genome", "", "Genome build name, e.g. hg38")
	cores   = flag.Int("cores", 1, "Core budget passed to external tools")
	nfPeaks = flag.String("nf-peaks", "", "narrowPeak/broadPeak file for the NF fraction, if peak calling already ran")
)

func chipseqAtacUsage() {
	fmt.Printf("Usage: %s [OPTIONS] bampath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = chipseqAtacUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Exactly one positional argument (bampath) expected, got %d; please check flag syntax", flag.NArg())
	}
	if *name == "" {
		log.Fatal("-name is required")
	}
	bamPath := flag.Arg(0)

	chroms, err := chrom.ReadChromNames(bamPath)
	if err != nil {
		log.Fatalf("enumerating chromosomes from %s: %v", bamPath, err)
	}
	mito, nonMito := chrom.Partition(chroms)

	s := &sample.Sample{
		Name:                   *name,
		Phenotype:              "chip",
		GenomeBuild:            *genome,
		WorkDir:                *workDir,
		WorkBAM:                bamPath,
		GTFFile:                *gtfPath,
		MitochondrialChroms:    mito,
		NonMitochondrialChroms: nonMito,
		Config: sample.Config{
			ChipMethod: *method,
			Cores:      *cores,
		},
	}
	if *nfPeaks != "" {
		s.PeaksFiles = map[string]map[string][]string{
			"NF": {"macs2": []string{*nfPeaks}},
		}
	}

	ctx := vcontext.Background()
	runner := tool.ExecRunner{}
	if err := atac.CalculateComplexityMetrics(ctx, bamPath, s, runner); err != nil {
		log.Fatalf("complexity metrics: %v", err)
	}
	if err := atac.SplitByFragmentSize(ctx, s, bamPath, runner); err != nil {
		log.Fatalf("fragment-size split: %v", err)
	}
	qcFile, err := atac.RunAtaqv(ctx, s, runner)
	if err != nil {
		log.Fatalf("ataqv: %v", err)
	}
	if qcFile != "" {
		log.Printf("ataqv metrics written to %s", qcFile)
	}

	metrics, err := atac.EncodeComplexityMetrics(s)
	if err != nil {
		log.Fatalf("reading complexity metrics: %v", err)
	}
	for _, k := range []string{"PBC1", "PBC2", "NRF"} {
		fmt.Printf("%s\t%0.4f\n", k, metrics[k])
	}
}
