// Package chrom classifies reference chromosomes for the ATAC stages. For
// many organisms the pipeline does not know which chromosomes are autosomes,
// so everything that is not recognizably mitochondrial is treated as
// autosomal.
package chrom

import (
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
)

// mitoNames are the mitochondrial contig spellings seen across the common
// reference builds.
var mitoNames = map[string]bool{
	"chrm":  true,
	"mt":    true,
	"m":     true,
	"chrmt": true,
}

// IsMitochondrial reports whether name is a mitochondrial contig.
func IsMitochondrial(name string) bool {
	return mitoNames[strings.ToLower(name)]
}

// Partition splits names into mitochondrial and non-mitochondrial sets,
// preserving input order within each.
func Partition(names []string) (mito, nonMito []string) {
	for _, name := range names {
		if IsMitochondrial(name) {
			mito = append(mito, name)
		} else {
			nonMito = append(nonMito, name)
		}
	}
	return mito, nonMito
}

// ReadChromNames returns the reference sequence names from a BAM header, in
// header order.
func ReadChromNames(bamPath string) ([]string, error) {
	ctx := vcontext.Background()
	in, err := file.Open(ctx, bamPath)
	if err != nil {
		return nil, errors.E(err, "opening BAM:", bamPath)
	}
	bamr, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		in.Close(ctx) // nolint: errcheck
		return nil, errors.E(err, "reading BAM header:", bamPath)
	}
	refs := bamr.Header().Refs()
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name())
	}
	if err := bamr.Close(); err != nil {
		in.Close(ctx) // nolint: errcheck
		return nil, errors.E(err, "closing BAM reader:", bamPath)
	}
	return names, in.Close(ctx)
}
