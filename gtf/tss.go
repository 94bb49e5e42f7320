// Package gtf extracts annotation-derived inputs from a GTF file. The only
// consumer today is the ataqv stage, which needs a padded BED of
// transcription start sites.
package gtf

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/chipseq/util"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// gtfRecord is one line of a GTF annotation.
type gtfRecord struct {
	Chrom    string
	Source   string
	Molecule string
	Start    int
	Stop     int
	Score    string // unused floating point value, but may be "."
	Strand   string
	Frame    string
	Fields   string
}

// tss is a transcription start site in 1-based GTF coordinates.
type tss struct {
	chrom string
	pos   int
}

// WriteTSSBed writes a BED file of transcription start sites padded by
// padding bases on each side, clamped at zero. Transcript features define
// the sites; gene features are used for annotations carrying no
// transcripts. gtfPath may be gzipped. An existing non-empty outFile is
// reused. outFile may end in .gz for compressed output.
func WriteTSSBed(ctx context.Context, gtfPath, outFile string, padding int) (string, error) {
	if util.FileExists(outFile) {
		return outFile, nil
	}
	sites, err := readTSS(ctx, gtfPath)
	if err != nil {
		return "", err
	}
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].chrom != sites[j].chrom {
			return sites[i].chrom < sites[j].chrom
		}
		return sites[i].pos < sites[j].pos
	})
	err = util.WithTransaction(outFile, func(tmpPath string) error {
		out, err := os.Create(tmpPath)
		if err != nil {
			return errors.Wrapf(err, "creating %s", tmpPath)
		}
		defer out.Close() // nolint: errcheck
		var w io.Writer = out
		var gz *gzip.Writer
		if strings.HasSuffix(outFile, ".gz") {
			gz = gzip.NewWriter(out)
			w = gz
		}
		if err := writeBed(w, sites, padding); err != nil {
			return err
		}
		if gz != nil {
			if err := gz.Close(); err != nil {
				return errors.Wrapf(err, "closing gzip stream for %s", outFile)
			}
		}
		return out.Close()
	})
	if err != nil {
		return "", err
	}
	return outFile, nil
}

func writeBed(w io.Writer, sites []tss, padding int) error {
	bed := tsv.NewWriter(w)
	var prev tss
	for i, site := range sites {
		if i > 0 && site == prev {
			continue
		}
		prev = site
		// BED is 0-based half-open; the GTF position is 1-based.
		start := site.pos - 1 - padding
		if start < 0 {
			start = 0
		}
		end := site.pos + padding
		bed.WriteString(site.chrom)
		bed.WriteUint32(uint32(start))
		bed.WriteUint32(uint32(end))
		if err := bed.EndLine(); err != nil {
			return errors.Wrap(err, "writing TSS bed row")
		}
	}
	return bed.Flush()
}

// readTSS scans the GTF once and collects the strand-aware start position of
// every transcript, falling back to gene features when the annotation has no
// transcript lines.
func readTSS(ctx context.Context, path string) ([]tss, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening GTF %s", path)
	}
	var inr io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(inr, in.Name()); u != nil {
		inr = u
	}
	scanner := tsv.NewReader(bufio.NewReaderSize(inr, 64<<10))
	scanner.Comment = '#'
	scanner.LazyQuotes = true
	var transcripts, genes []tss
	var line gtfRecord
	for {
		if err := scanner.Read(&line); err != nil {
			if err != io.EOF {
				in.Close(ctx) // nolint: errcheck
				return nil, errors.Wrapf(err, "parsing GTF %s", path)
			}
			break
		}
		site := tss{chrom: line.Chrom, pos: line.Start}
		if line.Strand == "-" {
			site.pos = line.Stop
		}
		switch line.Molecule {
		case "transcript":
			transcripts = append(transcripts, site)
		case "gene":
			genes = append(genes, site)
		}
	}
	if err := in.Close(ctx); err != nil {
		return nil, errors.Wrapf(err, "closing GTF %s", path)
	}
	if len(transcripts) > 0 {
		return transcripts, nil
	}
	if len(genes) > 0 {
		return genes, nil
	}
	return nil, fmt.Errorf("%s: no transcript or gene features found", path)
}
