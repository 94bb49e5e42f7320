package atac

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/chipseq/sample"
	"github.com/grailbio/chipseq/tool"
	"github.com/grailbio/chipseq/util"
)

// ComplexityMetrics holds the raw ENCODE library-complexity counts over
// distinct read-pair positions: MT total pairs, M0 distinct pairs, M1 pairs
// seen exactly once, M2 pairs seen exactly twice.
type ComplexityMetrics struct {
	MT, M0, M1, M2 int64
}

// PBC1 is the first PCR bottlenecking coefficient, M1/M0.
func (m ComplexityMetrics) PBC1() float64 {
	return float64(m.M1) / float64(m.M0)
}

// NRF is the non-redundant fraction, M0/MT.
func (m ComplexityMetrics) NRF() float64 {
	return float64(m.M0) / float64(m.MT)
}

// PBC2 is the second PCR bottlenecking coefficient, M1/M2, defined as 0
// when no position was seen exactly twice.
func (m ComplexityMetrics) PBC2() float64 {
	if m.M2 == 0 {
		return 0
	}
	return float64(m.M1) / float64(m.M2)
}

// CalculateComplexityMetrics computes the complexity counts for bamPath and
// records the metrics CSV on the sample. The BAM must have duplicates marked
// (not removed) and mitochondrial reads already removed; neither precondition
// is detectable here. A pre-existing metrics file is reused as is.
func CalculateComplexityMetrics(ctx context.Context, bamPath string, s *sample.Sample, r tool.Runner) error {
	metricsDir, err := util.SafeMkdir(filepath.Join(s.WorkDir, "metrics", "atac"))
	if err != nil {
		return err
	}
	metricsFile := filepath.Join(metricsDir, s.Name+"-atac-metrics.csv")
	if util.FileExists(metricsFile) {
		s.Atac.ComplexityMetricsFile = metricsFile
		return nil
	}
	// bedtools bamtobed -bedpe wants queryname order.
	sorted, err := sortByName(ctx, bamPath, s, r)
	if err != nil {
		return err
	}
	bedtools := s.Config.Program("bedtools")
	err = util.WithTransaction(metricsFile, func(tmpPath string) error {
		var metrics ComplexityMetrics
		cmd := fmt.Sprintf("%s bamtobed -bedpe -i %s", bedtools, sorted)
		message := fmt.Sprintf("Calculating ATAC-seq complexity metrics on %s, saving as %s.", sorted, metricsFile)
		if err := r.RunOutput(ctx, cmd, message, func(out io.Reader) error {
			var err error
			metrics, err = tallyPairPositions(out)
			return err
		}); err != nil {
			return err
		}
		csv := fmt.Sprintf("mt,m0,m1,m2\n%d,%d,%d,%d\n", metrics.MT, metrics.M0, metrics.M1, metrics.M2)
		return ioutil.WriteFile(tmpPath, []byte(csv), 0644)
	})
	if err != nil {
		return err
	}
	s.Atac.ComplexityMetricsFile = metricsFile
	return nil
}

// EncodeComplexityMetrics derives the ENCODE QC ratios from the metrics CSV
// recorded on the sample. Samples with no recorded CSV yield an empty map,
// not an error.
func EncodeComplexityMetrics(s *sample.Sample) (map[string]float64, error) {
	if s.Atac.ComplexityMetricsFile == "" {
		return map[string]float64{}, nil
	}
	raw, err := ReadComplexityMetrics(s.Atac.ComplexityMetricsFile)
	if err != nil {
		return nil, err
	}
	return map[string]float64{
		"PBC1": raw.PBC1(),
		"NRF":  raw.NRF(),
		"PBC2": raw.PBC2(),
	}, nil
}

// ReadComplexityMetrics parses the two-line mt,m0,m1,m2 CSV at path.
func ReadComplexityMetrics(path string) (ComplexityMetrics, error) {
	var m ComplexityMetrics
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return m, errors.E(err, "reading complexity metrics:", path)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) < 2 {
		return m, fmt.Errorf("%s: expected header and one data row, got %d lines", path, len(lines))
	}
	header := strings.Split(strings.TrimSpace(lines[0]), ",")
	values := strings.Split(strings.TrimSpace(lines[1]), ",")
	if len(header) != len(values) {
		return m, fmt.Errorf("%s: header and data row disagree", path)
	}
	for i, h := range header {
		v, err := strconv.ParseInt(values[i], 10, 64)
		if err != nil {
			return m, errors.E(err, "parsing complexity metrics field:", h)
		}
		switch h {
		case "mt":
			m.MT = v
		case "m0":
			m.M0 = v
		case "m1":
			m.M1 = v
		case "m2":
			m.M2 = v
		default:
			return m, fmt.Errorf("%s: unknown metrics column %q", path, h)
		}
	}
	return m, nil
}

// tallyPairPositions streams BEDPE records and counts how often each
// fragment position is seen. The key is (chrom1, start1, start2, end2,
// strand1, strand2), the same projection the ENCODE pipeline uses.
func tallyPairPositions(r io.Reader) (ComplexityMetrics, error) {
	var m ComplexityMetrics
	counts := make(map[string]int64)
	scanner := bufio.NewScanner(bufio.NewReaderSize(r, 64<<10))
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	var key strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 10 {
			return m, fmt.Errorf("malformed BEDPE record (%d fields): %q", len(fields), line)
		}
		key.Reset()
		for i, fi := range []int{0, 1, 3, 5, 8, 9} {
			if i > 0 {
				key.WriteByte('\t')
			}
			key.WriteString(fields[fi])
		}
		counts[key.String()]++
	}
	if err := scanner.Err(); err != nil {
		return m, errors.E(err, "reading BEDPE stream")
	}
	for _, n := range counts {
		m.MT += n
		m.M0++
		if n == 1 {
			m.M1++
		}
		if n == 2 {
			m.M2++
		}
	}
	return m, nil
}

// sortByName produces a queryname-sorted copy of bamPath next to it, reusing
// an existing one.
func sortByName(ctx context.Context, bamPath string, s *sample.Sample, r tool.Runner) (string, error) {
	stem := strings.TrimSuffix(bamPath, filepath.Ext(bamPath))
	sorted := stem + "-namesorted.bam"
	if util.FileExists(sorted) {
		return sorted, nil
	}
	sambamba := s.Config.Program("sambamba")
	err := util.WithTransaction(sorted, func(tmpPath string) error {
		cmd := fmt.Sprintf("%s sort --sort-by-name --nthreads %d --out %s %s",
			sambamba, s.Config.NumCores(), tmpPath, bamPath)
		return r.Run(ctx, cmd, fmt.Sprintf("Sorting %s by queryname.", bamPath))
	})
	if err != nil {
		return "", err
	}
	log.Printf("queryname-sorted %s as %s", bamPath, sorted)
	return sorted, nil
}
