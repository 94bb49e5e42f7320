// Package sample defines the per-sample metadata record that the
// post-alignment ChIP/ATAC stages read and annotate. The record is owned by
// the surrounding pipeline; stages fill in the Atac namespace and PeaksFile
// and leave everything else alone.
package sample

import "strings"

// Config holds the per-sample algorithm configuration consulted by the
// ChIP/ATAC stages.
type Config struct {
	// ChipMethod is the assay method, "chip" or "atac".
	ChipMethod string

	// PeakCallers lists the requested peak callers. Empty means macs2.
	PeakCallers []string

	// Cores is the per-sample core budget passed to external tools.
	Cores int

	// Programs maps a tool name to an explicit executable path, overriding
	// PATH lookup.
	Programs map[string]string
}

// Callers returns the configured peak callers, defaulting to macs2.
func (c Config) Callers() []string {
	if len(c.PeakCallers) == 0 {
		return []string{"macs2"}
	}
	return c.PeakCallers
}

// Program resolves the executable to invoke for name, honoring an explicit
// override from the configuration.
func (c Config) Program(name string) string {
	if p, ok := c.Programs[name]; ok && p != "" {
		return p
	}
	return name
}

// NumCores returns the core budget, never less than one.
func (c Config) NumCores() int {
	if c.Cores < 1 {
		return 1
	}
	return c.Cores
}

// Atac is the namespace under which the ATAC stages stash their outputs.
type Atac struct {
	// ComplexityMetricsFile is the path of the mt,m0,m1,m2 CSV.
	ComplexityMetricsFile string

	// Align maps a fragment-size label (NF, MN, DN, TN, or "full") to the
	// BAM holding that subset of the alignments.
	Align map[string]string
}

// Sample is one sequencing sample plus the pipeline state attached to it.
type Sample struct {
	Name        string
	Phenotype   string // "chip", "input", or other
	Batches     []string
	GenomeBuild string
	WorkDir     string
	WorkBAM     string
	GTFFile     string

	// Chromosome enumerations from the reference, split by the
	// mitochondrial classification.
	MitochondrialChroms    []string
	NonMitochondrialChroms []string

	Config Config
	Atac   Atac

	// PeaksFiles maps fragment-size label -> caller -> peak files, filled
	// by the peak-calling stage for each fraction.
	PeaksFiles map[string]map[string][]string

	// PeaksFile is the primary peak output for the sample.
	PeaksFile string
}

// Batch returns the sample's primary batch id, or "" when unbatched.
func (s *Sample) Batch() string {
	if len(s.Batches) == 0 {
		return ""
	}
	return s.Batches[0]
}

// HasBatch reports whether id appears in the sample's batch list.
func (s *Sample) HasBatch(id string) bool {
	for _, b := range s.Batches {
		if b == id {
			return true
		}
	}
	return false
}

// NFBam returns the nucleosome-free BAM recorded by the fragment-size
// splitter, or "" if the sample has not been split.
func (s *Sample) NFBam() string {
	return s.Atac.Align["NF"]
}

// NFPeaks returns the nucleosome-free macs2 peak file, preferring the
// narrowPeak/broadPeak outputs, or "" if peak calling has not produced one.
func (s *Sample) NFPeaks() string {
	for _, f := range s.PeaksFiles["NF"]["macs2"] {
		if strings.HasSuffix(f, "narrowPeak") || strings.HasSuffix(f, "broadPeak") {
			return f
		}
	}
	return ""
}
