// Package atac implements the post-alignment ATAC-seq stages: ENCODE
// library-complexity metrics, fragment-size splitting of the aligned BAM,
// and the ataqv QC report.
package atac

// FragmentSizeRange classifies a paired-end fragment by its template length.
// Bounds are exclusive on both sides.
type FragmentSizeRange struct {
	Label string
	Min   int
	Max   int
}

// Contains reports whether a fragment of the given template length falls in
// the range.
func (r FragmentSizeRange) Contains(templateLen int) bool {
	return r.Min < templateLen && templateLen < r.Max
}

// FragmentSizeRanges is the nucleosome-free (NF) and mono/di/tri-nucleosome
// (MN/DN/TN) catalog. Ranges taken from Buenrostro, Nat. Methods 10,
// 1213-1218 (2013).
var FragmentSizeRanges = []FragmentSizeRange{
	{Label: "NF", Min: 0, Max: 100},
	{Label: "MN", Min: 180, Max: 247},
	{Label: "DN", Min: 315, Max: 473},
	{Label: "TN", Min: 558, Max: 615},
}
