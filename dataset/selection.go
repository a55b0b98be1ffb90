package dataset

import "sort"

// Selection is the Element's optional record-index filter. The reference
// algorithm supports two shapes — a sparse list of explicit indices
// (TEntryList) and a dense set of accepted sub-ranges (TEventList-style
// range filter) — modeled here as a tagged variant with two operations,
// per design note "Polymorphic selection list": the packetizer treats
// both uniformly and never branches on which concrete type it holds.
type Selection interface {
	// Size returns the number of records this Selection accepts.
	Size() int64
	// Restrict returns a new Selection containing only the indices that
	// fall within [first, first+num).
	Restrict(first, num int64) Selection
}

// IndexSelection is a sparse Selection: an explicit, sorted list of
// accepted record indices.
type IndexSelection struct {
	Indices []int64
}

// NewIndexSelection builds an IndexSelection from unsorted indices
func NewIndexSelection(indices []int64) *IndexSelection {
	sorted := make([]int64, len(indices))
	copy(sorted, indices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &IndexSelection{Indices: sorted}
}

// Size implements Selection
func (s *IndexSelection) Size() int64 {
	return int64(len(s.Indices))
}

// Restrict implements Selection
func (s *IndexSelection) Restrict(first, num int64) Selection {
	last := first + num
	lo := sort.Search(len(s.Indices), func(i int) bool { return s.Indices[i] >= first })
	hi := sort.Search(len(s.Indices), func(i int) bool { return s.Indices[i] >= last })
	restricted := make([]int64, hi-lo)
	copy(restricted, s.Indices[lo:hi])
	return &IndexSelection{Indices: restricted}
}

// Range is one accepted, half-open sub-range [First, First+Num) of a
// RangeSelection.
type Range struct {
	First, Num int64
}

// RangeSelection is a dense Selection: a sorted, non-overlapping list of
// accepted record sub-ranges.
type RangeSelection struct {
	Ranges []Range
}

// NewRangeSelection builds a RangeSelection from a set of ranges, which
// must already be sorted and non-overlapping.
func NewRangeSelection(ranges []Range) *RangeSelection {
	return &RangeSelection{Ranges: ranges}
}

// Size implements Selection
func (s *RangeSelection) Size() int64 {
	var total int64
	for _, r := range s.Ranges {
		total += r.Num
	}
	return total
}

// Restrict implements Selection
func (s *RangeSelection) Restrict(first, num int64) Selection {
	last := first + num
	restricted := make([]Range, 0, len(s.Ranges))
	for _, r := range s.Ranges {
		rLast := r.First + r.Num
		lo := max64(r.First, first)
		hi := min64(rLast, last)
		if hi > lo {
			restricted = append(restricted, Range{First: lo, Num: hi - lo})
		}
	}
	return &RangeSelection{Ranges: restricted}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
