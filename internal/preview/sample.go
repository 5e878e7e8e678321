package preview

import (
	"fmt"
	"math"
)

// PlanEntry pairs a page index with how long it stays on screen.
type PlanEntry struct {
	Page     int
	Duration float64
}

// Plan is an ordered page selection with display durations.
type Plan []PlanEntry

// Total returns the summed display duration.
func (p Plan) Total() float64 {
	var sum float64
	for _, e := range p {
		sum += e.Duration
	}
	return sum
}

// Pages returns the selected page indices in order.
func (p Plan) Pages() []int {
	out := make([]int, len(p))
	for i, e := range p {
		out[i] = e.Page
	}
	return out
}

// SamplePages picks which of pages pages to show within maxDuration seconds,
// giving each at least minPerPage seconds. The first and last pages are
// always included when more than one page is shown.
func SamplePages(pages int, maxDuration, minPerPage float64) (Plan, error) {
	if pages <= 0 {
		return nil, ErrEmptyDocument
	}
	if maxDuration <= 0 || minPerPage <= 0 {
		return nil, fmt.Errorf("%w: durations must be positive", ErrInvalidConfiguration)
	}

	// Beyond pages+1 the ratio no longer matters, and huge ratios would
	// overflow maxShown's int conversion.
	k := pages
	if maxDuration/minPerPage < float64(pages)+1 {
		k = maxShown(maxDuration, minPerPage)
	}

	var selected []int
	if pages <= k {
		selected = make([]int, pages)
		for i := range selected {
			selected[i] = i
		}
		k = pages
	} else {
		selected = evenlySpaced(pages, k)
	}

	share := maxDuration / float64(k)
	plan := make(Plan, len(selected))
	for i, idx := range selected {
		plan[i] = PlanEntry{Page: idx, Duration: share}
	}
	return plan, nil
}

// maxShown is floor(maxDuration/minPerPage), at least 1, corrected so that
// maxDuration/k >= minPerPage holds in floating point. The ratio must fit
// in an int.
func maxShown(maxDuration, minPerPage float64) int {
	k := int(math.Floor(maxDuration / minPerPage))
	if k < 1 {
		return 1
	}
	for k > 1 && maxDuration/float64(k) < minPerPage {
		k--
	}
	for maxDuration/float64(k+1) >= minPerPage {
		k++
	}
	return k
}

// evenlySpaced returns k ascending indices spread across [0, pages-1].
func evenlySpaced(pages, k int) []int {
	if k <= 1 {
		return []int{0}
	}
	last := pages - 1
	selected := make([]int, 0, k)
	for j := range k {
		pos := math.Round(float64(j*last) / float64(k-1))
		idx := int(pos)
		if n := len(selected); n > 0 && selected[n-1] >= idx {
			continue
		}
		selected = append(selected, idx)
	}

	// Force the endpoints by replacing the nearest selected sample.
	selected[0] = 0
	if len(selected) == 1 {
		return append(selected, last)
	}
	selected[len(selected)-1] = last
	return selected
}
