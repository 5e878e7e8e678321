package preview

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-9

func checkPlan(t *testing.T, plan Plan, pages int, maxDuration float64) {
	t.Helper()
	if len(plan) == 0 {
		t.Fatalf("P=%d D=%v: empty plan", pages, maxDuration)
	}
	if total := plan.Total(); total > maxDuration+eps {
		t.Errorf("P=%d D=%v: total %v exceeds max", pages, maxDuration, total)
	}
	for i, e := range plan {
		if e.Duration < MinPageDuration-eps {
			t.Errorf("P=%d D=%v: entry %d duration %v below minimum", pages, maxDuration, i, e.Duration)
		}
		if e.Page < 0 || e.Page >= pages {
			t.Errorf("P=%d D=%v: entry %d page %d out of range", pages, maxDuration, i, e.Page)
		}
		if i > 0 && e.Page <= plan[i-1].Page {
			t.Errorf("P=%d D=%v: pages not strictly increasing at %d: %v", pages, maxDuration, i, plan.Pages())
		}
	}
	if len(plan) > 1 {
		if plan[0].Page != 0 || plan[len(plan)-1].Page != pages-1 {
			t.Errorf("P=%d D=%v: endpoints missing: %v", pages, maxDuration, plan.Pages())
		}
	}
}

func TestSamplePages_Properties(t *testing.T) {
	durations := []float64{0.1, 0.4, 0.5, 0.79, 0.8, 1, 2.5, 3.3, 7, 10, 12.34, 40, 60}
	for pages := 1; pages <= 300; pages++ {
		for _, d := range durations {
			plan, err := SamplePages(pages, d, MinPageDuration)
			if err != nil {
				t.Fatalf("P=%d D=%v: unexpected error %v", pages, d, err)
			}
			// Durations below the minimum can only ever show one page.
			if d < MinPageDuration {
				if len(plan) != 1 {
					t.Errorf("P=%d D=%v: expected 1 page, got %d", pages, d, len(plan))
				}
				continue
			}
			checkPlan(t, plan, pages, d)
		}
	}
}

func TestSamplePages_AllPagesFit(t *testing.T) {
	plan, err := SamplePages(3, 10, MinPageDuration)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := plan.Pages(); len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("expected pages [0 1 2], got %v", got)
	}
	for _, e := range plan {
		if math.Abs(e.Duration-10.0/3) > eps {
			t.Errorf("expected ~3.33s per page, got %v", e.Duration)
		}
	}
}

func TestSamplePages_LargeDocument(t *testing.T) {
	plan, err := SamplePages(250, 10, MinPageDuration)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan) != 25 {
		t.Fatalf("expected 25 pages, got %d", len(plan))
	}
	checkPlan(t, plan, 250, 10)

	// j*249/24 rounded.
	want := []int{0, 10, 21, 31, 42, 52, 62, 73, 83, 93, 104, 114, 125, 135, 145, 156, 166, 176, 187, 197, 208, 218, 228, 239, 249}
	got := plan.Pages()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected pages %v, got %v", want, got)
		}
	}
	if math.Abs(plan[0].Duration-0.4) > eps {
		t.Errorf("expected 0.4s per page, got %v", plan[0].Duration)
	}
}

func TestSamplePages_SinglePage(t *testing.T) {
	plan, err := SamplePages(1, 10, MinPageDuration)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan) != 1 || plan[0].Page != 0 || plan[0].Duration != 10 {
		t.Errorf("expected one 10s page, got %+v", plan)
	}
}

func TestSamplePages_OneSlotShowsFirstPage(t *testing.T) {
	plan, err := SamplePages(20, 0.5, MinPageDuration)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan) != 1 || plan[0].Page != 0 || plan[0].Duration != 0.5 {
		t.Errorf("expected page 0 for 0.5s, got %+v", plan)
	}
}

func TestSamplePages_Errors(t *testing.T) {
	if _, err := SamplePages(0, 10, MinPageDuration); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
	if _, err := SamplePages(5, 0, MinPageDuration); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestEvenlySpaced_ForcesEndpoints(t *testing.T) {
	for pages := 3; pages < 60; pages++ {
		for k := 2; k < pages; k++ {
			got := evenlySpaced(pages, k)
			if got[0] != 0 || got[len(got)-1] != pages-1 {
				t.Fatalf("pages=%d k=%d: endpoints missing in %v", pages, k, got)
			}
			if len(got) != k {
				t.Fatalf("pages=%d k=%d: expected %d indices, got %v", pages, k, k, got)
			}
		}
	}
}

func TestSamplePages_HugeDuration(t *testing.T) {
	for _, d := range []float64{1e12, 1e19, math.MaxFloat64} {
		plan, err := SamplePages(5, d, MinPageDuration)
		if err != nil {
			t.Fatalf("D=%v: unexpected error %v", d, err)
		}
		if got := plan.Pages(); len(got) != 5 || got[0] != 0 || got[4] != 4 {
			t.Errorf("D=%v: expected all 5 pages, got %v", d, got)
		}
		for _, e := range plan {
			if e.Duration != d/5 {
				t.Errorf("D=%v: expected %v per page, got %v", d, d/5, e.Duration)
			}
		}
	}
}

func TestMaxShown(t *testing.T) {
	tests := []struct {
		d    float64
		want int
	}{
		{10, 25},
		{0.4, 1},
		{0.3, 1},
		{1.6, 4},
		{2, 5},
		{0.8, 2},
	}
	for _, tt := range tests {
		if got := maxShown(tt.d, MinPageDuration); got != tt.want {
			t.Errorf("maxShown(%v) = %d, want %d", tt.d, got, tt.want)
		}
		if got := maxShown(tt.d, MinPageDuration); got > 1 && tt.d/float64(got) < MinPageDuration {
			t.Errorf("maxShown(%v) = %d gives a share below the minimum", tt.d, got)
		}
	}
}
