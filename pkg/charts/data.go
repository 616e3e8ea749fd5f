// Package charts prepares growth time samples for plotting and renders
// them as PNG images.
package charts

import (
	"slices"
	"strconv"
)

// DefaultBins is the number of histogram bins used by the web layer.
const DefaultBins = 5

// Frequency is how often one value occurs in a sample set.
type Frequency struct {
	Value int `json:"value"`
	Count int `json:"count"`
}

// Bin is one histogram bin. Bins are half-open [Min, Max) except the last,
// which also includes Max.
type Bin struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Frequencies returns one entry per distinct value, ascending by value.
func Frequencies(samples []int) []Frequency {
	counts := make(map[int]int, len(samples))
	for _, s := range samples {
		counts[s]++
	}

	out := make([]Frequency, 0, len(counts))
	for v, c := range counts {
		out = append(out, Frequency{Value: v, Count: c})
	}
	slices.SortFunc(out, func(a, b Frequency) int { return a.Value - b.Value })
	return out
}

// FrequencySeries splits frequencies into bar labels and heights.
func FrequencySeries(freqs []Frequency) ([]string, []float64) {
	labels := make([]string, len(freqs))
	values := make([]float64, len(freqs))
	for i, f := range freqs {
		labels[i] = strconv.Itoa(f.Value)
		values[i] = float64(f.Count)
	}
	return labels, values
}

// Histogram groups samples into n equal-width bins spanning [min, max].
// When every sample is equal the span is widened to 1 so bins keep a
// positive width. Returns nil for empty samples or n <= 0.
func Histogram(samples []int, n int) []Bin {
	if len(samples) == 0 || n <= 0 {
		return nil
	}

	lo := float64(slices.Min(samples))
	hi := float64(slices.Max(samples))
	if hi == lo {
		hi = lo + 1
	}
	width := (hi - lo) / float64(n)

	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Min = lo + float64(i)*width
		bins[i].Max = lo + float64(i+1)*width
	}
	bins[n-1].Max = hi

	for _, s := range samples {
		idx := int((float64(s) - lo) / width)
		if idx >= n {
			idx = n - 1
		}
		bins[idx].Count++
	}
	return bins
}
