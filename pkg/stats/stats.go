// Package stats reduces integer samples to descriptive statistics.
package stats

import (
	"errors"
	"fmt"

	mstats "github.com/montanaflynn/stats"
)

// Precision is the number of decimals Mean, Median and Variance are rounded to.
const Precision = 2

// ErrEmptyDataset is returned when there is nothing to describe.
var ErrEmptyDataset = errors.New("empty dataset")

// Description is the reduction of a sample set.
type Description struct {
	Count    int     `json:"count"`
	Min      int     `json:"min"`
	Max      int     `json:"max"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Variance float64 `json:"variance"`
	Mode     int     `json:"mode"`
}

// Describe computes min, max, mean, median, sample variance and mode over
// samples. Mean, Median and Variance are rounded half away from zero to
// Precision decimals. Variance is 0 for a single sample. The samples slice
// is not modified.
func Describe(samples []int) (Description, error) {
	if len(samples) == 0 {
		return Description{}, ErrEmptyDataset
	}

	data := mstats.LoadRawData(samples)
	d := Description{
		Count: len(samples),
		Mode:  Mode(samples),
	}

	minV, err := data.Min()
	if err != nil {
		return Description{}, fmt.Errorf("min: %w", err)
	}
	maxV, err := data.Max()
	if err != nil {
		return Description{}, fmt.Errorf("max: %w", err)
	}
	d.Min, d.Max = int(minV), int(maxV)

	if d.Mean, err = rounded(data.Mean()); err != nil {
		return Description{}, fmt.Errorf("mean: %w", err)
	}
	// Median sorts a copy.
	if d.Median, err = rounded(data.Median()); err != nil {
		return Description{}, fmt.Errorf("median: %w", err)
	}
	if d.Count > 1 {
		if d.Variance, err = rounded(data.SampleVariance()); err != nil {
			return Description{}, fmt.Errorf("variance: %w", err)
		}
	}

	return d, nil
}

// Mode returns the most frequent value. On a tie the value that appears
// first in samples wins. Mode of an empty slice is 0.
func Mode(samples []int) int {
	counts := make(map[int]int, len(samples))
	for _, s := range samples {
		counts[s]++
	}

	var mode, best int
	for _, s := range samples {
		if c := counts[s]; c > best {
			mode, best = s, c
		}
	}
	return mode
}

func rounded(v float64, err error) (float64, error) {
	if err != nil {
		return 0, err
	}
	return mstats.Round(v, Precision)
}
