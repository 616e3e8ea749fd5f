package berries

import "github.com/Sternrassler/berry-stats/pkg/stats"

// CatalogEntry is one item of the berry listing.
type CatalogEntry struct {
	Name      string `json:"name"`
	DetailURL string `json:"url"`
}

// detailRecord holds the fields read from a berry detail document.
// Pointers distinguish absent from zero.
type detailRecord struct {
	Name       *string `json:"name"`
	GrowthTime *int    `json:"growth_time"`
}

// Summary is the growth time report over the whole catalog.
type Summary struct {
	Names               []string `json:"berries_names"`
	MinGrowthTime       int      `json:"min_growth_time"`
	MaxGrowthTime       int      `json:"max_growth_time"`
	MeanGrowthTime      float64  `json:"mean_growth_time"`
	MedianGrowthTime    float64  `json:"median_growth_time"`
	VarianceGrowthTime  float64  `json:"variance_growth_time"`
	FrequencyGrowthTime int      `json:"frequency_growth_time"`
}

func newSummary(names []string, d stats.Description) *Summary {
	return &Summary{
		Names:               names,
		MinGrowthTime:       d.Min,
		MaxGrowthTime:       d.Max,
		MeanGrowthTime:      d.Mean,
		MedianGrowthTime:    d.Median,
		VarianceGrowthTime:  d.Variance,
		FrequencyGrowthTime: d.Mode,
	}
}
