package core

var palette = []string{
	"#ffd700", "#ff6b6b", "#4ecdc4", "#45b7d1", "#f9ca24",
	"#f0932b", "#eb4d4b", "#6c5ce7", "#a29bfe", "#fd79a8",
	"#e17055", "#00b894", "#00cec9", "#0984e3", "#6c5ce7",
}

// Palette returns n colours, cycling through the fixed palette.
func Palette(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = palette[i%len(palette)]
	}
	return out
}

// ChartSeries is a labelled series ready for Chart.js.
type ChartSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors,omitempty"`
}

// Charts carries both dashboard charts. The browser destroys and recreates
// its chart instances whenever it receives a new value.
type Charts struct {
	Types   ChartSeries `json:"types"`
	Monthly ChartSeries `json:"monthly"`
}

// BuildCharts derives the type doughnut and monthly volume line series.
func BuildCharts(visible []Transaction) Charts {
	dist := TypeDistribution(visible)
	types := ChartSeries{
		Labels: make([]string, len(dist)),
		Values: make([]float64, len(dist)),
		Colors: Palette(len(dist)),
	}
	for i, tc := range dist {
		types.Labels[i] = tc.Type
		types.Values[i] = float64(tc.Count)
	}

	vol := MonthlyVolume(visible)
	monthly := ChartSeries{
		Labels: make([]string, len(vol)),
		Values: make([]float64, len(vol)),
	}
	for i, mv := range vol {
		monthly.Labels[i] = mv.Month
		monthly.Values[i] = mv.Volume.Francs()
	}
	return Charts{Types: types, Monthly: monthly}
}
