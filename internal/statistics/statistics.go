package statistics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of one numeric column for one agent.
type Summary struct {
	Count   int     `json:"count"`
	Missing int     `json:"missing,omitempty"` // NaN cells skipped
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Median  float64 `json:"median"`
}

// Sample is a set of observations. Methods ignore NaN values, matching how
// spreadsheet and dataframe tooling treats empty cells.
type Sample []float64

// Clean returns the non-NaN observations and how many were dropped.
func (s Sample) Clean() (Sample, int) {
	clean := make(Sample, 0, len(s))
	for _, v := range s {
		if math.IsNaN(v) {
			continue
		}
		clean = append(clean, v)
	}
	return clean, len(s) - len(clean)
}

// Len returns the number of non-NaN observations.
func (s Sample) Len() int {
	clean, _ := s.Clean()
	return len(clean)
}

// Sum returns the sum of all non-NaN observations.
func (s Sample) Sum() float64 {
	var sum float64
	for _, v := range s {
		if !math.IsNaN(v) {
			sum += v
		}
	}
	return sum
}

// Mean returns the arithmetic mean, or NaN for an empty sample.
func (s Sample) Mean() float64 {
	clean, _ := s.Clean()
	if len(clean) == 0 {
		return math.NaN()
	}
	return stat.Mean(clean, nil)
}

// Variance returns the unbiased sample variance. It is NaN with fewer than
// two observations.
func (s Sample) Variance() float64 {
	clean, _ := s.Clean()
	if len(clean) < 2 {
		return math.NaN()
	}
	v := stat.Variance(clean, nil)
	if v < 0 {
		// Rounding on constant samples can leave a tiny negative value.
		return 0
	}
	return v
}

// StdDev returns the sample standard deviation.
func (s Sample) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the smallest observation, or NaN for an empty sample.
func (s Sample) Min() float64 {
	clean, _ := s.Clean()
	if len(clean) == 0 {
		return math.NaN()
	}
	m := clean[0]
	for _, v := range clean[1:] {
		m = math.Min(m, v)
	}
	return m
}

// Max returns the largest observation, or NaN for an empty sample.
func (s Sample) Max() float64 {
	clean, _ := s.Clean()
	if len(clean) == 0 {
		return math.NaN()
	}
	m := clean[0]
	for _, v := range clean[1:] {
		m = math.Max(m, v)
	}
	return m
}

// Median returns the median; even-sized samples average the two middle values.
func (s Sample) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the value at p (0.0 to 1.0) using linear interpolation
// between closest ranks.
func (s Sample) Percentile(p float64) float64 {
	sorted := s.sorted()
	if len(sorted) == 0 {
		return math.NaN()
	}

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func (s Sample) sorted() []float64 {
	clean, _ := s.Clean()
	sorted := make([]float64, len(clean))
	copy(sorted, clean)
	sort.Float64s(sorted)
	return sorted
}

// Describe computes the Summary of s.
func Describe(s Sample) Summary {
	clean, missing := s.Clean()
	return Summary{
		Count:   len(clean),
		Missing: missing,
		Mean:    clean.Mean(),
		Std:     clean.StdDev(),
		Min:     clean.Min(),
		Max:     clean.Max(),
		Median:  clean.Median(),
	}
}

// Quartiles holds the describe()-style overview of a numeric column.
type Quartiles struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Q1    float64 `json:"q1"`
	Q2    float64 `json:"q2"`
	Q3    float64 `json:"q3"`
	Max   float64 `json:"max"`
}

// DescribeQuartiles summarises s with count, mean, std, min, quartiles and max.
func DescribeQuartiles(s Sample) Quartiles {
	clean, _ := s.Clean()
	return Quartiles{
		Count: len(clean),
		Mean:  clean.Mean(),
		Std:   clean.StdDev(),
		Min:   clean.Min(),
		Q1:    clean.Percentile(0.25),
		Q2:    clean.Percentile(0.5),
		Q3:    clean.Percentile(0.75),
		Max:   clean.Max(),
	}
}

// CorrelationMatrix returns the Pearson correlation between every pair of
// columns. Rows where either value is NaN are dropped pairwise; a constant
// column correlates as NaN.
func CorrelationMatrix(columns []Sample) [][]float64 {
	n := len(columns)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			r := pairwiseCorrelation(columns[i], columns[j])
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}
	return matrix
}

func pairwiseCorrelation(x, y Sample) float64 {
	size := min(len(x), len(y))
	xs := make([]float64, 0, size)
	ys := make([]float64, 0, size)
	for k := 0; k < size; k++ {
		if math.IsNaN(x[k]) || math.IsNaN(y[k]) {
			continue
		}
		xs = append(xs, x[k])
		ys = append(ys, y[k])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	if Sample(xs).Variance() == 0 || Sample(ys).Variance() == 0 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}
