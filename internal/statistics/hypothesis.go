// Package statistics implements the descriptive summaries and significance
// tests used to compare agents: one-way ANOVA, chi-square independence and
// two-sample t-tests.
package statistics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// TestResult is the outcome of a significance test.
type TestResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	DF1       float64 `json:"df1"`
	DF2       float64 `json:"df2,omitempty"`
}

// Significant reports whether the p-value is below alpha. A NaN p-value is
// never significant.
func (r TestResult) Significant(alpha float64) bool {
	return r.PValue < alpha
}

// OneWayANOVA tests whether the means of groups differ. It returns the F
// statistic and its p-value from the F(k-1, N-k) distribution. NaN values are
// dropped from each group before the test.
func OneWayANOVA(groups []Sample) (TestResult, error) {
	if len(groups) < 2 {
		return TestResult{}, ErrInsufficientGroups
	}

	cleaned := make([]Sample, len(groups))
	total := 0
	var grandSum float64
	for i, g := range groups {
		clean, _ := g.Clean()
		if len(clean) == 0 {
			return TestResult{}, fmt.Errorf("group %d: %w", i, ErrInsufficientData)
		}
		cleaned[i] = clean
		total += len(clean)
		grandSum += clean.Sum()
	}

	k := len(cleaned)
	dfBetween := float64(k - 1)
	dfWithin := float64(total - k)
	if dfWithin <= 0 {
		return TestResult{}, fmt.Errorf("%d observations across %d groups: %w", total, k, ErrInsufficientData)
	}

	grandMean := grandSum / float64(total)
	var ssBetween, ssWithin float64
	for _, g := range cleaned {
		mean := g.Mean()
		d := mean - grandMean
		ssBetween += float64(len(g)) * d * d
		for _, v := range g {
			ssWithin += (v - mean) * (v - mean)
		}
	}

	result := TestResult{DF1: dfBetween, DF2: dfWithin}
	if ssWithin == 0 {
		// Zero within-group spread: any between-group difference is infinitely
		// significant, no difference is undefined.
		if ssBetween > 0 {
			result.Statistic = math.Inf(1)
			result.PValue = 0
		} else {
			result.Statistic = math.NaN()
			result.PValue = math.NaN()
		}
		return result, nil
	}

	f := (ssBetween / dfBetween) / (ssWithin / dfWithin)
	fDist := distuv.F{D1: dfBetween, D2: dfWithin}
	result.Statistic = f
	result.PValue = clampProbability(fDist.Survival(f))
	return result, nil
}

// ChiSquareIndependence runs Pearson's chi-square test of independence on an
// observed contingency table. Tables with one degree of freedom use Yates'
// continuity correction. A zero expected frequency yields
// ErrDegenerateContingency.
func ChiSquareIndependence(observed [][]float64) (TestResult, error) {
	rows := len(observed)
	if rows == 0 {
		return TestResult{}, ErrInsufficientData
	}
	cols := len(observed[0])
	for _, row := range observed {
		if len(row) != cols {
			return TestResult{}, ErrInvalidTable
		}
	}
	if cols == 0 {
		return TestResult{}, ErrInsufficientData
	}

	rowTotals := make([]float64, rows)
	colTotals := make([]float64, cols)
	var total float64
	for i, row := range observed {
		for j, v := range row {
			rowTotals[i] += v
			colTotals[j] += v
			total += v
		}
	}
	if total == 0 {
		return TestResult{}, ErrDegenerateContingency
	}

	expected := make([][]float64, rows)
	for i := range expected {
		expected[i] = make([]float64, cols)
		for j := range expected[i] {
			e := rowTotals[i] * colTotals[j] / total
			if e == 0 {
				return TestResult{}, fmt.Errorf("expected[%d][%d] is zero: %w", i, j, ErrDegenerateContingency)
			}
			expected[i][j] = e
		}
	}

	dof := float64((rows - 1) * (cols - 1))
	if dof == 0 {
		// Observed equals expected: nothing to test.
		return TestResult{Statistic: 0, PValue: 1, DF1: 0}, nil
	}

	var chi2 float64
	for i := range observed {
		for j := range observed[i] {
			o := observed[i][j]
			e := expected[i][j]
			if dof == 1 {
				diff := e - o
				o += math.Copysign(math.Min(0.5, math.Abs(diff)), diff)
			}
			chi2 += (o - e) * (o - e) / e
		}
	}

	dist := distuv.ChiSquared{K: dof}
	return TestResult{
		Statistic: chi2,
		PValue:    clampProbability(dist.Survival(chi2)),
		DF1:       dof,
	}, nil
}

// TTestIndependent runs Student's two-sample t-test assuming equal variances.
// Degenerate inputs propagate as NaN (no spread and equal means) or as an
// infinite statistic with p = 0 (no spread, different means).
func TTestIndependent(a, b Sample) TestResult {
	a, _ = a.Clean()
	b, _ = b.Clean()

	n1, n2 := len(a), len(b)
	df := float64(n1 + n2 - 2)
	if n1 == 0 || n2 == 0 || df <= 0 {
		return TestResult{Statistic: math.NaN(), PValue: math.NaN(), DF1: df}
	}

	m1, m2 := a.Mean(), b.Mean()
	var ss float64
	for _, v := range a {
		ss += (v - m1) * (v - m1)
	}
	for _, v := range b {
		ss += (v - m2) * (v - m2)
	}
	pooledVar := ss / df
	se := math.Sqrt(pooledVar * (1/float64(n1) + 1/float64(n2)))
	diff := m1 - m2

	if se == 0 {
		if diff == 0 {
			return TestResult{Statistic: math.NaN(), PValue: math.NaN(), DF1: df}
		}
		return TestResult{Statistic: math.Copysign(math.Inf(1), diff), PValue: 0, DF1: df}
	}

	t := diff / se
	return TestResult{Statistic: t, PValue: calculatePValue(t, df), DF1: df}
}

// calculatePValue returns the two-tailed p-value of t under Student's t with df
// degrees of freedom.
func calculatePValue(tStat, df float64) float64 {
	if math.IsNaN(tStat) || df <= 0 {
		return math.NaN()
	}

	tDist := distuv.StudentsT{
		Mu:    0,
		Sigma: 1,
		Nu:    df,
	}

	// P(|T| > |t|) = 2 * P(T > |t|)
	return clampProbability(2 * tDist.Survival(math.Abs(tStat)))
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return p
	case p > 1:
		return 1
	case p < 0:
		return 0
	default:
		return p
	}
}

// InterpretPValue returns a human-readable interpretation of a p-value.
func InterpretPValue(p float64, alpha float64) string {
	switch {
	case math.IsNaN(p):
		return "undefined"
	case p < 0.001:
		return "highly significant"
	case p < 0.01:
		return "very significant"
	case p < alpha:
		return "significant"
	case p < 0.10:
		return "marginally significant"
	default:
		return "not significant"
	}
}
