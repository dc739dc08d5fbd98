package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/unoanalysis/internal/analysis"
	"github.com/lox/unoanalysis/internal/dataset"
	"github.com/lox/unoanalysis/internal/statistics"
)

// PrintOverview prints the dataset exploration tables to the console.
func (r *Reporter) PrintOverview(ov dataset.Overview) {
	if r.config.Console == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Datos: %d filas, %d columnas", ov.Rows, len(ov.Columns))))
	sb.WriteString("\n")
	sb.WriteString(strings.Join(ov.Columns, ", "))
	sb.WriteString("\n\n")

	rows := make([][]string, 0, len(ov.Numeric))
	for _, col := range ov.Numeric {
		rows = append(rows, []string{
			col.Column,
			strconv.Itoa(col.Count),
			formatNumber(col.Mean, 3),
			formatNumber(col.Std, 3),
			formatNumber(col.Min, 3),
			formatNumber(col.Q1, 3),
			formatNumber(col.Q2, 3),
			formatNumber(col.Q3, 3),
			formatNumber(col.Max, 3),
		})
	}
	sb.WriteString(styledTable([]string{"Columna", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}, rows))
	sb.WriteString("\n\n")

	wins := make(map[string]float64, len(ov.WinsByAgent))
	for _, w := range ov.WinsByAgent {
		wins[w.Agent] = w.Count
	}
	rows = rows[:0]
	for _, c := range ov.AgentCounts {
		rows = append(rows, []string{c.Agent, formatNumber(c.Count, 0), formatNumber(wins[c.Agent], 0)})
	}
	sb.WriteString(styledTable([]string{"Agente", "Partidas", "Victorias"}, rows))
	sb.WriteString("\n")

	if len(ov.NullCounts) > 0 {
		parts := make([]string, len(ov.NullCounts))
		for i, n := range ov.NullCounts {
			parts[i] = fmt.Sprintf("%s=%d", n.Column, n.Count)
		}
		sb.WriteString(warningStyle.Render("Valores vacíos: " + strings.Join(parts, ", ")))
		sb.WriteString("\n")
	}

	fmt.Fprint(r.config.Console, sb.String())
}

// PrintResults prints the win rates, the significance tests and efficiency.
func (r *Reporter) PrintResults(res *analysis.Results) {
	if r.config.Console == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Tasas de victoria"))
	sb.WriteString("\n")

	rows := make([][]string, 0, len(res.WinStats))
	for _, w := range res.WinStats {
		rows = append(rows, []string{
			w.Agent,
			strconv.Itoa(w.Games),
			formatNumber(w.Wins, 0),
			formatNumber(w.RatePct, 2) + "%",
		})
	}
	sb.WriteString(styledTable([]string{"Agente", "Partidas", "Victorias", "Tasa"}, rows))
	sb.WriteString("\n")

	test := func(name string, t *statistics.TestResult) {
		if t == nil {
			return
		}
		sb.WriteString(fmt.Sprintf("%s: stat=%.4f, p=%.4f (%s)\n",
			name, t.Statistic, t.PValue, statistics.InterpretPValue(t.PValue, res.Alpha)))
	}
	test("ANOVA tiempos", res.TimeANOVA)
	test("Chi-cuadrado victorias", res.WinChiSquare)

	if len(res.Efficiency) > 0 {
		sb.WriteString(styledTable(efficiencyHeaders, efficiencyRows(res.Efficiency)))
		sb.WriteString("\n")
	}

	for _, e := range res.StepErrors {
		sb.WriteString(warningStyle.Render(e.Error()))
		sb.WriteString("\n")
	}

	fmt.Fprint(r.config.Console, sb.String())
}
