package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/lox/unoanalysis/internal/analysis"
	"github.com/lox/unoanalysis/internal/dataset"
	"github.com/lox/unoanalysis/internal/statistics"
)

// maxListedViolations caps the data issues spelled out in the summary.
const maxListedViolations = 20

// WriteSummary writes the plain-text analysis summary: win rates, the time
// and turn tables and the significance tests, followed by pairwise
// comparisons, efficiency, failed steps and data issues.
func WriteSummary(w io.Writer, res *analysis.Results, violations []dataset.Violation) error {
	var sb strings.Builder

	section := func(title string) {
		sb.WriteString(title + "\n")
		sb.WriteString(strings.Repeat("-", 30) + "\n")
	}

	sb.WriteString("RESUMEN ANÁLISIS AGENTES UNO\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	section("TASAS DE VICTORIA")
	for _, rate := range res.WinRates {
		sb.WriteString(fmt.Sprintf("%s: %.2f%% victorias\n", rate.Agent, rate.Value))
	}

	sb.WriteString("\n")
	section("ESTADÍSTICAS DE TIEMPO")
	sb.WriteString(plainTable(summaryHeaders, summaryRows(res.TimeStats, 6)))

	sb.WriteString("\n\n")
	section("ESTADÍSTICAS DE TURNOS")
	sb.WriteString(plainTable(summaryHeaders, summaryRows(res.TurnStats, 2)))

	sb.WriteString("\n\n")
	section("PRUEBAS ESTADÍSTICAS")
	if t := res.TimeANOVA; t != nil {
		sb.WriteString(fmt.Sprintf("ANOVA Tiempos: F=%.4f, p=%.4f\n", t.Statistic, t.PValue))
		sb.WriteString(verdict(*t, res.Alpha))
	}
	if t := res.WinChiSquare; t != nil {
		sb.WriteString(fmt.Sprintf("Chi-cuadrado Victorias: χ²=%.4f, p=%.4f\n", t.Statistic, t.PValue))
		sb.WriteString(verdict(*t, res.Alpha))
	}

	if len(res.Comparisons) > 0 {
		sb.WriteString("\n")
		section("COMPARACIONES ENTRE AGENTES")
		for _, c := range res.Comparisons {
			sb.WriteString(fmt.Sprintf("%s vs %s:\n", c.AgentA, c.AgentB))
			sb.WriteString(fmt.Sprintf("  Victorias: t=%.4f, p=%.4f (%s)\n",
				c.Wins.Statistic, c.Wins.PValue, statistics.InterpretPValue(c.Wins.PValue, res.Alpha)))
			sb.WriteString(fmt.Sprintf("  Tiempos: t=%.4f, p=%.4f (%s)\n",
				c.Time.Statistic, c.Time.PValue, statistics.InterpretPValue(c.Time.PValue, res.Alpha)))
		}
	}

	if len(res.Efficiency) > 0 {
		sb.WriteString("\n")
		section("EFICIENCIA")
		sb.WriteString(plainTable(efficiencyHeaders, efficiencyRows(res.Efficiency)))
		sb.WriteString("\n")
	}

	if len(res.StepErrors) > 0 {
		sb.WriteString("\n")
		section("PASOS NO COMPLETADOS")
		for _, e := range res.StepErrors {
			sb.WriteString(e.Error() + "\n")
		}
	}

	if len(violations) > 0 {
		sb.WriteString("\n")
		section("INCIDENCIAS EN LOS DATOS")
		for i, v := range violations {
			if i == maxListedViolations {
				sb.WriteString(fmt.Sprintf("... y %d más\n", len(violations)-maxListedViolations))
				break
			}
			sb.WriteString(v.String() + "\n")
		}
	}

	_, err := fmt.Fprint(w, sb.String())
	return err
}

func verdict(t statistics.TestResult, alpha float64) string {
	if t.Significant(alpha) {
		return "→ Diferencia significativa\n"
	}
	return "→ Sin diferencia significativa\n"
}
