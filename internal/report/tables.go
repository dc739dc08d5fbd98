package report

import (
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lox/unoanalysis/internal/analysis"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	plainCell = lipgloss.NewStyle().Padding(0, 1)
)

// plainTable renders an ASCII table without color, for files.
func plainTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.ASCIIBorder()).
		StyleFunc(func(_, _ int) lipgloss.Style { return plainCell }).
		Headers(headers...).
		Rows(rows...).
		Render()
}

// styledTable renders a colored table for the terminal.
func styledTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}

var summaryHeaders = []string{"Agente", "mean", "std", "min", "max", "median"}

func summaryRows(stats []analysis.AgentSummary, prec int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Agent,
			formatNumber(s.Mean, prec),
			formatNumber(s.Std, prec),
			formatNumber(s.Min, prec),
			formatNumber(s.Max, prec),
			formatNumber(s.Median, prec),
		})
	}
	return rows
}

var efficiencyHeaders = []string{"Agente", "Eficiencia tiempo (%)", "Eficiencia turnos (%)"}

func efficiencyRows(effs []analysis.Efficiency) [][]string {
	rows := make([][]string, 0, len(effs))
	for _, e := range effs {
		timeCell := formatNumber(e.TimeNormalized, 2)
		if e.TimeUndefined {
			timeCell = "indefinida"
		}
		turnsCell := formatNumber(e.TurnsNormalized, 2)
		if e.TurnsUndefined {
			turnsCell = "indefinida"
		}
		rows = append(rows, []string{e.Agent, timeCell, turnsCell})
	}
	return rows
}

// formatNumber prints v with prec decimals; NaN prints as NaN.
func formatNumber(v float64, prec int) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}
