package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"

	"github.com/lox/unoanalysis/internal/analysis"
	"github.com/lox/unoanalysis/internal/dataset"
	"github.com/lox/unoanalysis/internal/statistics"
)

// Export file names.
const (
	ExportJSON    = "resultados.json"
	ExportXLSX    = "resultados.xlsx"
	ExportParquet = "datos_procesados.parquet"
)

// number is a float64 that encodes NaN and infinities as JSON null.
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// resultsDocument is the JSON export: run metadata plus every result group.
type resultsDocument struct {
	RunID    string           `json:"run_id"`
	Metadata metadataDocument `json:"metadata"`
	Results  resultsBody      `json:"results"`
	Issues   []violationDoc   `json:"data_issues,omitempty"`
}

type metadataDocument struct {
	Input       string    `json:"input"`
	Rows        int       `json:"rows"`
	TimeUnit    string    `json:"input_time_unit"`
	StartedAt   time.Time `json:"started_at"`
	GeneratedAt time.Time `json:"generated_at"`
}

type resultsBody struct {
	Agents       []string        `json:"agents"`
	Alpha        number          `json:"alpha"`
	WinStats     []winStatDoc    `json:"win_stats"`
	WinRates     []agentValueDoc `json:"win_rates"`
	TimeStats    []summaryDoc    `json:"time_stats"`
	TurnStats    []summaryDoc    `json:"turn_stats"`
	TimeANOVA    *testDoc        `json:"time_anova,omitempty"`
	WinChiSquare *testDoc        `json:"win_chi_square,omitempty"`
	Comparisons  []comparisonDoc `json:"comparisons"`
	Efficiency   []efficiencyDoc `json:"efficiency"`
	StepErrors   []stepErrorDoc  `json:"step_errors,omitempty"`
}

type winStatDoc struct {
	Agent   string `json:"agent"`
	Games   int    `json:"games"`
	Wins    number `json:"wins"`
	Mean    number `json:"mean"`
	Std     number `json:"std"`
	RatePct number `json:"rate_pct"`
}

type agentValueDoc struct {
	Agent string `json:"agent"`
	Value number `json:"value"`
}

type summaryDoc struct {
	Agent   string `json:"agent"`
	Count   int    `json:"count"`
	Missing int    `json:"missing,omitempty"`
	Mean    number `json:"mean"`
	Std     number `json:"std"`
	Min     number `json:"min"`
	Max     number `json:"max"`
	Median  number `json:"median"`
}

type testDoc struct {
	Statistic   number `json:"statistic"`
	PValue      number `json:"p_value"`
	DF1         number `json:"df1"`
	DF2         number `json:"df2,omitempty"`
	Significant bool   `json:"significant"`
}

type comparisonDoc struct {
	AgentA string  `json:"agent_a"`
	AgentB string  `json:"agent_b"`
	Wins   testDoc `json:"wins"`
	Time   testDoc `json:"time"`
}

type efficiencyDoc struct {
	Agent           string `json:"agent"`
	MeanWins        number `json:"mean_wins"`
	MeanTime        number `json:"mean_time_ms"`
	MeanTurns       number `json:"mean_turns"`
	TimeEfficiency  number `json:"time_efficiency"`
	TurnsEfficiency number `json:"turns_efficiency"`
	TimeNormalized  number `json:"time_normalized"`
	TurnsNormalized number `json:"turns_normalized"`
	TimeUndefined   bool   `json:"time_undefined,omitempty"`
	TurnsUndefined  bool   `json:"turns_undefined,omitempty"`
}

type stepErrorDoc struct {
	Step  analysis.Step `json:"step"`
	Error string        `json:"error"`
}

type violationDoc struct {
	Kind   dataset.ViolationKind `json:"kind"`
	Row    int                   `json:"row"`
	Column string                `json:"column,omitempty"`
	Value  string                `json:"value,omitempty"`
}

func newTestDoc(t statistics.TestResult, alpha float64) testDoc {
	return testDoc{
		Statistic:   number(t.Statistic),
		PValue:      number(t.PValue),
		DF1:         number(t.DF1),
		DF2:         number(t.DF2),
		Significant: t.Significant(alpha),
	}
}

func summaryDocs(stats []analysis.AgentSummary) []summaryDoc {
	out := make([]summaryDoc, len(stats))
	for i, s := range stats {
		out[i] = summaryDoc{
			Agent:   s.Agent,
			Count:   s.Count,
			Missing: s.Missing,
			Mean:    number(s.Mean),
			Std:     number(s.Std),
			Min:     number(s.Min),
			Max:     number(s.Max),
			Median:  number(s.Median),
		}
	}
	return out
}

// newResultsDocument converts the results into their JSON form.
func newResultsDocument(res *analysis.Results, run Run, rows int) resultsDocument {
	body := resultsBody{
		Agents:      res.Agents,
		Alpha:       number(res.Alpha),
		TimeStats:   summaryDocs(res.TimeStats),
		TurnStats:   summaryDocs(res.TurnStats),
		WinStats:    make([]winStatDoc, len(res.WinStats)),
		WinRates:    make([]agentValueDoc, len(res.WinRates)),
		Comparisons: make([]comparisonDoc, len(res.Comparisons)),
		Efficiency:  make([]efficiencyDoc, len(res.Efficiency)),
	}
	for i, w := range res.WinStats {
		body.WinStats[i] = winStatDoc{
			Agent:   w.Agent,
			Games:   w.Games,
			Wins:    number(w.Wins),
			Mean:    number(w.Mean),
			Std:     number(w.Std),
			RatePct: number(w.RatePct),
		}
	}
	for i, v := range res.WinRates {
		body.WinRates[i] = agentValueDoc{Agent: v.Agent, Value: number(v.Value)}
	}
	if res.TimeANOVA != nil {
		t := newTestDoc(*res.TimeANOVA, res.Alpha)
		body.TimeANOVA = &t
	}
	if res.WinChiSquare != nil {
		t := newTestDoc(*res.WinChiSquare, res.Alpha)
		body.WinChiSquare = &t
	}
	for i, c := range res.Comparisons {
		body.Comparisons[i] = comparisonDoc{
			AgentA: c.AgentA,
			AgentB: c.AgentB,
			Wins:   newTestDoc(c.Wins, res.Alpha),
			Time:   newTestDoc(c.Time, res.Alpha),
		}
	}
	for i, e := range res.Efficiency {
		body.Efficiency[i] = efficiencyDoc{
			Agent:           e.Agent,
			MeanWins:        number(e.MeanWins),
			MeanTime:        number(e.MeanTime),
			MeanTurns:       number(e.MeanTurns),
			TimeEfficiency:  number(e.TimeEfficiency),
			TurnsEfficiency: number(e.TurnsEfficiency),
			TimeNormalized:  number(e.TimeNormalized),
			TurnsNormalized: number(e.TurnsNormalized),
			TimeUndefined:   e.TimeUndefined,
			TurnsUndefined:  e.TurnsUndefined,
		}
	}
	for _, e := range res.StepErrors {
		body.StepErrors = append(body.StepErrors, stepErrorDoc{Step: e.Step, Error: e.Err.Error()})
	}

	doc := resultsDocument{
		RunID: run.ID,
		Metadata: metadataDocument{
			Input:       run.Input,
			Rows:        rows,
			TimeUnit:    run.TimeUnit,
			StartedAt:   run.StartedAt,
			GeneratedAt: run.GeneratedAt,
		},
		Results: body,
	}
	for _, v := range run.Violations {
		doc.Issues = append(doc.Issues, violationDoc{Kind: v.Kind, Row: v.Row, Column: v.Column, Value: v.Value})
	}
	return doc
}

func writeJSON(w io.Writer, doc resultsDocument) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// Spreadsheet sheets, one per metric group.
const (
	sheetWins        = "Victorias"
	sheetTimes       = "Tiempos"
	sheetTurns       = "Turnos"
	sheetTests       = "Pruebas"
	sheetComparisons = "Comparaciones"
	sheetEfficiency  = "Eficiencia"
	sheetIssues      = "Incidencias"
)

// writeXLSX writes the results as a workbook with one sheet per metric group.
func writeXLSX(w io.Writer, res *analysis.Results, violations []dataset.Violation) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	sheets := []struct {
		name    string
		headers []any
		rows    [][]any
	}{
		{sheetWins, []any{"Agente", "Partidas", "Victorias", "Media", "Desv. típica", "Tasa (%)"}, winRows(res)},
		{sheetTimes, []any{"Agente", "N", "Vacías", "Media", "Desv. típica", "Mín", "Máx", "Mediana"}, summarySheetRows(res.TimeStats)},
		{sheetTurns, []any{"Agente", "N", "Vacías", "Media", "Desv. típica", "Mín", "Máx", "Mediana"}, summarySheetRows(res.TurnStats)},
		{sheetTests, []any{"Prueba", "Estadístico", "p", "gl1", "gl2", "Significativo"}, testRows(res)},
		{sheetComparisons, []any{"Agente A", "Agente B", "t victorias", "p victorias", "Sig. victorias", "t tiempos", "p tiempos", "Sig. tiempos"}, comparisonRows(res)},
		{sheetEfficiency, []any{"Agente", "Victorias medias", "Tiempo medio (ms)", "Turnos medios", "Ef. tiempo", "Ef. turnos", "Ef. tiempo (%)", "Ef. turnos (%)"}, efficiencySheetRows(res)},
		{sheetIssues, []any{"Tipo", "Fila", "Columna", "Valor"}, issueRows(violations)},
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return err
		}

		headers := sheet.headers
		if err := f.SetSheetRow(sheet.name, "A1", &headers); err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet.name, "A1", last, bold); err != nil {
			return err
		}

		for r, row := range sheet.rows {
			start, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet.name, start, &row); err != nil {
				return fmt.Errorf("sheet %s row %d: %w", sheet.name, r+2, err)
			}
		}
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

// cell converts undefined values into empty cells.
func cell(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func winRows(res *analysis.Results) [][]any {
	rows := make([][]any, 0, len(res.WinStats))
	for _, w := range res.WinStats {
		rows = append(rows, []any{w.Agent, w.Games, cell(w.Wins), cell(w.Mean), cell(w.Std), cell(w.RatePct)})
	}
	return rows
}

func summarySheetRows(stats []analysis.AgentSummary) [][]any {
	rows := make([][]any, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []any{s.Agent, s.Count, s.Missing, cell(s.Mean), cell(s.Std), cell(s.Min), cell(s.Max), cell(s.Median)})
	}
	return rows
}

func testRows(res *analysis.Results) [][]any {
	var rows [][]any
	add := func(name string, t *statistics.TestResult) {
		if t == nil {
			return
		}
		rows = append(rows, []any{name, cell(t.Statistic), cell(t.PValue), cell(t.DF1), cell(t.DF2), t.Significant(res.Alpha)})
	}
	add("ANOVA tiempos", res.TimeANOVA)
	add("Chi-cuadrado victorias", res.WinChiSquare)
	return rows
}

func comparisonRows(res *analysis.Results) [][]any {
	rows := make([][]any, 0, len(res.Comparisons))
	for _, c := range res.Comparisons {
		rows = append(rows, []any{
			c.AgentA, c.AgentB,
			cell(c.Wins.Statistic), cell(c.Wins.PValue), c.WinsSignificant,
			cell(c.Time.Statistic), cell(c.Time.PValue), c.TimeSignificant,
		})
	}
	return rows
}

func efficiencySheetRows(res *analysis.Results) [][]any {
	rows := make([][]any, 0, len(res.Efficiency))
	for _, e := range res.Efficiency {
		rows = append(rows, []any{
			e.Agent, cell(e.MeanWins), cell(e.MeanTime), cell(e.MeanTurns),
			cell(e.TimeEfficiency), cell(e.TurnsEfficiency),
			cell(e.TimeNormalized), cell(e.TurnsNormalized),
		})
	}
	return rows
}

func issueRows(violations []dataset.Violation) [][]any {
	rows := make([][]any, 0, len(violations))
	for _, v := range violations {
		rows = append(rows, []any{string(v.Kind), v.Row, v.Column, v.Value})
	}
	return rows
}

// processedRow is one record of the Parquet export.
type processedRow struct {
	AgentName       string  `parquet:"agent_name"`
	GameID          *int64  `parquet:"game_id,optional"`
	Wins            float64 `parquet:"wins"`
	ExecutionTimeMs float64 `parquet:"execution_time_ms"`
	TotalTurns      float64 `parquet:"total_turns"`
	WinRate         float64 `parquet:"win_rate"`
}

// writeParquet writes the prepared records with their agent's win rate.
func writeParquet(w io.Writer, ds *dataset.Dataset, res *analysis.Results) error {
	matches := ds.Matches()
	rows := make([]processedRow, len(matches))
	for i, m := range matches {
		rate, ok := res.WinRate(m.AgentName)
		if !ok {
			rate = math.NaN()
		}
		var game *int64
		if m.HasGameID() {
			id := int64(m.GameID)
			game = &id
		}
		rows[i] = processedRow{
			AgentName:       m.AgentName,
			GameID:          game,
			Wins:            m.Wins,
			ExecutionTimeMs: m.ExecutionTimeMs,
			TotalTurns:      m.TotalTurns,
			WinRate:         rate,
		}
	}

	writer := parquet.NewGenericWriter[processedRow](w)
	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}
