package report

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lox/unoanalysis/internal/analysis"
	"github.com/lox/unoanalysis/internal/dataset"
)

func TestNumberMarshalsUndefinedAsNull(t *testing.T) {
	out, err := json.Marshal([]number{1.5, number(math.NaN()), number(math.Inf(1))})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null, null]`, string(out))
}

func TestWriteJSON(t *testing.T) {
	ds := dataset.New(append(matchesFor("Random", 10, 2, 1), matchesFor("Solo", 1, 1, 2)...))
	res := analysis.NewAggregator().Compute(ds)

	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	run := Run{
		ID:          "run-1",
		Input:       "data/uno_agents_detailed.csv",
		TimeUnit:    "s",
		StartedAt:   started,
		GeneratedAt: started.Add(2 * time.Second),
		Violations:  []dataset.Violation{{Kind: dataset.ViolationMissingValue, Row: 3, Column: dataset.ColTime}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, newResultsDocument(res, run, ds.Len())))

	var doc struct {
		RunID    string `json:"run_id"`
		Metadata struct {
			Rows        int       `json:"rows"`
			TimeUnit    string    `json:"input_time_unit"`
			GeneratedAt time.Time `json:"generated_at"`
		} `json:"metadata"`
		Results struct {
			Agents   []string         `json:"agents"`
			WinStats []map[string]any `json:"win_stats"`
			WinRates []struct {
				Agent string  `json:"agent"`
				Value float64 `json:"value"`
			} `json:"win_rates"`
			TimeANOVA   map[string]any `json:"time_anova"`
			Comparisons []any          `json:"comparisons"`
		} `json:"results"`
		Issues []map[string]any `json:"data_issues"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, 11, doc.Metadata.Rows)
	assert.Equal(t, "s", doc.Metadata.TimeUnit)
	assert.True(t, doc.Metadata.GeneratedAt.Equal(started.Add(2*time.Second)))

	assert.Equal(t, []string{"Random", "Solo"}, doc.Results.Agents)
	require.Len(t, doc.Results.WinRates, 2)
	assert.InDelta(t, 20.0, doc.Results.WinRates[0].Value, 1e-9)

	require.Len(t, doc.Results.WinStats, 2)
	assert.Contains(t, doc.Results.WinStats[1], "std")
	assert.Nil(t, doc.Results.WinStats[1]["std"], "single record std encodes as null")

	assert.NotNil(t, doc.Results.TimeANOVA)
	assert.Len(t, doc.Results.Comparisons, 1)

	require.Len(t, doc.Issues, 1)
	assert.Equal(t, "missing_value", doc.Issues[0]["kind"])
}

func TestWriteXLSX(t *testing.T) {
	_, res := scenario(t)
	violations := []dataset.Violation{{Kind: dataset.ViolationNegativeTime, Row: 0, Column: dataset.ColTime, Value: "-1"}}

	var buf bytes.Buffer
	require.NoError(t, writeXLSX(&buf, res, violations))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		sheetWins, sheetTimes, sheetTurns, sheetTests, sheetComparisons, sheetEfficiency, sheetIssues,
	}, f.GetSheetList())

	rows, err := f.GetRows(sheetWins)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Agente", rows[0][0])
	assert.Equal(t, "Random", rows[1][0])
	assert.Equal(t, "100", rows[1][1])
	assert.Equal(t, "20", rows[1][5])

	rows, err = f.GetRows(sheetTests)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ANOVA tiempos", rows[1][0])
	assert.Equal(t, "Chi-cuadrado victorias", rows[2][0])

	rows, err = f.GetRows(sheetIssues)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "negative_time", rows[1][0])
}

func TestWriteParquet(t *testing.T) {
	ds, res := scenario(t)

	var buf bytes.Buffer
	require.NoError(t, writeParquet(&buf, ds, res))

	f, err := parquet.OpenFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, int64(ds.Len()), f.NumRows())

	var names []string
	for _, field := range f.Schema().Fields() {
		names = append(names, field.Name())
	}
	assert.ElementsMatch(t, []string{
		"agent_name", "game_id", "wins", "execution_time_ms", "total_turns", "win_rate",
	}, names)
}

func TestWriteParquet_MissingGameID(t *testing.T) {
	matches := matchesFor("Random", 4, 1, 1)
	matches[2].GameID = dataset.NoGameID
	ds := dataset.New(matches)
	res := analysis.NewAggregator().Compute(ds)

	var buf bytes.Buffer
	require.NoError(t, writeParquet(&buf, ds, res))

	rows, err := parquet.Read[processedRow](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Nil(t, rows[2].GameID)
	require.NotNil(t, rows[3].GameID)
	assert.Equal(t, int64(matches[3].GameID), *rows[3].GameID)
}
