// Package dataset holds the match records loaded from a simulation CSV and the
// per-agent groupings the analysis works on.
package dataset

import (
	"math"
	"strconv"

	"github.com/lox/unoanalysis/internal/statistics"
)

// Internal column names.
const (
	ColAgent  = "agent_name"
	ColGame   = "game_id"
	ColWins   = "wins"
	ColTime   = "execution_time_ms"
	ColTurns  = "total_turns"
	ColWinPct = "win_rate"
)

// NoGameID marks a record whose game_id cell was empty.
const NoGameID = math.MinInt

// Match is one agent's outcome in one simulated game.
type Match struct {
	AgentName       string  `json:"agent_name"`
	GameID          int     `json:"game_id"`
	Wins            float64 `json:"wins"`
	ExecutionTimeMs float64 `json:"execution_time_ms"`
	TotalTurns      float64 `json:"total_turns"`
}

// Field selects one numeric column of a Match.
type Field int

const (
	FieldWins Field = iota
	FieldTime
	FieldTurns
)

func (f Field) String() string {
	switch f {
	case FieldWins:
		return ColWins
	case FieldTime:
		return ColTime
	case FieldTurns:
		return ColTurns
	default:
		return "field(" + strconv.Itoa(int(f)) + ")"
	}
}

// HasGameID reports whether the record carries a game id.
func (m Match) HasGameID() bool { return m.GameID != NoGameID }

// Value returns the value of f for m.
func (m Match) Value(f Field) float64 {
	switch f {
	case FieldWins:
		return m.Wins
	case FieldTime:
		return m.ExecutionTimeMs
	case FieldTurns:
		return m.TotalTurns
	default:
		return math.NaN()
	}
}

// Column is a passthrough column the analysis does not interpret.
type Column struct {
	Name   string
	Values []string
}

// Dataset is the loaded, read-only table of matches.
type Dataset struct {
	matches []Match
	extra   []Column
	// raw cells of the required columns in ColAgent..ColTurns order, kept so
	// the processed copy is written back unchanged.
	raw    [][5]string
	agents []string
}

// New builds a dataset from in-memory matches.
func New(matches []Match, extra ...Column) *Dataset {
	raw := make([][5]string, len(matches))
	for i, m := range matches {
		raw[i] = [5]string{
			m.AgentName,
			formatGameID(m),
			formatFloat(m.Wins),
			formatFloat(m.ExecutionTimeMs),
			formatFloat(m.TotalTurns),
		}
	}
	return newDataset(matches, raw, extra)
}

func newDataset(matches []Match, raw [][5]string, extra []Column) *Dataset {
	d := &Dataset{matches: matches, raw: raw, extra: extra}
	seen := make(map[string]bool)
	for _, m := range matches {
		if !seen[m.AgentName] {
			seen[m.AgentName] = true
			d.agents = append(d.agents, m.AgentName)
		}
	}
	return d
}

func formatGameID(m Match) string {
	if !m.HasGameID() {
		return ""
	}
	return strconv.Itoa(m.GameID)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.matches) }

// Matches returns a copy of the records.
func (d *Dataset) Matches() []Match {
	out := make([]Match, len(d.matches))
	copy(out, d.matches)
	return out
}

// Agents returns the distinct agent names in order of first appearance.
func (d *Dataset) Agents() []string {
	out := make([]string, len(d.agents))
	copy(out, d.agents)
	return out
}

// Columns returns the table header in internal names followed by passthrough
// columns.
func (d *Dataset) Columns() []string {
	cols := []string{ColAgent, ColGame, ColWins, ColTime, ColTurns}
	for _, c := range d.extra {
		cols = append(cols, c.Name)
	}
	return cols
}

// Extra returns the passthrough columns.
func (d *Dataset) Extra() []Column {
	return d.extra
}

// Values returns every record's value of f.
func (d *Dataset) Values(f Field) statistics.Sample {
	out := make(statistics.Sample, len(d.matches))
	for i, m := range d.matches {
		out[i] = m.Value(f)
	}
	return out
}

// AgentValues returns the values of f for one agent, in record order.
func (d *Dataset) AgentValues(agent string, f Field) statistics.Sample {
	var out statistics.Sample
	for _, m := range d.matches {
		if m.AgentName == agent {
			out = append(out, m.Value(f))
		}
	}
	return out
}

// ByAgent groups the values of f per agent, aligned with Agents().
func (d *Dataset) ByAgent(f Field) []statistics.Sample {
	index := make(map[string]int, len(d.agents))
	for i, a := range d.agents {
		index[a] = i
	}
	groups := make([]statistics.Sample, len(d.agents))
	for _, m := range d.matches {
		i := index[m.AgentName]
		groups[i] = append(groups[i], m.Value(f))
	}
	return groups
}

// NamedSample is a numeric column with its header name.
type NamedSample struct {
	Name   string
	Values statistics.Sample
}

// NumericColumns returns game_id, the three measures and every passthrough
// column whose non-empty cells all parse as numbers.
func (d *Dataset) NumericColumns() []NamedSample {
	games := make(statistics.Sample, len(d.matches))
	for i, m := range d.matches {
		games[i] = math.NaN()
		if m.HasGameID() {
			games[i] = float64(m.GameID)
		}
	}
	cols := []NamedSample{
		{Name: ColGame, Values: games},
		{Name: ColWins, Values: d.Values(FieldWins)},
		{Name: ColTime, Values: d.Values(FieldTime)},
		{Name: ColTurns, Values: d.Values(FieldTurns)},
	}
	for _, c := range d.extra {
		if values, ok := parseNumeric(c.Values); ok {
			cols = append(cols, NamedSample{Name: c.Name, Values: values})
		}
	}
	return cols
}

func parseNumeric(cells []string) (statistics.Sample, bool) {
	out := make(statistics.Sample, len(cells))
	numeric := false
	for i, cell := range cells {
		if cell == "" {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
		numeric = true
	}
	return out, numeric
}
