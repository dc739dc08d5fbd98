package dataset

import (
	"math"
	"sort"

	"github.com/lox/unoanalysis/internal/statistics"
)

// AgentCount pairs an agent with a count or total.
type AgentCount struct {
	Agent string  `json:"agent"`
	Count float64 `json:"count"`
}

// ColumnCount pairs a column with a count.
type ColumnCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// ColumnQuartiles is the numeric summary of one column.
type ColumnQuartiles struct {
	Column string `json:"column"`
	statistics.Quartiles
}

// Overview is the first look at a freshly loaded dataset.
type Overview struct {
	Rows        int               `json:"rows"`
	Columns     []string          `json:"columns"`
	Numeric     []ColumnQuartiles `json:"numeric"`
	NullCounts  []ColumnCount     `json:"null_counts,omitempty"` // columns with at least one empty cell
	AgentCounts []AgentCount      `json:"agent_counts"`          // most frequent first
	WinsByAgent []AgentCount      `json:"wins_by_agent"`
}

// Describe builds the dataset Overview.
func (d *Dataset) Describe() Overview {
	o := Overview{
		Rows:    d.Len(),
		Columns: d.Columns(),
	}

	for _, col := range d.NumericColumns() {
		o.Numeric = append(o.Numeric, ColumnQuartiles{
			Column:    col.Name,
			Quartiles: statistics.DescribeQuartiles(col.Values),
		})
	}

	nulls := make(map[string]int)
	for _, m := range d.matches {
		if m.AgentName == "" {
			nulls[ColAgent]++
		}
		if !m.HasGameID() {
			nulls[ColGame]++
		}
		for _, f := range []Field{FieldWins, FieldTime, FieldTurns} {
			if math.IsNaN(m.Value(f)) {
				nulls[f.String()]++
			}
		}
	}
	for _, c := range d.extra {
		for _, v := range c.Values {
			if v == "" {
				nulls[c.Name]++
			}
		}
	}
	for _, name := range o.Columns {
		if n := nulls[name]; n > 0 {
			o.NullCounts = append(o.NullCounts, ColumnCount{Column: name, Count: n})
		}
	}

	wins := d.ByAgent(FieldWins)
	for i, agent := range d.agents {
		o.AgentCounts = append(o.AgentCounts, AgentCount{Agent: agent, Count: float64(len(wins[i]))})
		o.WinsByAgent = append(o.WinsByAgent, AgentCount{Agent: agent, Count: wins[i].Sum()})
	}
	sort.SliceStable(o.AgentCounts, func(i, j int) bool {
		return o.AgentCounts[i].Count > o.AgentCounts[j].Count
	})

	return o
}
