package dataset

import (
	"fmt"
	"math"
	"strconv"
)

// ViolationKind classifies a record that breaks the data model's assumptions.
type ViolationKind string

const (
	ViolationMissingAgent     ViolationKind = "missing_agent"
	ViolationMissingValue     ViolationKind = "missing_value"
	ViolationNonBinaryWins    ViolationKind = "non_binary_wins"
	ViolationNegativeTime     ViolationKind = "negative_time"
	ViolationNonPositiveTurns ViolationKind = "non_positive_turns"
	ViolationDuplicateGame    ViolationKind = "duplicate_game"
)

// Violation is one offending cell. Row is the zero-based record index.
type Violation struct {
	Kind   ViolationKind `json:"kind"`
	Row    int           `json:"row"`
	Column string        `json:"column"`
	Value  string        `json:"value"`
}

func (v Violation) String() string {
	return fmt.Sprintf("row %d: %s %s=%q", v.Row+1, v.Kind, v.Column, v.Value)
}

// Validate checks every record and returns the violations found. Offending
// records stay in the dataset; the analysis skips NaN cells on its own.
func (d *Dataset) Validate() []Violation {
	var out []Violation
	type key struct {
		agent string
		game  int
	}
	seen := make(map[key]bool, len(d.matches))

	for i, m := range d.matches {
		if m.AgentName == "" {
			out = append(out, Violation{Kind: ViolationMissingAgent, Row: i, Column: ColAgent})
		}

		if !m.HasGameID() {
			out = append(out, Violation{Kind: ViolationMissingValue, Row: i, Column: ColGame})
		}
		for _, f := range []Field{FieldWins, FieldTime, FieldTurns} {
			if math.IsNaN(m.Value(f)) {
				out = append(out, Violation{Kind: ViolationMissingValue, Row: i, Column: f.String()})
			}
		}

		if !math.IsNaN(m.Wins) && m.Wins != 0 && m.Wins != 1 {
			out = append(out, Violation{Kind: ViolationNonBinaryWins, Row: i, Column: ColWins, Value: formatFloat(m.Wins)})
		}
		if m.ExecutionTimeMs < 0 {
			out = append(out, Violation{Kind: ViolationNegativeTime, Row: i, Column: ColTime, Value: formatFloat(m.ExecutionTimeMs)})
		}
		if m.TotalTurns <= 0 {
			out = append(out, Violation{Kind: ViolationNonPositiveTurns, Row: i, Column: ColTurns, Value: formatFloat(m.TotalTurns)})
		}

		if !m.HasGameID() {
			continue
		}
		k := key{m.AgentName, m.GameID}
		if seen[k] {
			out = append(out, Violation{Kind: ViolationDuplicateGame, Row: i, Column: ColGame, Value: m.AgentName + "/" + strconv.Itoa(m.GameID)})
		}
		seen[k] = true
	}
	return out
}
