package analysis

import (
	"github.com/lox/unoanalysis/internal/statistics"
)

// Step names one isolated computation of the Aggregator.
type Step string

const (
	StepWinRates   Step = "winrates"
	StepTimes      Step = "times"
	StepTurns      Step = "turns"
	StepANOVA      Step = "anova"
	StepChiSquare  Step = "chi2"
	StepPairwise   Step = "pairwise"
	StepEfficiency Step = "efficiency"
)

// Results holds everything the Aggregator computed for one dataset. Agent
// indexed slices follow the order of Agents.
type Results struct {
	Agents []string `json:"agents"`
	Alpha  float64  `json:"alpha"`

	WinStats  []WinStat      `json:"win_stats"`
	WinRates  []AgentValue   `json:"win_rates"`
	TimeStats []AgentSummary `json:"time_stats"`
	TurnStats []AgentSummary `json:"turn_stats"`

	// nil when the test was not computed
	TimeANOVA    *statistics.TestResult `json:"time_anova,omitempty"`
	WinChiSquare *statistics.TestResult `json:"win_chi_square,omitempty"`

	Comparisons []Comparison `json:"comparisons"`
	Efficiency  []Efficiency `json:"efficiency"`

	StepErrors []StepError `json:"step_errors,omitempty"`
}

// WinStat is the win/loss tally of one agent.
type WinStat struct {
	Agent   string  `json:"agent"`
	Games   int     `json:"games"`
	Wins    float64 `json:"wins"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	RatePct float64 `json:"rate_pct"`
}

// AgentValue is a single per-agent metric.
type AgentValue struct {
	Agent string  `json:"agent"`
	Value float64 `json:"value"`
}

// AgentSummary is the distribution summary of one column for one agent.
type AgentSummary struct {
	Agent string `json:"agent"`
	statistics.Summary
}

// Comparison holds the two-sample tests between a pair of agents.
type Comparison struct {
	AgentA          string                `json:"agent_a"`
	AgentB          string                `json:"agent_b"`
	Wins            statistics.TestResult `json:"wins"`
	WinsSignificant bool                  `json:"wins_significant"`
	Time            statistics.TestResult `json:"time"`
	TimeSignificant bool                  `json:"time_significant"`
}

// Efficiency relates an agent's mean wins to the time and turns it spends.
// Normalized values are percentages of the best agent.
type Efficiency struct {
	Agent           string  `json:"agent"`
	MeanWins        float64 `json:"mean_wins"`
	MeanTime        float64 `json:"mean_time_ms"`
	MeanTurns       float64 `json:"mean_turns"`
	TimeEfficiency  float64 `json:"time_efficiency"`
	TurnsEfficiency float64 `json:"turns_efficiency"`
	TimeNormalized  float64 `json:"time_normalized"`
	TurnsNormalized float64 `json:"turns_normalized"`
	TimeUndefined   bool    `json:"time_undefined,omitempty"`
	TurnsUndefined  bool    `json:"turns_undefined,omitempty"`
}

// StepError records a step that failed. Other steps still ran.
type StepError struct {
	Step Step  `json:"step"`
	Err  error `json:"-"`
}

func (e StepError) Error() string {
	return string(e.Step) + ": " + e.Err.Error()
}

func (e StepError) Unwrap() error { return e.Err }

// WinRate returns the win percentage of agent.
func (r *Results) WinRate(agent string) (float64, bool) {
	for _, v := range r.WinRates {
		if v.Agent == agent {
			return v.Value, true
		}
	}
	return 0, false
}
