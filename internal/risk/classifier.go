package risk

import (
	"math"
	"sort"
)

// Level is the five-tier risk label. Levels are terminal assignments, not
// transitions: each batch is classified once per run from its score.
// Higher values are riskier, so ordering the enum orders the output table.
type Level int

const (
	Minimal Level = iota
	Low
	Medium
	High
	Critical
)

// MarshalJSON renders the tier as its label, which is what exports and the
// presentation layer consume.
func (l Level) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

func (l Level) String() string {
	switch l {
	case Critical:
		return "critical"
	case High:
		return "high"
	case Medium:
		return "medium"
	case Low:
		return "low"
	case Minimal:
		return "minimal"
	default:
		return "unknown"
	}
}

// Action returns the fixed recommended action for the tier.
func (l Level) Action() string {
	switch l {
	case Critical:
		return "urgent deep discount and immediate clearance"
	case High:
		return "aggressive discount, reallocate stock across regions"
	case Medium:
		return "targeted promotion and weekly review"
	case Low:
		return "monitor monthly, no intervention"
	case Minimal:
		return "maintain status quo"
	default:
		return ""
	}
}

// Thresholds are the four score cut-offs mapping score to tier.
type Thresholds struct {
	Critical int
	High     int
	Medium   int
	Low      int
}

// DefaultThresholds returns the documented tier cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{Critical: 80, High: 60, Medium: 40, Low: 20}
}

// Stocking-reason tags collected for display. They are independent of the
// numeric score and unordered; Score returns them sorted only so output is
// deterministic.
const (
	ReasonAged         = "aged_over_60d"
	ReasonVolatile     = "high_volatility"
	ReasonLowSeason    = "low_season"
	ReasonForecastBias = "high_forecast_bias"
)

const (
	volatileReasonCV    = 1.0
	lowSeasonIndex      = 0.8
	biasReasonThreshold = 0.3
)

// Score builds the additive 0-100 risk score from batch age, clearance
// horizon, sales volatility and forecast bias, and collects the stocking
// reason tags. A +Inf coefficient of variation (no-history sentinel) lands
// in the highest volatility band by construction.
func Score(ageDays float64, est ClearanceEstimate, cv, bias, seasonalIndex float64) (int, []string) {
	score := 0
	reasons := make(map[string]bool)

	// Age component
	switch {
	case ageDays > 90:
		score += 40
	case ageDays > 60:
		score += 30
	case ageDays > 30:
		score += 20
	default:
		score += 10
	}
	if ageDays > 60 {
		reasons[ReasonAged] = true
	}

	// Clearance component
	switch {
	case est.NoSalesHistory:
		score += 40
	case est.DaysToClear > 180:
		score += 35
	case est.DaysToClear > 90:
		score += 30
	case est.DaysToClear > 60:
		score += 20
	case est.DaysToClear > 30:
		score += 10
	}

	// Volatility component
	switch {
	case cv > 2.0:
		score += 10
	case cv > 1.0:
		score += 5
	}
	if cv > volatileReasonCV {
		reasons[ReasonVolatile] = true
	}

	// Forecast-bias component
	absBias := math.Abs(bias)
	switch {
	case absBias > 0.5:
		score += 10
	case absBias > 0.3:
		score += 8
	case absBias > 0.15:
		score += 5
	}
	if absBias > biasReasonThreshold {
		reasons[ReasonForecastBias] = true
	}

	if seasonalIndex < lowSeasonIndex {
		reasons[ReasonLowSeason] = true
	}

	if score > 100 {
		score = 100
	}

	tags := make([]string, 0, len(reasons))
	for r := range reasons {
		tags = append(tags, r)
	}
	sort.Strings(tags)

	return score, tags
}

// Classify maps a score to its tier. The mapping is a deterministic step
// function: score 79 is high, score 80 is critical.
func Classify(score int, t Thresholds) Level {
	switch {
	case score >= t.Critical:
		return Critical
	case score >= t.High:
		return High
	case score >= t.Medium:
		return Medium
	case score >= t.Low:
		return Low
	default:
		return Minimal
	}
}
