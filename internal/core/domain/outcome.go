package domain

// Outcome classifies the result of a single probe or a fold of probes.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeDegraded Outcome = "degraded"
	OutcomeError    Outcome = "error"
	OutcomeUnknown  Outcome = "unknown"
)

// severity orders outcomes worst-last. Unknown sits between degraded and
// error for ranking, but folds into the error tier: an endpoint whose node
// answers with an unrecognized shape is not partially functional.
func (o Outcome) severity() int {
	switch o {
	case OutcomeOK:
		return 0
	case OutcomeDegraded:
		return 1
	case OutcomeUnknown:
		return 2
	case OutcomeError:
		return 3
	default:
		return 3
	}
}

// Worse returns the more severe of the two outcomes.
func (o Outcome) Worse(other Outcome) Outcome {
	if other.severity() > o.severity() {
		return other
	}
	return o
}

// IsOK reports whether the outcome is ok.
func (o Outcome) IsOK() bool {
	return o == OutcomeOK
}

// Fold aggregates probe outcomes worst-wins: error if any probe errored
// (unknown counts here), else degraded if any probe degraded, else ok.
func Fold(outcomes []Outcome) Outcome {
	agg := OutcomeOK
	for _, o := range outcomes {
		agg = agg.Worse(o)
	}
	if agg == OutcomeUnknown {
		return OutcomeError
	}
	return agg
}
