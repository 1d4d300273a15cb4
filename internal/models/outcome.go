package models

// Outcome grades the result of one cycle step. The scheduler maps it to a log
// severity; no outcome is fatal.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeWarning
	OutcomeFailure
)

// String returns the lower-case name of the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeWarning:
		return "warning"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Worst returns the most severe of the given outcomes
func Worst(outcomes ...Outcome) Outcome {
	worst := OutcomeSuccess
	for _, o := range outcomes {
		if o > worst {
			worst = o
		}
	}
	return worst
}
