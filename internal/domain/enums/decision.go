package enums

// Decision is the internal moderation vocabulary used across tiers,
// audit rows and API responses.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRemoved  Decision = "removed"
	DecisionFlagged  Decision = "flagged"
)

func (d Decision) Valid() bool {
	switch d {
	case DecisionApproved, DecisionRemoved, DecisionFlagged:
		return true
	}
	return false
}

// Verdict is the oracle's wire vocabulary. It is kept separate from
// Decision so that a change to the prompt contract cannot leak into
// stored decisions unnoticed.
type Verdict string

const (
	VerdictApprove Verdict = "approve"
	VerdictRemove  Verdict = "remove"
	VerdictFlag    Verdict = "flag"
)

func (v Verdict) Valid() bool {
	switch v {
	case VerdictApprove, VerdictRemove, VerdictFlag:
		return true
	}
	return false
}

// Decision maps the wire verdict onto the internal vocabulary.
func (v Verdict) Decision() Decision {
	switch v {
	case VerdictApprove:
		return DecisionApproved
	case VerdictRemove:
		return DecisionRemoved
	default:
		return DecisionFlagged
	}
}
