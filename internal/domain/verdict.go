package domain

// VerdictKind is the tri-state outcome of admission.
type VerdictKind int

const (
	// VerdictAccept hands the candidate off to scoring and execution.
	VerdictAccept VerdictKind = iota
	// VerdictReject removes the candidate permanently.
	VerdictReject
	// VerdictDefer schedules the candidate for re-evaluation.
	VerdictDefer
)

// String returns the lowercase name of the kind.
func (k VerdictKind) String() string {
	switch k {
	case VerdictAccept:
		return "accept"
	case VerdictReject:
		return "reject"
	case VerdictDefer:
		return "defer"
	default:
		return "unknown"
	}
}

// Verdict is the admission decision for one candidate snapshot.
// Reason is empty for Accept.
type Verdict struct {
	Kind   VerdictKind
	Reason string
}

// Accept returns an accepting verdict.
func Accept() Verdict {
	return Verdict{Kind: VerdictAccept}
}

// Reject returns a rejecting verdict with reason code.
func Reject(reason string) Verdict {
	return Verdict{Kind: VerdictReject, Reason: reason}
}

// Defer returns a deferring verdict with reason code.
func Defer(reason string) Verdict {
	return Verdict{Kind: VerdictDefer, Reason: reason}
}

// IsAccept reports whether the verdict accepts.
func (v Verdict) IsAccept() bool { return v.Kind == VerdictAccept }

// IsReject reports whether the verdict rejects.
func (v Verdict) IsReject() bool { return v.Kind == VerdictReject }

// IsDefer reports whether the verdict defers.
func (v Verdict) IsDefer() bool { return v.Kind == VerdictDefer }

// String renders the verdict as kind or kind(reason).
func (v Verdict) String() string {
	if v.Reason == "" {
		return v.Kind.String()
	}
	return v.Kind.String() + "(" + v.Reason + ")"
}
