package domain

// Outcome is the verdict of an authorization check.
type Outcome uint8

const (
	OutcomeAllow Outcome = iota
	OutcomeRedirect
)

// Decision is returned by the request gate and the admin guard. Callers decide
// how to apply a redirect (HTTP 302, aborting an action, ...).
type Decision struct {
	Outcome Outcome
	Target  string
}

func Allow() Decision { return Decision{Outcome: OutcomeAllow} }

func RedirectTo(target string) Decision {
	return Decision{Outcome: OutcomeRedirect, Target: target}
}

func (d Decision) Allowed() bool { return d.Outcome == OutcomeAllow }

// Err converts a redirect decision into an error that unwinds the current
// operation. It returns nil for Allow.
func (d Decision) Err() error {
	if d.Allowed() {
		return nil
	}
	return &RedirectError{Target: d.Target}
}
