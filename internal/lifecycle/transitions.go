// Package lifecycle defines the state machine governing each job posting
// and the service that drives its transitions.
//
// Valid status graph:
//
//	discovered ──► extracted ──► matched ──► applied
//	     │              │            │
//	     └──────────────┴────────────┴──► rejected (record deleted)
//
// matching may also run directly from discovered. extracted and matched
// may be re-run in place (idempotent overwrite, no status change).
// applied is terminal; rejected removes the record entirely.
package lifecycle

import (
	"fmt"

	"github.com/DK01git/JobAutomation/internal/model"
)

// validTransitions lists every allowed forward (from → to) pair.
var validTransitions = map[model.Status][]model.Status{
	model.StatusDiscovered: {model.StatusExtracted, model.StatusMatched, model.StatusRejected},
	model.StatusExtracted:  {model.StatusMatched, model.StatusRejected},
	model.StatusMatched:    {model.StatusApplied, model.StatusRejected},
	// applied is terminal — no outgoing transitions
}

// rerunnable marks statuses whose owning operation may be repeated in
// place, overwriting the derived fields without changing status.
var rerunnable = map[model.Status]bool{
	model.StatusExtracted: true,
	model.StatusMatched:   true,
}

// ParseStatus converts a raw string to a Status, rejecting unknown values.
func ParseStatus(s string) (model.Status, error) {
	st := model.Status(s)
	switch st {
	case model.StatusDiscovered, model.StatusExtracted, model.StatusMatched,
		model.StatusApplied, model.StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// IsTransitionAllowed reports whether moving from → to is permitted.
// Self-transitions are allowed only for the re-runnable statuses.
func IsTransitionAllowed(from, to model.Status) bool {
	if from == to {
		return rerunnable[from]
	}
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a stored posting can no longer transition.
func IsTerminal(s model.Status) bool {
	return s == model.StatusApplied
}
