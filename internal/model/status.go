package model

import "fmt"

const (
	StatusIdle           = "idle"
	StatusInFlight       = "in_flight"
	StatusWaitingToRetry = "waiting_to_retry"
	StatusSucceeded      = "succeeded"
	StatusFailed         = "failed"
)

var allowedTransitions = map[string]map[string]bool{
	"": {
		StatusIdle: true,
	},
	StatusIdle: {
		StatusIdle:     true,
		StatusInFlight: true,
		StatusFailed:   true, // subject guard short-circuits before any request
	},
	StatusInFlight: {
		StatusIdle:           true,
		StatusSucceeded:      true,
		StatusWaitingToRetry: true,
		StatusFailed:         true,
	},
	StatusWaitingToRetry: {
		StatusIdle:     true,
		StatusInFlight: true,
		StatusFailed:   true, // attempt cap reached
	},
	StatusSucceeded: {
		StatusIdle: true,
	},
	StatusFailed: {
		StatusIdle: true,
	},
}

func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// IsTerminal reports whether a session in this status will not change
// again without a Reset or a new Start.
func IsTerminal(status string) bool {
	return status == StatusSucceeded || status == StatusFailed
}

// IsPending reports whether the session is still working towards an outcome.
func IsPending(status string) bool {
	return status == StatusInFlight || status == StatusWaitingToRetry
}

func TransitionSession(s *RetrySession, toStatus string, lastError string) error {
	from := s.Status
	if !CanTransition(from, toStatus) {
		return fmt.Errorf("invalid session status transition: %q -> %q (session_id=%s kind=%s)", from, toStatus, s.ID, s.Request.Kind)
	}
	s.Status = toStatus
	s.LastError = lastError
	return nil
}
