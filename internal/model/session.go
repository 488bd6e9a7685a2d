package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const DefaultDifficulty = "medium"

// GenerationParams carries the kind-specific inputs of a request.
type GenerationParams struct {
	Difficulty string `json:"difficulty,omitempty"`
	Adaptive   bool   `json:"is_adaptive,omitempty"`
	Topic      string `json:"topic,omitempty"`
	Goal       string `json:"goal,omitempty"`
	Days       int    `json:"days,omitempty"`
	RawNotes   string `json:"raw_notes,omitempty"`
}

// GenerationRequest is passed by value; a retry reissues the same request.
type GenerationRequest struct {
	Kind      ArtifactKind     `json:"kind"`
	SubjectID string           `json:"subject_id,omitempty"`
	Params    GenerationParams `json:"params"`
}

func (r GenerationRequest) Validate() error {
	if _, err := ParseArtifactKind(string(r.Kind)); err != nil {
		return err
	}
	switch r.Kind {
	case KindExplanation:
		if strings.TrimSpace(r.Params.Topic) == "" {
			return fmt.Errorf("topic is required for %s", r.Kind)
		}
	case KindLearningPath:
		if strings.TrimSpace(r.Params.Goal) == "" {
			return fmt.Errorf("goal is required for %s", r.Kind)
		}
		if r.Params.Days <= 0 {
			return fmt.Errorf("days must be > 0 for %s", r.Kind)
		}
	case KindNotes:
		if strings.TrimSpace(r.Params.RawNotes) == "" {
			return fmt.Errorf("notes text is required")
		}
	}
	return nil
}

func (r GenerationRequest) DifficultyOrDefault() string {
	if d := strings.TrimSpace(r.Params.Difficulty); d != "" {
		return d
	}
	return DefaultDifficulty
}

type OutcomeKind int

const (
	// OutcomePending is the zero value: no result yet.
	OutcomePending OutcomeKind = iota
	OutcomeSuccess
	OutcomeTransientFailure
	OutcomeFatalFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePending:
		return "pending"
	case OutcomeSuccess:
		return "success"
	case OutcomeTransientFailure:
		return "transient"
	case OutcomeFatalFailure:
		return "fatal"
	default:
		return "unknown"
	}
}

// GenerationOutcome is the classified result of one attempt.
type GenerationOutcome struct {
	Kind    OutcomeKind
	Payload json.RawMessage
	Reason  string
}

func Success(payload json.RawMessage) GenerationOutcome {
	return GenerationOutcome{Kind: OutcomeSuccess, Payload: payload}
}

func TransientFailure(reason string) GenerationOutcome {
	return GenerationOutcome{Kind: OutcomeTransientFailure, Reason: reason}
}

func FatalFailure(reason string) GenerationOutcome {
	return GenerationOutcome{Kind: OutcomeFatalFailure, Reason: reason}
}

// RetrySession is a point-in-time copy of one generation's progress.
type RetrySession struct {
	ID        string            `json:"id"`
	Request   GenerationRequest `json:"request"`
	Attempt   int               `json:"attempt"`
	Status    string            `json:"status"`
	LastError string            `json:"last_error,omitempty"`
	Payload   json.RawMessage   `json:"payload,omitempty"`
	StartedAt time.Time         `json:"started_at,omitzero"`
	UpdatedAt time.Time         `json:"updated_at,omitzero"`
}

// DecodePayload unmarshals a succeeded session's payload.
func DecodePayload[T any](s RetrySession) (T, error) {
	var out T
	if s.Status != StatusSucceeded {
		return out, fmt.Errorf("session %s has no payload (status=%s)", s.ID, s.Status)
	}
	if err := json.Unmarshal(s.Payload, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", s.Request.Kind, err)
	}
	return out, nil
}
