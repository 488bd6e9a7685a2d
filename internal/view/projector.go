// Package view turns controller sessions into what a screen shows.
package view

import (
	"encoding/json"
	"math"

	"studypilot/internal/model"
)

type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
	PhaseReady   Phase = "ready"
)

type State struct {
	Phase    Phase              `json:"phase"`
	Kind     model.ArtifactKind `json:"kind,omitempty"`
	Attempt  int                `json:"attempt,omitempty"`
	Advisory string             `json:"advisory,omitempty"`
	Message  string             `json:"message,omitempty"`
	Payload  json.RawMessage    `json:"payload,omitempty"`
}

// Project maps a session to its display phase. Idle renders as loading
// without an advisory; a waiting session exposes the retry advisory.
func Project(s model.RetrySession) State {
	st := State{Kind: s.Request.Kind, Attempt: s.Attempt}
	switch s.Status {
	case model.StatusSucceeded:
		st.Phase = PhaseReady
		st.Payload = s.Payload
	case model.StatusFailed:
		st.Phase = PhaseError
		st.Message = s.LastError
	case model.StatusWaitingToRetry:
		st.Phase = PhaseLoading
		st.Advisory = s.LastError
	default:
		st.Phase = PhaseLoading
	}
	return st
}

// Progress is a done/total pair such as answered questions or completed days.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total)
}

func (p Progress) Percent() int {
	return int(math.Round(p.Fraction() * 100))
}

func QuizCompletion(answered, total int) Progress {
	return Progress{Done: answered, Total: total}
}

func PathProgress(days []model.RoadmapDay) Progress {
	p := Progress{Total: len(days)}
	for _, d := range days {
		if d.Completed {
			p.Done++
		}
	}
	return p
}
