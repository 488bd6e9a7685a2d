package model

import "testing"

func TestCanTransition_AllowsExpectedPaths(t *testing.T) {
	cases := []struct {
		from string
		to   string
	}{
		{"", StatusIdle},
		{StatusIdle, StatusInFlight},
		{StatusIdle, StatusFailed},
		{StatusInFlight, StatusSucceeded},
		{StatusInFlight, StatusWaitingToRetry},
		{StatusInFlight, StatusFailed},
		{StatusWaitingToRetry, StatusInFlight},
		{StatusWaitingToRetry, StatusIdle},
		{StatusSucceeded, StatusIdle},
		{StatusFailed, StatusIdle},
	}

	for _, tc := range cases {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %q -> %q to be allowed", tc.from, tc.to)
		}
	}
}

func TestCanTransition_RejectsInvalidPaths(t *testing.T) {
	cases := []struct {
		from string
		to   string
	}{
		{StatusIdle, StatusSucceeded},
		{StatusIdle, StatusWaitingToRetry},
		{StatusWaitingToRetry, StatusSucceeded},
		{StatusSucceeded, StatusInFlight},
		{StatusFailed, StatusInFlight},
		{"not_a_state", StatusIdle},
	}

	for _, tc := range cases {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %q -> %q to be rejected", tc.from, tc.to)
		}
	}
}

func TestTransitionSession_BlocksIllegalTransition(t *testing.T) {
	s := RetrySession{
		ID:      "sess-1",
		Request: GenerationRequest{Kind: KindQuiz},
		Status:  StatusIdle,
	}

	if err := TransitionSession(&s, StatusSucceeded, ""); err == nil {
		t.Fatalf("expected illegal transition error")
	}
	if s.Status != StatusIdle {
		t.Fatalf("status changed on rejected transition: %q", s.Status)
	}
}

func TestTransitionSession_RecordsLastError(t *testing.T) {
	s := RetrySession{ID: "sess-2", Status: StatusInFlight}
	if err := TransitionSession(&s, StatusFailed, "boom"); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if s.LastError != "boom" || !IsTerminal(s.Status) {
		t.Fatalf("unexpected session after failure: %+v", s)
	}
}
