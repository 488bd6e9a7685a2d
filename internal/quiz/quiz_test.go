package quiz

import (
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studypilot/internal/model"
)

func sampleQuestions() []model.QuizQuestion {
	return []model.QuizQuestion{
		{Question: "2+2", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: "4"},
		{Question: "capital of France", Options: []string{"Rome", "Paris", "Oslo", "Bern"}, CorrectAnswer: "Paris"},
		{Question: "H2O", Options: []string{"water", "salt", "gold", "air"}, CorrectAnswer: "water"},
	}
}

func TestSession_ScoresAndBlocksAfterSubmit(t *testing.T) {
	clk := clock.NewMock()
	s := NewSession(sampleQuestions(), clk)

	require.NoError(t, s.Select(0, "4"))
	require.NoError(t, s.Select(1, "Rome"))
	assert.Equal(t, 2, s.Answered())
	assert.Error(t, s.Select(2, "lava"))
	assert.Error(t, s.Select(3, "4"))

	clk.Add(90 * time.Second)
	res, first := s.Submit()
	require.True(t, first)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 33, res.Percentage)
	assert.Equal(t, "Don't give up!", res.Grade)
	assert.Len(t, res.WrongAnswers, 2)
	assert.Equal(t, 90*time.Second, res.TimeTaken)

	assert.ErrorIs(t, s.Select(2, "water"), ErrSubmitted)
	again, first := s.Submit()
	assert.False(t, first)
	assert.Equal(t, res, again)
}

func TestSession_Retake(t *testing.T) {
	s := NewSession(sampleQuestions(), clock.NewMock())
	require.NoError(t, s.Select(0, "4"))
	s.Submit()

	s.Retake()
	assert.False(t, s.Submitted())
	assert.Equal(t, 0, s.Answered())
	require.NoError(t, s.Select(0, "4"))
}

func TestPercentageAndGrade(t *testing.T) {
	assert.Equal(t, 0, Percentage(0, 0))
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 80, Percentage(8, 10))

	cases := map[int]string{100: "Outstanding!", 80: "Outstanding!", 79: "Good job!", 60: "Good job!", 59: "Keep studying", 40: "Keep studying", 39: "Don't give up!", 0: "Don't give up!"}
	for pct, want := range cases {
		assert.Equal(t, want, Grade(pct), pct)
	}
}

func TestAttempt(t *testing.T) {
	res := Result{Score: 7, Total: 10, Percentage: 70, TimeTaken: 125 * time.Second, WrongAnswers: sampleQuestions()[:3]}
	a := Attempt("doc-1", "", res)
	assert.Equal(t, model.QuizAttempt{
		DocumentID:       "doc-1",
		Difficulty:       "medium",
		Score:            7,
		TotalQuestions:   10,
		Percentage:       70,
		TimeTakenSeconds: 125,
		WrongAnswers:     sampleQuestions()[:3],
	}, a)
}
