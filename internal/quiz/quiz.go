// Package quiz scores a multiple-choice session.
package quiz

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/facebookgo/clock"

	"studypilot/internal/model"
)

var ErrSubmitted = errors.New("quiz already submitted")

type Result struct {
	Score        int                  `json:"score"`
	Total        int                  `json:"total"`
	Percentage   int                  `json:"percentage"`
	Grade        string               `json:"grade"`
	WrongAnswers []model.QuizQuestion `json:"wrong_answers"`
	TimeTaken    time.Duration        `json:"time_taken"`
}

// Session tracks answers for one set of questions. It is safe for use from
// the UI goroutine and a countdown callback at the same time.
type Session struct {
	clock     clock.Clock
	questions []model.QuizQuestion

	mu        sync.Mutex
	selected  map[int]string
	submitted bool
	result    Result
	startedAt time.Time
}

func NewSession(questions []model.QuizQuestion, clk clock.Clock) *Session {
	if clk == nil {
		clk = clock.New()
	}
	return &Session{
		clock:     clk,
		questions: questions,
		selected:  map[int]string{},
		startedAt: clk.Now(),
	}
}

func (s *Session) Questions() []model.QuizQuestion {
	return s.questions
}

func (s *Session) Total() int {
	return len(s.questions)
}

func (s *Session) Select(index int, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return ErrSubmitted
	}
	if index < 0 || index >= len(s.questions) {
		return fmt.Errorf("question %d out of range (1-%d)", index+1, len(s.questions))
	}
	if !slices.Contains(s.questions[index].Options, option) {
		return fmt.Errorf("%q is not an option for question %d", option, index+1)
	}
	s.selected[index] = option
	return nil
}

func (s *Session) Selected(index int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.selected[index]
	return v, ok
}

func (s *Session) Answered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.selected)
}

func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

// Submit scores the session. Only the first call scores; later calls return
// the same result with first == false.
func (s *Session) Submit() (res Result, first bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return s.result, false
	}
	s.submitted = true

	res = Result{Total: len(s.questions), WrongAnswers: []model.QuizQuestion{}}
	for i, q := range s.questions {
		if s.selected[i] == q.CorrectAnswer {
			res.Score++
		} else {
			res.WrongAnswers = append(res.WrongAnswers, q)
		}
	}
	res.Percentage = Percentage(res.Score, res.Total)
	res.Grade = Grade(res.Percentage)
	res.TimeTaken = s.clock.Now().Sub(s.startedAt)
	s.result = res
	return res, true
}

// Retake clears answers and restarts the timer.
func (s *Session) Retake() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = map[int]string{}
	s.submitted = false
	s.result = Result{}
	s.startedAt = s.clock.Now()
}

func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

func Grade(percentage int) string {
	switch {
	case percentage >= 80:
		return "Outstanding!"
	case percentage >= 60:
		return "Good job!"
	case percentage >= 40:
		return "Keep studying"
	default:
		return "Don't give up!"
	}
}

// Attempt is the record posted to the analytics endpoint.
func Attempt(documentID, difficulty string, res Result) model.QuizAttempt {
	if difficulty == "" {
		difficulty = model.DefaultDifficulty
	}
	return model.QuizAttempt{
		DocumentID:       documentID,
		Difficulty:       difficulty,
		Score:            res.Score,
		TotalQuestions:   res.Total,
		Percentage:       res.Percentage,
		TimeTakenSeconds: int(res.TimeTaken / time.Second),
		WrongAnswers:     res.WrongAnswers,
	}
}
