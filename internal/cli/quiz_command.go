package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studypilot/internal/model"
	"studypilot/internal/quiz"
	"studypilot/internal/view"
)

const optionLetters = "ABCDEFGH"

func newQuizCommand(env *cmdEnv) *cobra.Command {
	var (
		flags       generateFlags
		exam        bool
		examSeconds int
		answers     string
	)
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Take a multiple-choice quiz on the active document",
		Long: `Generates a quiz and runs it. Exam mode adds a countdown that submits
automatically at zero. Every submitted attempt is recorded for the dashboard.`,
		Example: `  studypilot quiz
  studypilot quiz --exam --difficulty hard
  studypilot quiz --answers A,C,B,D,A --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(model.KindQuiz)
			if err != nil {
				return err
			}
			if examSeconds < 0 {
				return fmt.Errorf("--exam-seconds must be >= 0")
			}
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				snap, err := a.generate(ctx, req, "quiz")
				if err != nil {
					return err
				}
				questions, err := model.DecodePayload[[]model.QuizQuestion](snap)
				if err != nil {
					return err
				}
				if len(questions) == 0 {
					return fmt.Errorf("quiz: no questions were generated")
				}
				run := quizRun{
					app:        a,
					session:    quiz.NewSession(questions, a.clock),
					documentID: snap.Request.SubjectID,
					difficulty: req.DifficultyOrDefault(),
					exam:       exam,
					duration:   a.settings.ExamDuration(),
				}
				if examSeconds > 0 {
					run.duration = time.Duration(examSeconds) * time.Second
				}

				switch {
				case strings.TrimSpace(answers) != "":
					if err := applyAnswers(run.session, answers); err != nil {
						return err
					}
					return run.finish(ctx)
				case env.opts.jsonOut:
					return printJSON(env.io.out, questions)
				case env.tui():
					return run.interactive(ctx)
				default:
					return run.plain(ctx)
				}
			})
		},
	}
	flags.bind(cmd, true)
	cmd.Flags().BoolVar(&exam, "exam", false, "exam mode with a countdown that auto-submits")
	cmd.Flags().IntVar(&examSeconds, "exam-seconds", 0, "exam length in seconds (default: exam_seconds setting)")
	cmd.Flags().StringVar(&answers, "answers", "", "comma-separated answers (A-D, 1-4 or option text) to grade without prompting")
	return creditsHint(cmd)
}

type quizRun struct {
	app        *app
	session    *quiz.Session
	documentID string
	difficulty string
	exam       bool
	duration   time.Duration
}

// record posts the attempt for analytics. Failures are logged only.
func (r quizRun) record(ctx context.Context, res quiz.Result) error {
	attempt := quiz.Attempt(r.documentID, r.difficulty, res)
	if err := r.app.client.SubmitQuizAttempt(ctx, attempt); err != nil {
		r.app.logger.Warn("quiz attempt not recorded",
			zap.String("document_id", r.documentID),
			zap.Int("score", res.Score),
			zap.Error(err),
		)
		return err
	}
	r.app.logger.Info("quiz attempt recorded",
		zap.String("document_id", r.documentID),
		zap.Int("score", res.Score),
		zap.Int("total", res.Total),
	)
	return nil
}

func (r quizRun) finish(ctx context.Context) error {
	res, first := r.session.Submit()
	if first {
		_ = r.record(ctx, res)
	}
	out := r.app.env.io.out
	if r.app.env.opts.jsonOut {
		return printJSON(out, res)
	}
	printQuizResult(out, res)
	return nil
}

func (r quizRun) plain(ctx context.Context) error {
	out := r.app.env.io.out
	lines := make(chan string)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r.app.env.io.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-stop:
				return
			}
		}
	}()

	expired := make(chan struct{})
	if r.exam {
		cd := view.NewCountdown(r.app.clock, r.duration, nil, func() { close(expired) })
		cd.Start()
		defer cd.Stop()
		fmt.Fprintf(out, "exam mode: %s on the clock, unanswered questions count as wrong\n", view.FormatClock(r.duration))
	}

	questions := r.session.Questions()
loop:
	for i, q := range questions {
		printQuestion(out, i, len(questions), q)
		for {
			fmt.Fprint(out, "answer (blank to skip): ")
			var (
				line string
				ok   bool
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-expired:
				fmt.Fprintln(out)
				fmt.Fprintln(out, "time is up, submitting")
				break loop
			case line, ok = <-lines:
			}
			if !ok {
				fmt.Fprintln(out)
				break loop
			}
			line = strings.TrimSpace(line)
			if line == "" {
				break
			}
			option, err := parseAnswer(line, q.Options)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if err := r.session.Select(i, option); err != nil {
				return err
			}
			break
		}
	}
	return r.finish(ctx)
}

func printQuestion(w io.Writer, index, total int, q model.QuizQuestion) {
	fmt.Fprintf(w, "\nQuestion %d/%d: %s\n", index+1, total, q.Question)
	for j, opt := range q.Options {
		fmt.Fprintf(w, "  %c) %s\n", optionLetters[j%len(optionLetters)], opt)
	}
}

func printQuizResult(w io.Writer, res quiz.Result) {
	fmt.Fprintf(w, "score: %d/%d (%d%%) %s\n", res.Score, res.Total, res.Percentage, res.Grade)
	fmt.Fprintf(w, "time: %s\n", view.FormatClock(res.TimeTaken))
	if len(res.WrongAnswers) == 0 {
		return
	}
	fmt.Fprintln(w, "review:")
	for _, q := range res.WrongAnswers {
		fmt.Fprintf(w, "  - %s\n    correct: %s\n", q.Question, q.CorrectAnswer)
	}
}

// applyAnswers selects one answer per question in order. Empty entries
// leave a question unanswered.
func applyAnswers(s *quiz.Session, raw string) error {
	parts := strings.Split(raw, ",")
	questions := s.Questions()
	if len(parts) > len(questions) {
		return fmt.Errorf("got %d answers for %d questions", len(parts), len(questions))
	}
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		option, err := parseAnswer(part, questions[i].Options)
		if err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
		if err := s.Select(i, option); err != nil {
			return err
		}
	}
	return nil
}

// parseAnswer accepts a letter, a 1-based number or the option text.
func parseAnswer(raw string, options []string) (string, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) == 1 {
		if idx := strings.IndexByte(optionLetters, strings.ToUpper(raw)[0]); idx >= 0 && idx < len(options) {
			return options[idx], nil
		}
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		return "", fmt.Errorf("answer %d out of range (1-%d)", n, len(options))
	}
	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), raw) {
			return opt, nil
		}
	}
	return "", fmt.Errorf("%q is not one of the options", raw)
}
