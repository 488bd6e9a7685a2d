package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"studypilot/internal/quiz"
	"studypilot/internal/view"
)

type quizTickMsg struct {
	gen       int
	remaining time.Duration
}

type quizExpiredMsg struct {
	gen int
}

type quizRecordedMsg struct {
	err error
}

type quizModel struct {
	run       quizRun
	current   int
	cursor    int
	remaining time.Duration
	result    *quiz.Result
	status    string
	bar       progress.Model
	width     int

	countdownGen int
	countdown    *view.Countdown
	newCountdown func(gen int) *view.Countdown
	record       func(quiz.Result) tea.Cmd
}

func (r quizRun) interactive(ctx context.Context) error {
	var prog *tea.Program
	newCountdown := func(gen int) *view.Countdown {
		return view.NewCountdown(r.app.clock, r.duration,
			func(left time.Duration) { prog.Send(quizTickMsg{gen: gen, remaining: left}) },
			func() { prog.Send(quizExpiredMsg{gen: gen}) },
		)
	}
	m := quizModel{
		run:          r,
		remaining:    r.duration,
		bar:          progress.New(progress.WithDefaultGradient()),
		newCountdown: newCountdown,
		record: func(res quiz.Result) tea.Cmd {
			return func() tea.Msg {
				return quizRecordedMsg{err: r.record(ctx, res)}
			}
		},
	}
	if r.exam {
		m.countdownGen = 1
		m.countdown = newCountdown(m.countdownGen)
	}
	prog = tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithInput(r.app.env.io.in),
		tea.WithOutput(r.app.env.io.out),
	)
	if m.countdown != nil {
		m.countdown.Start()
	}
	final, err := prog.Run()
	if fm, ok := final.(quizModel); ok {
		if fm.countdown != nil {
			fm.countdown.Stop()
		}
		if fm.result != nil {
			printQuizResult(r.app.env.io.out, *fm.result)
		}
	}
	return err
}

func (m quizModel) Init() tea.Cmd {
	return nil
}

func (m quizModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = clampInt(msg.Width-10, 20, 80)
		return m, nil
	case quizTickMsg:
		if msg.gen == m.countdownGen {
			m.remaining = msg.remaining
		}
		return m, nil
	case quizExpiredMsg:
		if msg.gen != m.countdownGen || m.result != nil {
			return m, nil
		}
		m.remaining = 0
		m.status = "time is up, quiz submitted"
		return m.submit()
	case quizRecordedMsg:
		if msg.err != nil {
			m.status = "attempt not recorded: " + msg.err.Error()
		} else if m.status == "" {
			m.status = "attempt recorded"
		}
		return m, nil
	case tea.KeyMsg:
		if m.result != nil {
			return m.updateResult(msg)
		}
		return m.updateQuestion(msg)
	}
	return m, nil
}

func (m quizModel) updateQuestion(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	questions := m.run.session.Questions()
	options := questions[m.current].Options
	switch key := msg.String(); key {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(options)-1 {
			m.cursor++
		}
	case "left", "h", "p":
		m = m.goTo(m.current - 1)
	case "right", "l", "n", "tab":
		m = m.goTo(m.current + 1)
	case "enter", " ":
		m = m.choose(m.cursor)
	case "s":
		return m.submit()
	default:
		if option, err := parseAnswer(key, options); err == nil && len(key) == 1 {
			for i, o := range options {
				if o == option {
					m = m.choose(i)
				}
			}
		}
	}
	return m, nil
}

func (m quizModel) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc", "enter":
		return m, tea.Quit
	case "r":
		m.run.session.Retake()
		m.result = nil
		m.status = ""
		m.current, m.cursor = 0, 0
		m.remaining = m.run.duration
		if m.run.exam {
			if m.countdown != nil {
				m.countdown.Stop()
			}
			m.countdownGen++
			m.countdown = m.newCountdown(m.countdownGen)
			m.countdown.Start()
		}
	}
	return m, nil
}

func (m quizModel) choose(i int) quizModel {
	questions := m.run.session.Questions()
	options := questions[m.current].Options
	if i < 0 || i >= len(options) {
		return m
	}
	if err := m.run.session.Select(m.current, options[i]); err != nil {
		m.status = err.Error()
		return m
	}
	m.status = ""
	if m.current < len(questions)-1 {
		return m.goTo(m.current + 1)
	}
	m.cursor = i
	return m
}

func (m quizModel) goTo(index int) quizModel {
	total := m.run.session.Total()
	m.current = clampInt(index, 0, total-1)
	m.cursor = 0
	if selected, ok := m.run.session.Selected(m.current); ok {
		for i, o := range m.run.session.Questions()[m.current].Options {
			if o == selected {
				m.cursor = i
			}
		}
	}
	return m
}

func (m quizModel) submit() (tea.Model, tea.Cmd) {
	if m.countdown != nil {
		m.countdown.Stop()
	}
	res, first := m.run.session.Submit()
	m.result = &res
	if !first {
		return m, nil
	}
	return m, m.record(res)
}

func (m quizModel) View() string {
	if m.result != nil {
		return m.viewResult()
	}
	questions := m.run.session.Questions()
	q := questions[m.current]

	header := uiTitleStyle.Render(fmt.Sprintf("Quiz  question %d/%d", m.current+1, len(questions)))
	if m.run.exam {
		clock := "time left " + view.FormatClock(m.remaining)
		if m.remaining <= time.Minute {
			clock = uiErrorStyle.Render(clock)
		} else {
			clock = uiMutedStyle.Render(clock)
		}
		header += "  " + clock
	}
	completion := view.QuizCompletion(m.run.session.Answered(), len(questions))
	bar := m.bar.ViewAs(completion.Fraction()) + uiMutedStyle.Render(fmt.Sprintf(" %d/%d answered", completion.Done, completion.Total))

	selected, _ := m.run.session.Selected(m.current)
	lines := []string{lipgloss.NewStyle().Bold(true).Render(q.Question), ""}
	for i, opt := range q.Options {
		mark := " "
		if opt == selected {
			mark = "x"
		}
		line := fmt.Sprintf("[%s] %c) %s", mark, optionLetters[i%len(optionLetters)], opt)
		if i == m.cursor {
			line = uiSelStyle.Render(line)
		}
		lines = append(lines, line)
	}
	panel := uiPanelStyle.Render(strings.Join(lines, "\n"))
	help := uiMutedStyle.Render("up/down: move | enter or a-d: answer | left/right: question | s: submit | q: quit")
	parts := []string{header, bar, panel, help}
	if m.status != "" {
		parts = append(parts, uiErrorStyle.Render(m.status))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m quizModel) viewResult() string {
	res := *m.result
	score := uiOKStyle.Render(fmt.Sprintf("%d/%d  %d%%", res.Score, res.Total, res.Percentage))
	lines := []string{
		uiTitleStyle.Render("Quiz complete") + "  " + score,
		res.Grade,
		uiMutedStyle.Render("time " + view.FormatClock(res.TimeTaken)),
	}
	if len(res.WrongAnswers) > 0 {
		lines = append(lines, "", "Review:")
		for _, q := range res.WrongAnswers {
			lines = append(lines, "- "+q.Question, uiMutedStyle.Render("  correct: "+q.CorrectAnswer))
		}
	}
	if m.status != "" {
		lines = append(lines, "", uiMutedStyle.Render(m.status))
	}
	lines = append(lines, "", uiMutedStyle.Render("r: retake | q: quit"))
	return uiPanelStyle.Render(strings.Join(lines, "\n"))
}
