package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"studypilot/internal/model"
	"studypilot/internal/view"
)

type dayUpdatedMsg struct {
	day       int
	completed bool
	roadmap   model.Roadmap
	err       error
}

type pathModel struct {
	path   model.LearningPath
	cursor int
	status string
	bar    progress.Model
	width  int

	update func(day int, completed bool) tea.Cmd
}

func (a *app) runPathView(ctx context.Context, path model.LearningPath) error {
	m := pathModel{
		path: path,
		bar:  progress.New(progress.WithDefaultGradient()),
		update: func(day int, completed bool) tea.Cmd {
			return func() tea.Msg {
				roadmap, err := a.client.CompletePathDay(ctx, path.ID, day, completed)
				return dayUpdatedMsg{day: day, completed: completed, roadmap: roadmap, err: err}
			}
		},
	}
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithInput(a.env.io.in),
		tea.WithOutput(a.env.io.out),
	)
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(pathModel); ok {
		printRoadmap(a.env.io.out, fm.path)
	}
	return nil
}

func (m pathModel) Init() tea.Cmd {
	return nil
}

func (m pathModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	days := m.path.Roadmap.Days
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = clampInt(msg.Width-20, 20, 80)
		return m, nil
	case dayUpdatedMsg:
		if msg.err != nil {
			// Revert only if nothing newer changed the day meanwhile.
			if reverted, err := withDayCompleted(m.path, msg.day, !msg.completed); err == nil && dayCompleted(m.path, msg.day) == msg.completed {
				m.path = reverted
			}
			m.status = fmt.Sprintf("day %d not updated: %v", msg.day, msg.err)
			return m, nil
		}
		if len(msg.roadmap.Days) > 0 {
			m.path.Roadmap = msg.roadmap
		}
		m.status = ""
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(days)-1 {
				m.cursor++
			}
		case " ", "enter", "x":
			if len(days) == 0 {
				return m, nil
			}
			d := days[m.cursor]
			next, err := withDayCompleted(m.path, d.Day, !d.Completed)
			if err != nil {
				m.status = err.Error()
				return m, nil
			}
			m.path = next
			return m, m.update(d.Day, !d.Completed)
		}
	}
	return m, nil
}

func dayCompleted(path model.LearningPath, day int) bool {
	for _, d := range path.Roadmap.Days {
		if d.Day == day {
			return d.Completed
		}
	}
	return false
}

func (m pathModel) View() string {
	width := m.width
	if width <= 0 {
		width = 90
	}
	progress := view.PathProgress(m.path.Roadmap.Days)
	header := uiTitleStyle.Render(m.path.Goal) + "\n" +
		m.bar.ViewAs(progress.Fraction()) + uiMutedStyle.Render(fmt.Sprintf(" %d/%d days", progress.Done, progress.Total)) + "\n" +
		uiMutedStyle.Render("up/down: move | space: toggle done | q: quit")

	lines := make([]string, 0, len(m.path.Roadmap.Days)*2)
	for i, d := range m.path.Roadmap.Days {
		mark := " "
		if d.Completed {
			mark = "x"
		}
		line := truncateRunes(fmt.Sprintf("[%s] Day %d: %s", mark, d.Day, d.Topic), clampInt(width-6, 20, 120))
		if i == m.cursor {
			line = uiSelStyle.Render(line)
		} else if d.Completed {
			line = uiOKStyle.Render(line)
		}
		lines = append(lines, line)
		if i == m.cursor && strings.TrimSpace(d.Description) != "" {
			lines = append(lines, uiMutedStyle.Width(clampInt(width-10, 20, 110)).Render("    "+d.Description))
		}
	}
	parts := []string{header, uiPanelStyle.Render(strings.Join(lines, "\n"))}
	if m.status != "" {
		parts = append(parts, uiErrorStyle.Render(m.status))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
