package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"studypilot/internal/mindmap"
	"studypilot/internal/model"
	"studypilot/internal/view"
)

type explainStateMsg struct {
	topic string
	state view.State
}

type explainDoneMsg struct {
	topic string
	text  string
	err   error
}

type askDoneMsg struct {
	message string
	err     error
}

type mindMapModel struct {
	nodes   []mindmap.PlacedNode
	cursor  int
	width   int
	height  int
	pending string
	status  string
	texts   map[string]string
	asked   string

	explain func(topic string) tea.Cmd
	ask     func(topic string) tea.Cmd
}

func (a *app) runMindMapView(ctx context.Context, m model.MindMap, documentID string) error {
	layout, err := mindmap.Arrange(m)
	if err != nil {
		return err
	}
	var prog *tea.Program
	explainer, err := mindmap.NewExplainer(a.explainFunc(func(topic string, st view.State) {
		prog.Send(explainStateMsg{topic: topic, state: st})
	}))
	if err != nil {
		return err
	}
	mm := mindMapModel{
		nodes: layout.Nodes,
		texts: map[string]string{},
		explain: func(topic string) tea.Cmd {
			return func() tea.Msg {
				text, err := explainer.Explain(ctx, documentID, topic)
				return explainDoneMsg{topic: topic, text: text, err: err}
			}
		},
		ask: func(topic string) tea.Cmd {
			return func() tea.Msg {
				msg, err := a.handOffToChat(ctx, topic)
				return askDoneMsg{message: msg, err: err}
			}
		},
	}
	prog = tea.NewProgram(mm,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithInput(a.env.io.in),
		tea.WithOutput(a.env.io.out),
	)
	final, err := prog.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(mindMapModel); ok && fm.asked != "" {
		fmt.Fprintf(a.env.io.out, "queued for chat: %s\n", fm.asked)
		fmt.Fprintln(a.env.io.out, "next: studypilot chat")
	}
	return nil
}

func (m mindMapModel) Init() tea.Cmd {
	return nil
}

func (m mindMapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case explainStateMsg:
		if msg.topic == m.pending && msg.state.Advisory != "" {
			m.status = msg.state.Advisory
		}
		return m, nil
	case explainDoneMsg:
		if msg.topic == m.pending {
			m.pending = ""
			m.status = ""
		}
		if msg.err != nil {
			m.texts[msg.topic] = "Failed to load explanation: " + msg.err.Error()
			return m, nil
		}
		m.texts[msg.topic] = msg.text
		return m, nil
	case askDoneMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
			return m, nil
		}
		m.asked = msg.message
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.nodes)-1 {
				m.cursor++
			}
		case "enter", "e":
			topic := m.selected()
			if topic == "" || m.pending != "" {
				return m, nil
			}
			m.pending = topic
			m.status = "explaining " + topic + "..."
			return m, m.explain(topic)
		case "a":
			if topic := m.selected(); topic != "" {
				return m, m.ask(topic)
			}
		}
	}
	return m, nil
}

func (m mindMapModel) selected() string {
	if m.cursor < 0 || m.cursor >= len(m.nodes) {
		return ""
	}
	n := m.nodes[m.cursor]
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

func (m mindMapModel) View() string {
	width := m.width
	if width <= 0 {
		width = 100
	}
	header := uiTitleStyle.Render("Mind map") + "\n" +
		uiMutedStyle.Render("up/down: node | enter: explain | a: ask in chat | q: quit")

	leftW := clampInt(width/2, 30, 60)
	rightW := clampInt(width-leftW-2, 30, 100)

	lines := make([]string, 0, len(m.nodes))
	for i, n := range m.nodes {
		line := truncateRunes(strings.Repeat("  ", n.Rank)+n.Label, leftW-4)
		if i == m.cursor {
			line = uiSelStyle.Render(line)
		}
		lines = append(lines, line)
	}
	list := uiPanelStyle.Width(leftW).Render(strings.Join(lines, "\n"))

	topic := m.selected()
	detail := uiMutedStyle.Render("Press enter to explain this topic.")
	if text, ok := m.texts[topic]; ok {
		detail = text
	}
	right := uiPanelStyle.Width(rightW).Render(uiTitleStyle.Render(topic) + "\n\n" + lipgloss.NewStyle().Width(rightW-4).Render(detail))

	body := lipgloss.JoinHorizontal(lipgloss.Top, list, right)
	parts := []string{header, body}
	if m.status != "" {
		parts = append(parts, uiWarnStyle.Render(m.status))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
