package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"studypilot/internal/model"
)

type flashcardsModel struct {
	cards   []model.Flashcard
	current int
	flipped map[int]bool
	grid    bool
	width   int
}

func newFlashcardsModel(cards []model.Flashcard) flashcardsModel {
	return flashcardsModel{cards: cards, flipped: map[int]bool{}}
}

func runFlashcardsView(ctx context.Context, env *cmdEnv, cards []model.Flashcard) error {
	p := tea.NewProgram(newFlashcardsModel(cards),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithInput(env.io.in),
		tea.WithOutput(env.io.out),
	)
	_, err := p.Run()
	return err
}

func (m flashcardsModel) Init() tea.Cmd {
	return nil
}

func (m flashcardsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case " ", "enter", "f":
			m.flipped[m.current] = !m.flipped[m.current]
		case "right", "l", "n":
			m = m.move(1)
		case "left", "h", "p":
			m = m.move(-1)
		case "g":
			m.grid = !m.grid
		}
	}
	return m, nil
}

// move wraps around and turns the card being left face down.
func (m flashcardsModel) move(delta int) flashcardsModel {
	if len(m.cards) == 0 {
		return m
	}
	m.flipped[m.current] = false
	m.current = (m.current + delta + len(m.cards)) % len(m.cards)
	return m
}

func (m flashcardsModel) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	header := uiTitleStyle.Render(fmt.Sprintf("Flashcards  %d/%d", m.current+1, len(m.cards))) + "\n" +
		uiMutedStyle.Render("space: flip | left/right: move | g: grid | q: quit")
	if m.grid {
		return lipgloss.JoinVertical(lipgloss.Left, header, m.viewGrid(width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewCard(width))
}

func (m flashcardsModel) viewCard(width int) string {
	card := m.cards[m.current]
	side, text := "QUESTION", card.Question
	if m.flipped[m.current] {
		side, text = "ANSWER", card.Answer
	}
	boxW := clampInt(width-4, 30, 90)
	body := uiMutedStyle.Render(side) + "\n\n" + lipgloss.NewStyle().Width(boxW-4).Render(text)
	return uiPanelStyle.Width(boxW).Render(body)
}

func (m flashcardsModel) viewGrid(width int) string {
	lines := make([]string, 0, len(m.cards))
	for i, c := range m.cards {
		text := c.Question
		if m.flipped[i] {
			text = c.Answer
		}
		line := truncateRunes(fmt.Sprintf("%2d. %s", i+1, text), clampInt(width-6, 20, 120))
		if i == m.current {
			line = uiSelStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return uiPanelStyle.Render(strings.Join(lines, "\n"))
}
