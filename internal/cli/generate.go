package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"studypilot/internal/model"
	"studypilot/internal/orchestrator"
	"studypilot/internal/view"
)

var errNoDocument = errors.New("no document found; upload a file first (studypilot upload) or pick one (studypilot library use <id>)")

// generate drives req through a retry controller until it settles. A
// failed session is returned as an error.
func (a *app) generate(ctx context.Context, req model.GenerationRequest, label string) (model.RetrySession, error) {
	if a.env.tui() {
		return a.generateTUI(ctx, req, label)
	}
	return a.generatePlain(ctx, req, label)
}

func (a *app) generatePlain(ctx context.Context, req model.GenerationRequest, label string) (model.RetrySession, error) {
	line := view.NewStatusLine(a.env.io.errOut, a.env.io.interactive && !a.env.opts.jsonOut, label)
	line.Start()
	snap, err := a.await(ctx, req, label, line.Update)
	line.Stop("")
	return snap, err
}

// await runs req to completion without any view of its own; onState
// receives every projected transition.
func (a *app) await(ctx context.Context, req model.GenerationRequest, label string, onState func(view.State)) (model.RetrySession, error) {
	ctrl, err := a.newController(func(s model.RetrySession) {
		if onState != nil {
			onState(view.Project(s))
		}
	})
	if err != nil {
		return model.RetrySession{}, err
	}
	defer ctrl.Close()

	if err := ctrl.Start(ctx, req); err != nil && !errors.Is(err, orchestrator.ErrNoSubject) {
		return model.RetrySession{}, err
	}
	snap, waitErr := ctrl.Wait(ctx)
	return settled(label, snap, waitErr)
}

func settled(label string, snap model.RetrySession, waitErr error) (model.RetrySession, error) {
	switch snap.Status {
	case model.StatusSucceeded:
		return snap, nil
	case model.StatusFailed:
		if snap.LastError == orchestrator.ReasonNoDocument {
			return snap, fmt.Errorf("%s: %w", label, errNoDocument)
		}
		return snap, fmt.Errorf("%s: %s", label, snap.LastError)
	}
	if waitErr != nil {
		return snap, waitErr
	}
	return snap, context.Canceled
}

type sessionMsg struct {
	state view.State
}

type startDoneMsg struct {
	err error
}

type loadingModel struct {
	label    string
	spinner  spinner.Model
	state    view.State
	start    tea.Cmd
	err      error
	canceled bool
}

func newLoadingModel(label string, start tea.Cmd) loadingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = uiTitleStyle
	return loadingModel{
		label:   label,
		spinner: sp,
		state:   view.State{Phase: view.PhaseLoading},
		start:   start,
	}
}

func (m loadingModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start)
}

func (m loadingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionMsg:
		m.state = msg.state
		if m.state.Phase != view.PhaseLoading {
			return m, tea.Quit
		}
		return m, nil
	case startDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.canceled = true
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m loadingModel) View() string {
	switch m.state.Phase {
	case view.PhaseReady:
		return uiOKStyle.Render(view.Describe(m.label, m.state)) + "\n"
	case view.PhaseError:
		return uiErrorStyle.Render(view.Describe(m.label, m.state)) + "\n"
	}
	body := m.spinner.View() + " " + uiTitleStyle.Render(view.Describe(m.label, view.State{Phase: view.PhaseLoading, Attempt: m.state.Attempt}))
	if m.state.Advisory != "" {
		body += "\n" + uiWarnStyle.Render(m.state.Advisory)
	}
	return uiPanelStyle.Render(body) + "\n" + uiMutedStyle.Render("q: cancel") + "\n"
}

func (a *app) generateTUI(ctx context.Context, req model.GenerationRequest, label string) (model.RetrySession, error) {
	var prog *tea.Program
	ctrl, err := a.newController(func(s model.RetrySession) {
		prog.Send(sessionMsg{state: view.Project(s)})
	})
	if err != nil {
		return model.RetrySession{}, err
	}
	defer ctrl.Close()

	start := func() tea.Msg {
		err := ctrl.Start(ctx, req)
		if errors.Is(err, orchestrator.ErrNoSubject) {
			// The failed session arrives through OnChange.
			err = nil
		}
		return startDoneMsg{err: err}
	}
	prog = tea.NewProgram(
		newLoadingModel(label, start),
		tea.WithContext(ctx),
		tea.WithInput(a.env.io.in),
		tea.WithOutput(a.env.io.errOut),
	)
	final, err := prog.Run()
	if err != nil {
		ctrl.Reset()
		return ctrl.Snapshot(), err
	}
	if fm, ok := final.(loadingModel); ok {
		if fm.err != nil {
			return ctrl.Snapshot(), fm.err
		}
		if fm.canceled {
			ctrl.Reset()
			return ctrl.Snapshot(), context.Canceled
		}
	}
	return settled(label, ctrl.Snapshot(), nil)
}
