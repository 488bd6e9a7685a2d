package view

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// StatusLine redraws a single terminal line while a generation is pending.
// It is used when the full-screen views are disabled.
type StatusLine struct {
	out     io.Writer
	enabled bool
	label   string

	mu    sync.Mutex
	state State
	frame int
	last  string

	stop chan struct{}
	once sync.Once
}

func NewStatusLine(out io.Writer, enabled bool, label string) *StatusLine {
	return &StatusLine{
		out:     out,
		enabled: enabled,
		label:   label,
		state:   State{Phase: PhaseLoading},
		stop:    make(chan struct{}),
	}
}

func (l *StatusLine) Start() {
	if !l.enabled {
		return
	}
	go func() {
		t := time.NewTicker(700 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-l.stop:
				return
			case <-t.C:
				l.mu.Lock()
				line := l.renderLocked()
				l.mu.Unlock()
				fmt.Fprintf(l.out, "\r\033[2K%s", line)
			}
		}
	}()
}

// Update records the latest state. With the ticker disabled an advisory
// change is printed once as its own line.
func (l *StatusLine) Update(st State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = st
	if l.enabled {
		return
	}
	if st.Advisory != "" && st.Advisory != l.last {
		l.last = st.Advisory
		fmt.Fprintln(l.out, st.Advisory)
	}
}

func (l *StatusLine) Stop(final string) {
	l.once.Do(func() {
		close(l.stop)
		if !l.enabled {
			if final != "" {
				fmt.Fprintln(l.out, final)
			}
			return
		}
		fmt.Fprintf(l.out, "\r\033[2K%s\n", final)
	})
}

func (l *StatusLine) renderLocked() string {
	frame := spinnerFrames[l.frame%len(spinnerFrames)]
	l.frame++
	return frame + " " + Describe(l.label, l.state)
}

// Describe is the one-line text for a state.
func Describe(label string, st State) string {
	label = strings.TrimSpace(label)
	if label == "" {
		label = string(st.Kind)
	}
	switch st.Phase {
	case PhaseReady:
		return label + ": ready"
	case PhaseError:
		return label + ": " + st.Message
	}
	if st.Advisory != "" {
		return label + ": " + st.Advisory
	}
	if st.Attempt > 1 {
		return fmt.Sprintf("%s: generating (attempt %d)", label, st.Attempt)
	}
	return label + ": generating"
}
