package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"studypilot/internal/model"
	"studypilot/internal/settings"
	"studypilot/internal/statestore"
)

// fakeBackend serves the study API from canned payloads. A path mapped in
// pending answers "still generating" that many times before succeeding.
type fakeBackend struct {
	t *testing.T

	mu       sync.Mutex
	payloads map[string]any
	pending  map[string]int
	failures map[string]int
	calls    map[string]int
	bodies   map[string][]json.RawMessage
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	return &fakeBackend{
		t:        t,
		payloads: map[string]any{},
		pending:  map[string]int{},
		failures: map[string]int{},
		calls:    map[string]int{},
		bodies:   map[string][]json.RawMessage{},
	}
}

func (f *fakeBackend) handle(route string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[route] = payload
}

// fail makes route answer with status for every following request.
func (f *fakeBackend) fail(route string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[route] = status
}

func (f *fakeBackend) stillGenerating(route string, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[route] = times
}

func (f *fakeBackend) count(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

func (f *fakeBackend) lastBody(route string, v any) {
	f.t.Helper()
	f.mu.Lock()
	bodies := f.bodies[route]
	f.mu.Unlock()
	if len(bodies) == 0 {
		f.t.Fatalf("no request body recorded for %s", route)
	}
	if err := json.Unmarshal(bodies[len(bodies)-1], v); err != nil {
		f.t.Fatalf("decode %s body: %v", route, err)
	}
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.calls[route]++
	if len(body) > 0 && json.Valid(body) {
		f.bodies[route] = append(f.bodies[route], json.RawMessage(body))
	}
	status, failing := f.failures[route]
	pending := f.pending[route]
	if pending > 0 {
		f.pending[route] = pending - 1
	}
	payload, ok := f.payloads[route]
	f.mu.Unlock()

	switch {
	case failing:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"detail":"backend exploded"}`)
		return
	case pending > 0:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Document is still generating"}`)
		return
	case !ok:
		http.NotFound(w, r)
		return
	}

	if chunks, isStream := payload.([]string); isStream && strings.HasPrefix(r.URL.Path, "/api/chat/") {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			data, _ := json.Marshal(map[string]string{"content": c})
			_, _ = io.WriteString(w, "data: "+string(data)+"\n\n")
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

type harness struct {
	t       *testing.T
	backend *fakeBackend
	config  string
	dir     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	backend := newFakeBackend(t)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	for _, key := range []string{
		settings.EnvAPIURL, settings.EnvStateBackend, settings.EnvStatePath,
		settings.EnvRedisAddr, settings.EnvLogFile, settings.EnvMaxAttempts,
	} {
		t.Setenv(key, "")
	}
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv(envDisableCreditsHint, "")

	config := filepath.Join(dir, "config", "studypilot.json")
	_, err := settings.Update(config, func(s *settings.Settings) error {
		s.APIURL = srv.URL
		s.RetryDelayMS = 10
		s.MaxAttempts = 0
		s.StateBackend = statestore.BackendFile
		s.StatePath = filepath.Join(dir, "state", "state.json")
		s.LogFile = filepath.Join(dir, "logs", "studypilot.log")
		s.CreditsWarnBelow = 0
		return nil
	})
	if err != nil {
		t.Fatalf("write settings: %v", err)
	}
	return &harness{t: t, backend: backend, config: config, dir: dir}
}

type runResult struct {
	stdout string
	stderr string
	err    error
}

func (h *harness) run(stdin string, args ...string) runResult {
	h.t.Helper()
	return h.runFrom(strings.NewReader(stdin), args...)
}

// runFrom is run with a caller-owned stdin, for input that arrives late or never.
func (h *harness) runFrom(in io.Reader, args ...string) runResult {
	h.t.Helper()
	var out, errOut bytes.Buffer
	err := execute(context.Background(), append([]string{"--config", h.config}, args...), streams{
		in:     in,
		out:    &out,
		errOut: &errOut,
	})
	return runResult{stdout: out.String(), stderr: errOut.String(), err: err}
}

func (h *harness) mustRun(stdin string, args ...string) runResult {
	h.t.Helper()
	res := h.run(stdin, args...)
	if res.err != nil {
		h.t.Fatalf("%s: %v\nstdout:\n%s\nstderr:\n%s", strings.Join(args, " "), res.err, res.stdout, res.stderr)
	}
	return res
}

// uploadDocument makes id the active document through the upload command.
func (h *harness) uploadDocument(id string) {
	h.t.Helper()
	h.backend.handle("POST /api/upload/youtube", model.UploadResult{DocumentID: id})
	h.mustRun("", "upload", "youtube", "https://www.youtube.com/watch?v=abc123")
}

func (h *harness) state(key string) (string, bool) {
	h.t.Helper()
	store, err := statestore.Open(statestore.Options{
		Backend: statestore.BackendFile,
		Path:    filepath.Join(h.dir, "state", "state.json"),
	})
	if err != nil {
		h.t.Fatalf("open state: %v", err)
	}
	defer store.Close()
	v, err := store.Get(context.Background(), key)
	if err != nil {
		return "", false
	}
	return v, true
}

func decodeJSON[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode output: %v\n%s", err, raw)
	}
	return v
}

func sampleFlashcards(n int) []model.Flashcard {
	cards := make([]model.Flashcard, n)
	for i := range cards {
		cards[i] = model.Flashcard{Question: "Q" + string(rune('1'+i)), Answer: "A" + string(rune('1'+i))}
	}
	return cards
}

func sampleQuestions() []model.QuizQuestion {
	return []model.QuizQuestion{
		{Question: "2+2?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: "4"},
		{Question: "Capital of France?", Options: []string{"Paris", "Rome", "Berlin", "Madrid"}, CorrectAnswer: "Paris"},
		{Question: "Largest planet?", Options: []string{"Mars", "Venus", "Jupiter", "Earth"}, CorrectAnswer: "Jupiter"},
	}
}

func samplePath() model.PathGenerated {
	return model.PathGenerated{
		Status: "success",
		PathID: "path-1",
		Data: model.LearningPath{
			ID:   "path-1",
			Goal: "Learn Go",
			Roadmap: model.Roadmap{Days: []model.RoadmapDay{
				{Day: 1, Topic: "Syntax", Description: "Types and functions"},
				{Day: 2, Topic: "Concurrency", Description: "Goroutines and channels"},
			}},
		},
	}
}
