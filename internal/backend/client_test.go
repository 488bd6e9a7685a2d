package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studypilot/internal/model"
)

type recorded struct {
	Method string
	Path   string
	Body   map[string]any
}

func newRecordingServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	calls := []recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		mu.Lock()
		calls = append(calls, rec)
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	return c, &calls
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
	_, err = New(Options{BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestSend_DetailFromJSONBody(t *testing.T) {
	c, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Document not found."}`)
	})

	_, err := c.Send(context.Background(), http.MethodPost, "/api/generate/quiz", map[string]string{"document_id": "d"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Document not found.", apiErr.Error())
	assert.Equal(t, ErrorFatal, Classify(err))
}

func TestSend_RawTextFallback(t *testing.T) {
	c, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "Internal Server Error")
	})

	_, err := c.Send(context.Background(), http.MethodGet, "/api/library/", nil)
	assert.Equal(t, "Internal Server Error", Message(err))
}

func TestSend_NonStringDetailFallsBackToRaw(t *testing.T) {
	body := `{"detail":[{"loc":["body","document_id"],"msg":"field required"}]}`
	c, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, body)
	})

	_, err := c.Send(context.Background(), http.MethodPost, "/api/generate/quiz", map[string]string{})
	assert.Equal(t, body, Message(err))
}

func TestSend_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: base})
	require.NoError(t, err)
	_, err = c.Send(context.Background(), http.MethodGet, "/health", nil)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, ErrorNetwork, Classify(err))
	assert.False(t, IsTransient(err))
}

func TestSend_CanceledContext(t *testing.T) {
	c, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{}")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Send(ctx, http.MethodGet, "/health", nil)
	require.Error(t, err)
	assert.Equal(t, ErrorCanceled, Classify(err))
}

func TestClassify_TransientMarkers(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"substring", &APIError{Status: 400, Detail: "Flashcards still generating, try again"}, ErrorTransient},
		{"substring is case sensitive", &APIError{Status: 400, Detail: "Still Generating"}, ErrorFatal},
		{"code", &APIError{Status: 409, Detail: "busy", Code: "still_generating"}, ErrorTransient},
		{"status field", &APIError{Status: 409, Detail: "busy", Code: "pending"}, ErrorTransient},
		{"too early", &APIError{Status: http.StatusTooEarly}, ErrorTransient},
		{"accepted", &APIError{Status: http.StatusAccepted}, ErrorTransient},
		{"plain error text", errors.New("document still generating"), ErrorTransient},
		{"other", &APIError{Status: 402, Detail: "Insufficient credits."}, ErrorFatal},
		{"nil", nil, ErrorNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestOutcome_MapsAttemptResults(t *testing.T) {
	payload := json.RawMessage(`{"questions":[]}`)
	ok := Outcome(payload, nil)
	assert.Equal(t, model.OutcomeSuccess, ok.Kind)
	assert.JSONEq(t, string(payload), string(ok.Payload))

	pending := Outcome(nil, &APIError{Status: 400, Detail: "Quiz still generating"})
	assert.Equal(t, model.OutcomeTransientFailure, pending.Kind)
	assert.Equal(t, "Quiz still generating", pending.Reason)

	denied := Outcome(nil, &APIError{Status: 402, Detail: "Insufficient credits."})
	assert.Equal(t, model.OutcomeFatalFailure, denied.Kind)
	assert.Equal(t, "Insufficient credits.", denied.Reason)

	offline := Outcome(nil, &NetworkError{Op: "POST", URL: "http://x", Err: errors.New("refused")})
	assert.Equal(t, model.OutcomeFatalFailure, offline.Kind)
	assert.Nil(t, offline.Payload)
}

func TestSend_StructuredCodeInBody(t *testing.T) {
	c, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"detail":"not ready","code":"still_generating"}`)
	})
	_, err := c.Send(context.Background(), http.MethodPost, "/api/generate/quiz", map[string]string{})
	assert.True(t, IsTransient(err))
}

func TestGenerate_RoutesByKind(t *testing.T) {
	c, calls := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	ctx := context.Background()

	reqs := []model.GenerationRequest{
		{Kind: model.KindFlashcards, SubjectID: "d1"},
		{Kind: model.KindQuiz, SubjectID: "d1", Params: model.GenerationParams{Difficulty: "hard", Adaptive: true}},
		{Kind: model.KindMindMap, SubjectID: "d1"},
		{Kind: model.KindExplanation, SubjectID: "d1", Params: model.GenerationParams{Topic: "Entropy"}},
		{Kind: model.KindSummary, SubjectID: "d1"},
		{Kind: model.KindNotes, Params: model.GenerationParams{RawNotes: "ml is when comps learn"}},
		{Kind: model.KindLearningPath, Params: model.GenerationParams{Goal: "Learn Go", Days: 7}},
	}
	for _, req := range reqs {
		_, err := c.Generate(ctx, req)
		require.NoError(t, err, req.Kind)
	}

	got := *calls
	require.Len(t, got, len(reqs))
	assert.Equal(t, "/api/generate/flashcards", got[0].Path)
	assert.Equal(t, map[string]any{"document_id": "d1", "difficulty": "medium", "is_adaptive": false}, got[0].Body)
	assert.Equal(t, map[string]any{"document_id": "d1", "difficulty": "hard", "is_adaptive": true}, got[1].Body)
	assert.Equal(t, "/api/generate/mindmap", got[2].Path)
	assert.Equal(t, map[string]any{"document_id": "d1"}, got[2].Body)
	assert.Equal(t, "/api/generate/explain-topic", got[3].Path)
	assert.Equal(t, "Entropy", got[3].Body["topic"])
	assert.Equal(t, "/api/generate/all", got[4].Path)
	assert.Equal(t, "/api/generate/improve-notes", got[5].Path)
	assert.Equal(t, "ml is when comps learn", got[5].Body["raw_notes"])
	assert.Equal(t, "/api/path/generate", got[6].Path)
	assert.Equal(t, map[string]any{"goal": "Learn Go", "days": float64(7)}, got[6].Body)
}

func TestGenerate_RequiresSubjectForDocumentKinds(t *testing.T) {
	c, calls := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := c.Generate(context.Background(), model.GenerationRequest{Kind: model.KindMindMap})
	require.Error(t, err)
	assert.Empty(t, *calls)
}

func TestPathEndpoints(t *testing.T) {
	c, calls := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `{"id":"p1","goal":"Go","timeframe_days":2,"roadmap":{"days":[{"day":1,"topic":"a","description":"x","completed":false},{"day":2,"topic":"b","description":"y","completed":true}]}}`)
		case r.Method == http.MethodPut:
			_, _ = io.WriteString(w, `{"status":"success","roadmap":{"days":[{"day":1,"topic":"a","completed":true}]}}`)
		}
	})
	ctx := context.Background()

	path, err := c.GetPath(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Go", path.Goal)
	require.Len(t, path.Roadmap.Days, 2)
	assert.True(t, path.Roadmap.Days[1].Completed)

	roadmap, err := c.CompletePathDay(ctx, "p1", 1, true)
	require.NoError(t, err)
	assert.True(t, roadmap.Days[0].Completed)

	got := *calls
	assert.Equal(t, "/api/path/p1", got[0].Path)
	assert.Equal(t, "/api/path/p1/complete", got[1].Path)
	assert.Equal(t, map[string]any{"day": float64(1), "completed": true}, got[1].Body)
}

func TestUploadPDF_SendsMultipartFile(t *testing.T) {
	var gotName, gotContent string
	c, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err == nil {
			data, _ := io.ReadAll(file)
			gotName, gotContent = header.Filename, string(data)
		}
		_, _ = io.WriteString(w, `{"document_id":"doc-42"}`)
	})

	res, err := c.UploadPDF(context.Background(), "notes.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "doc-42", res.DocumentID)
	assert.Equal(t, "notes.pdf", gotName)
	assert.Equal(t, "%PDF-1.4", gotContent)
}

func TestReadEndpoints(t *testing.T) {
	c, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/library/":
			_, _ = io.WriteString(w, `{"documents":[{"id":"d1","title":"Thermo","source_type":"pdf","created_at":"2026-01-01T00:00:00Z"}]}`)
		case "/api/user/credits":
			_, _ = io.WriteString(w, `{"credits":3}`)
		case "/api/quiz/analytics":
			_, _ = io.WriteString(w, `{"stats":{"total_quizzes":2,"average_score":75.5,"total_study_time":300},"recent_attempts":[{"percentage":80},{"percentage":71}]}`)
		case "/api/upload/youtube":
			_, _ = io.WriteString(w, `{"document_id":"yt-1"}`)
		default:
			_, _ = io.WriteString(w, `{"status":"ok"}`)
		}
	})
	ctx := context.Background()

	lib, err := c.Library(ctx)
	require.NoError(t, err)
	require.Len(t, lib.Documents, 1)
	assert.Equal(t, "Thermo", lib.Documents[0].Title)

	credits, err := c.Credits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, credits.Credits)

	stats, err := c.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Stats.TotalQuizzes)
	assert.Len(t, stats.RecentAttempts, 2)

	up, err := c.UploadYouTube(ctx, "https://youtu.be/x")
	require.NoError(t, err)
	assert.Equal(t, "yt-1", up.DocumentID)

	require.NoError(t, c.Health(ctx))
	require.NoError(t, c.SubmitQuizAttempt(ctx, model.QuizAttempt{DocumentID: "d1", Score: 1, TotalQuestions: 2, Percentage: 50}))
}
