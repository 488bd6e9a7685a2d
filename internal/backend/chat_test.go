package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studypilot/internal/model"
)

func newSSEServer(t *testing.T, lines ...string) (*Client, *ChatRequest) {
	t.Helper()
	var got ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			_, _ = io.WriteString(w, line+"\n\n")
		}
	}))
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	return c, &got
}

func TestStreamChat_ConcatenatesChunks(t *testing.T) {
	c, got := newSSEServer(t,
		`data: {"content":"Gradient "}`,
		`: keep-alive`,
		`data: {"content":"descent"}`,
		`data: [DONE]`,
		`data: {"content":"ignored"}`,
	)

	var chunks []string
	reply, err := c.StreamChat(context.Background(), ChatRequest{
		Messages:   []model.ChatMessage{{Role: "user", Content: "what is gd"}},
		DocumentID: "d1",
	}, func(s string) { chunks = append(chunks, s) })

	require.NoError(t, err)
	assert.Equal(t, "Gradient descent", reply)
	assert.Equal(t, []string{"Gradient ", "descent"}, chunks)
	assert.Equal(t, "d1", got.DocumentID)
	require.Len(t, got.Messages, 1)
}

func TestStreamChat_ErrorEvent(t *testing.T) {
	c, _ := newSSEServer(t,
		`data: {"content":"partial"}`,
		`data: {"error":"model overloaded"}`,
		`data: [DONE]`,
	)

	reply, err := c.StreamChat(context.Background(), ChatRequest{
		Messages: []model.ChatMessage{{Role: "user", Content: "hi"}},
	}, nil)

	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, "model overloaded", streamErr.Message)
	assert.Equal(t, "partial", reply)
}

func TestStreamChat_RejectsEmptyConversation(t *testing.T) {
	c, _ := newSSEServer(t)
	_, err := c.StreamChat(context.Background(), ChatRequest{}, nil)
	assert.Error(t, err)
}
