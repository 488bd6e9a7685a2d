package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"studypilot/internal/model"
)

const (
	pathChatStream = "/api/chat/stream"
	sseDataPrefix  = "data: "
	sseDone        = "[DONE]"
)

type ChatRequest struct {
	Messages   []model.ChatMessage `json:"messages"`
	DocumentID string              `json:"document_id,omitempty"`
}

type chatEvent struct {
	Content string `json:"content"`
	Error   string `json:"error"`
}

// StreamError is an error event sent inside an otherwise successful stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "chat stream error: " + e.Message
}

// StreamChat posts the conversation and calls onChunk for every content
// event until [DONE]. It returns the concatenated reply.
func (c *Client) StreamChat(ctx context.Context, chat ChatRequest, onChunk func(string)) (string, error) {
	if len(chat.Messages) == 0 {
		return "", fmt.Errorf("chat needs at least one message")
	}
	data, err := json.Marshal(chat)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, pathChatStream, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &NetworkError{Op: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", parseAPIError(resp.StatusCode, body)
	}

	var reply strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, sseDataPrefix) {
			continue
		}
		payload := strings.TrimSpace(line[len(sseDataPrefix):])
		if payload == sseDone {
			return reply.String(), nil
		}
		var ev chatEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			c.logger.Debug("skip malformed chat event")
			continue
		}
		if ev.Error != "" {
			return reply.String(), &StreamError{Message: ev.Error}
		}
		if ev.Content == "" {
			continue
		}
		reply.WriteString(ev.Content)
		if onChunk != nil {
			onChunk(ev.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return reply.String(), ctxErr
		}
		return reply.String(), &NetworkError{Op: req.Method, URL: req.URL.String(), Err: err}
	}
	// Stream closed without [DONE]; keep what arrived.
	return reply.String(), nil
}
