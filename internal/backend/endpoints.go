package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"studypilot/internal/model"
)

const (
	pathUploadYouTube = "/api/upload/youtube"
	pathUploadPDF     = "/api/upload/pdf"
	pathFlashcards    = "/api/generate/flashcards"
	pathQuiz          = "/api/generate/quiz"
	pathMindMap       = "/api/generate/mindmap"
	pathExplainTopic  = "/api/generate/explain-topic"
	pathImproveNotes  = "/api/generate/improve-notes"
	pathGenerateAll   = "/api/generate/all"
	pathPathGenerate  = "/api/path/generate"
	pathQuizSubmit    = "/api/quiz/submit"
	pathAnalytics     = "/api/quiz/analytics"
	pathLibrary       = "/api/library/"
	pathCredits       = "/api/user/credits"
	pathHealth        = "/health"
)

type documentBody struct {
	DocumentID string `json:"document_id"`
}

type generateBody struct {
	DocumentID string `json:"document_id"`
	Difficulty string `json:"difficulty"`
	Adaptive   bool   `json:"is_adaptive"`
}

type generateAllBody struct {
	DocumentID string `json:"document_id"`
	Difficulty string `json:"difficulty"`
}

type explainBody struct {
	DocumentID string `json:"document_id"`
	Topic      string `json:"topic"`
}

type notesBody struct {
	RawNotes string `json:"raw_notes"`
}

type pathBody struct {
	Goal string `json:"goal"`
	Days int    `json:"days"`
}

type completeDayBody struct {
	Day       int  `json:"day"`
	Completed bool `json:"completed"`
}

type completeDayResponse struct {
	Status  string        `json:"status"`
	Roadmap model.Roadmap `json:"roadmap"`
}

// Generate issues the single request for one artifact kind. SubjectID must
// already be resolved for subject-scoped kinds.
func (c *Client) Generate(ctx context.Context, req model.GenerationRequest) (json.RawMessage, error) {
	if req.Kind.RequiresSubject() && strings.TrimSpace(req.SubjectID) == "" {
		return nil, fmt.Errorf("%s requires a document id", req.Kind)
	}
	switch req.Kind {
	case model.KindFlashcards:
		return c.Send(ctx, http.MethodPost, pathFlashcards, generateBody{
			DocumentID: req.SubjectID,
			Difficulty: req.DifficultyOrDefault(),
			Adaptive:   req.Params.Adaptive,
		})
	case model.KindQuiz:
		return c.Send(ctx, http.MethodPost, pathQuiz, generateBody{
			DocumentID: req.SubjectID,
			Difficulty: req.DifficultyOrDefault(),
			Adaptive:   req.Params.Adaptive,
		})
	case model.KindMindMap:
		return c.Send(ctx, http.MethodPost, pathMindMap, documentBody{DocumentID: req.SubjectID})
	case model.KindExplanation:
		return c.Send(ctx, http.MethodPost, pathExplainTopic, explainBody{DocumentID: req.SubjectID, Topic: req.Params.Topic})
	case model.KindSummary:
		return c.Send(ctx, http.MethodPost, pathGenerateAll, generateAllBody{
			DocumentID: req.SubjectID,
			Difficulty: req.DifficultyOrDefault(),
		})
	case model.KindNotes:
		return c.Send(ctx, http.MethodPost, pathImproveNotes, notesBody{RawNotes: req.Params.RawNotes})
	case model.KindLearningPath:
		return c.Send(ctx, http.MethodPost, pathPathGenerate, pathBody{Goal: req.Params.Goal, Days: req.Params.Days})
	default:
		return nil, fmt.Errorf("unsupported artifact kind %q", req.Kind)
	}
}

func (c *Client) UploadYouTube(ctx context.Context, videoURL string) (model.UploadResult, error) {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return model.UploadResult{}, fmt.Errorf("video url is required")
	}
	raw, err := c.Send(ctx, http.MethodPost, pathUploadYouTube, map[string]string{"url": videoURL})
	if err != nil {
		return model.UploadResult{}, err
	}
	return decodeInto[model.UploadResult](raw, pathUploadYouTube)
}

func (c *Client) UploadPDF(ctx context.Context, filename string, content io.Reader) (model.UploadResult, error) {
	raw, err := c.SendMultipart(ctx, pathUploadPDF, "file", filename, content)
	if err != nil {
		return model.UploadResult{}, err
	}
	return decodeInto[model.UploadResult](raw, pathUploadPDF)
}

func (c *Client) GetPath(ctx context.Context, pathID string) (model.LearningPath, error) {
	endpoint := "/api/path/" + url.PathEscape(pathID)
	raw, err := c.Send(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.LearningPath{}, err
	}
	return decodeInto[model.LearningPath](raw, endpoint)
}

func (c *Client) CompletePathDay(ctx context.Context, pathID string, day int, completed bool) (model.Roadmap, error) {
	endpoint := "/api/path/" + url.PathEscape(pathID) + "/complete"
	raw, err := c.Send(ctx, http.MethodPut, endpoint, completeDayBody{Day: day, Completed: completed})
	if err != nil {
		return model.Roadmap{}, err
	}
	resp, err := decodeInto[completeDayResponse](raw, endpoint)
	if err != nil {
		return model.Roadmap{}, err
	}
	return resp.Roadmap, nil
}

func (c *Client) SubmitQuizAttempt(ctx context.Context, attempt model.QuizAttempt) error {
	_, err := c.Send(ctx, http.MethodPost, pathQuizSubmit, attempt)
	return err
}

func (c *Client) Analytics(ctx context.Context) (model.Analytics, error) {
	raw, err := c.Send(ctx, http.MethodGet, pathAnalytics, nil)
	if err != nil {
		return model.Analytics{}, err
	}
	return decodeInto[model.Analytics](raw, pathAnalytics)
}

func (c *Client) Library(ctx context.Context) (model.Library, error) {
	raw, err := c.Send(ctx, http.MethodGet, pathLibrary, nil)
	if err != nil {
		return model.Library{}, err
	}
	return decodeInto[model.Library](raw, pathLibrary)
}

func (c *Client) Credits(ctx context.Context) (model.Credits, error) {
	raw, err := c.Send(ctx, http.MethodGet, pathCredits, nil)
	if err != nil {
		return model.Credits{}, err
	}
	return decodeInto[model.Credits](raw, pathCredits)
}

func (c *Client) Health(ctx context.Context) error {
	_, err := c.Send(ctx, http.MethodGet, pathHealth, nil)
	return err
}
