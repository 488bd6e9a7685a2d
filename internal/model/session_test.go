package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationRequest_Validate(t *testing.T) {
	require.NoError(t, GenerationRequest{Kind: KindQuiz}.Validate())
	require.Error(t, GenerationRequest{Kind: "nope"}.Validate())
	require.Error(t, GenerationRequest{Kind: KindExplanation}.Validate())
	require.Error(t, GenerationRequest{Kind: KindLearningPath, Params: GenerationParams{Goal: "Go"}}.Validate())
	require.NoError(t, GenerationRequest{Kind: KindLearningPath, Params: GenerationParams{Goal: "Go", Days: 7}}.Validate())
	require.Error(t, GenerationRequest{Kind: KindNotes, Params: GenerationParams{RawNotes: "  "}}.Validate())
}

func TestGenerationRequest_DifficultyDefaultsToMedium(t *testing.T) {
	assert.Equal(t, "medium", GenerationRequest{}.DifficultyOrDefault())
	assert.Equal(t, "hard", GenerationRequest{Params: GenerationParams{Difficulty: "hard"}}.DifficultyOrDefault())
}

func TestDecodePayload(t *testing.T) {
	s := RetrySession{
		ID:      "s1",
		Request: GenerationRequest{Kind: KindFlashcards},
		Status:  StatusSucceeded,
		Payload: json.RawMessage(`[{"question":"q1","answer":"a1"},{"question":"q2","answer":"a2"}]`),
	}
	cards, err := DecodePayload[[]Flashcard](s)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "a2", cards[1].Answer)

	s.Status = StatusFailed
	_, err = DecodePayload[[]Flashcard](s)
	assert.Error(t, err)
}
