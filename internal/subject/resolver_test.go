package subject

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studypilot/internal/model"
	"studypilot/internal/statestore"
)

func TestResolver_ReadsStoreOnEveryCall(t *testing.T) {
	ctx := context.Background()
	store := statestore.NewMemoryStore()
	r := NewResolver(store)

	_, err := r.Resolve(ctx, model.KindMindMap)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, statestore.KeyDocumentID, "doc-1"))
	id, err := r.Resolve(ctx, model.KindMindMap)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)

	require.NoError(t, store.Set(ctx, statestore.KeyDocumentID, "doc-2"))
	id, err = r.Resolve(ctx, model.KindFlashcards)
	require.NoError(t, err)
	assert.Equal(t, "doc-2", id)
}

func TestResolver_RememberAndForgetPath(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(statestore.NewMemoryStore())

	require.NoError(t, r.Remember(ctx, model.KindLearningPath, " path-1 "))
	id, err := r.Resolve(ctx, model.KindLearningPath)
	require.NoError(t, err)
	assert.Equal(t, "path-1", id)

	require.NoError(t, r.Forget(ctx, model.KindLearningPath))
	_, err = r.Resolve(ctx, model.KindLearningPath)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolver_UnscopedKind(t *testing.T) {
	r := NewResolver(statestore.NewMemoryStore())
	_, err := r.Resolve(context.Background(), model.KindNotes)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, r.Remember(context.Background(), model.KindNotes, "x"))
	assert.NoError(t, r.Forget(context.Background(), model.KindNotes))
}
