// Package subject maps an artifact kind to the persisted id it is generated for.
package subject

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"studypilot/internal/model"
	"studypilot/internal/statestore"
)

var ErrNotFound = errors.New("no subject selected")

// Resolver reads the store on every call so a subject changed by another
// command or process is picked up by the next generation.
type Resolver struct {
	store statestore.Store
}

func NewResolver(store statestore.Store) *Resolver {
	return &Resolver{store: store}
}

func (r *Resolver) Resolve(ctx context.Context, kind model.ArtifactKind) (string, error) {
	key := kind.SubjectKey()
	if key == "" {
		return "", fmt.Errorf("%w: %s is not tied to a subject", ErrNotFound, kind)
	}
	v, err := r.store.Get(ctx, key)
	if errors.Is(err, statestore.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", key, err)
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return v, nil
}

func (r *Resolver) Remember(ctx context.Context, kind model.ArtifactKind, id string) error {
	key := kind.SubjectKey()
	if key == "" {
		return fmt.Errorf("%s is not tied to a subject", kind)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("subject id is required")
	}
	return r.store.Set(ctx, key, id)
}

func (r *Resolver) Forget(ctx context.Context, kind model.ArtifactKind) error {
	key := kind.SubjectKey()
	if key == "" {
		return nil
	}
	return r.store.Delete(ctx, key)
}
