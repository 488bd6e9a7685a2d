// Package statestore persists the small set of client-side keys the
// study views share: the active document, the active learning path and
// the one-shot chat handoff message.
package statestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"studypilot/internal/model"
)

const (
	KeyDocumentID         = model.SubjectKeyDocument
	KeyLearningPathID     = model.SubjectKeyLearningPath
	KeyInitialChatMessage = "initialChatMessage"
)

const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var ErrNotFound = errors.New("key not found")

// Store is a string key/value store. Get returns ErrNotFound for absent keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Take reads a key and deletes it, for one-shot values.
func Take(ctx context.Context, s Store, key string) (string, error) {
	v, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if err := s.Delete(ctx, key); err != nil {
		return "", err
	}
	return v, nil
}

type Options struct {
	Backend   string
	Path      string
	RedisAddr string
}

func Open(opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		if strings.TrimSpace(opts.Path) == "" {
			return nil, fmt.Errorf("state path is required for the file backend")
		}
		return NewFileStore(opts.Path), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		if strings.TrimSpace(opts.RedisAddr) == "" {
			return nil, fmt.Errorf("redis address is required for the redis backend")
		}
		return NewRedisStore(opts.RedisAddr), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q (expected file|memory|redis)", opts.Backend)
	}
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("state key is required")
	}
	return nil
}
