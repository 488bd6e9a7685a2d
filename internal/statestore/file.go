package statestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

const stateSchemaVersion = 1

type stateFile struct {
	SchemaVersion int               `json:"schema_version"`
	UpdatedAt     string            `json:"updated_at,omitempty"`
	Values        map[string]string `json:"values"`
}

// FileStore keeps all keys in one JSON document guarded by a lock directory.
type FileStore struct {
	path     string
	lockWait time.Duration
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lockWait: 2 * time.Second}
}

func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	state, err := s.read()
	if err != nil {
		return "", err
	}
	v, ok := state.Values[key]
	if !ok || v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return s.update(ctx, func(values map[string]string) {
		values[key] = value
	})
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return s.update(ctx, func(values map[string]string) {
		delete(values, key)
	})
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() (stateFile, error) {
	state := stateFile{SchemaVersion: stateSchemaVersion, Values: map[string]string{}}
	if err := ReadJSON(s.path, &state); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stateFile{SchemaVersion: stateSchemaVersion, Values: map[string]string{}}, nil
		}
		return stateFile{}, err
	}
	if state.Values == nil {
		state.Values = map[string]string{}
	}
	return state, nil
}

func (s *FileStore) update(ctx context.Context, mutate func(map[string]string)) error {
	lock, err := acquireLock(ctx, s.path, s.lockWait)
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release()
	}()

	state, err := s.read()
	if err != nil {
		return err
	}
	mutate(state.Values)
	state.SchemaVersion = stateSchemaVersion
	state.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := WriteJSON(s.path, state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
