package statestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireLock_BlocksConcurrentAcquire(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")

	lock, err := acquireLock(context.Background(), statePath, 0)
	if err != nil {
		t.Fatalf("acquire first lock: %v", err)
	}
	defer func() {
		_ = lock.Release()
	}()

	if _, err := acquireLock(context.Background(), statePath, 50*time.Millisecond); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("release lock: %v", err)
	}

	lock2, err := acquireLock(context.Background(), statePath, 0)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if err := lock2.Release(); err != nil {
		t.Fatalf("release second lock: %v", err)
	}
}

func TestAcquireLock_WaitsForRelease(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	lock, err := acquireLock(context.Background(), statePath, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	go func() {
		time.Sleep(60 * time.Millisecond)
		_ = lock.Release()
	}()

	lock2, err := acquireLock(context.Background(), statePath, 2*time.Second)
	if err != nil {
		t.Fatalf("expected lock after release, got %v", err)
	}
	_ = lock2.Release()
}
