package statestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	lockOwnerFile = "owner.json"
	lockPollEvery = 25 * time.Millisecond
)

var ErrLocked = errors.New("state file is locked")

type fileLock struct {
	lockDir string
}

type lockOwner struct {
	PID       int    `json:"pid"`
	CreatedAt string `json:"created_at"`
	Hostname  string `json:"hostname,omitempty"`
}

func lockDirFor(statePath string) string {
	return statePath + ".lock"
}

// tryLock makes one attempt to create the lock directory.
func tryLock(lockDir string) (fileLock, error) {
	if err := os.Mkdir(lockDir, 0o755); err != nil {
		if os.IsExist(err) {
			var owner lockOwner
			if readErr := ReadJSON(filepath.Join(lockDir, lockOwnerFile), &owner); readErr == nil && owner.PID > 0 {
				return fileLock{}, fmt.Errorf("%w: %s (pid=%d created_at=%s host=%s)", ErrLocked, lockDir, owner.PID, owner.CreatedAt, owner.Hostname)
			}
			return fileLock{}, fmt.Errorf("%w: %s", ErrLocked, lockDir)
		}
		return fileLock{}, fmt.Errorf("acquire state lock %s: %w", lockDir, err)
	}

	owner := lockOwner{
		PID:       os.Getpid(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostnameOrUnknown(),
	}
	if err := WriteJSON(filepath.Join(lockDir, lockOwnerFile), owner); err != nil {
		_ = os.Remove(lockDir)
		return fileLock{}, fmt.Errorf("write state lock owner %s: %w", lockDir, err)
	}
	return fileLock{lockDir: lockDir}, nil
}

// acquireLock polls until the lock is free, wait elapses or ctx ends.
func acquireLock(ctx context.Context, statePath string, wait time.Duration) (fileLock, error) {
	lockDir := lockDirFor(statePath)
	if err := os.MkdirAll(filepath.Dir(lockDir), 0o755); err != nil {
		return fileLock{}, fmt.Errorf("create parent for %s: %w", lockDir, err)
	}
	deadline := time.Now().Add(wait)
	for {
		lock, err := tryLock(lockDir)
		if err == nil || !errors.Is(err, ErrLocked) {
			return lock, err
		}
		if time.Now().After(deadline) {
			return fileLock{}, err
		}
		select {
		case <-ctx.Done():
			return fileLock{}, ctx.Err()
		case <-time.After(lockPollEvery):
		}
	}
}

func (l fileLock) Release() error {
	if strings.TrimSpace(l.lockDir) == "" {
		return nil
	}
	_ = os.Remove(filepath.Join(l.lockDir, lockOwnerFile))
	if err := os.Remove(l.lockDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release state lock %s: %w", l.lockDir, err)
	}
	return nil
}

func hostnameOrUnknown() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "unknown"
	}
	return host
}
