package statestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// private covers state, caches and lock owners.
	privatePerm os.FileMode = 0o600
	// exported covers files the user asked for, such as improved notes.
	exportedPerm os.FileMode = 0o644
)

func Mkdir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// WriteBytes writes a user-facing export. Readers never see a partial file.
func WriteBytes(path string, data []byte) error {
	return replaceFile(path, data, exportedPerm)
}

// WriteJSON stores v as indented JSON readable by the owner only.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return replaceFile(path, append(data, '\n'), privatePerm)
}

// ReadJSON keeps os.ErrNotExist in the chain so callers can treat a
// missing file as empty state.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// replaceFile goes through a sibling temp file and a rename.
func replaceFile(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := Mkdir(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".studypilot-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", path, err)
	}
	staged := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(staged)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("stage %s: %w", path, err)
	}
	if err = tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err = os.Rename(staged, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
