// Package settings owns the client configuration file and its defaults.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"studypilot/internal/statestore"
)

const (
	DefaultConfigPath      = "config/studypilot.json"
	DefaultAPIURL          = "http://localhost:8000"
	DefaultRequestTimeoutS = 120
	DefaultRetryDelayMS    = 5000
	DefaultMaxAttempts     = 0
	DefaultExamSeconds     = 1800
	DefaultStateBackend    = statestore.BackendFile
	DefaultStatePath       = "state/studypilot-state.json"
	DefaultLogFile         = "logs/studypilot.log"
	DefaultCreditsWarn     = 3
	settingsSchemaVersion  = 1
)

type Settings struct {
	APIURL           string `json:"api_url"`
	RequestTimeoutS  int    `json:"request_timeout_s"`
	RetryDelayMS     int    `json:"retry_delay_ms"`
	MaxAttempts      int    `json:"max_attempts"`
	ExamSeconds      int    `json:"exam_seconds"`
	StateBackend     string `json:"state_backend"`
	StatePath        string `json:"state_path"`
	RedisAddr        string `json:"redis_addr,omitempty"`
	LogFile          string `json:"log_file"`
	MetricsFile      string `json:"metrics_file,omitempty"`
	CreditsWarnBelow int    `json:"credits_warn_below"`
}

type settingsFile struct {
	SchemaVersion int      `json:"schema_version"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
	Settings      Settings `json:"settings"`
}

func Defaults() Settings {
	return Settings{
		APIURL:           DefaultAPIURL,
		RequestTimeoutS:  DefaultRequestTimeoutS,
		RetryDelayMS:     DefaultRetryDelayMS,
		MaxAttempts:      DefaultMaxAttempts,
		ExamSeconds:      DefaultExamSeconds,
		StateBackend:     DefaultStateBackend,
		StatePath:        DefaultStatePath,
		LogFile:          DefaultLogFile,
		CreditsWarnBelow: DefaultCreditsWarn,
	}
}

func Normalize(raw Settings) Settings {
	norm := raw
	norm.APIURL = strings.TrimRight(strings.TrimSpace(norm.APIURL), "/")
	if norm.APIURL == "" {
		norm.APIURL = DefaultAPIURL
	}
	if norm.RequestTimeoutS <= 0 {
		norm.RequestTimeoutS = DefaultRequestTimeoutS
	}
	if norm.RetryDelayMS <= 0 {
		norm.RetryDelayMS = DefaultRetryDelayMS
	}
	if norm.MaxAttempts < 0 {
		norm.MaxAttempts = DefaultMaxAttempts
	}
	if norm.ExamSeconds <= 0 {
		norm.ExamSeconds = DefaultExamSeconds
	}
	norm.StateBackend = normalizeBackend(norm.StateBackend)
	norm.StatePath = strings.TrimSpace(norm.StatePath)
	if norm.StatePath == "" {
		norm.StatePath = DefaultStatePath
	}
	norm.RedisAddr = strings.TrimSpace(norm.RedisAddr)
	norm.LogFile = strings.TrimSpace(norm.LogFile)
	norm.MetricsFile = strings.TrimSpace(norm.MetricsFile)
	if norm.CreditsWarnBelow < 0 {
		norm.CreditsWarnBelow = 0
	}
	return norm
}

func normalizeBackend(raw string) string {
	switch v := strings.ToLower(strings.TrimSpace(raw)); v {
	case statestore.BackendFile, statestore.BackendMemory, statestore.BackendRedis:
		return v
	default:
		return DefaultStateBackend
	}
}

func (s Settings) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelayMS) * time.Millisecond
}

func (s Settings) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutS) * time.Second
}

func (s Settings) ExamDuration() time.Duration {
	return time.Duration(s.ExamSeconds) * time.Second
}

func (s Settings) StoreOptions() statestore.Options {
	return statestore.Options{
		Backend:   s.StateBackend,
		Path:      s.StatePath,
		RedisAddr: s.RedisAddr,
	}
}

func normalizeConfigPath(path string) string {
	if p := strings.TrimSpace(path); p != "" {
		return p
	}
	return DefaultConfigPath
}

// Read returns defaults when the file does not exist yet.
func Read(configPath string) (Settings, error) {
	path := normalizeConfigPath(configPath)
	var doc settingsFile
	if err := statestore.ReadJSON(path, &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return Settings{}, err
	}
	return Normalize(doc.Settings), nil
}

// Ensure writes a defaults file if none exists.
func Ensure(configPath string) (Settings, bool, error) {
	path := normalizeConfigPath(configPath)
	if _, err := os.Stat(path); err == nil {
		s, err := Read(path)
		return s, false, err
	} else if !os.IsNotExist(err) {
		return Settings{}, false, fmt.Errorf("stat %s: %w", path, err)
	}
	s := Defaults()
	if err := save(path, s); err != nil {
		return Settings{}, false, err
	}
	return s, true, nil
}

type UpdateResult struct {
	ConfigPath string   `json:"config_path"`
	Settings   Settings `json:"settings"`
}

func Update(configPath string, mutate func(*Settings) error) (UpdateResult, error) {
	path := normalizeConfigPath(configPath)
	s, err := Read(path)
	if err != nil {
		return UpdateResult{}, err
	}
	if err := mutate(&s); err != nil {
		return UpdateResult{}, err
	}
	s = Normalize(s)
	if err := save(path, s); err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{ConfigPath: path, Settings: s}, nil
}

func save(path string, s Settings) error {
	if err := statestore.Mkdir(filepath.Dir(path)); err != nil {
		return err
	}
	return statestore.WriteJSON(path, settingsFile{
		SchemaVersion: settingsSchemaVersion,
		UpdatedAt:     time.Now().UTC().Format(time.RFC3339),
		Settings:      Normalize(s),
	})
}

var setters = map[string]func(*Settings, string) error{
	"api_url":            func(s *Settings, v string) error { s.APIURL = v; return nil },
	"request_timeout_s":  intSetter(func(s *Settings, n int) { s.RequestTimeoutS = n }),
	"retry_delay_ms":     intSetter(func(s *Settings, n int) { s.RetryDelayMS = n }),
	"max_attempts":       intSetter(func(s *Settings, n int) { s.MaxAttempts = n }),
	"exam_seconds":       intSetter(func(s *Settings, n int) { s.ExamSeconds = n }),
	"credits_warn_below": intSetter(func(s *Settings, n int) { s.CreditsWarnBelow = n }),
	"state_path":         func(s *Settings, v string) error { s.StatePath = v; return nil },
	"redis_addr":         func(s *Settings, v string) error { s.RedisAddr = v; return nil },
	"log_file":           func(s *Settings, v string) error { s.LogFile = v; return nil },
	"metrics_file":       func(s *Settings, v string) error { s.MetricsFile = v; return nil },
	"state_backend": func(s *Settings, v string) error {
		b := strings.ToLower(strings.TrimSpace(v))
		if normalizeBackend(b) != b {
			return fmt.Errorf("invalid state_backend %q (expected file|memory|redis)", v)
		}
		s.StateBackend = b
		return nil
	},
}

func intSetter(set func(*Settings, int)) func(*Settings, string) error {
	return func(s *Settings, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", v)
		}
		if n < 0 {
			return fmt.Errorf("value must be >= 0")
		}
		set(s, n)
		return nil
	}
}

// Apply sets one field by its JSON key.
func Apply(s *Settings, key, value string) error {
	set, ok := setters[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return fmt.Errorf("unknown setting %q (expected one of: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := set(s, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
