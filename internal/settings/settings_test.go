package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestReadDefaultsWhenConfigMissing(t *testing.T) {
	s, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("read settings failed: %v", err)
	}
	if s.RetryDelay() != 5*time.Second {
		t.Fatalf("retry delay default mismatch: got %s", s.RetryDelay())
	}
	if s.MaxAttempts != 0 {
		t.Fatalf("max attempts should default to unbounded, got %d", s.MaxAttempts)
	}
	if s.ExamDuration() != 1800*time.Second {
		t.Fatalf("exam duration default mismatch: got %s", s.ExamDuration())
	}
	if s.StateBackend != "file" {
		t.Fatalf("state backend default mismatch: got %q", s.StateBackend)
	}
}

func TestEnsureThenUpdate(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config", "studypilot.json")

	_, created, err := Ensure(cfg)
	if err != nil || !created {
		t.Fatalf("ensure: created=%v err=%v", created, err)
	}
	if _, created, _ := Ensure(cfg); created {
		t.Fatalf("second ensure must not recreate the file")
	}

	res, err := Update(cfg, func(s *Settings) error {
		if err := Apply(s, "retry_delay_ms", "250"); err != nil {
			return err
		}
		return Apply(s, "api_url", "http://backend:8000/")
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Settings.RetryDelayMS != 250 || res.Settings.APIURL != "http://backend:8000" {
		t.Fatalf("unexpected settings after update: %+v", res.Settings)
	}

	got, err := Read(cfg)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if got != res.Settings {
		t.Fatalf("persisted settings mismatch:\n got %+v\nwant %+v", got, res.Settings)
	}
}

func TestApplyRejectsBadValues(t *testing.T) {
	s := Defaults()
	cases := [][2]string{
		{"retry_delay_ms", "soon"},
		{"max_attempts", "-1"},
		{"state_backend", "etcd"},
		{"colour", "blue"},
	}
	for _, tc := range cases {
		if err := Apply(&s, tc[0], tc[1]); err == nil {
			t.Fatalf("expected %s=%s to be rejected", tc[0], tc[1])
		}
	}
	if s != Defaults() {
		t.Fatalf("rejected values must not change settings")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIURL, "https://api.example.test/")
	t.Setenv(EnvStateBackend, "redis")
	t.Setenv(EnvRedisAddr, "redis://cache:6379/0")
	t.Setenv(EnvMaxAttempts, "4")

	s := ApplyEnv(Defaults())
	if s.APIURL != "https://api.example.test" {
		t.Fatalf("api url override: got %q", s.APIURL)
	}
	if s.StateBackend != "redis" || s.RedisAddr != "redis://cache:6379/0" {
		t.Fatalf("state override: %+v", s)
	}
	if s.MaxAttempts != 4 {
		t.Fatalf("max attempts override: got %d", s.MaxAttempts)
	}
}

func TestDoctorReportsHealthFailure(t *testing.T) {
	dir := t.TempDir()
	s := Defaults()
	s.StatePath = filepath.Join(dir, "state", "s.json")
	s.LogFile = filepath.Join(dir, "logs", "app.log")

	res := Doctor(context.Background(), DoctorOptions{
		ConfigPath: filepath.Join(dir, "config", "c.json"),
		Settings:   s,
		Health:     func(context.Context) error { return errors.New("connection refused") },
	})
	if res.OK {
		t.Fatalf("doctor should fail when the backend is down")
	}
	names := map[string]bool{}
	for _, c := range res.Checks {
		names[c.Name] = c.OK
	}
	if names["backend:health"] {
		t.Fatalf("health check should be failing: %+v", res.Checks)
	}
	for _, name := range []string{"directory:config", "directory:state", "directory:logs"} {
		if ok, present := names[name]; !present || !ok {
			t.Fatalf("expected passing check %s: %+v", name, res.Checks)
		}
	}
}
