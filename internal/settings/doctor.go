package settings

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"studypilot/internal/statestore"
)

type DoctorOptions struct {
	ConfigPath string
	Settings   Settings
	// Health checks the backend; nil skips the check.
	Health func(context.Context) error
	// PingState checks a remote state backend; nil skips the check.
	PingState func(context.Context) error
}

type DoctorResult struct {
	OK     bool          `json:"ok"`
	Checks []DoctorCheck `json:"checks"`
}

type DoctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func Doctor(ctx context.Context, opts DoctorOptions) DoctorResult {
	s := Normalize(opts.Settings)
	checks := make([]DoctorCheck, 0, 5)

	if opts.Health != nil {
		check := DoctorCheck{Name: "backend:health", OK: true, Message: "reachable at " + s.APIURL}
		if err := opts.Health(ctx); err != nil {
			check.OK = false
			check.Message = err.Error()
		}
		checks = append(checks, check)
	}

	cfgOK, cfgMessage := ensureWritableDir(filepath.Dir(normalizeConfigPath(opts.ConfigPath)))
	checks = append(checks, DoctorCheck{Name: "directory:config", OK: cfgOK, Message: cfgMessage})

	switch s.StateBackend {
	case statestore.BackendFile:
		ok, msg := ensureWritableDir(filepath.Dir(s.StatePath))
		checks = append(checks, DoctorCheck{Name: "directory:state", OK: ok, Message: msg})
	case statestore.BackendRedis:
		check := DoctorCheck{Name: "state:redis", OK: true, Message: "reachable at " + s.RedisAddr}
		if opts.PingState != nil {
			if err := opts.PingState(ctx); err != nil {
				check.OK = false
				check.Message = err.Error()
			}
		}
		checks = append(checks, check)
	}

	if s.LogFile != "" {
		ok, msg := ensureWritableDir(filepath.Dir(s.LogFile))
		checks = append(checks, DoctorCheck{Name: "directory:logs", OK: ok, Message: msg})
	}

	ok := true
	for _, c := range checks {
		if !c.OK {
			ok = false
			break
		}
	}
	return DoctorResult{OK: ok, Checks: checks}
}

func ensureWritableDir(path string) (bool, string) {
	if strings.TrimSpace(path) == "" {
		return false, "empty path"
	}
	if err := statestore.Mkdir(path); err != nil {
		return false, err.Error()
	}
	f, err := os.CreateTemp(path, "studypilot-check-*.tmp")
	if err != nil {
		return false, err.Error()
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return true, "writable"
}
