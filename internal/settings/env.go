package settings

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvAPIURL       = "STUDYPILOT_API_URL"
	EnvStateBackend = "STUDYPILOT_STATE_BACKEND"
	EnvStatePath    = "STUDYPILOT_STATE_PATH"
	EnvRedisAddr    = "STUDYPILOT_REDIS_ADDR"
	EnvLogFile      = "STUDYPILOT_LOG_FILE"
	EnvMaxAttempts  = "STUDYPILOT_MAX_ATTEMPTS"
)

// LoadDotenv reads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotenv(paths ...string) {
	if len(paths) == 0 {
		_ = godotenv.Load()
		return
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// ApplyEnv overlays environment variables on top of file settings.
func ApplyEnv(s Settings) Settings {
	out := s
	out.APIURL = firstNonEmpty(getenv(EnvAPIURL), out.APIURL)
	out.StateBackend = firstNonEmpty(getenv(EnvStateBackend), out.StateBackend)
	out.StatePath = firstNonEmpty(getenv(EnvStatePath), out.StatePath)
	out.RedisAddr = firstNonEmpty(getenv(EnvRedisAddr), out.RedisAddr)
	out.LogFile = firstNonEmpty(getenv(EnvLogFile), out.LogFile)
	if v := getenv(EnvMaxAttempts); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			out.MaxAttempts = n
		}
	}
	return Normalize(out)
}

// Load reads the file, then .env, then the environment.
func Load(configPath string) (Settings, error) {
	s, err := Read(configPath)
	if err != nil {
		return Settings{}, err
	}
	LoadDotenv()
	return ApplyEnv(s), nil
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
