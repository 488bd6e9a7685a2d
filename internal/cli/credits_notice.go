package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"studypilot/internal/statestore"
)

const (
	creditsCheckInterval      = 15 * time.Minute
	creditsNotificationWindow = time.Hour
	creditsCheckTimeout       = 2 * time.Second
	envDisableCreditsHint     = "STUDYPILOT_DISABLE_CREDITS_HINT"
)

type creditsNoticeCache struct {
	LastChecked  string `json:"last_checked,omitempty"`
	Credits      *int   `json:"credits,omitempty"`
	LastNotified string `json:"last_notified,omitempty"`
}

// maybePrintCreditsHint warns on stderr when the balance drops below the
// configured threshold. The balance is cached so back-to-back commands do
// not hit the backend; every failure here is logged and swallowed.
func (a *app) maybePrintCreditsHint(ctx context.Context) {
	if shouldSkipCreditsHint(a.settings.CreditsWarnBelow) {
		return
	}
	cachePath, err := creditsNoticeCachePath()
	if err != nil {
		a.logger.Debug("credits hint: no cache dir", zap.Error(err))
		return
	}

	cache := loadCreditsNoticeCache(cachePath)
	now := time.Now().UTC()

	lastChecked, hasLastChecked := parseRFC3339(cache.LastChecked)
	if cache.Credits == nil || !hasLastChecked || now.Sub(lastChecked) >= creditsCheckInterval {
		checkCtx, cancel := context.WithTimeout(ctx, creditsCheckTimeout)
		credits, fetchErr := a.client.Credits(checkCtx)
		cancel()
		if fetchErr != nil {
			a.logger.Warn("credits hint: fetch failed", zap.Error(fetchErr))
		} else {
			n := credits.Credits
			cache.Credits = &n
			cache.LastChecked = now.Format(time.RFC3339)
			saveCreditsNoticeCache(cachePath, cache)
		}
	}
	if cache.Credits == nil || *cache.Credits >= a.settings.CreditsWarnBelow {
		return
	}

	lastNotified, hasLastNotified := parseRFC3339(cache.LastNotified)
	if hasLastNotified && now.Sub(lastNotified) < creditsNotificationWindow {
		return
	}

	fmt.Fprintln(a.env.io.errOut, uiWarnStyle.Render(fmt.Sprintf(
		"low credits: %d remaining. Generation requests fail once the balance reaches 0.",
		*cache.Credits,
	)))
	cache.LastNotified = now.Format(time.RFC3339)
	saveCreditsNoticeCache(cachePath, cache)
}

func shouldSkipCreditsHint(warnBelow int) bool {
	if warnBelow <= 0 {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(os.Getenv(envDisableCreditsHint)), "1")
}

func creditsNoticeCachePath() (string, error) {
	cacheRoot, err := os.UserCacheDir()
	if err != nil || strings.TrimSpace(cacheRoot) == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", homeErr
		}
		cacheRoot = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheRoot, "studypilot", "credits-check.json"), nil
}

func loadCreditsNoticeCache(cachePath string) creditsNoticeCache {
	var cache creditsNoticeCache
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return cache
	}
	_ = json.Unmarshal(data, &cache)
	return cache
}

func saveCreditsNoticeCache(cachePath string, cache creditsNoticeCache) {
	if err := statestore.Mkdir(filepath.Dir(cachePath)); err != nil {
		return
	}
	_ = statestore.WriteJSON(cachePath, cache)
}

func parseRFC3339(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
