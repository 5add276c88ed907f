package config

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "NOTEHUB_API_URL", "NOTEHUB_TOKEN", "SEARCH_DEBOUNCE", "NOTES_PER_PAGE", "QUERY_STALE_TIME"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "7521", cfg.Port)
	assert.Equal(t, "https://notehub-public.goit.study/api", cfg.APIBaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 12, cfg.NotesPerPage)
	assert.Equal(t, time.Minute, cfg.QueryStaleTime)
	assert.Equal(t, 5*time.Minute, cfg.QueryGCTime)
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("NOTEHUB_API_URL", "http://localhost:7522/")
	t.Setenv("NOTEHUB_TOKEN", "  tok  ")
	t.Setenv("SEARCH_DEBOUNCE", "250ms")
	t.Setenv("NOTES_PER_PAGE", "6")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg := FromEnv()
	assert.Equal(t, "http://localhost:7522", cfg.APIBaseURL)
	assert.Equal(t, "tok", cfg.APIToken)
	assert.Equal(t, 250*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 6, cfg.NotesPerPage)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestFromEnv_BadNumbersFallBack(t *testing.T) {
	t.Setenv("NOTES_PER_PAGE", "many")
	t.Setenv("API_TIMEOUT", "soon")
	cfg := FromEnv()
	assert.Equal(t, 12, cfg.NotesPerPage)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := FromEnv()
	cfg.APIBaseURL = "notehub"
	cfg.NotesPerPage = 0
	cfg.SearchDebounce = 0
	cfg.NotesAPIStore = "postgres"
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Errors, 5)
	assert.Contains(t, err.Error(), "NOTEHUB_API_URL must be an absolute URL")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}
