package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.Redmine.URL)
	assert.Equal(t, 30*time.Second, cfg.Redmine.Timeout)
	assert.Equal(t, 7, cfg.Data.TrailingWindowDays)
	assert.Equal(t, []int{3, 5, 6}, cfg.Tickets.CompletedStatusIDs)
	assert.False(t, cfg.Tickets.RecordZeroEstimateAdded)
	assert.Contains(t, cfg.DBPath(), "rdburn.db")
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
redmine:
  url: https://tracker.example.com
  api_key: secret
  timeout: 10s
data:
  cache_dir: /tmp/rdburn-test
  trailing_window_days: 14
tickets:
  completed_status_ids: [5]
  record_zero_estimate_added: true
date:
  business_days_only: true
  holidays:
    - 2024-01-01
    - not-a-date
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://tracker.example.com", cfg.Redmine.URL)
	assert.Equal(t, "secret", cfg.Redmine.APIKey)
	assert.Equal(t, 10*time.Second, cfg.Redmine.Timeout)
	assert.Equal(t, 14, cfg.Data.TrailingWindowDays)
	assert.Equal(t, []int{5}, cfg.Tickets.CompletedStatusIDs)
	assert.True(t, cfg.Tickets.RecordZeroEstimateAdded)
	assert.True(t, cfg.Date.BusinessDaysOnly)
	assert.Equal(t, filepath.Join("/tmp/rdburn-test", "rdburn.db"), cfg.DBPath())

	holidays := cfg.HolidayDates()
	require.Len(t, holidays, 1, "malformed holiday entries are skipped")
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), holidays[0])
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
