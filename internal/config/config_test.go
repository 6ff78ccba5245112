package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"DB_DSN": "postgres://localhost/studio"}))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, "UTC", cfg.StudioTimezone)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Empty(t, cfg.StaffTelegram)
}

func TestFromEnv_PostgresRequiresDSN(t *testing.T) {
	_, err := FromEnv(env(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN")
}

func TestFromEnv_MemoryStorage(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"STORAGE":            "memory",
		"STAFF_TELEGRAM_IDS": " 101, 202 ,",
		"STUDIO_TIMEZONE":    "Europe/Moscow",
		"METRICS_ADDR":       "off",
	}))
	require.NoError(t, err)

	assert.Equal(t, []int64{101, 202}, cfg.StaffTelegram)
	assert.True(t, cfg.IsStaff(202))
	assert.False(t, cfg.IsStaff(303))
	assert.Equal(t, "Europe/Moscow", cfg.Location().String())
	assert.Empty(t, cfg.MetricsAddr)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"unknown storage", map[string]string{"STORAGE": "redis"}},
		{"bad timezone", map[string]string{"STORAGE": "memory", "STUDIO_TIMEZONE": "Mars/Olympus"}},
		{"bad staff id", map[string]string{"STORAGE": "memory", "STAFF_TELEGRAM_IDS": "12,abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(env(tt.values))
			assert.Error(t, err)
		})
	}
}
