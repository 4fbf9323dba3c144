package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfigFile(t, "app:\n  name: permit-test\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "permit-test", cfg.App.Name)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 1000, cfg.Wizard.DebounceMs)
	assert.Equal(t, 800, cfg.Wizard.ValidationDelayMs)
	assert.Equal(t, 3, cfg.Wizard.RecentRecommendations)
	assert.Equal(t, int64(10*1024*1024), cfg.Attachments.MaxSizeBytes)
	assert.Equal(t, 10, cfg.Attachments.MaxFiles)
	assert.Equal(t, []string{".pdf", ".jpg", ".jpeg", ".png"}, cfg.Attachments.AllowedTypes)
	assert.Equal(t, "fishery-permit-review", cfg.Camunda.ProcessID)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
}

func TestLoadFromFile_IntegrationGate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		active   bool
		warnings int
	}{
		{
			name:     "nothing configured",
			body:     "app:\n  name: x\n",
			active:   false,
			warnings: 2,
		},
		{
			name:     "host without password",
			body:     "database:\n  postgres:\n    host: db.local\n",
			active:   false,
			warnings: 1,
		},
		{
			name:     "host and password",
			body:     "database:\n  postgres:\n    host: db.local\n    password: secret\n",
			active:   true,
			warnings: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromFile(writeConfigFile(t, tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.active, cfg.IntegrationActive())
			assert.Len(t, cfg.IntegrationWarnings(), tt.warnings)
		})
	}
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("DATABASE_POSTGRES_HOST", "pg.internal")
	t.Setenv("DATABASE_POSTGRES_PASSWORD", "pw")
	t.Setenv("WIZARD_STRICT_ADVANCE", "true")

	cfg, err := LoadFromFile(writeConfigFile(t, "app:\n  name: x\n"))
	require.NoError(t, err)

	assert.Equal(t, "pg.internal", cfg.Database.Postgres.Host)
	assert.True(t, cfg.IntegrationActive())
	assert.True(t, cfg.Wizard.StrictAdvance)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("PERMIT_FROM_EMAIL", "permits@fisheries.example")

	cfg, err := LoadFromFile(writeConfigFile(t,
		"notifications:\n  email:\n    enabled: true\n    from_email: ${PERMIT_FROM_EMAIL}\n"))
	require.NoError(t, err)

	assert.Equal(t, "permits@fisheries.example", cfg.Notifications.Email.FromEmail)
}

func TestLoadFromFile_RejectsMalformedValues(t *testing.T) {
	_, err := LoadFromFile(writeConfigFile(t, "attachments:\n  allowed_types: [pdf]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must start with a dot")
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"assess-risk": {Enabled: false, MaxJobsActive: 2, Timeout: 1000},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "assess-risk"))
	assert.True(t, IsWorkerEnabled(cfg, "unknown"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "unknown").MaxJobsActive)
	assert.Equal(t, time.Second, GetDuration(GetWorkerConfig(cfg, "assess-risk").Timeout))
}
