package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: test-secret
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.APIPort)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "data/odsie.db", cfg.Database.Path)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
}

func TestLoadConfigReadsValues(t *testing.T) {
	path := writeConfig(t, `
apiPort: 9000
frontendUrl: https://clinic.example.com
database:
  type: postgres
  host: db.internal
  port: "5432"
  name: odsie
  user: odsie
  password: secret
jwt:
  secret: test-secret
  ttl: 2h
storage:
  endpoint: https://nyc3.digitaloceanspaces.com
  region: nyc3
  bucket: odsie-files
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.APIPort)
	assert.Equal(t, "https://clinic.example.com", cfg.FrontendURL)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "odsie-files", cfg.Storage.Bucket)
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	path := writeConfig(t, `
apiPort: 9000
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}
