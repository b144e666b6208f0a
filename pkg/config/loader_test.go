package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
bot:
  mode: polling
server:
  port: ":9090"
database:
  host: localhost
  port: "5432"
  user: queuebot
  name: queuebot
redis:
  addr: localhost:6379
rate_limit:
  per_user:
    limit: 10
    window: 1m
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_AppliesDefaultsAndEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, v, err := LoadFile(writeConfig(t, minimalConfig), "test")
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "test", cfg.AppEnv)
	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.State.TTL)
	assert.Equal(t, 5*time.Second, cfg.State.LockWait)
	assert.Equal(t, 10, cfg.Waitlist.MaxConflictRetries)
	assert.Equal(t, "en", cfg.I18n.DefaultLang)
	assert.Equal(t, 10, cfg.RateLimit.PerUser.Limit)
	assert.Equal(t, "1m", cfg.RateLimit.PerUser.Window)
}

func TestLoadFile_MissingToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	_, _, err := LoadFile(writeConfig(t, minimalConfig), "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestLoadFile_InvalidMode(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	body := minimalConfig + "\nlogger:\n  level: loud\n"
	_, _, err := LoadFile(writeConfig(t, body), "test")
	require.Error(t, err)
}

func TestGetDBConnectionString(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n"}}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", cfg.GetDBConnectionString())
}
