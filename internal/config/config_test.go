package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"radar": { "url": "https://radar.example" },
		"db": { "type": "postgres", "host": "10.0.0.1", "port": "5433" }
	}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "https://radar.example", viper.GetString("radar.url"))
	assert.Equal(t, "postgres", viper.GetString("db.type"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./objmaplogs", viper.GetString("logsDir"))
	assert.Equal(t, ":8080", viper.GetString("server.addr"))
	assert.Equal(t, 256, viper.GetInt("server.queueSize"))
	assert.Equal(t, "http://localhost:3008", viper.GetString("radar.url"))
	assert.Equal(t, 30*time.Second, viper.GetDuration("radar.timeout"))
	assert.Equal(t, "sqlite", viper.GetString("db.type"))
	assert.Equal(t, "./objmap.db", viper.GetString("db.path"))
	assert.Equal(t, "objmap", viper.GetString("db.database"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, "objmap-searches", viper.GetString("influx.bucket"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestSearch_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg, err := Search()
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 2000, cfg.MaxResults)
}

func TestSearch_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"search": {"debounce": "1s", "maxResults": 50}}`)))

	cfg, err := Search()
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Debounce)
	assert.Equal(t, 50, cfg.MaxResults)
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetDuration(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testDuration", "3m")
	assert.Equal(t, 3*time.Minute, GetDuration("testDuration"))
}
