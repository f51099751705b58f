package providers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinbot/internal/structures"
)

// writeConfigFile lays down a complete YAML config and resets viper's global
// state so tests don't see each other's keys.
func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	viper.Reset()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfigYaml(dir string) string {
	return `
signal:
  apiUrl: http://localhost:8080
  number: "+15550000000"
  notify: true
ipfs:
  apiUrl: http://localhost:5001
  downloadDir: ` + filepath.Join(dir, "downloads") + `
pins:
  duration: 48h
poller:
  interval: 10s
  maxDownloads: 2
webServer:
  host: 0.0.0.0
  port: 8085
logger:
  level: info
  mode: 420
  dir: ` + dir + `
`
}

func TestConfigProvider_LoadsYaml(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, "config.yaml", testConfigYaml(dir))

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, "pinbot", conf.AppName)
	assert.Equal(t, "http://localhost:8080", conf.Signal.ApiUrl)
	assert.Equal(t, "+15550000000", conf.Signal.Number)
	assert.True(t, conf.Signal.Notify)
	assert.Equal(t, "http://localhost:5001", conf.Ipfs.ApiUrl)
	assert.Equal(t, 48*time.Hour, conf.Pins.Duration)
	assert.Equal(t, 10*time.Second, conf.Poller.Interval)
	assert.Equal(t, 2, conf.Poller.MaxDownloads)
	assert.Equal(t, 8085, conf.WebServer.Port)
}

func TestConfigProvider_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, "defaults.yaml", `
signal:
  apiUrl: http://localhost:8080
ipfs:
  apiUrl: http://localhost:5001
  downloadDir: `+filepath.Join(dir, "downloads")+`
webServer:
  host: 0.0.0.0
  port: 8085
logger:
  level: info
  mode: 420
  dir: `+dir+`
`)

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, conf.Poller.Interval)
	assert.Equal(t, 4, conf.Poller.MaxDownloads)
	assert.Equal(t, 72*time.Hour, conf.Pins.Duration)
	assert.Equal(t, 24*time.Hour, conf.Dedup.TTL)
}

func TestConfigProvider_DatabasePathDefault(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, "dbpath.yaml", testConfigYaml(dir))

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.NoError(t, err)

	// pins.db lands next to the download directory.
	assert.Equal(t, filepath.Join(dir, "pins.db"), conf.Pins.DatabasePath)
}

func TestConfigProvider_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, "env.yaml", testConfigYaml(dir))

	t.Setenv("SIGNAL_API_URL", "http://signal:9000")
	t.Setenv("IPFS_API_URL", "http://ipfs:5001")

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, "http://signal:9000", conf.Signal.ApiUrl)
	assert.Equal(t, "http://ipfs:5001", conf.Ipfs.ApiUrl)
}

func TestConfigProvider_LegacyBareNumberEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, "legacy.yaml", testConfigYaml(dir))

	// The original deployment set these as bare seconds and hours.
	t.Setenv("FETCH_INTERVAL", "30")
	t.Setenv("PIN_DURATION", "24")

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, conf.Poller.Interval)
	assert.Equal(t, 24*time.Hour, conf.Pins.Duration)
}

func TestConfigProvider_MalformedLegacyEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, "badlegacy.yaml", testConfigYaml(dir))

	t.Setenv("FETCH_INTERVAL", "often")

	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	assert.Error(t, err)
}

func TestConfigProvider_MissingFile(t *testing.T) {
	viper.Reset()
	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: "/nonexistent/config.yaml"})
	assert.Error(t, err)
}

func TestConfigProvider_InvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, "invalid.yaml", `
signal:
  apiUrl: http://localhost:8080
ipfs:
  apiUrl: http://localhost:5001
  downloadDir: `+filepath.Join(dir, "downloads")+`
webServer:
  host: 0.0.0.0
  port: 8085
logger:
  level: chatty
  mode: 420
  dir: `+dir+`
`)

	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	assert.Error(t, err)
}

func TestConfigProvider_DebugFlagCarriesOver(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, "debug.yaml", testConfigYaml(dir))

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path, DebugMode: true})
	require.NoError(t, err)

	assert.True(t, conf.Debug)
	assert.Equal(t, path, conf.Path)
}
