package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, "progress", cfg.Format)
	assert.True(t, cfg.BeforeAuth)
	assert.True(t, cfg.Contract)
	assert.True(t, cfg.Strict)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	file := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte("base-url: http://file.local\nconcurrency: 3\ntags: \"@read\"\ntimeout: 5s\n"), 0o644))

	t.Setenv("BOOKBDD_CONCURRENCY", "4")
	t.Setenv("BOOKBDD_TAGS", "@create")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("tags", "", "")
	flags.Int("concurrency", 1, "")
	flags.String("unrelated", "", "")
	require.NoError(t, flags.Parse([]string{"--tags", "@delete"}))

	cfg, err := Load(file, flags)
	require.NoError(t, err)
	assert.Equal(t, "http://file.local", cfg.BaseURL, "file overrides default")
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 4, cfg.Concurrency, "env overrides file, unchanged flag does not override env")
	assert.Equal(t, "@delete", cfg.Tags, "changed flag overrides env")
}

func TestLoadFindsFileInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bookbdd.yaml"), []byte("username: alice\n"), 0o644))
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.Username)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load("does-not-exist.yaml", nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Config{BaseURL: "not a url", Timeout: 0, Concurrency: 0}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base-url")
	assert.Contains(t, err.Error(), "timeout")
	assert.Contains(t, err.Error(), "concurrency")

	cfg = Config{BaseURL: DefaultBaseURL, Timeout: time.Second, Concurrency: 1, EventsURL: "collector:8080"}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events-url")
}

func TestFixtureSetOverridesCredentials(t *testing.T) {
	cfg := Config{Username: "bob", Password: "secret"}
	fx, err := cfg.FixtureSet()
	require.NoError(t, err)
	assert.Equal(t, "bob", fx.Credentials.Username)
	assert.Equal(t, "secret", fx.Credentials.Password)
	assert.Equal(t, "Test", fx.Create.Firstname)
}
