package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "log/slog"

	cli "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stofix/internal/ipc"
)

// isolate points every optional source at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("STOFIX_CONFIG", "")
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY")
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	c, err := Load([]string{"--env", filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "openai", c.STT.Backend)
	assert.Equal(t, "whisper-1", c.STT.Model)
	assert.Equal(t, "custom_apps.json", c.DataFile)
	assert.Equal(t, 160, c.Speech.Rate)
	assert.InDelta(t, 0.9, c.Speech.Volume, 1e-9)
	assert.Equal(t, time.Second, c.Timing.ListenTimeout)
	assert.Equal(t, 5*time.Second, c.Timing.PhraseLimit)
	assert.Equal(t, 4*time.Second, c.Timing.ComposeWait)
	assert.True(t, c.Dictation.RetypeSubject)
	assert.Equal(t, "F9", c.Hotkeys.Listen)
	assert.Equal(t, "F10", c.Hotkeys.Stop)
	assert.Equal(t, log.LevelInfo, c.Level())
	assert.Equal(t, ipc.DefaultSocketPath(), c.Socket)
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)

	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
log_level = "warn"
data_file = "/from/file.json"

[speech]
rate = 200

[timing]
compose_wait = "6s"

[dictation]
retype_subject = false
`), 0o644))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("OPENAI_API_KEY=sk-test\n"), 0o644))
	t.Setenv("STOFIX_SPEECH_RATE", "180")

	c, err := Load([]string{
		"--env", envPath,
		"--config", cfgPath,
		"--data", "/from/flag.json",
		"--stt", "whisper",
		"-l", "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, "/from/flag.json", c.DataFile)
	assert.Equal(t, "whisper", c.STT.Backend)
	assert.Equal(t, log.LevelDebug, c.Level())
	assert.Equal(t, 180, c.Speech.Rate)
	assert.Equal(t, 6*time.Second, c.Timing.ComposeWait)
	assert.False(t, c.Dictation.RetypeSubject)
	assert.Equal(t, "sk-test", c.STT.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	dir := isolate(t)
	env := filepath.Join(dir, "missing.env")

	_, err := Load([]string{"--env", env, "--stt", "braille"})
	assert.ErrorContains(t, err, "unknown stt backend")

	_, err = Load([]string{"--env", env, "--volume", "3"})
	assert.ErrorContains(t, err, "out of range")

	_, err = Load([]string{"--help"})
	assert.ErrorIs(t, err, cli.ErrHelp)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("rate = = 1"), 0o644))
	_, err = Load([]string{"--env", env, "--config", bad})
	assert.ErrorContains(t, err, "read config")
}
