package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shelepuginivan/xtray"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	registerFlags(fs)
	require.NoError(t, fs.Parse(args))

	v, err := newViper(fs)
	require.NoError(t, err)

	return loadConfig(v)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadFromArgs(t)
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Display:     "",
		Screen:      -1,
		Orientation: xtray.OrientationHorizontal,
		IconSize:    24,
		LogLevel:    zerolog.InfoLevel,
		DBus:        true,
	}, cfg)
}

func TestLoadConfigFlags(t *testing.T) {
	cfg, err := loadFromArgs(t,
		"--display", ":1",
		"--screen", "1",
		"--orientation", "Vertical",
		"--icon-size", "32",
		"--log-level", "debug",
		"--dbus=false",
	)
	require.NoError(t, err)

	assert.Equal(t, ":1", cfg.Display)
	assert.Equal(t, 1, cfg.Screen)
	assert.Equal(t, xtray.OrientationVertical, cfg.Orientation)
	assert.Equal(t, uint16(32), cfg.IconSize)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.False(t, cfg.DBus)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("XTRAYD_ICON_SIZE", "48")
	t.Setenv("XTRAYD_ORIENTATION", "vertical")

	cfg, err := loadFromArgs(t)
	require.NoError(t, err)

	assert.Equal(t, uint16(48), cfg.IconSize)
	assert.Equal(t, xtray.OrientationVertical, cfg.Orientation)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xtrayd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("screen: 2\nlog-level: warn\n"), 0o600))

	cfg, err := loadFromArgs(t, "--config", path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Screen)
	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "orientation", args: []string{"--orientation", "diagonal"}, wantErr: "invalid orientation"},
		{name: "icon size", args: []string{"--icon-size", "0"}, wantErr: "invalid icon size"},
		{name: "log level", args: []string{"--log-level", "loud"}, wantErr: "invalid log level"},
		{name: "missing file", args: []string{"--config", "/nonexistent/xtrayd.yaml"}, wantErr: "read config"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadFromArgs(t, tc.args...)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
