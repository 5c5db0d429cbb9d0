package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shelepuginivan/xtray"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "XTRAYD"

// Config is configuration of the tray daemon.
type Config struct {
	// X display to connect to; empty means $DISPLAY.
	Display string

	// Screen to manage; negative means the default screen.
	Screen int

	Orientation xtray.Orientation
	IconSize    uint16
	LogLevel    zerolog.Level

	// Export the tray on the session bus.
	DBus bool
}

// registerFlags defines configuration flags on fs.
func registerFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a configuration file")
	fs.String("display", "", "X display to connect to (default $DISPLAY)")
	fs.Int("screen", -1, "screen to manage (default screen if negative)")
	fs.String("orientation", "horizontal", "icon orientation: horizontal or vertical")
	fs.Uint16("icon-size", 24, "size of icon slots in pixels")
	fs.String("log-level", "info", "log level")
	fs.Bool("dbus", true, "export the tray on the session bus")
}

// newViper returns viper bound to fs and to XTRAYD_* environment variables.
func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	return v, nil
}

// loadConfig reads configuration from v, including the configuration file if
// one is set.
func loadConfig(v *viper.Viper) (*Config, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	orientation, err := parseOrientation(v.GetString("orientation"))
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	iconSize := v.GetInt("icon-size")
	if iconSize <= 0 || iconSize > 512 {
		return nil, fmt.Errorf("invalid icon size %d: expected 1..512", iconSize)
	}

	return &Config{
		Display:     v.GetString("display"),
		Screen:      v.GetInt("screen"),
		Orientation: orientation,
		IconSize:    uint16(iconSize),
		LogLevel:    level,
		DBus:        v.GetBool("dbus"),
	}, nil
}

func parseOrientation(s string) (xtray.Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "horizontal":
		return xtray.OrientationHorizontal, nil
	case "vertical":
		return xtray.OrientationVertical, nil
	}

	return 0, fmt.Errorf("invalid orientation %q: expected horizontal or vertical", s)
}
