package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Output struct {
		Dir      string
		Filename string
	}
	Capture struct {
		Pointer      bool
		Keyboard     bool
		TrimTrailing int
		ResetOnStart bool
		MaxEvents    int
		KeymapPath   string
	}
	Tail struct {
		Buffer int
	}
	Debug struct {
		Addr string
	}
	Logging struct {
		Level  string
		Format string
	}
}

// Load builds the configuration from defaults, an optional config file and
// the environment, in rising order of precedence. An empty path skips the
// file.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("output.dir", "recordings")
	v.SetDefault("output.filename", "recording.json")

	v.SetDefault("capture.pointer", true)
	v.SetDefault("capture.keyboard", true)
	v.SetDefault("capture.trim_trailing", 2)
	v.SetDefault("capture.reset_on_start", false)
	v.SetDefault("capture.max_events", 0)
	v.SetDefault("capture.keymap_path", "")

	v.SetDefault("tail.buffer", 64)

	v.SetDefault("debug.addr", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Map envs
	v.BindEnv("output.dir", "OUTPUT_DIR")
	v.BindEnv("output.filename", "OUTPUT_FILENAME")

	v.BindEnv("capture.pointer", "CAPTURE_POINTER")
	v.BindEnv("capture.keyboard", "CAPTURE_KEYBOARD")
	v.BindEnv("capture.trim_trailing", "TRIM_TRAILING")
	v.BindEnv("capture.reset_on_start", "RESET_ON_START")
	v.BindEnv("capture.max_events", "MAX_EVENTS")
	v.BindEnv("capture.keymap_path", "KEYMAP_PATH")

	v.BindEnv("tail.buffer", "TAIL_BUFFER")

	v.BindEnv("debug.addr", "DEBUG_ADDR")

	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	c.Output.Dir = v.GetString("output.dir")
	c.Output.Filename = v.GetString("output.filename")

	c.Capture.Pointer = v.GetBool("capture.pointer")
	c.Capture.Keyboard = v.GetBool("capture.keyboard")
	c.Capture.TrimTrailing = v.GetInt("capture.trim_trailing")
	c.Capture.ResetOnStart = v.GetBool("capture.reset_on_start")
	c.Capture.MaxEvents = v.GetInt("capture.max_events")
	c.Capture.KeymapPath = v.GetString("capture.keymap_path")

	c.Tail.Buffer = v.GetInt("tail.buffer")

	c.Debug.Addr = v.GetString("debug.addr")

	c.Logging.Level = v.GetString("logging.level")
	c.Logging.Format = v.GetString("logging.format")

	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.Output.Filename == "" {
		return fmt.Errorf("output.filename must not be empty")
	}
	if !c.Capture.Pointer && !c.Capture.Keyboard {
		return fmt.Errorf("at least one of capture.pointer or capture.keyboard must be enabled")
	}
	if c.Capture.TrimTrailing < 0 {
		return fmt.Errorf("capture.trim_trailing must not be negative, got %d", c.Capture.TrimTrailing)
	}
	if c.Capture.MaxEvents < 0 {
		return fmt.Errorf("capture.max_events must not be negative, got %d", c.Capture.MaxEvents)
	}
	if c.Tail.Buffer < 1 {
		return fmt.Errorf("tail.buffer must be positive, got %d", c.Tail.Buffer)
	}
	if c.Debug.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Debug.Addr); err != nil {
			return fmt.Errorf("debug.addr %q is not host:port: %w", c.Debug.Addr, err)
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}
	return nil
}
