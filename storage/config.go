package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AppName names the data and config directories.
const AppName = "retrohost"

// Config holds host configuration loaded from config.toml and RETROHOST_*
// environment variables.
type Config struct {
	Root     string       `mapstructure:"root"`
	LogLevel string       `mapstructure:"log_level"`
	Username string       `mapstructure:"username"`
	Language int          `mapstructure:"language"`
	MaxUsers int          `mapstructure:"max_users"`
	Cores    CoresConfig  `mapstructure:"cores"`
	Rewind   RewindConfig `mapstructure:"rewind"`
	Audio    AudioConfig  `mapstructure:"audio"`
	Video    VideoConfig  `mapstructure:"video"`
	Input    InputConfig  `mapstructure:"input"`
}

// CoresConfig controls how core libraries are loaded.
type CoresConfig struct {
	// PrivateCopies forces ("always"), disables ("never") or leaves to the
	// platform ("auto") copying each core to a private instance path.
	PrivateCopies string `mapstructure:"private_copies"`
}

// RewindConfig contains rewind feature settings
type RewindConfig struct {
	Enabled      bool `mapstructure:"enabled"`        // Default: false (off due to RAM usage)
	BufferSizeMB int  `mapstructure:"buffer_size_mb"` // Default: 40
	FrameStep    int  `mapstructure:"frame_step"`     // Default: 1 (capture every frame)
}

// AudioConfig contains audio-related settings
type AudioConfig struct {
	Volume   float64 `mapstructure:"volume"`
	Disabled bool    `mapstructure:"disabled"`
}

// VideoConfig contains window settings for the reference frontend.
type VideoConfig struct {
	Scale int `mapstructure:"scale"`
}

// InputConfig overrides the reference frontend's bindings. Keys are
// RetroPad button names ("A", "Start", "Up"), values are key or gamepad
// button names.
type InputConfig struct {
	Keyboard      map[string]string `mapstructure:"keyboard"`
	Gamepad       map[string]string `mapstructure:"gamepad"`
	DisableAnalog bool              `mapstructure:"disable_analog"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	root, err := DefaultRoot(AppName)
	if err != nil {
		root = filepath.Join(os.TempDir(), AppName)
	}
	return &Config{
		Root:     root,
		LogLevel: "info",
		Username: "retro",
		Language: 0,
		MaxUsers: 2,
		Cores:    CoresConfig{PrivateCopies: "auto"},
		Rewind: RewindConfig{
			Enabled:      false,
			BufferSizeMB: 40,
			FrameStep:    1,
		},
		Audio: AudioConfig{Volume: 1.0},
		Video: VideoConfig{Scale: 3},
	}
}

// ConfigPath returns the config file location: RETROHOST_CONFIG when set,
// otherwise config.toml under the user config directory.
func ConfigPath() (string, error) {
	if p := os.Getenv("RETROHOST_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, AppName, "config.toml"), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("root", def.Root)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("username", def.Username)
	v.SetDefault("language", def.Language)
	v.SetDefault("max_users", def.MaxUsers)
	v.SetDefault("cores.private_copies", def.Cores.PrivateCopies)
	v.SetDefault("rewind.enabled", def.Rewind.Enabled)
	v.SetDefault("rewind.buffer_size_mb", def.Rewind.BufferSizeMB)
	v.SetDefault("rewind.frame_step", def.Rewind.FrameStep)
	v.SetDefault("audio.volume", def.Audio.Volume)
	v.SetDefault("audio.disabled", def.Audio.Disabled)
	v.SetDefault("video.scale", def.Video.Scale)
	v.SetDefault("input.disable_analog", def.Input.DisableAnalog)

	v.SetConfigType("toml")
	v.SetEnvPrefix("RETROHOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads the config file at path. A missing file yields defaults
// (still subject to environment overrides); a corrupted file is an error.
func LoadConfig(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	ApplyMissingDefaults(config)
	return config, nil
}

// SaveConfig writes config to path as TOML.
func SaveConfig(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("root", config.Root)
	v.Set("log_level", config.LogLevel)
	v.Set("username", config.Username)
	v.Set("language", config.Language)
	v.Set("max_users", config.MaxUsers)
	v.Set("cores.private_copies", config.Cores.PrivateCopies)
	v.Set("rewind.enabled", config.Rewind.Enabled)
	v.Set("rewind.buffer_size_mb", config.Rewind.BufferSizeMB)
	v.Set("rewind.frame_step", config.Rewind.FrameStep)
	v.Set("audio.volume", config.Audio.Volume)
	v.Set("audio.disabled", config.Audio.Disabled)
	v.Set("video.scale", config.Video.Scale)
	if len(config.Input.Keyboard) > 0 {
		v.Set("input.keyboard", config.Input.Keyboard)
	}
	if len(config.Input.Gamepad) > 0 {
		v.Set("input.gamepad", config.Input.Gamepad)
	}
	v.Set("input.disable_analog", config.Input.DisableAnalog)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyMissingDefaults replaces out-of-range values with defaults.
func ApplyMissingDefaults(config *Config) {
	def := DefaultConfig()
	if config.Root == "" {
		config.Root = def.Root
	}
	if config.MaxUsers < 1 || config.MaxUsers > 16 {
		config.MaxUsers = def.MaxUsers
	}
	switch config.Cores.PrivateCopies {
	case "auto", "always", "never":
	default:
		config.Cores.PrivateCopies = def.Cores.PrivateCopies
	}
	if config.Rewind.BufferSizeMB <= 0 {
		config.Rewind.BufferSizeMB = def.Rewind.BufferSizeMB
	}
	if config.Rewind.FrameStep <= 0 {
		config.Rewind.FrameStep = def.Rewind.FrameStep
	}
	if config.Audio.Volume < 0 || config.Audio.Volume > 2 {
		config.Audio.Volume = def.Audio.Volume
	}
	if config.Video.Scale < 1 {
		config.Video.Scale = def.Video.Scale
	}
}

// Layout returns the directory layout rooted at config.Root.
func (c *Config) Layout() Layout {
	return Layout{Root: c.Root}
}
