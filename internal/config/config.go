// Package config loads factstore settings from defaults, an optional YAML
// file, FACTSTORE_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/factstore/internal/itemstore"
	"github.com/roach88/factstore/internal/store"
)

// EnvPrefix is prepended to every environment override, e.g.
// FACTSTORE_DATA_DIR or FACTSTORE_LOG_LEVEL.
const EnvPrefix = "FACTSTORE"

// FileName is the config file name searched for without an explicit path.
const FileName = "factstore"

// Config holds all configuration for the application
type Config struct {
	// DataDir holds the drive databases unless Drives overrides a path.
	DataDir string `mapstructure:"data_dir"`

	// Engine is the SQLite driver: sqlite3 (cgo) or sqlite (pure Go).
	Engine string `mapstructure:"engine"`

	// InMemory keeps both drives in memory; nothing is written to DataDir.
	InMemory bool `mapstructure:"in_memory"`

	Log    LogConfig    `mapstructure:"log"`
	Drives DrivesConfig `mapstructure:"drives"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DrivesConfig overrides individual drive paths.
type DrivesConfig struct {
	User   string `mapstructure:"user"`
	System string `mapstructure:"system"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("engine", string(store.EngineCGO))
	v.SetDefault("in_memory", false)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	v.SetDefault("drives.user", "")
	v.SetDefault("drives.system", "")
}

// flagKeys maps the flags added by RegisterFlags to config keys.
var flagKeys = map[string]string{
	"data-dir":   "data_dir",
	"memory":     "in_memory",
	"engine":     "engine",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// RegisterFlags adds the config-backed flags to fs. Their zero defaults
// never shadow config values; only flags set on the command line do.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("data-dir", "", "directory holding the drive databases")
	fs.Bool("memory", false, "keep both drives in memory")
	fs.String("engine", "", "sqlite engine (sqlite3|sqlite)")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("log-format", "", "log format (text|json)")
}

// BindFlags binds the flags added by RegisterFlags to their keys in v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			return fmt.Errorf("bind flags: --%s is not registered", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".factstore")
	}
	return ".factstore"
}

// Load reads configFile (or factstore.yaml from the working directory or
// DataDir's parent search path when empty) into v and returns the result.
// A missing default config file is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultDataDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values that viper cannot type-check.
func (c *Config) Validate() error {
	if !store.Engine(c.Engine).Valid() {
		return fmt.Errorf("config: engine %q: want %s or %s", c.Engine, store.EngineCGO, store.EnginePureGo)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format %q: want text or json", c.Log.Format)
	}
	if !c.InMemory && c.DataDir == "" && (c.Drives.User == "" || c.Drives.System == "") {
		return fmt.Errorf("config: data_dir is empty")
	}
	return nil
}

// DrivePaths returns the database path of each drive.
func (c *Config) DrivePaths() (user, system string) {
	user, system = c.Drives.User, c.Drives.System
	if user == "" {
		user = filepath.Join(c.DataDir, string(itemstore.User)+".sqlite")
	}
	if system == "" {
		system = filepath.Join(c.DataDir, string(itemstore.System)+".sqlite")
	}
	return user, system
}

// EnsureDataDir creates the directories of on-disk drives.
func (c *Config) EnsureDataDir() error {
	if c.InMemory {
		return nil
	}
	user, system := c.DrivePaths()
	for _, p := range []string{user, system} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	return nil
}

// StoreOptions builds the facade options for this configuration.
func (c *Config) StoreOptions(logger *slog.Logger) itemstore.Options {
	user, system := c.DrivePaths()
	return itemstore.Options{
		UserPath:   user,
		SystemPath: system,
		InMemory:   c.InMemory,
		Engine:     store.Engine(c.Engine),
		Logger:     logger,
	}
}

// Logger builds the slog logger described by Log, writing to w.
// verbose forces debug level.
func (c *Config) Logger(w io.Writer, verbose bool) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil || verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: log.level %q: %w", s, err)
	}
	return level, nil
}
