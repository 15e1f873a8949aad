package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/julien-sobczak/the-lessonwriter/pkg/resync"
)

// Directory containing the configuration inside a workspace
const ConfigDir = ".lw"

// Default .lw/config.toml content
const DefaultConfig = `
[editor]
history_depth = 100
strict = false

[autosave]
snapshot_interval = "10s"
save_debounce = "2s"

[versions]
namespace = "lessonwriter.versions"
store = "file"
dir = "versions"

[persist]
type = "file"
dir = "lessons"
collection = "lessons"

[remote]
type = "fs"
dir = "remote"

[slash]
trigger = "/"
`

// Bounds accepted for the external save debounce
const (
	MinSaveDebounce = 2 * time.Second
	MaxSaveDebounce = 30 * time.Second
)

var (
	// Lazy-load configuration and ensure a single read
	configOnce      resync.Once
	configSingleton *Config
)

// Note: Fields must be public for toml package to unmarshall
type ConfigFile struct {
	Editor   ConfigEditor   `toml:"editor"`
	Autosave ConfigAutosave `toml:"autosave"`
	Versions ConfigVersions `toml:"versions"`
	Persist  ConfigPersist  `toml:"persist"`
	Remote   ConfigRemote   `toml:"remote"`
	Slash    ConfigSlash    `toml:"slash"`
}
type ConfigEditor struct {
	HistoryDepth int  `toml:"history_depth"`
	Strict       bool `toml:"strict"` // panic on invariant violations instead of clamping
}
type ConfigAutosave struct {
	SnapshotInterval string `toml:"snapshot_interval"`
	SaveDebounce     string `toml:"save_debounce"`
}
type ConfigVersions struct {
	Namespace string `toml:"namespace"`
	Store     string `toml:"store"` // memory, file or redis
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
}
type ConfigPersist struct {
	Type       string `toml:"type"` // memory, file or firestore
	Dir        string `toml:"dir"`
	Project    string `toml:"project"`
	Collection string `toml:"collection"`
}
type ConfigRemote struct {
	Type string `toml:"type"` // fs or s3
	// fs-specific attributes
	Dir string `toml:"dir"`
	// s3-specific attributes
	Endpoint   string `toml:"endpoint"`
	AccessKey  string `toml:"access_key"`
	SecretKey  string `toml:"secret_key"`
	BucketName string `toml:"bucket_name"`
	Secure     bool   `toml:"secure"`
}
type ConfigSlash struct {
	Trigger   string `toml:"trigger"`
	Templates string `toml:"templates"` // optional YAML file with additional templates
}

// SnapshotInterval returns the interval between two local version snapshots.
func (f *ConfigFile) SnapshotInterval() time.Duration {
	return parseDurationOr(f.Autosave.SnapshotInterval, 10*time.Second)
}

// SaveDebounce returns the pause in typing after which content is pushed to the persistence backend.
func (f *ConfigFile) SaveDebounce() time.Duration {
	return parseDurationOr(f.Autosave.SaveDebounce, MinSaveDebounce)
}

// Validate checks the values that cannot be fixed silently.
func (f *ConfigFile) Validate() error {
	if _, err := time.ParseDuration(f.Autosave.SnapshotInterval); err != nil {
		return fmt.Errorf("invalid autosave.snapshot_interval %q: %w", f.Autosave.SnapshotInterval, err)
	}
	debounce, err := time.ParseDuration(f.Autosave.SaveDebounce)
	if err != nil {
		return fmt.Errorf("invalid autosave.save_debounce %q: %w", f.Autosave.SaveDebounce, err)
	}
	if debounce < MinSaveDebounce || debounce > MaxSaveDebounce {
		return fmt.Errorf("autosave.save_debounce must be between %s and %s, got %s", MinSaveDebounce, MaxSaveDebounce, debounce)
	}
	if f.Editor.HistoryDepth <= 0 {
		return fmt.Errorf("editor.history_depth must be positive, got %d", f.Editor.HistoryDepth)
	}
	switch f.Versions.Store {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown versions.store %q", f.Versions.Store)
	}
	switch f.Persist.Type {
	case "memory", "file", "firestore":
	default:
		return fmt.Errorf("unknown persist.type %q", f.Persist.Type)
	}
	switch f.Remote.Type {
	case "fs", "s3":
	default:
		return fmt.Errorf("unknown remote.type %q", f.Remote.Type)
	}
	if f.Slash.Trigger == "" {
		return errors.New("slash.trigger cannot be empty")
	}
	return nil
}

func parseDurationOr(value string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// ParseConfigFile parses a TOML configuration on top of the default configuration.
func ParseConfigFile(content []byte) (*ConfigFile, error) {
	var result ConfigFile
	if err := toml.Unmarshal([]byte(DefaultConfig), &result); err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(content, &result); err != nil {
		return nil, err
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

// DefaultConfigFile returns the configuration used when no file exists.
func DefaultConfigFile() *ConfigFile {
	result, err := ParseConfigFile(nil)
	if err != nil {
		// Must not happen as the default configuration is a constant
		panic(err)
	}
	return result
}

/* Main config */

type Config struct {
	// Absolute directory containing the .lw sub-directory
	RootDirectory string

	// .lw/config.toml content
	ConfigFile ConfigFile
}

func CurrentConfig() *Config {
	configOnce.Do(func() {
		var err error
		configSingleton, err = ReadConfigFromDirectory(currentHome())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to read current configuration: %v\n", err)
			os.Exit(1)
		}
	})
	return configSingleton
}

// Reset forces the configuration to be read again. Useful in tests.
func Reset() {
	configOnce.Reset()
}

// ReadConfigFromDirectory reads .lw/config.toml inside the given directory.
// The default configuration is used when the file is missing.
func ReadConfigFromDirectory(dir string) (*Config, error) {
	absoluteDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filepath.Join(absoluteDir, ConfigDir, "config.toml"))
	if errors.Is(err, os.ErrNotExist) {
		return &Config{
			RootDirectory: absoluteDir,
			ConfigFile:    *DefaultConfigFile(),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	configFile, err := ParseConfigFile(content)
	if err != nil {
		return nil, fmt.Errorf("invalid %s/config.toml: %w", ConfigDir, err)
	}
	return &Config{
		RootDirectory: absoluteDir,
		ConfigFile:    *configFile,
	}, nil
}

// Init creates the .lw directory with the default configuration.
func Init(dir string) (string, error) {
	configDir := filepath.Join(dir, ConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path, nil // Preserve existing configuration
	}
	return path, os.WriteFile(path, []byte(DefaultConfig), 0644)
}

// Path resolves a path relative to the .lw directory.
func (c *Config) Path(relativePath string) string {
	if filepath.IsAbs(relativePath) {
		return relativePath
	}
	return filepath.Join(c.RootDirectory, ConfigDir, relativePath)
}

// currentHome returns the workspace directory ($LW_HOME or the working directory).
func currentHome() string {
	if home, ok := os.LookupEnv("LW_HOME"); ok {
		return home
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
