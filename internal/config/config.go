package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glossa-app/glossa/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Config keys.
const (
	KeyPreinstalledRoot = "paths.preinstalled"
	KeyPackagesRoot     = "paths.packages"
	KeySettingsRoot     = "paths.settings"
	KeyCacheRoot        = "paths.cache"
	KeyStagingRoot      = "paths.staging"
	KeyLogLevel         = "log.level"
	KeyLanguage         = "language"
	KeyWorkers          = "workers"
	KeyPreinstalledIDs  = "preinstalled_ids"
	KeyExtractExclude   = "extract.exclude"
	KeyMinFreeMB        = "extract.min_free_mb"
)

// DefaultPreinstalledIDs are the ids of the packages shipped with the
// application. Installing one of them places it under the preinstalled root.
var DefaultPreinstalledIDs = []string{
	"3410e7de989340938301abd6fcf8cc4b",
	"474b5fe844d9455ba0c59f75c1424f0d",
	"4ed3beaab50842e6851a2e4bdbbeccae",
	"0b5d84917783415d865032f1d6e2877f",
	"0f6892a390a543709926092aba510273",
	"9e44abfa040e443c9ab48205683082f4",
	"76b14a8d707041c891a2dcd2f74be9c1",
	"2cc83275790ba8ce96b31c4fe0655743",
	"7a3ab25875294602b3afc4ae15fec627",
	"d9537be74d23438ca581fd6d04e1d112",
}

// DefaultExtractExcludes are archive entries never written to staging.
var DefaultExtractExcludes = []string{"__MACOSX/**", "**/.DS_Store", "**/Thumbs.db"}

// Dir returns the path to the config directory (~/.glossa/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.glossa/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// SetDefaults registers the default value of every known key.
func SetDefaults() {
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyLanguage, "en")
	viper.SetDefault(KeyWorkers, 4)
	viper.SetDefault(KeyPreinstalledIDs, strings.Join(DefaultPreinstalledIDs, ","))
	viper.SetDefault(KeyExtractExclude, strings.Join(DefaultExtractExcludes, ","))
	viper.SetDefault(KeyMinFreeMB, 16)
}

// Load initializes Viper to read from the config file and environment.
// Nested keys map to env vars with dots replaced by underscores
// (log.level → GLOSSA_LOG_LEVEL).
func Load() {
	SetDefaults()
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// LogLevel returns the configured log level name.
func LogLevel() string { return viper.GetString(KeyLogLevel) }

// Language returns the BCP 47 tag used for user-facing messages.
func Language() string { return viper.GetString(KeyLanguage) }

// Workers returns the size of the worker pool, at least 1.
func Workers() int {
	if n := viper.GetInt(KeyWorkers); n > 0 {
		return n
	}
	return 1
}

// PreinstalledIDs returns the ids installed under the preinstalled root.
func PreinstalledIDs() []string { return List(KeyPreinstalledIDs) }

// ExtractExcludes returns the glob patterns skipped during extraction.
func ExtractExcludes() []string { return List(KeyExtractExclude) }

// MinFreeBytes returns the free space required on the staging volume.
func MinFreeBytes() uint64 {
	mb := viper.GetInt64(KeyMinFreeMB)
	if mb <= 0 {
		return 0
	}
	return uint64(mb) << 20
}

// List reads a comma-separated key as a slice. YAML sequences are accepted
// as well.
func List(key string) []string {
	var raw []string
	switch v := viper.Get(key).(type) {
	case []any, []string:
		raw = viper.GetStringSlice(key)
	case string:
		raw = strings.Split(v, ",")
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
