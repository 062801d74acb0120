// Package config loads catalogctl settings from flags, environment variables
// and an optional dsg.yaml file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JourneyJu/dsg-sub010/internal/validation"
	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. DSG_API_URL
	EnvPrefix = "DSG"
	// ConfigEnv names an explicit config file, bypassing discovery
	ConfigEnv = "DSG_CONFIG"
	// ConfigName is the config file base name looked up during discovery
	ConfigName = "dsg"
)

// Setting keys
const (
	KeyAPIURL             = "api_url"
	KeyStore              = "store"
	KeyListen             = "listen"
	KeyLogLevel           = "log_level"
	KeyLogJSON            = "log_json"
	KeyLogFile            = "log_file"
	KeyFormat             = "format"
	KeyPrimaryKeyRequired = "primary_key_required"
	KeyDebounce           = "debounce"
	KeySessionTTL         = "session_ttl"
	KeyRequestTimeout     = "request_timeout"
	KeyConcurrency        = "concurrency"
	KeyAllowedOrigins     = "allowed_origins"
)

// Keys lists every setting key
var Keys = []string{
	KeyAPIURL, KeyStore, KeyListen, KeyLogLevel, KeyLogJSON, KeyLogFile, KeyFormat,
	KeyPrimaryKeyRequired, KeyDebounce, KeySessionTTL, KeyRequestTimeout, KeyConcurrency,
	KeyAllowedOrigins,
}

// Settings is the resolved configuration
type Settings struct {
	// APIURL selects a remote catalog API; when empty the local file store is used
	APIURL string `mapstructure:"api_url" yaml:"api_url"`
	// Store is the path of the local JSON catalog
	Store string `mapstructure:"store" yaml:"store"`
	// Listen is the address served by "catalogctl serve"
	Listen string `mapstructure:"listen" yaml:"listen"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" yaml:"log_json"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`

	// Format is the default view format
	Format string `mapstructure:"format" yaml:"format"`

	PrimaryKeyRequired bool          `mapstructure:"primary_key_required" yaml:"primary_key_required"`
	Debounce           time.Duration `mapstructure:"debounce" yaml:"debounce"`
	SessionTTL         time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// Concurrency bounds how many sources are processed at once
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`

	// AllowedOrigins lists cross-site origins allowed to open session websockets
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// DefaultStorePath returns the catalog file location under the XDG data directory
func DefaultStorePath() string {
	path, err := xdg.DataFile(filepath.Join("dsg", "catalog.json"))
	if err != nil {
		return filepath.Join(xdg.DataHome, "dsg", "catalog.json")
	}
	return path
}

// Setup registers defaults, environment binding and config file discovery on v,
// then reads the config file. A missing file is not an error.
func Setup(v *viper.Viper) error {
	v.SetDefault(KeyAPIURL, "")
	v.SetDefault(KeyStore, DefaultStorePath())
	v.SetDefault(KeyListen, "127.0.0.1:8080")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogJSON, false)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyFormat, "table")
	v.SetDefault(KeyPrimaryKeyRequired, false)
	v.SetDefault(KeyDebounce, "150ms")
	v.SetDefault(KeySessionTTL, "30m")
	v.SetDefault(KeyRequestTimeout, "30s")
	v.SetDefault(KeyConcurrency, 4)
	v.SetDefault(KeyAllowedOrigins, []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile := os.Getenv(ConfigEnv); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, "dsg"))
		v.AddConfigPath("/etc/dsg")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load decodes and validates the settings held by v
func Load(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings for values no component can work with
func (s Settings) Validate() error {
	var problems []string
	if s.APIURL == "" && s.Store == "" {
		problems = append(problems, "either api_url or store must be set")
	}
	if s.Debounce < 0 {
		problems = append(problems, "debounce cannot be negative")
	}
	if s.SessionTTL < 0 {
		problems = append(problems, "session_ttl cannot be negative")
	}
	if s.RequestTimeout < 0 {
		problems = append(problems, "request_timeout cannot be negative")
	}
	if s.Concurrency < 1 {
		problems = append(problems, "concurrency must be at least 1")
	}
	if err := validation.ValidateConfig(s.Schema()); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Schema returns the field schema the settings select
func (s Settings) Schema() types.Config {
	cfg := types.DefaultConfig()
	cfg.PrimaryKeyRequired = s.PrimaryKeyRequired
	return cfg
}

// UsedFile returns the config file viper read, or "" when none was found
func UsedFile(v *viper.Viper) string {
	return v.ConfigFileUsed()
}
