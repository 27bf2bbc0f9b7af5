// Package conf loads scanctl settings from defaults, config.yaml, SCANCTL_* environment
// variables and command-line flags, in increasing order of precedence.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/logger"
)

// Settings is the complete scanctl configuration
type Settings struct {
	Debug  bool   `yaml:"debug" mapstructure:"debug"`
	Locale string `yaml:"locale" mapstructure:"locale"` // en or ru

	API struct {
		BaseURL string `yaml:"base_url" mapstructure:"base_url"` // backend root, e.g. http://localhost:8000/api
	} `yaml:"api" mapstructure:"api"`

	Viewer struct {
		BaseURL string `yaml:"base_url" mapstructure:"base_url"` // local archive web viewer
	} `yaml:"viewer" mapstructure:"viewer"`

	HTTP HTTPSettings `yaml:"http" mapstructure:"http"`

	Session struct {
		Path string `yaml:"path" mapstructure:"path"` // sqlite file holding token and user
	} `yaml:"session" mapstructure:"session"`

	Busy struct {
		TTL time.Duration `yaml:"ttl" mapstructure:"ttl"` // stuck in-flight flags expire after this
	} `yaml:"busy" mapstructure:"busy"`

	Poll PollSettings `yaml:"poll" mapstructure:"poll"`

	Logging logger.LoggingConfig `yaml:"logging" mapstructure:"logging"`

	Telemetry struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		DSN     string `yaml:"dsn" mapstructure:"dsn"`
	} `yaml:"telemetry" mapstructure:"telemetry"`

	Metrics struct {
		Textfile string `yaml:"textfile" mapstructure:"textfile"` // node-exporter textfile path, empty disables
	} `yaml:"metrics" mapstructure:"metrics"`
}

// HTTPSettings controls the backend client
type HTTPSettings struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`               // per request
	UploadTimeout time.Duration `yaml:"upload_timeout" mapstructure:"upload_timeout"` // multipart uploads
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
}

// PollSettings paces the watch loop
type PollSettings struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	Burst    int           `yaml:"burst" mapstructure:"burst"`
}

// Load reads settings through the global viper instance, which also carries the
// flags bound by the root command. configFile overrides the search path when set.
func Load(configFile string) (*Settings, error) {
	return LoadFrom(viper.GetViper(), configFile)
}

// LoadFrom reads settings using v. A missing config file is not an error.
func LoadFrom(v *viper.Viper, configFile string) (*Settings, error) {
	if err := initViper(v, configFile); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal_settings").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	GetLogger().Debug("configuration loaded",
		logger.String("config_file", v.ConfigFileUsed()),
		logger.String("api_base_url", settings.API.BaseURL))

	return settings, nil
}

// initViper registers defaults, environment bindings and the config file
func initViper(v *viper.Viper, configFile string) error {
	setDefaultConfig(v)

	if err := bindEnvVars(v); err != nil {
		return errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "bind_env").
			Build()
	}

	if configFile != "" {
		// an explicit but absent file is created later by `config init`
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil
		}
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range GetDefaultConfigPaths() {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.New(fmt.Errorf("error reading config file: %w", err)).
			Category(errors.CategoryConfiguration).
			Context("operation", "read_config").
			Build()
	}

	return nil
}

// SaveYAMLConfig writes settings to configPath atomically (temp file + rename).
// Comments and formatting of an existing file are not preserved.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "create_config_dir").
			Build()
	}

	tempFile, err := os.CreateTemp(dir, "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	// the file may carry a telemetry DSN
	if err := os.Chmod(tempFileName, 0o600); err != nil {
		return fmt.Errorf("error setting config permissions: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "replace_config").
			Build()
	}

	return nil
}

// DefaultSettings returns settings populated only from defaults
func DefaultSettings() *Settings {
	v := viper.New()
	setDefaultConfig(v)
	settings := &Settings{}
	// defaults always decode
	_ = v.Unmarshal(settings)
	return settings
}
