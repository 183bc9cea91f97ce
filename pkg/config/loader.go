package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName      = "jsconvert"
	configType      = "yaml"
	envPrefix       = "JSCONVERT"
	envKeySeparator = "_"
)

// LoadConfig loads configuration from file, environment and defaults. An
// explicit configPath must exist; otherwise jsconvert.yaml is searched in
// the working directory and $HOME, and a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	if err := viperCfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Catalog:  DefaultCatalog,
		Indent:   DefaultIndent,
		Dump:     DumpConfig{Format: DefaultDumpFormat},
		Manifest: ManifestConfig{Path: DefaultManifest},
		Logging:  LoggingConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

func applyDefaults(viperCfg *viper.Viper) {
	d := Default()

	viperCfg.SetDefault("catalog", d.Catalog)
	viperCfg.SetDefault("catalog_files", []string{})
	viperCfg.SetDefault("token_rules", "")
	viperCfg.SetDefault("indent", d.Indent)
	viperCfg.SetDefault("workers", 0)
	viperCfg.SetDefault("check_tree", false)

	viperCfg.SetDefault("dump.enabled", false)
	viperCfg.SetDefault("dump.format", d.Dump.Format)

	viperCfg.SetDefault("manifest.path", d.Manifest.Path)
	viperCfg.SetDefault("manifest.incremental", false)

	viperCfg.SetDefault("logging.level", d.Logging.Level)
	viperCfg.SetDefault("logging.format", d.Logging.Format)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.insecure", false)
	viperCfg.SetDefault("telemetry.headers", "")
}
