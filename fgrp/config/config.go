package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/filegroup/fgrp"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Scan    ScanConfig    `mapstructure:"scan"`
	Session SessionConfig `mapstructure:"session"`
	Output  OutputConfig  `mapstructure:"output"`
	Log     LogConfig     `mapstructure:"log"`
}

// ScanConfig stores traversal and hashing settings.
type ScanConfig struct {
	Path          string `mapstructure:"path"`
	Pattern       string `mapstructure:"pattern"`
	Algorithm     string `mapstructure:"algorithm"`
	Workers       int    `mapstructure:"workers"`
	IgnoreFile    string `mapstructure:"ignoreFile"`
	ExcludeHidden bool   `mapstructure:"excludeHidden"`
}

// SessionConfig stores the default session boundary policy.
// At most one of Minutes and Weekday is expected to be set.
type SessionConfig struct {
	Minutes string `mapstructure:"minutes"`
	Weekday string `mapstructure:"weekday"`
}

// OutputConfig stores reporting preferences.
type OutputConfig struct {
	JSON     bool `mapstructure:"json"`
	Progress bool `mapstructure:"progress"`
}

// LogConfig stores logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("scan.path", internal.DefaultScanPath)
	v.SetDefault("scan.pattern", "")
	v.SetDefault("scan.algorithm", internal.DefaultAlgorithm)
	v.SetDefault("scan.workers", internal.DefaultWorkers)
	v.SetDefault("scan.ignoreFile", internal.DefaultIgnoreFileName)
	v.SetDefault("scan.excludeHidden", false)
	v.SetDefault("session.minutes", "")
	v.SetDefault("session.weekday", "")
	v.SetDefault("output.json", false)
	v.SetDefault("output.progress", true)
	v.SetDefault("log.level", internal.DefaultLogLevel)
}

// Load reads configuration into a fresh Config using v. Flags bound to v take
// precedence over the file, the file over env, env over defaults.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	SetDefaults(v)

	v.SetEnvPrefix(internal.DefaultEnvPrefix)
	v.AutomaticEnv()
	// scan.algorithm becomes FGRP_SCAN_ALGORITHM
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if cfg.Scan.Workers < 1 {
		cfg.Scan.Workers = internal.DefaultWorkers
	}

	return &cfg, nil
}
