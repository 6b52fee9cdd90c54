package internal

import (
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
)

var (
	// DefaultAppName is the name used for config directories, env prefixes and ignore files
	DefaultAppName        = "fgrp"
	DefaultConfigPath     = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultGlobalConfig   = filepath.Join(DefaultConfigPath, "config.yaml")
	DefaultIgnoreFileName = "." + DefaultAppName + "ignore"
	DefaultEnvPrefix      = "FGRP"

	// Default scan settings
	DefaultScanPath  = "."
	DefaultAlgorithm = "sha256"
	DefaultLogLevel  = "warn"
	DefaultWorkers   = runtime.NumCPU()
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// GetLeveledLogger returns the application logger filtered to the named level.
// Unknown level names fall back to DefaultLogLevel.
func GetLeveledLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl, _ = zerolog.ParseLevel(DefaultLogLevel)
	}
	return GetLogger().Level(lvl)
}
