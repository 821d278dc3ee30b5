package config

import (
	"os"
	"path/filepath"
)

const (
	DefaultConfigDir  = "/etc/bucketpurger"
	DefaultConfigName = "config.yaml"
)

const (
	EnvConfigPath = "BUCKETPURGER_CONFIG"
	EnvPrefix     = "BUCKETPURGER"
)

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir, DefaultConfigName)
}

// ResolveConfigPath returns the config file to read and whether the caller
// named it explicitly (flag or environment). Only an explicit file must exist.
func ResolveConfigPath(flagPath string) (path string, explicit bool) {
	if flagPath != "" {
		return flagPath, true
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, true
	}
	return DefaultConfigPath(), false
}
