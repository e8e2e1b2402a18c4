package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
)

// Initialize writes the default configuration to dir, keeping any existing
// file.
func Initialize(dir string, logger *log.Logger) error {
	logger.Printf("Creating configuration directory %q\n", dir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	configPath := filepath.Join(dir, ConfigurationName)
	switch _, err := os.Stat(configPath); {
	case err == nil:
		logger.Printf("Configuration %q already exists, skipping\n", configPath)
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	logger.Printf("Writing default configuration to %q\n", configPath)
	return os.WriteFile(configPath, defaultConfigData, 0600)
}
