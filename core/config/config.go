package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	TOMLName          = "config.toml"
	DirName           = "treesh"
)

type Configuration struct {
	configFs afero.Fs
	dir      string

	Prompt       string `json:"prompt" toml:"prompt" validate:"required"`
	Color        string `json:"color" toml:"color" validate:"oneof=always auto never"`
	Glob         bool   `json:"glob" toml:"glob"`
	HistoryLimit int    `json:"history_limit" toml:"history_limit" validate:"gte=-1"`
	EventLog     string `json:"event_log" toml:"event_log"`
	WatchConfig  bool   `json:"watch_config" toml:"watch_config"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// Dir is the directory the configuration was loaded from.
func (c *Configuration) Dir() string {
	return c.dir
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		return afero.NewMemMapFs()
	}
	return c.configFs
}

// OpenEventLog opens the session event log in an append only state.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	if dir := filepath.Dir(c.EventLog); dir != "." {
		if err := c.fs().MkdirAll(dir, 0700); err != nil {
			return nil, err
		}
	}
	return c.fs().OpenFile(c.EventLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadEventLog opens the session event log for reading.
func (c *Configuration) ReadEventLog() (afero.File, error) {
	return c.fs().OpenFile(c.EventLog, os.O_RDONLY, 0600)
}

// DefaultDir returns the per-user configuration directory.
func DefaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(base, DirName)
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// Default returns the built in configuration, not bound to any directory.
func Default() *Configuration {
	return defaultConfig()
}
