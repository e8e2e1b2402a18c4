package config

import (
	"errors"
	"fmt"
	"io/fs"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// resolve splits path into the configuration directory and file. A directory
// holds config.yaml, or config.toml if only that one exists.
func resolve(path string) (dir, file string) {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		dir = path
	case err == nil:
		return filepath.Dir(path), path
	default:
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".toml":
			return filepath.Dir(path), path
		}
		dir = path
	}

	file = filepath.Join(dir, ConfigurationName)
	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		if _, err := os.Stat(filepath.Join(dir, TOMLName)); err == nil {
			file = filepath.Join(dir, TOMLName)
		}
	}
	return dir, file
}

// Load loads the configuration from a directory or file. Settings missing
// from the file, or a missing file, fall back to the defaults.
func Load(path string) (*Configuration, error) {
	dir, file := resolve(path)

	out := defaultConfig()
	out.dir = dir
	out.configFs = afero.NewBasePathFs(afero.NewOsFs(), dir)

	configContents, err := ioutil.ReadFile(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return out, nil
	case err != nil:
		return nil, err
	}

	if err := decode(file, configContents, out); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return out, nil
}

func decode(file string, data []byte, out *Configuration) error {
	if strings.EqualFold(filepath.Ext(file), ".toml") {
		md, err := toml.Decode(string(data), out)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown field %q", undecoded[0].String())
		}
		return nil
	}

	return yaml.UnmarshalStrict(data, out)
}
