package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/offlinecache/internal/bytesize"
	"github.com/marmos91/offlinecache/internal/xdg"
)

// Load reads the configuration at path, or at GetDefaultConfigPath when path
// is empty. Environment variables override file values. A missing file yields
// GetDefaultConfig unvalidated; anything loaded from disk is validated.
func Load(path string) (*Config, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return GetDefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load for commands that need a configuration file to exist. The
// error explains how to create one.
func MustLoad(path string) (*Config, error) {
	if path == "" {
		path = GetDefaultConfigPath()
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Create one with:\n"+
				"  offlinecache config init\n\n"+
				"or pass --config /path/to/config.yaml", path)
		}
	} else if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Create it with:\n"+
			"  offlinecache config init --config %s", path, path)
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return writeConfigFile(path, data)
}

// writeConfigFile writes with owner-only permissions since the file may hold
// the API token.
func writeConfigFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v, reflect.TypeOf(Config{}), "")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(GetConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	return v
}

// bindEnvKeys registers every leaf key of t with viper. AutomaticEnv alone
// only consults the environment for keys already present in the file, so
// OFFLINECACHE_PROXY_PORT would otherwise be ignored when the file has no
// proxy section.
func bindEnvKeys(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			bindEnvKeys(v, ft, key)
			continue
		}
		_ = v.BindEnv(key)
	}
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		rejectNegativeSize,
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// rejectNegativeSize stops weak decoding from wrapping a negative number
// into a huge unsigned byte size.
func rejectNegativeSize(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(bytesize.ByteSize(0)) {
		return data, nil
	}
	switch n := data.(type) {
	case int:
		if n < 0 {
			return nil, fmt.Errorf("negative byte size: %d", n)
		}
	case int64:
		if n < 0 {
			return nil, fmt.Errorf("negative byte size: %d", n)
		}
	case float64:
		if n < 0 {
			return nil, fmt.Errorf("negative byte size: %v", n)
		}
	}
	return data, nil
}

// GetConfigDir returns $XDG_CONFIG_HOME/offlinecache, or the working
// directory when no home directory is known.
func GetConfigDir() string {
	dir, err := xdg.ConfigDir("offlinecache")
	if err != nil {
		return "."
	}
	return dir
}

// GetDefaultConfigPath returns the config.yaml inside GetConfigDir.
func GetDefaultConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether GetDefaultConfigPath exists.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
