package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. The first underscore after
// the prefix separates section and key: MACINSTALL_LOCALCASK_REPO_URL sets
// localcask.repo_url.
const EnvPrefix = "MACINSTALL_"

// FileName is the config file looked up in Dir().
const FileName = "config.toml"

//go:embed embedded/defaults.toml
var defaultConfig []byte

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Options control where configuration comes from.
type Options struct {
	// Path is an explicit config file. It must exist. Empty means
	// Dir()/config.toml when present.
	Path string
	// Home replaces the user's home directory for "~" expansion.
	Home string
	// Overrides are dotted keys applied last, typically from CLI flags.
	Overrides map[string]interface{}
}

// Load layers defaults, the config file, the environment and overrides, in
// that order.
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	// 1. Built-in defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	// 2. Config file
	path, err := configPath(opts.Path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	// 3. Environment
	err = k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	// 5. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// 6. Post-process
	if err := postProcess(&cfg, opts.Home); err != nil {
		return nil, fmt.Errorf("failed to post-process configuration: %w", err)
	}

	return &cfg, nil
}

// envKey maps MACINSTALL_HISTORY_DB to history.db.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func configPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	dir, err := Dir()
	if err != nil {
		return "", nil
	}
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		return "", nil
	}
	return path, nil
}

func postProcess(cfg *Config, home string) error {
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}
	}

	for _, p := range []*string{
		&cfg.Packages.File,
		&cfg.LocalCask.StartupDir,
		&cfg.Paths.Applications,
		&cfg.Paths.Receipts,
		&cfg.Paths.Trash,
		&cfg.History.DB,
		&cfg.Log.File,
	} {
		*p = ExpandHome(*p, home)
	}

	if cfg.Log.File == "" {
		dir, err := StateDir()
		if err != nil {
			return err
		}
		cfg.Log.File = filepath.Join(dir, "macinstall.log")
	}

	if cfg.LocalCask.RepoURL == "" {
		return errors.New("localcask.repo_url must not be empty")
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	return nil
}
