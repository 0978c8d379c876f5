package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const EnvPrefix = "BATTLESHIP"

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 7)
	v.SetDefault("log.compress", false)
	v.SetDefault("log.dev", false)

	v.SetDefault("game.skip_setup", false)
	v.SetDefault("game.strategy", "random")
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.placement_attempts", 10000)

	v.SetDefault("fairplay.enabled", false)
	v.SetDefault("fairplay.keys_dir", "./keys")

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.allowed_origins", []string{})
}

// Loader owns the viper instance behind a Config so callers can watch the
// file for changes.
type Loader struct {
	v *viper.Viper
}

// Load reads path if it is set and exists, then applies BATTLESHIP_*
// environment overrides on top of the defaults. A missing path is not an
// error: the defaults stand.
func Load(path string) (*Loader, Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if !fileExist(path) {
			return nil, Config{}, fmt.Errorf("config file not exist, path=%v", path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	l := &Loader{v: v}
	cfg, err := l.decode()
	if err != nil {
		return nil, Config{}, err
	}
	return l, cfg, nil
}

func (l *Loader) decode() (Config, error) {
	var cfg Config
	err := l.v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)))
	if err != nil {
		return Config{}, fmt.Errorf("viper unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Watch calls fn with the re-read config every time the file changes.
// Invalid edits are passed to onErr and the previous config stays in effect.
func (l *Loader) Watch(fn func(Config), onErr func(error)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		fn(cfg)
	})
	l.v.WatchConfig()
}

func (c Config) Validate() error {
	var errs []error
	switch c.Game.Strategy {
	case "", "random", "hunt":
	default:
		errs = append(errs, fmt.Errorf("game.strategy: unknown strategy %q", c.Game.Strategy))
	}
	if c.Game.PlacementAttempts < 0 {
		errs = append(errs, errors.New("game.placement_attempts must not be negative"))
	}
	if c.FairPlay.Enabled && c.FairPlay.KeysDir == "" {
		errs = append(errs, errors.New("fairplay.keys_dir is required when fairplay is enabled"))
	}
	return errors.Join(errs...)
}

func fileExist(fileName string) bool {
	_, err := os.Stat(fileName)
	return err == nil
}
