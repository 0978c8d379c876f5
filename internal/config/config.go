package config

type Config struct {
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Game     GameConfig     `yaml:"game" mapstructure:"game"`
	FairPlay FairPlayConfig `yaml:"fairplay" mapstructure:"fairplay"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
}

type LogConfig struct {
	File       string `yaml:"file" mapstructure:"file"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Level      string `yaml:"level" mapstructure:"level"` // debug/info/warn/error...
	Dev        bool   `yaml:"dev" mapstructure:"dev"`
}

type GameConfig struct {
	SkipSetup bool   `yaml:"skip_setup" mapstructure:"skip_setup"`
	Strategy  string `yaml:"strategy" mapstructure:"strategy"` // random or hunt
	// Seed fixes the random source; 0 seeds from the clock.
	Seed              int64 `yaml:"seed" mapstructure:"seed"`
	PlacementAttempts int   `yaml:"placement_attempts" mapstructure:"placement_attempts"`
}

type FairPlayConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	KeysDir string `yaml:"keys_dir" mapstructure:"keys_dir"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
	// AllowedOrigins lists websocket origins; empty allows any.
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}
