package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel    string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort    string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort  string  `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	EnforceTurn bool    `yaml:"enforce-turn" env:"ENFORCE_TURN" env-default:"false"`
	Redis       Redis   `yaml:"redis"`
	Archive     Archive `yaml:"archive"`
	Reaper      Reaper  `yaml:"reaper"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Archive controls how long results of finished sessions are kept in redis.
type Archive struct {
	Disabled bool          `yaml:"disabled" env:"ARCHIVE_DISABLED"`
	TTL      time.Duration `yaml:"ttl" env:"ARCHIVE_TTL" env-default:"24h"`
}

// Reaper evicts finished sessions nobody observes. A zero interval disables it.
type Reaper struct {
	Interval time.Duration `yaml:"interval" env:"REAPER_INTERVAL" env-default:"0s"`
	MaxIdle  time.Duration `yaml:"max-idle" env:"REAPER_MAX_IDLE" env-default:"10m"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load - reads the file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
