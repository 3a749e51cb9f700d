package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel     string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort     string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort   string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis        Redis  `yaml:"redis"`
	Game         Game   `yaml:"game"`
	JWTSecretKey string `yaml:"jwt-secret-key" env:"JWT_SECRET_KEY"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Game holds the session timing knobs.
type Game struct {
	CountdownTicks  int           `yaml:"countdown-ticks" env:"GAME_COUNTDOWN_TICKS" env-default:"30"`
	TickInterval    time.Duration `yaml:"tick-interval" env:"GAME_TICK_INTERVAL" env-default:"1s"`
	RetentionWindow time.Duration `yaml:"retention-window" env:"GAME_RETENTION_WINDOW" env-default:"24h"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load reads the yaml file at path and applies env overrides.
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
