package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel     string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort     string `yaml:"http-port" env:"HTTP_PORT" env-default:"8080"`
	Redis        Redis  `yaml:"redis"`
	SQLitePath   string `yaml:"sqlite-path" env:"SQLITE_PATH" env-default:"./caro.db"`
	JWTSecretKey string `yaml:"jwt-secret-key" env:"JWT_SECRET_KEY" env-default:"change-me-in-production"`
	OTLPEndpoint string `yaml:"otlp-endpoint" env:"OTLP_ENDPOINT" env-default:"otel-collector:4317"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// MustLoad reads configuration from the given yaml file, falling back to
// environment variables alone when the file does not exist.
func MustLoad(path string) *Config {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			panic(fmt.Errorf("unable to load config file: %w", err))
		}
		return cfg
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		panic(fmt.Errorf("unable to read environment: %w", err))
	}
	return cfg
}

func (that *Redis) Addr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
