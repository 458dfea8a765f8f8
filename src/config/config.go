package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Service       ServiceConfig       `mapstructure:"service"`
	Databases     DatabasesConfig     `mapstructure:"databases"`
	Auth          AuthConfig          `mapstructure:"auth"`
	SMTP          SMTPConfig          `mapstructure:"smtp"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Pagination    PaginationConfig    `mapstructure:"pagination"`
}

type ServiceConfig struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"logLevel"`
}

type DatabasesConfig struct {
	SQL SQLConfig `mapstructure:"sql"`
}

type SQLConfig struct {
	Host             string `mapstructure:"host"`
	Port             string `mapstructure:"port"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	Database         string `mapstructure:"database"`
	ConnectionString string `mapstructure:"connection_string"`
}

// DSN builds a postgres connection string unless an explicit one is configured.
func (c SQLConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.Username, c.Password, c.Database, c.Port)
}

type AuthConfig struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"accessTokenTTL"`
	RefreshTokenTTL time.Duration `mapstructure:"refreshTokenTTL"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type NotificationsConfig struct {
	BufferSize int `mapstructure:"bufferSize"`
	Workers    int `mapstructure:"workers"`
	MaxRetries int `mapstructure:"maxRetries"`
}

type PaginationConfig struct {
	PageSize    int `mapstructure:"pageSize"`
	MaxPageSize int `mapstructure:"maxPageSize"`
}

// LoadConfig reads settings/appsettings.yaml, or appsettings.<ENV>.yaml when an
// environment name is given. A local .env file, if present, overlays process env.
func LoadConfig(path string, env ...string) (*Config, error) {
	var cfg Config

	// Ignore a missing .env; env vars may come from the process itself
	_ = godotenv.Load()

	viper.AddConfigPath(path)
	if len(env) > 0 && env[0] != "" {
		viper.SetConfigName(fmt.Sprintf("appsettings.%s", env[0]))
	} else {
		viper.SetConfigName("appsettings")
	}
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}
	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Pagination.PageSize == 0 {
		cfg.Pagination.PageSize = 100
	}
	if cfg.Pagination.MaxPageSize == 0 {
		cfg.Pagination.MaxPageSize = 1000
	}
	if cfg.Notifications.BufferSize == 0 {
		cfg.Notifications.BufferSize = 256
	}
	if cfg.Notifications.Workers == 0 {
		cfg.Notifications.Workers = 2
	}
	if cfg.Notifications.MaxRetries == 0 {
		cfg.Notifications.MaxRetries = 3
	}
	return &cfg, nil
}
