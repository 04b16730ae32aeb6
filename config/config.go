// Package config loads the gateway configuration from a TOML file with
// environment variable overrides for deployment settings.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	Auth     AuthConfig     `toml:"auth"`
	Netease  NeteaseConfig  `toml:"netease"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DatabaseConfig contains the Postgres connection string.
type DatabaseConfig struct {
	URL string `toml:"url"`
}

// RedisConfig contains the response cache backend settings.
type RedisConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// AuthConfig contains token signing settings.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

// NeteaseConfig contains upstream endpoints and credentials for URL resolution.
type NeteaseConfig struct {
	// APIBase is the base URL of the authenticated Netease API service.
	APIBase string `toml:"api_base"`
	// VIPCookie is the operator's VIP cookie string, merged into every
	// resolution request as the baseline credential set.
	VIPCookie string `toml:"vip_cookie"`
	// FallbackURL is the public fallback endpoint, templated with the track id.
	FallbackURL string `toml:"fallback_url"`
	// ProxyTarget is the meting endpoint used by /proxy, templated with the track id.
	ProxyTarget string `toml:"proxy_target"`
	// ResolveTimeoutSeconds bounds each individual resolver call.
	ResolveTimeoutSeconds int `toml:"resolve_timeout_seconds"`
}

// Load reads a TOML configuration file and applies environment overrides.
// A missing file is not an error; defaults plus environment are used instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// Default returns the configuration parsed from the embedded example file.
func Default() *Config {
	var cfg Config
	if err := toml.Unmarshal(exampleConf, &cfg); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &cfg
}

// applyEnv keeps the original deployment contract: the same variables the
// Node predecessor read from its environment still win over the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("VIP_COOKIE"); v != "" {
		c.Netease.VIPCookie = v
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
