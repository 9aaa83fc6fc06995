// Package config loads server configuration from flags, environment
// variables and an optional config file, the way the teacher's
// config.go does with Viper, extended with the knobs the engine needs
// that a generic cache server does not (spec.md §2, §9 eviction
// policy, §4.I event loop sizing, §4.A database count).
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the server.
type Config struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	UnixSocket string `mapstructure:"unix_socket"`

	MaxMemory      string        `mapstructure:"max_memory"`
	MaxClients     int           `mapstructure:"max_clients"`
	EvictionPolicy string        `mapstructure:"eviction_policy"`
	Databases      int           `mapstructure:"databases"`
	Timeout        time.Duration `mapstructure:"timeout"`
	CronPeriod     time.Duration `mapstructure:"cron_period"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	TCPKeepAlive bool `mapstructure:"tcp_keepalive"`
	TCPBacklog   int  `mapstructure:"tcp_backlog"`

	MaxInputBufferBytes  int64 `mapstructure:"max_input_buffer_bytes"`
	MaxWriteBytesPerLoop int   `mapstructure:"max_write_bytes_per_loop"`
	MaxAcceptsPerLoop    int   `mapstructure:"max_accepts_per_loop"`
}

// validEvictionPolicies mirrors spec.md §4.M's policy set.
var validEvictionPolicies = []string{
	"no-eviction", "allkeys-lru", "volatile-lru", "allkeys-random", "volatile-random", "volatile-ttl",
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Host:           "localhost",
		Port:           6379,
		UnixSocket:     "",
		MaxMemory:      "0",
		MaxClients:     10000,
		EvictionPolicy: "no-eviction",
		Databases:      16,
		Timeout:        0,
		CronPeriod:     100 * time.Millisecond,
		LogLevel:       "info",
		LogFormat:      "text",
		TCPKeepAlive:   true,
		TCPBacklog:     511,

		MaxInputBufferBytes:  1 << 30,
		MaxWriteBytesPerLoop: 64 * 1024,
		MaxAcceptsPerLoop:    10,
	}
}

// Load reads configuration from environment variables, an optional
// config file, and whatever flags were bound into viper by the CLI
// layer before this is called.
func Load() (*Config, error) {
	config := DefaultConfig()

	viper.SetConfigName("gofast")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/gofast/")
	viper.AddConfigPath("$HOME/.gofast")

	viper.SetEnvPrefix("GOFAST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("host", config.Host)
	viper.SetDefault("port", config.Port)
	viper.SetDefault("unix_socket", config.UnixSocket)
	viper.SetDefault("max_memory", config.MaxMemory)
	viper.SetDefault("max_clients", config.MaxClients)
	viper.SetDefault("eviction_policy", config.EvictionPolicy)
	viper.SetDefault("databases", config.Databases)
	viper.SetDefault("timeout", config.Timeout)
	viper.SetDefault("cron_period", config.CronPeriod)
	viper.SetDefault("log_level", config.LogLevel)
	viper.SetDefault("log_format", config.LogFormat)
	viper.SetDefault("tcp_keepalive", config.TCPKeepAlive)
	viper.SetDefault("tcp_backlog", config.TCPBacklog)
	viper.SetDefault("max_input_buffer_bytes", config.MaxInputBufferBytes)
	viper.SetDefault("max_write_bytes_per_loop", config.MaxWriteBytesPerLoop)
	viper.SetDefault("max_accepts_per_loop", config.MaxAcceptsPerLoop)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return config, nil
}

// Validate checks the loaded configuration for consistency.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Port)
	}
	if c.MaxClients < 1 {
		return fmt.Errorf("max_clients must be at least 1")
	}
	if c.Databases < 1 {
		return fmt.Errorf("databases must be at least 1")
	}
	if c.MaxInputBufferBytes < 1 {
		return fmt.Errorf("max_input_buffer_bytes must be at least 1")
	}
	if c.MaxWriteBytesPerLoop < 1 {
		return fmt.Errorf("max_write_bytes_per_loop must be at least 1")
	}
	if c.MaxAcceptsPerLoop < 1 {
		return fmt.Errorf("max_accepts_per_loop must be at least 1")
	}

	validLevel := false
	for _, level := range []string{"trace", "debug", "info", "warn", "error", "fatal"} {
		if c.LogLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}

	validPolicy := false
	for _, p := range validEvictionPolicies {
		if c.EvictionPolicy == p {
			validPolicy = true
			break
		}
	}
	if !validPolicy {
		return fmt.Errorf("invalid eviction_policy: %s (must be one of: %s)",
			c.EvictionPolicy, strings.Join(validEvictionPolicies, ", "))
	}

	return nil
}

// ParseMemorySize converts the human-readable max_memory setting to
// bytes. "0" or empty means no limit.
func (c *Config) ParseMemorySize() (int64, error) {
	size := strings.ToUpper(strings.TrimSpace(c.MaxMemory))
	if size == "" || size == "0" {
		return 0, nil
	}

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(size, "KB"):
		multiplier = 1024
		size = strings.TrimSuffix(size, "KB")
	case strings.HasSuffix(size, "MB"):
		multiplier = 1024 * 1024
		size = strings.TrimSuffix(size, "MB")
	case strings.HasSuffix(size, "GB"):
		multiplier = 1024 * 1024 * 1024
		size = strings.TrimSuffix(size, "GB")
	}

	value, err := strconv.ParseInt(size, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory size: %s", c.MaxMemory)
	}
	return value * multiplier, nil
}

// String returns a one-line summary of the config for startup logging.
func (c *Config) String() string {
	return fmt.Sprintf("%s:%d, MaxMemory: %s, EvictionPolicy: %s, Databases: %d, LogLevel: %s",
		c.Host, c.Port, c.MaxMemory, c.EvictionPolicy, c.Databases, c.LogLevel)
}
