// Package config provides configuration management for the formula functions.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultProxyURL is the shared credential-stripping proxy
const DefaultProxyURL = "https://staging-api-proxy-ca4268d7d581.herokuapp.com/proxy"

// DefaultOnchainProxyURL serves the third-party endpoints (uniswap, aave, tally, price, wallet)
const DefaultOnchainProxyURL = "https://onchain-proxy.fileverse.io"

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Proxy       ProxyConfig
	Credentials CredentialsConfig
	Redis       RedisConfig
	Providers   ProvidersConfig
	Logging     LoggingConfig
}

// ServerConfig holds gateway server configuration
type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestsPerSec  int
	Burst           int
}

// ProxyConfig holds the proxy endpoints
type ProxyConfig struct {
	BaseURL        string
	OnchainBaseURL string
}

// CredentialsConfig selects where service credentials are read from
type CredentialsConfig struct {
	Backend string // env or redis
	Prefix  string
}

// RedisConfig holds Redis configuration for the redis credential backend
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ProvidersConfig holds provider endpoints that are not routed through the proxy
type ProvidersConfig struct {
	ENSRPCURL     string
	CirclesRPCURL string
	ChainListURL  string
	HTTPTimeout   time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RequestsPerSec:  getEnvAsInt("SERVER_RPS", 5),
			Burst:           getEnvAsInt("SERVER_BURST", 10),
		},
		Proxy: ProxyConfig{
			BaseURL:        getEnv("PROXY_BASE_URL", DefaultProxyURL),
			OnchainBaseURL: strings.TrimRight(getEnv("ONCHAIN_PROXY_URL", DefaultOnchainProxyURL), "/"),
		},
		Credentials: CredentialsConfig{
			Backend: strings.ToLower(getEnv("CREDENTIAL_BACKEND", "env")),
			Prefix:  getEnv("CREDENTIAL_PREFIX", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Providers: ProvidersConfig{
			ENSRPCURL:     getEnv("ENS_RPC_URL", "https://ethereum-rpc.publicnode.com"),
			CirclesRPCURL: getEnv("CIRCLES_RPC_URL", "https://rpc.aboutcircles.com"),
			ChainListURL:  getEnv("CHAIN_LIST_URL", "https://chainid.network/chains_mini.json"),
			HTTPTimeout:   getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Credentials.Backend {
	case "env", "redis":
	default:
		return fmt.Errorf("unsupported CREDENTIAL_BACKEND %q (want env or redis)", c.Credentials.Backend)
	}
	if c.Proxy.BaseURL == "" {
		return fmt.Errorf("PROXY_BASE_URL must not be empty")
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
