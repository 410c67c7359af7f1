package config

import (
	"encoding/base64"
	"fmt"
	"time"
)

const (
	DefaultSendBufferSize = 256
	DefaultTokenExpiry    = 24 * time.Hour
)

type Config struct {
	DatabaseDSN    string
	ServerAddr     string
	SigningKey     []byte
	AllowedOrigins []string
	SendBufferSize int
	TokenExpiry    time.Duration
}

type Option func(*Config)

// WithSendBufferSize sets the per-connection outbound queue length.
func WithSendBufferSize(n int) Option {
	return func(c *Config) {
		c.SendBufferSize = n
	}
}

func WithTokenExpiry(d time.Duration) Option {
	return func(c *Config) {
		c.TokenExpiry = d
	}
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(serverAddr, databaseDSN, base64Secret string, allowedOrigins []string, opts ...Option) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	cfg := &Config{
		DatabaseDSN:    databaseDSN,
		ServerAddr:     serverAddr,
		SigningKey:     signingKey,
		AllowedOrigins: allowedOrigins,
		SendBufferSize: DefaultSendBufferSize,
		TokenExpiry:    DefaultTokenExpiry,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.SendBufferSize <= 0 {
		return nil, fmt.Errorf("send buffer size must be positive, got %d", cfg.SendBufferSize)
	}
	if cfg.TokenExpiry <= 0 {
		return nil, fmt.Errorf("token expiry must be positive, got %s", cfg.TokenExpiry)
	}

	return cfg, nil
}
