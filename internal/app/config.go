package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"llmnode/internal/crypto"
)

// Config holds runtime options for the node.
type Config struct {
	ListenAddr     string // e.g. :8080
	Home           string // directory holding the encrypted node key file
	Passphrase     string // unlocks the key file; never logged
	PrivateKeyHex  string // HOST_PRIVATE_KEY; takes precedence over the key file
	DefaultChainID uint64
	AllowedOrigins []string

	SessionTTL         time.Duration
	SweepInterval      time.Duration
	MaxConcurrentInits int
	ReadLimit          int64
	PingInterval       time.Duration

	LogLevel  string // logrus level name
	LogFormat string // "text" or "json"
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		ListenAddr:         ":8080",
		DefaultChainID:     84532,
		SessionTTL:         time.Hour,
		SweepInterval:      time.Minute,
		MaxConcurrentInits: 16,
		ReadLimit:          1 << 20,
		PingInterval:       30 * time.Second,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// ConfigFromEnv overlays LLMNODE_* variables and HOST_PRIVATE_KEY onto base.
func ConfigFromEnv(base Config) (Config, error) {
	c := base
	if v, ok := os.LookupEnv("LLMNODE_LISTEN"); ok {
		c.ListenAddr = v
	}
	if v, ok := os.LookupEnv("LLMNODE_HOME"); ok {
		c.Home = v
	}
	if v, ok := os.LookupEnv("LLMNODE_PASSPHRASE"); ok {
		c.Passphrase = v
	}
	if v, ok := os.LookupEnv(crypto.NodeKeyEnv); ok {
		c.PrivateKeyHex = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("LLMNODE_ALLOWED_ORIGINS"); ok && v != "" {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}
	if v, ok := os.LookupEnv("LLMNODE_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv("LLMNODE_LOG_FORMAT"); ok {
		c.LogFormat = v
	}

	var err error
	if c.DefaultChainID, err = envUint("LLMNODE_CHAIN_ID", c.DefaultChainID); err != nil {
		return c, err
	}
	if c.SessionTTL, err = envDuration("LLMNODE_SESSION_TTL", c.SessionTTL); err != nil {
		return c, err
	}
	if c.SweepInterval, err = envDuration("LLMNODE_SWEEP_INTERVAL", c.SweepInterval); err != nil {
		return c, err
	}
	if c.PingInterval, err = envDuration("LLMNODE_PING_INTERVAL", c.PingInterval); err != nil {
		return c, err
	}
	inits, err := envUint("LLMNODE_MAX_INITS", uint64(c.MaxConcurrentInits))
	if err != nil {
		return c, err
	}
	c.MaxConcurrentInits = int(inits)
	limit, err := envUint("LLMNODE_READ_LIMIT", uint64(c.ReadLimit))
	if err != nil {
		return c, err
	}
	c.ReadLimit = int64(limit)
	return c, nil
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.ListenAddr == "":
		return errors.New("listen address required")
	case c.SessionTTL <= 0:
		return errors.New("session ttl must be positive")
	case c.SweepInterval <= 0:
		return errors.New("sweep interval must be positive")
	case c.MaxConcurrentInits < 1:
		return errors.New("max concurrent inits must be at least 1")
	case c.ReadLimit < 1024:
		return errors.New("read limit must be at least 1024 bytes")
	case c.PingInterval < 0:
		return errors.New("ping interval must not be negative")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log format %q: want text or json", c.LogFormat)
	}
	return nil
}

func envUint(name string, def uint64) (uint64, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

func envDuration(name string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}
