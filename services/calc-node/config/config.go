package config

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hetu-project/causality-engine/pkg/crypto"
	"github.com/hetu-project/causality-engine/pkg/protocol"
)

// Config holds all configuration for a calc node
type Config struct {
	NodeID     string                  `json:"node_id"`
	Port       string                  `json:"port"`
	Peers      []protocol.PeerEndpoint `json:"peers"`
	PrivateKey *ecdsa.PrivateKey       `json:"-"`

	// Transport policy
	RequestTimeout time.Duration `json:"request_timeout"`
	MaxRetries     int           `json:"max_retries"`
	RetryInterval  time.Duration `json:"retry_interval"`

	// Optional integrations
	DgraphURL   string `json:"dgraph_url"`
	DatabaseDSN string `json:"database_dsn"`

	// Event log retention; 0 keeps every record
	LogCapacity int `json:"log_capacity"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		NodeID:         getEnv("NODE_ID", ""),
		Port:           getEnv("PORT", "8080"),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 10*time.Second),
		MaxRetries:     getIntEnv("MAX_RETRIES", 3),
		RetryInterval:  getDurationEnv("RETRY_INTERVAL", 2*time.Second),
		DgraphURL:      getEnv("DGRAPH_URL", ""),
		DatabaseDSN:    getEnv("DATABASE_DSN", ""),
		LogCapacity:    getIntEnv("LOG_CAPACITY", 0),
	}

	// Peers are optional; a node without peers only stamps local events
	peersJSON := getEnv("PEERS", "")
	if peersJSON != "" {
		if err := json.Unmarshal([]byte(peersJSON), &config.Peers); err != nil {
			return nil, fmt.Errorf("failed to parse peers: %v", err)
		}
	}

	// Load or generate the signing key
	privateKeyHex := getEnv("PRIVATE_KEY", "")
	if privateKeyHex != "" {
		privateKey, err := crypto.LoadPrivateKeyFromHex(privateKeyHex)
		if err != nil {
			return nil, fmt.Errorf("failed to load private key: %v", err)
		}
		config.PrivateKey = privateKey
	} else {
		privateKey, err := crypto.GeneratePrivateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate private key: %v", err)
		}
		config.PrivateKey = privateKey
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("NODE_ID is required")
	}

	seen := map[string]bool{c.NodeID: true}
	for _, peer := range c.Peers {
		if peer.ID == "" {
			return fmt.Errorf("peer with URL %q has no id", peer.URL)
		}
		if peer.URL == "" {
			return fmt.Errorf("peer %q has no URL", peer.ID)
		}
		if seen[peer.ID] {
			return fmt.Errorf("duplicate process id %q in roster", peer.ID)
		}
		seen[peer.ID] = true
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative")
	}
	if c.LogCapacity < 0 {
		return fmt.Errorf("LOG_CAPACITY must not be negative")
	}

	return nil
}

// Roster returns the full process roster of this node: its own id plus every
// configured peer id.
func (c *Config) Roster() []string {
	roster := make([]string, 0, len(c.Peers)+1)
	roster = append(roster, c.NodeID)
	for _, peer := range c.Peers {
		roster = append(roster, peer.ID)
	}
	return roster
}

// NetworkConfig returns the transport view of this configuration.
func (c *Config) NetworkConfig() *protocol.NetworkConfig {
	return &protocol.NetworkConfig{
		Peers:          c.Peers,
		RequestTimeout: c.RequestTimeout,
		MaxRetries:     c.MaxRetries,
		RetryInterval:  c.RetryInterval,
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable with a default value
func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getDurationEnv gets a duration environment variable with a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
