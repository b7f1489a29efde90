package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/brojonat/minisolscan/service/network"
	"github.com/brojonat/minisolscan/service/solana"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"
)

// ConfigFileEnv names an optional YAML/TOML/JSON file whose keys mirror the
// environment variables (lowercased, e.g. server_addr).
const ConfigFileEnv = "MINISOLSCAN_CONFIG"

// Config holds all application configuration loaded from environment variables.
// All fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Database configuration (optional; lookup history is disabled without it)
	DatabaseURL string

	// NATS configuration (optional; lookup events are disabled without it)
	NATSURL string

	// Solana configuration
	DefaultNetwork network.Type
	RPCCommitment  rpc.CommitmentType
	RPCEncoding    solana.Encoding
	RPCRateLimit   float64 // requests per second, 0 disables the limiter
	RPCRateBurst   int

	// Server-side custom RPC endpoints (the CLI is never restricted)
	AllowCustomRPC  bool
	AllowPrivateRPC bool // also allow loopback, private and link-local hosts

	// Session configuration
	SessionTTL      time.Duration
	DisplayTimezone string
	Location        *time.Location

	// CLI configuration
	PrefsPath string
}

var defaults = map[string]any{
	"server_addr":       ":8080",
	"log_level":         "info",
	"database_url":      "",
	"nats_url":          "",
	"default_network":   string(network.DefaultType),
	"rpc_commitment":    string(rpc.CommitmentConfirmed),
	"rpc_encoding":      string(solana.EncodingJSONParsed),
	"rpc_rate_limit":    "5",
	"rpc_rate_burst":    "5",
	"allow_custom_rpc":  "false",
	"allow_private_rpc": "false",
	"session_ttl":       "24h",
	"display_timezone":  "Local",
	"prefs_path":        DefaultPrefsPath(),
}

// Load reads configuration from environment variables (and the optional
// config file) and validates every field. All problems are reported together.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = v.GetString("server_addr")
	cfg.LogLevel = strings.ToLower(v.GetString("log_level"))

	// Optional backends
	cfg.DatabaseURL = v.GetString("database_url")
	cfg.NATSURL = v.GetString("nats_url")

	// Solana configuration
	netType, err := network.ParseType(v.GetString("default_network"))
	if err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_NETWORK: %w", err))
	} else {
		cfg.DefaultNetwork = netType
	}

	commitment, err := ParseCommitment(v.GetString("rpc_commitment"))
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.RPCCommitment = commitment
	}

	encoding, err := solana.ParseEncoding(v.GetString("rpc_encoding"))
	if err != nil {
		errs = append(errs, fmt.Errorf("RPC_ENCODING: %w", err))
	} else {
		cfg.RPCEncoding = encoding
	}

	if cfg.RPCRateLimit, err = parseFloat(v, "rpc_rate_limit"); err != nil {
		errs = append(errs, err)
	}
	if cfg.RPCRateBurst, err = parseInt(v, "rpc_rate_burst"); err != nil {
		errs = append(errs, err)
	}

	if cfg.AllowCustomRPC, err = parseBool(v, "allow_custom_rpc"); err != nil {
		errs = append(errs, err)
	}
	if cfg.AllowPrivateRPC, err = parseBool(v, "allow_private_rpc"); err != nil {
		errs = append(errs, err)
	}

	// Session configuration
	if cfg.SessionTTL, err = parseDuration(v, "session_ttl"); err != nil {
		errs = append(errs, err)
	}

	cfg.DisplayTimezone = v.GetString("display_timezone")
	loc, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("DISPLAY_TIMEZONE: invalid time zone %q: %w", cfg.DisplayTimezone, err))
	} else {
		cfg.Location = loc
	}

	cfg.PrefsPath = v.GetString("prefs_path")

	// Return all validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.ServerAddr == "" {
		errs = append(errs, fmt.Errorf("ServerAddr is required"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LogLevel must be one of debug, info, warn, error"))
	}

	if _, ok := network.Preset(c.DefaultNetwork); !ok || c.DefaultNetwork == network.Custom {
		errs = append(errs, fmt.Errorf("DefaultNetwork must be a preset network other than custom"))
	}

	if _, err := ParseCommitment(string(c.RPCCommitment)); err != nil {
		errs = append(errs, err)
	}

	if c.RPCEncoding != solana.EncodingJSONParsed && c.RPCEncoding != solana.EncodingBase64 {
		errs = append(errs, fmt.Errorf("RPCEncoding must be jsonParsed or base64"))
	}

	if c.RPCRateLimit < 0 {
		errs = append(errs, fmt.Errorf("RPCRateLimit cannot be negative"))
	}

	if c.RPCRateLimit > 0 && c.RPCRateBurst < 1 {
		errs = append(errs, fmt.Errorf("RPCRateBurst must be at least 1 when rate limiting is enabled"))
	}

	if c.SessionTTL < time.Minute {
		errs = append(errs, fmt.Errorf("SessionTTL must be at least 1 minute"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// ParseCommitment parses processed, confirmed or finalized.
func ParseCommitment(s string) (rpc.CommitmentType, error) {
	switch c := rpc.CommitmentType(strings.ToLower(strings.TrimSpace(s))); c {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
		return c, nil
	default:
		return "", fmt.Errorf("RPC_COMMITMENT: invalid commitment %q: must be processed, confirmed or finalized", s)
	}
}

func envName(key string) string {
	return strings.ToUpper(key)
}

// parseDuration parses a duration setting.
func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value := v.GetString(key)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", envName(key), value, err)
	}
	return duration, nil
}

// parseInt parses an integer setting.
func parseInt(v *viper.Viper, key string) (int, error) {
	value := v.GetString(key)
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", envName(key), value, err)
	}
	return result, nil
}

// parseBool parses a boolean setting.
func parseBool(v *viper.Viper, key string) (bool, error) {
	value := v.GetString(key)
	result, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q: %w", envName(key), value, err)
	}
	return result, nil
}

// EndpointPolicy is the server's policy for user-supplied RPC endpoints.
func (c *Config) EndpointPolicy() network.EndpointPolicy {
	return network.EndpointPolicy{
		AllowCustom:       c.AllowCustomRPC,
		AllowPrivateHosts: c.AllowPrivateRPC,
	}
}

// parseFloat parses a float setting.
func parseFloat(v *viper.Viper, key string) (float64, error) {
	value := v.GetString(key)
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", envName(key), value, err)
	}
	return result, nil
}

// DefaultPrefsPath is where the CLI keeps its preferences database.
func DefaultPrefsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".minisolscan", "prefs.db")
	}
	return filepath.Join(home, ".minisolscan", "prefs.db")
}
