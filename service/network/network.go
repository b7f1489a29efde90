package network

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Type identifies a network preset.
type Type string

const (
	MainnetBeta Type = "mainnet-beta"
	Devnet      Type = "devnet"
	Testnet     Type = "testnet"
	Localnet    Type = "localnet"
	Custom      Type = "custom"
)

// DefaultType is used whenever no usable selection has been persisted.
const DefaultType = Devnet

// Persisted preference keys. customRpcUrl is only written for custom selections.
const (
	KeySelectedNetwork = "selectedNetwork"
	KeyCustomRPCURL    = "customRpcUrl"
)

// ErrInvalidSelection is returned when a selection cannot be resolved to an endpoint.
var ErrInvalidSelection = errors.New("invalid network selection")

// Config is a resolved network: the preset tag, a display name and the RPC endpoint.
type Config struct {
	Type Type   `json:"type"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// IsCustom reports whether the config points at a user-supplied endpoint.
func (c Config) IsCustom() bool {
	return c.Type == Custom
}

var presets = map[Type]Config{
	MainnetBeta: {Type: MainnetBeta, Name: "Mainnet Beta", URL: "https://api.mainnet-beta.solana.com"},
	Devnet:      {Type: Devnet, Name: "Devnet", URL: "https://api.devnet.solana.com"},
	Testnet:     {Type: Testnet, Name: "Testnet", URL: "https://api.testnet.solana.com"},
	Localnet:    {Type: Localnet, Name: "Localnet", URL: "http://127.0.0.1:8899"},
	Custom:      {Type: Custom, Name: "Custom RPC", URL: ""},
}

// display order for selectors
var order = []Type{MainnetBeta, Devnet, Testnet, Localnet, Custom}

// Presets returns the preset table in display order. The custom preset is
// last and carries an empty URL.
func Presets() []Config {
	out := make([]Config, 0, len(order))
	for _, t := range order {
		out = append(out, presets[t])
	}
	return out
}

// Preset returns the preset for t.
func Preset(t Type) (Config, bool) {
	cfg, ok := presets[t]
	return cfg, ok
}

// ParseType parses a preset tag. "mainnet" is accepted as an alias for mainnet-beta.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "mainnet" {
		return MainnetBeta, nil
	}
	t := Type(s)
	if _, ok := presets[t]; !ok {
		return "", fmt.Errorf("%w: unknown network %q", ErrInvalidSelection, s)
	}
	return t, nil
}

// Resolve looks up selection in the preset table. For the custom preset the
// URL is replaced with customURL, which must be a non-empty absolute URL.
// The preset table itself is never modified.
func Resolve(selection Type, customURL string) (Config, error) {
	cfg, ok := presets[selection]
	if !ok {
		return Config{}, fmt.Errorf("%w: unknown network %q", ErrInvalidSelection, selection)
	}
	if selection != Custom {
		return cfg, nil
	}

	customURL = strings.TrimSpace(customURL)
	if customURL == "" {
		return Config{}, fmt.Errorf("%w: custom network requires an RPC URL", ErrInvalidSelection)
	}
	if err := validateEndpoint(customURL); err != nil {
		return Config{}, err
	}

	cfg.URL = customURL
	return cfg, nil
}

// Restore rebuilds the active config from persisted values. It never fails:
// anything unusable falls back to the devnet preset.
func Restore(persistedSelection, persistedCustomURL string) Config {
	t, err := ParseType(persistedSelection)
	if err != nil {
		return presets[DefaultType]
	}
	cfg, err := Resolve(t, persistedCustomURL)
	if err != nil {
		return presets[DefaultType]
	}
	return cfg
}

func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: invalid RPC URL: %v", ErrInvalidSelection, err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("%w: RPC URL must use http, https, ws or wss", ErrInvalidSelection)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: RPC URL must include a host", ErrInvalidSelection)
	}
	return nil
}
