package network

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrEndpointNotAllowed is returned when a policy refuses a resolved network.
// It also matches ErrInvalidSelection.
var ErrEndpointNotAllowed = errors.New("RPC endpoint not allowed")

// EndpointPolicy limits which networks a shared server dials on behalf of
// its callers. The zero value allows the presets only.
type EndpointPolicy struct {
	// AllowCustom permits user-supplied RPC URLs.
	AllowCustom bool
	// AllowPrivateHosts permits custom URLs naming localhost or a loopback,
	// private, link-local or unspecified IP address.
	AllowPrivateHosts bool
}

// Check reports whether cfg may be dialed. Presets always pass.
func (p EndpointPolicy) Check(cfg Config) error {
	if !cfg.IsCustom() {
		return nil
	}
	if !p.AllowCustom {
		return notAllowed("custom RPC endpoints are disabled on this server")
	}
	if p.AllowPrivateHosts {
		return nil
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return notAllowed("invalid RPC URL")
	}
	if isPrivateHost(u.Hostname()) {
		return notAllowed("RPC URL must name a public host")
	}
	return nil
}

func notAllowed(msg string) error {
	return fmt.Errorf("%w: %w: %s", ErrInvalidSelection, ErrEndpointNotAllowed, msg)
}

// isPrivateHost checks the literal host only; names are not resolved.
func isPrivateHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}

// Presets lists the presets the policy lets callers select, in display order.
func (p EndpointPolicy) Presets() []Config {
	all := Presets()
	if p.AllowCustom {
		return all
	}
	out := all[:0]
	for _, cfg := range all {
		if !cfg.IsCustom() {
			out = append(out, cfg)
		}
	}
	return out
}
