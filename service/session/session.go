// Package session holds the per-user lookup state: the active network, the
// theme and the in-flight lookup guard. A Session is passed explicitly to
// whoever needs it; nothing in this package is global.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/brojonat/minisolscan/service/network"
	"github.com/brojonat/minisolscan/service/prefs"
)

// Theme is the display theme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"

	// KeyTheme is the preference key for the theme.
	KeyTheme = "theme"
)

// ParseTheme parses "light" or "dark".
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	default:
		return "", fmt.Errorf("unknown theme %q: must be light or dark", s)
	}
}

// Session is the explicit UI-state object for one user.
type Session struct {
	store  prefs.Store
	logger *slog.Logger

	mu      sync.RWMutex
	network network.Config
	theme   Theme

	busy atomic.Bool
}

// Open restores a session from store. Missing keys fall back to devnet and
// the light theme; any other read error is returned.
func Open(ctx context.Context, store prefs.Store, logger *slog.Logger) (*Session, error) {
	selection, err := read(ctx, store, network.KeySelectedNetwork)
	if err != nil {
		return nil, err
	}
	customURL, err := read(ctx, store, network.KeyCustomRPCURL)
	if err != nil {
		return nil, err
	}
	themeValue, err := read(ctx, store, KeyTheme)
	if err != nil {
		return nil, err
	}

	theme, err := ParseTheme(themeValue)
	if err != nil {
		theme = ThemeLight
	}

	s := &Session{
		store:   store,
		logger:  logger,
		network: network.Restore(selection, customURL),
		theme:   theme,
	}

	logger.DebugContext(ctx, "session restored",
		"network", s.network.Type,
		"theme", s.theme,
	)
	return s, nil
}

// Seed writes t as the selected network unless a selection already exists.
func Seed(ctx context.Context, store prefs.Store, t network.Type) error {
	current, err := read(ctx, store, network.KeySelectedNetwork)
	if err != nil {
		return err
	}
	if current != "" {
		return nil
	}
	if err := store.Set(ctx, network.KeySelectedNetwork, string(t)); err != nil {
		return fmt.Errorf("failed to seed network selection: %w", err)
	}
	return nil
}

func read(ctx context.Context, store prefs.Store, key string) (string, error) {
	v, err := store.Get(ctx, key)
	if errors.Is(err, prefs.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return v, nil
}

// Network returns the active network configuration.
func (s *Session) Network() network.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.network
}

// SelectNetwork resolves the selection, persists it and makes it active.
// customRpcUrl is only written for custom selections. On any error the
// active network is left unchanged.
func (s *Session) SelectNetwork(ctx context.Context, selection network.Type, customURL string) (network.Config, error) {
	cfg, err := network.Resolve(selection, customURL)
	if err != nil {
		return network.Config{}, err
	}

	// The URL goes first so a failed selection write never pairs
	// selectedNetwork=custom with a stale URL.
	if cfg.IsCustom() {
		if err := s.store.Set(ctx, network.KeyCustomRPCURL, cfg.URL); err != nil {
			return network.Config{}, fmt.Errorf("failed to persist custom RPC URL: %w", err)
		}
	}
	if err := s.store.Set(ctx, network.KeySelectedNetwork, string(cfg.Type)); err != nil {
		return network.Config{}, fmt.Errorf("failed to persist network selection: %w", err)
	}

	s.mu.Lock()
	s.network = cfg
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "network selected",
		"network", cfg.Type,
		"custom", cfg.IsCustom(),
	)
	return cfg, nil
}

// Theme returns the active theme.
func (s *Session) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme persists and activates theme.
func (s *Session) SetTheme(ctx context.Context, theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	if err := s.store.Set(ctx, KeyTheme, string(theme)); err != nil {
		return fmt.Errorf("failed to persist theme: %w", err)
	}
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	return nil
}

// ToggleTheme switches between light and dark and returns the new theme.
func (s *Session) ToggleTheme(ctx context.Context) (Theme, error) {
	next := ThemeDark
	if s.Theme() == ThemeDark {
		next = ThemeLight
	}
	if err := s.SetTheme(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}

// TryBeginLookup claims the session's single lookup slot. When ok is true
// the caller must call done once the lookup finishes.
func (s *Session) TryBeginLookup() (done func(), ok bool) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, false
	}
	var once sync.Once
	return func() {
		once.Do(func() { s.busy.Store(false) })
	}, true
}

// Busy reports whether a lookup is in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}
