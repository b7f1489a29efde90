package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/brojonat/minisolscan/service/network"
	"github.com/brojonat/minisolscan/service/prefs"
	"github.com/brojonat/minisolscan/service/session"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// newLogger writes diagnostics to the app's stderr at --log-level.
func newLogger(c *cli.Context) *slog.Logger {
	var level slog.Level
	switch c.String("log-level") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	default:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
}

// checkURLFlag rejects --url alongside a preset network, which would ignore it.
func checkURLFlag(c *cli.Context, t network.Type) error {
	if t != network.Custom && c.IsSet("url") {
		return fmt.Errorf("--url is only valid with --network custom, got %q", t)
	}
	return nil
}

// openLocalSession restores the session persisted in the local preferences
// database.
func openLocalSession(c *cli.Context) (*session.Session, func(), error) {
	store, err := prefs.OpenSQLite(c.String("prefs-path"))
	if err != nil {
		return nil, nil, err
	}

	sess, err := session.Open(c.Context, store, newLogger(c))
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return sess, func() { store.Close() }, nil
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// statusColor picks the color for a transaction status or signature check.
func statusColor(status string) *color.Color {
	switch status {
	case "Success", "valid", "healthy":
		return color.New(color.FgGreen, color.Bold)
	case "Failed", "invalid":
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgYellow)
	}
}
