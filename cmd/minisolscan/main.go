package main

import (
	"fmt"
	"log"
	"os"

	"github.com/brojonat/minisolscan/service/config"
	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "minisolscan",
		Usage: "Solana transaction lookup CLI",
		Description: `A command-line tool for looking up Solana transactions by signature.

Lookups run directly against the selected network's RPC endpoint. The selected
network and theme are kept in a local preferences database so they persist
between invocations. The client, db and nats commands talk to a running
minisolscan server and its backing services.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			// Local lookup commands
			txCommand(),
			checkCommand(),
			// Local preference commands
			networkCommands(),
			themeCommands(),
			// Client commands (HTTP API)
			clientCommands(),
			// Database inspection commands
			{
				Name:  "db",
				Usage: "Database inspection commands",
				Subcommands: []*cli.Command{
					listLookupsCommand(),
				},
			},
			// NATS lookup streaming commands
			{
				Name:  "nats",
				Usage: "NATS lookup event commands",
				Subcommands: []*cli.Command{
					subscribeCommand(),
				},
			},
			// Server utility commands
			{
				Name:  "server",
				Usage: "Server utility commands",
				Subcommands: []*cli.Command{
					healthCommand(),
					versionCommand(),
				},
			},
		},
		// Global flags available to all commands
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "prefs-path",
				Usage:   "Local preferences database",
				EnvVars: []string{"PREFS_PATH"},
				Value:   config.DefaultPrefsPath(),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:    "server-url",
				Usage:   "minisolscan server URL",
				EnvVars: []string{"SERVER_URL"},
				Value:   "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "NATS server URL",
				EnvVars: []string{"NATS_URL"},
				Value:   "nats://localhost:4222",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level for diagnostics on stderr (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "error",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output in JSON format",
			},
		},
	}
}
