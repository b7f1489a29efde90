package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/brojonat/minisolscan/service/db"
	"github.com/brojonat/minisolscan/service/network"
	"github.com/urfave/cli/v2"
)

func listLookupsCommand() *cli.Command {
	return &cli.Command{
		Name:    "lookups",
		Usage:   "List recorded lookups, newest first",
		Aliases: []string{"ls"},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "network",
				Aliases: []string{"n"},
				Usage:   "Filter by network",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Limit number of lookups",
				Value: 50,
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Skip this many lookups",
			},
		},
		Action: func(c *cli.Context) error {
			params := db.ListLookupsParams{
				Limit:  int32(c.Int("limit")),
				Offset: int32(c.Int("offset")),
			}
			if n := c.String("network"); n != "" {
				t, err := network.ParseType(n)
				if err != nil {
					return err
				}
				params.Network = string(t)
			}

			store, closer, err := getStore(c)
			if err != nil {
				return err
			}
			defer closer()

			lookups, err := store.ListLookups(c.Context, params)
			if err != nil {
				return fmt.Errorf("failed to list lookups: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(c.App.Writer, lookups)
			}

			// Pretty table output
			w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "LOOKED UP\tNETWORK\tSTATUS\tSLOT\tFEE\tSIGNATURE")
			for _, l := range lookups {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					l.LookedUpAt.Format(time.RFC3339),
					l.Network,
					statusColor(l.Status).Sprint(l.Status),
					l.Slot,
					l.Fee,
					l.Signature,
				)
			}
			w.Flush()

			fmt.Fprintf(c.App.ErrWriter, "\nTotal: %d lookups\n", len(lookups))
			return nil
		},
	}
}

// Helper function to connect to database
func getStore(c *cli.Context) (*db.Store, func(), error) {
	dbURL := c.String("database-url")
	if dbURL == "" {
		return nil, nil, fmt.Errorf("database-url is required (set DATABASE_URL env var or use --database-url)")
	}

	pool, err := db.Connect(c.Context, dbURL)
	if err != nil {
		return nil, nil, err
	}

	store := db.NewStore(pool, nil)
	closer := func() { pool.Close() }

	return store, closer, nil
}
