package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/brojonat/minisolscan/client"
	"github.com/brojonat/minisolscan/service/network"
	"github.com/urfave/cli/v2"
)

func clientCommands() *cli.Command {
	sessionFlag := &cli.StringFlag{
		Name:    "session",
		Usage:   "Resume a server session (its selected network and theme)",
		EnvVars: []string{"MINISOLSCAN_SESSION"},
	}

	return &cli.Command{
		Name:  "client",
		Usage: "HTTP client commands for interacting with the minisolscan server",
		Subcommands: []*cli.Command{
			{
				Name:      "lookup",
				Usage:     "Look up a transaction through the server",
				ArgsUsage: "SIGNATURE",
				Flags: []cli.Flag{
					sessionFlag,
					&cli.StringFlag{
						Name:    "network",
						Aliases: []string{"n"},
						Usage:   "Select this network on the session before looking up",
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "Custom RPC URL (with --network custom)",
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("requires exactly one argument: signature")
					}

					cl, err := newClient(c)
					if err != nil {
						return err
					}
					if c.IsSet("url") && c.String("network") == "" {
						return fmt.Errorf("--url requires --network custom")
					}
					if n := c.String("network"); n != "" {
						t, err := network.ParseType(n)
						if err != nil {
							return fmt.Errorf("failed to select network: %w", err)
						}
						if err := checkURLFlag(c, t); err != nil {
							return err
						}
						if _, err := cl.SelectNetwork(c.Context, n, c.String("url")); err != nil {
							return fmt.Errorf("failed to select network: %w", err)
						}
					}

					tx, err := cl.Lookup(c.Context, c.Args().First())
					if err != nil {
						return fmt.Errorf("failed to look up transaction: %w", err)
					}
					printSession(c, cl)

					if c.Bool("json") {
						return outputJSON(c.App.Writer, tx)
					}
					printClientTransaction(c, tx)
					return nil
				},
			},
			{
				Name:  "networks",
				Usage: "List networks and the session's active network",
				Flags: []cli.Flag{sessionFlag},
				Action: func(c *cli.Context) error {
					cl, err := newClient(c)
					if err != nil {
						return err
					}

					presets, active, err := cl.Networks(c.Context)
					if err != nil {
						return fmt.Errorf("failed to list networks: %w", err)
					}
					printSession(c, cl)

					if c.Bool("json") {
						return outputJSON(c.App.Writer, map[string]interface{}{
							"networks": presets,
							"active":   active,
						})
					}

					w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
					fmt.Fprintln(w, "\tNETWORK\tNAME\tURL")
					for _, p := range presets {
						marker := ""
						if p.Type == active.Type {
							marker = "*"
						}
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, p.Type, p.Name, p.URL)
					}
					return w.Flush()
				},
			},
		},
	}
}

func newClient(c *cli.Context) (*client.Client, error) {
	serverURL := c.String("server-url")
	if serverURL == "" {
		return nil, fmt.Errorf("server-url is required (set SERVER_URL env var or use --server-url)")
	}

	cl := client.NewClient(serverURL, nil, newLogger(c))
	if id := c.String("session"); id != "" {
		if err := cl.SetSession(id); err != nil {
			return nil, err
		}
	}
	return cl, nil
}

// printSession reports the session id on stderr so it can be resumed.
func printSession(c *cli.Context, cl *client.Client) {
	if id := cl.Session(); id != "" && id != c.String("session") {
		fmt.Fprintf(c.App.ErrWriter, "Session: %s (export MINISOLSCAN_SESSION to reuse)\n", id)
	}
}

func printClientTransaction(c *cli.Context, tx *client.Transaction) {
	w := c.App.Writer
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "Signature:   %s\n", tx.Signature)
	fmt.Fprintf(w, "Status:      %s\n", statusColor(tx.Status).Sprint(tx.Status))
	fmt.Fprintf(w, "Timestamp:   %s\n", tx.Timestamp)
	fmt.Fprintf(w, "Signer:      %s\n", tx.Signer)
	fmt.Fprintf(w, "Slot:        %d\n", tx.Slot)
	fmt.Fprintf(w, "Fee:         %s SOL (%d lamports)\n", tx.FeeSOL, tx.Fee)
	fmt.Fprintf(w, "Network:     %s\n", tx.Network)
	fmt.Fprintln(w, separator)

	fmt.Fprintf(w, "Instructions (%d)\n\n", len(tx.Instructions))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, ix := range tx.Instructions {
		label := ix.Label
		if ix.Inner {
			label = "  " + label
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", label, ix.ProgramName, ix.ProgramID)
	}
	tw.Flush()
}
