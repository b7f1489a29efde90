package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	natspkg "github.com/brojonat/minisolscan/service/nats"
	"github.com/brojonat/minisolscan/service/network"
	"github.com/urfave/cli/v2"
)

// subscribeCommand streams lookup events published by the server.
func subscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Usage:     "Subscribe to lookup events",
		ArgsUsage: "[network]",
		Description: `Subscribe to lookup events published to NATS JetStream by the server.

Events are published to the subject lookups.{network}. Without a network
argument every network is streamed.

Example:
  minisolscan nats subscribe mainnet-beta --json`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "durable",
				Aliases: []string{"d"},
				Usage:   "Create a durable consumer (survives restarts)",
			},
			&cli.StringFlag{
				Name:  "consumer-name",
				Usage: "Consumer name (required for durable)",
				Value: "minisolscan-cli",
			},
		},
		Action: func(c *cli.Context) error {
			opts := natspkg.SubscribeOptions{}
			if c.NArg() > 0 {
				t, err := network.ParseType(c.Args().First())
				if err != nil {
					return err
				}
				opts.Network = string(t)
			}
			if c.Bool("durable") {
				opts.Durable = c.String("consumer-name")
			}

			natsURL := c.String("nats-url")
			jsonOutput := c.Bool("json")
			w := c.App.Writer

			nc, js, err := natspkg.Connect(natsURL, "minisolscan-cli")
			if err != nil {
				return err
			}
			defer nc.Close()

			if !jsonOutput {
				fmt.Fprintf(w, "📡 Subscribing to: %s\n", natspkg.SubjectFor(opts.Network))
				fmt.Fprintf(w, "   NATS: %s\n", natsURL)
				if opts.Durable != "" {
					fmt.Fprintf(w, "   Consumer: %s (durable)\n", opts.Durable)
				}
				fmt.Fprintf(w, "\nWaiting for lookups... (Ctrl-C to exit)\n\n")
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var count atomic.Int64
			err = natspkg.Subscribe(ctx, js, opts, func(event *natspkg.LookupEvent) {
				n := count.Add(1)
				if jsonOutput {
					data, _ := json.Marshal(event)
					fmt.Fprintln(w, string(data))
					return
				}
				printLookupEvent(c, n, event)
			}, func(err error) {
				fmt.Fprintf(c.App.ErrWriter, "Error parsing event: %v\n", err)
			})
			if err != nil {
				return err
			}

			if !jsonOutput {
				fmt.Fprintf(w, "\n\n✅ Received %d lookups\n", count.Load())
				fmt.Fprintln(w, "Shutting down...")
			}
			return nil
		},
	}
}

func printLookupEvent(c *cli.Context, n int64, event *natspkg.LookupEvent) {
	w := c.App.Writer
	fmt.Fprintf(w, "─────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Lookup #%d\n", n)
	fmt.Fprintf(w, "─────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Signature:    %s\n", event.Signature)
	fmt.Fprintf(w, "Network:      %s\n", event.Network)
	fmt.Fprintf(w, "Status:       %s\n", statusColor(event.Status).Sprint(event.Status))
	fmt.Fprintf(w, "Slot:         %d\n", event.Slot)
	fmt.Fprintf(w, "Fee:          %d lamports\n", event.Fee)
	fmt.Fprintf(w, "Signer:       %s\n", event.Signer)
	fmt.Fprintf(w, "Instructions: %d\n", event.InstructionCount)
	fmt.Fprintf(w, "Looked Up:    %s\n", event.LookedUpAt.Format(time.RFC3339))
	fmt.Fprintf(w, "\n")
}
