package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/brojonat/minisolscan/service/config"
	"github.com/brojonat/minisolscan/service/network"
	"github.com/brojonat/minisolscan/service/solana"
	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"
)

// Exit codes for failed lookups.
const (
	exitFetch      = 1
	exitValidation = 2
	exitNotFound   = 3
)

// dialRPC builds the RPC client for local lookups.
var dialRPC solana.Dialer = solana.NewRPCClient

func txCommand() *cli.Command {
	return &cli.Command{
		Name:      "tx",
		Aliases:   []string{"lookup"},
		Usage:     "Look up a transaction by signature",
		ArgsUsage: "SIGNATURE",
		Description: `Fetch a transaction from the selected network and show its status, signer,
slot, fee and instructions (inner instructions are flattened in order).

The network defaults to the one saved with "minisolscan network use". Passing
--network or --url overrides it for this lookup only.

Exit status is 2 for an invalid signature, 3 when the transaction is not found
and 1 for any other failure.

Examples:
  minisolscan tx 5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7
  minisolscan tx -n mainnet-beta SIG --jq '.instructions[].program_name'
  minisolscan tx --url http://localhost:8899 SIG --json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "network",
				Aliases: []string{"n"},
				Usage:   "Network for this lookup (mainnet-beta, devnet, testnet, localnet, custom)",
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "Custom RPC URL for this lookup (implies --network custom)",
			},
			&cli.StringFlag{
				Name:    "encoding",
				Usage:   "Transaction encoding: jsonParsed or base64",
				EnvVars: []string{"RPC_ENCODING"},
				Value:   string(solana.EncodingJSONParsed),
			},
			&cli.StringFlag{
				Name:    "commitment",
				Usage:   "Commitment level: processed, confirmed or finalized",
				EnvVars: []string{"RPC_COMMITMENT"},
				Value:   "confirmed",
			},
			&cli.StringFlag{
				Name:    "timezone",
				Usage:   "IANA timezone for the timestamp",
				EnvVars: []string{"DISPLAY_TIMEZONE"},
				Value:   "Local",
			},
			&cli.StringFlag{
				Name:    "jq",
				Aliases: []string{"q"},
				Usage:   "jq filter applied to the JSON result",
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Include raw instruction data",
			},
		},
		Action: func(c *cli.Context) error {
			signature := c.Args().First()

			encoding, err := solana.ParseEncoding(c.String("encoding"))
			if err != nil {
				return err
			}
			commitment, err := config.ParseCommitment(c.String("commitment"))
			if err != nil {
				return err
			}
			loc, err := time.LoadLocation(c.String("timezone"))
			if err != nil {
				return fmt.Errorf("invalid timezone %q: %w", c.String("timezone"), err)
			}

			var code *gojq.Code
			if filter := c.String("jq"); filter != "" {
				query, err := gojq.Parse(filter)
				if err != nil {
					return fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
				}
				code, err = gojq.Compile(query)
				if err != nil {
					return fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
				}
			}

			cfg, err := lookupNetwork(c)
			if err != nil {
				return err
			}

			fetcher := solana.NewClient(dialRPC, solana.Options{
				Encoding:   encoding,
				Commitment: commitment,
				Location:   loc,
			}, nil, newLogger(c))

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			view, err := fetcher.Fetch(ctx, signature, cfg)
			if err != nil {
				return lookupExit(err)
			}

			if !c.Bool("raw") {
				for i := range view.Instructions {
					view.Instructions[i].Raw = nil
				}
			}

			w := c.App.Writer
			switch {
			case code != nil:
				return runJQ(w, code, view)
			case c.Bool("json"):
				return outputJSON(w, view)
			default:
				printTransaction(w, view, cfg)
				return nil
			}
		},
	}
}

// lookupNetwork returns the network given on the command line, or the saved
// selection. Overrides are never written back.
func lookupNetwork(c *cli.Context) (network.Config, error) {
	if !c.IsSet("network") && !c.IsSet("url") {
		sess, closer, err := openLocalSession(c)
		if err != nil {
			return network.Config{}, err
		}
		defer closer()
		return sess.Network(), nil
	}

	t := network.Custom
	if c.IsSet("network") {
		var err error
		if t, err = network.ParseType(c.String("network")); err != nil {
			return network.Config{}, err
		}
	}
	if err := checkURLFlag(c, t); err != nil {
		return network.Config{}, err
	}
	return network.Resolve(t, c.String("url"))
}

// lookupExit maps lookup errors to exit codes.
func lookupExit(err error) error {
	switch solana.KindOf(err) {
	case solana.KindValidation:
		return cli.Exit(err.Error(), exitValidation)
	case solana.KindNotFound:
		return cli.Exit(err.Error(), exitNotFound)
	default:
		return cli.Exit(err.Error(), exitFetch)
	}
}

// runJQ prints every result of code applied to v's JSON form, one per line.
func runJQ(w io.Writer, code *gojq.Code, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}

	iter := code.Run(input)
	for {
		out, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := out.(error); isErr {
			return fmt.Errorf("jq filter failed: %w", err)
		}
		line, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("failed to marshal jq output: %w", err)
		}
		fmt.Fprintln(w, string(line))
	}
}

func printTransaction(w io.Writer, view *solana.TransactionView, cfg network.Config) {
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "Signature:   %s\n", view.Signature)
	fmt.Fprintf(w, "Status:      %s\n", statusColor(string(view.Status)).Sprint(view.Status))
	fmt.Fprintf(w, "Timestamp:   %s\n", view.Timestamp)
	fmt.Fprintf(w, "Signer:      %s\n", view.Signer)
	fmt.Fprintf(w, "Slot:        %d\n", view.Slot)
	fmt.Fprintf(w, "Fee:         %s SOL (%d lamports)\n", view.FeeSOL(), view.Fee)
	fmt.Fprintf(w, "Network:     %s (%s)\n", cfg.Name, cfg.URL)
	fmt.Fprintln(w, separator)

	fmt.Fprintf(w, "Instructions (%d)\n\n", len(view.Instructions))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, ix := range view.Instructions {
		label := ix.Label
		if ix.Inner {
			label = "  " + label
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", label, ix.ProgramName, ix.ProgramID)
		if ix.Raw != nil {
			if raw, err := json.Marshal(ix.Raw); err == nil {
				fmt.Fprintf(tw, "\t%s\t\n", raw)
			}
		}
	}
	tw.Flush()
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Check that a signature is well formed without contacting the network",
		ArgsUsage: "SIGNATURE",
		Action: func(c *cli.Context) error {
			status := solana.ClassifySignature(c.Args().First())

			if c.Bool("json") {
				if err := outputJSON(c.App.Writer, map[string]solana.SignatureStatus{"status": status}); err != nil {
					return err
				}
			} else {
				statusColor(string(status)).Fprintln(c.App.Writer, status)
			}

			if status != solana.SignatureValid {
				return cli.Exit("", exitValidation)
			}
			return nil
		},
	}
}
