package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/brojonat/minisolscan/service/network"
	"github.com/brojonat/minisolscan/service/session"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

func networkCommands() *cli.Command {
	return &cli.Command{
		Name:  "network",
		Usage: "Show or change the selected network",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List network presets",
				Action: func(c *cli.Context) error {
					sess, closer, err := openLocalSession(c)
					if err != nil {
						return err
					}
					defer closer()

					active := sess.Network()
					if c.Bool("json") {
						return outputJSON(c.App.Writer, map[string]interface{}{
							"networks": network.Presets(),
							"active":   active,
						})
					}

					w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
					fmt.Fprintln(w, "\tNETWORK\tNAME\tURL")
					for _, p := range network.Presets() {
						marker := ""
						if p.Type == active.Type {
							marker = "*"
						}
						url := p.URL
						if p.IsCustom() {
							url = "(user supplied)"
							if active.IsCustom() {
								url = active.URL
							}
						}
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, p.Type, p.Name, url)
					}
					return w.Flush()
				},
			},
			{
				Name:  "show",
				Usage: "Show the selected network",
				Action: func(c *cli.Context) error {
					sess, closer, err := openLocalSession(c)
					if err != nil {
						return err
					}
					defer closer()

					active := sess.Network()
					if c.Bool("json") {
						return outputJSON(c.App.Writer, active)
					}
					fmt.Fprintf(c.App.Writer, "%s (%s)\n", active.Name, active.URL)
					return nil
				},
			},
			{
				Name:      "use",
				Usage:     "Select a network",
				ArgsUsage: "NETWORK",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "RPC URL, required for the custom network",
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("requires exactly one argument: network")
					}
					t, err := network.ParseType(c.Args().First())
					if err != nil {
						return err
					}
					if err := checkURLFlag(c, t); err != nil {
						return err
					}

					sess, closer, err := openLocalSession(c)
					if err != nil {
						return err
					}
					defer closer()

					cfg, err := sess.SelectNetwork(c.Context, t, c.String("url"))
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return outputJSON(c.App.Writer, cfg)
					}
					color.New(color.FgGreen).Fprintf(c.App.Writer, "✓ Using %s (%s)\n", cfg.Name, cfg.URL)
					return nil
				},
			},
		},
	}
}

func themeCommands() *cli.Command {
	printTheme := func(c *cli.Context, theme session.Theme) error {
		if c.Bool("json") {
			return outputJSON(c.App.Writer, map[string]session.Theme{"theme": theme})
		}
		fmt.Fprintln(c.App.Writer, theme)
		return nil
	}

	return &cli.Command{
		Name:  "theme",
		Usage: "Show or change the display theme",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the theme",
				Action: func(c *cli.Context) error {
					sess, closer, err := openLocalSession(c)
					if err != nil {
						return err
					}
					defer closer()
					return printTheme(c, sess.Theme())
				},
			},
			{
				Name:      "set",
				Usage:     "Set the theme",
				ArgsUsage: "light|dark",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("requires exactly one argument: light or dark")
					}
					theme, err := session.ParseTheme(c.Args().First())
					if err != nil {
						return err
					}

					sess, closer, err := openLocalSession(c)
					if err != nil {
						return err
					}
					defer closer()

					if err := sess.SetTheme(c.Context, theme); err != nil {
						return err
					}
					return printTheme(c, sess.Theme())
				},
			},
			{
				Name:  "toggle",
				Usage: "Switch between light and dark",
				Action: func(c *cli.Context) error {
					sess, closer, err := openLocalSession(c)
					if err != nil {
						return err
					}
					defer closer()

					theme, err := sess.ToggleTheme(c.Context)
					if err != nil {
						return err
					}
					return printTheme(c, theme)
				},
			},
		},
	}
}
