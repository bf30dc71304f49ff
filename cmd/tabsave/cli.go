package main

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"

	"github.com/eugenesvk/tabsave/internal/config"
	"github.com/eugenesvk/tabsave/internal/coordinator"
	"github.com/eugenesvk/tabsave/internal/db"
	"github.com/eugenesvk/tabsave/internal/errors"
	"github.com/eugenesvk/tabsave/internal/rules"
	"github.com/eugenesvk/tabsave/internal/save"
	"github.com/eugenesvk/tabsave/internal/tab"
	"github.com/eugenesvk/tabsave/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(database *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "tabsave",
		Usage:   "Tab auto-save coordinator",
		Version: Version,
		Commands: []*cli.Command{
			ruleCmd(database),
			profileCmd(database),
			enableCmd(database),
			flagsCmd(database),
			saveCmd(database, cfg),
			configCmd(cfg),
			webCmd(database, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// ruleCmd groups the URL rule subcommands.
func ruleCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "rule",
		Usage: "Manage URL rules",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a URL rule mapping a pattern to a profile",
				ArgsUsage: "<pattern>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "profile", Aliases: []string{"p"}, Value: rules.ProfileDefault, Usage: "Profile name (use 'disabled' to switch auto-save off)"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return outputError(errors.NewInvalidRequest("pattern argument is required"))
					}
					profile := c.String("profile")
					if profile == "disabled" {
						profile = rules.ProfileDisabled
					}
					now := time.Now().Unix()
					rule := &rules.Rule{
						ID:        ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
						Pattern:   c.Args().First(),
						Profile:   profile,
						CreatedAt: now,
						UpdatedAt: now,
					}
					if err := db.InsertRule(database, rule); err != nil {
						return outputError(err)
					}
					return outputJSON(rule)
				},
			},
			{
				Name:  "list",
				Usage: "List URL rules",
				Action: func(c *cli.Context) error {
					all, err := db.ListRules(database)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"rules": all})
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a URL rule by id",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return outputError(errors.NewInvalidRequest("id argument is required"))
					}
					if err := db.DeleteRule(database, c.Args().First()); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"deleted": c.Args().First()})
				},
			},
		},
	}
}

// profileCmd groups the save profile subcommands.
func profileCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Manage save profiles",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Create or replace a named profile",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "template", Usage: "Filename template"},
					&cli.StringFlag{Name: "conflict", Usage: "Conflict action: uniquify|overwrite|skip"},
					&cli.StringFlag{Name: "destination", Usage: "Artifact destination: local|remote"},
					&cli.StringFlag{Name: "remote-url", Usage: "Remote drop endpoint"},
					&cli.StringFlag{Name: "save-dir", Usage: "Local saves directory"},
					&cli.BoolFlag{Name: "overlay", Usage: "Inject the save banner into pages"},
					&cli.BoolFlag{Name: "no-resources", Usage: "Skip inlining subresources"},
					&cli.BoolFlag{Name: "auto-close", Usage: "Close the tab after discard-on-save flushes"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return outputError(errors.NewInvalidRequest("name argument is required"))
					}
					name := c.Args().First()
					if name == rules.ProfileDisabled {
						return outputError(errors.NewInvalidRequest("profile name is reserved"))
					}
					opts := &rules.Options{
						Profile:          name,
						FilenameTemplate: c.String("template"),
						ConflictAction:   c.String("conflict"),
						Destination:      rules.Destination(c.String("destination")),
						RemoteDropURL:    c.String("remote-url"),
						SaveDir:          c.String("save-dir"),
						InsertOverlay:    c.Bool("overlay"),
						IncludeResources: !c.Bool("no-resources"),
						AutoClose:        c.Bool("auto-close"),
					}
					if err := db.UpsertProfile(database, name, opts); err != nil {
						return outputError(err)
					}
					return outputJSON(opts)
				},
			},
			{
				Name:  "list",
				Usage: "List stored profiles",
				Action: func(c *cli.Context) error {
					all, err := db.ListProfiles(database)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"profiles": all})
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a profile by name",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return outputError(errors.NewInvalidRequest("name argument is required"))
					}
					if err := db.DeleteProfile(database, c.Args().First()); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"deleted": c.Args().First()})
				},
			},
		},
	}
}

// enableCmd sets or clears a tab's auto-save opt-in flag.
func enableCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "enable",
		Usage:     "Set a tab's auto-save opt-in flag",
		ArgsUsage: "<tab-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "off", Usage: "Clear the flag instead"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("tab-id argument is required"))
			}
			id := c.Args().First()
			enabled := !c.Bool("off")
			if err := db.SetTabFlag(database, id, enabled); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"tab_id": id, "enabled": enabled})
		},
	}
}

// flagsCmd lists the per-tab auto-save opt-in flags.
func flagsCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "flags",
		Usage: "List per-tab auto-save flags",
		Action: func(c *cli.Context) error {
			flags, err := db.ListTabFlags(database)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"flags": flags})
		},
	}
}

// saveCmd performs a one-off save of a URL through the full pipeline.
func saveCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Fetch a URL and save it as an archive",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Page title for the filename"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("url argument is required"))
			}
			url := c.Args().First()

			dir := tab.NewMemoryDirectory()
			d := coordinator.New(database, cfg, dir)

			res, err := d.HandleInit(c.Context, &tab.Tab{URL: url, Title: c.String("title")})
			if err != nil {
				return outputError(err)
			}
			if res.Options == nil {
				return outputError(errors.NewInvalidRequest("auto-save is disabled for this URL"))
			}

			sess, _ := dir.Get(res.TabID)
			msg := &coordinator.SaveMessage{
				TabID:   res.TabID,
				Payload: &save.Payload{URL: url, Title: c.String("title")},
			}
			if err := d.HandleSaveRequest(c.Context, msg, sess); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"saved": url, "dir": res.Options.SaveDir})
		},
	}
}

// configCmd prints the effective configuration.
func configCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show the effective configuration",
		Action: func(c *cli.Context) error {
			return outputJSON(cfg)
		},
	}
}

// webCmd serves the HTTP admin API.
func webCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the HTTP admin API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Value: 7345, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(database, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if saveErr, ok := err.(*errors.SaveError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", saveErr.Code, saveErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
