// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "junkmover",
		Usage:   "Move aged tracks from a Spotify playlist into per-year junk drawers",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (.env or .toml)",
				Value:   ".env",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error); overrides the config file",
			},
		},
		Commands: r.register(),
	}
}

// tokenCommand runs the one-time authorization code flow.
func tokenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "token",
		Usage:  "Authorize with Spotify and store a refresh token",
		Before: r.setup,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-save",
				Usage: "Print the token without writing it to the config file",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback on a loopback redirect URI",
				Value: 2 * time.Minute,
			},
		},
		Action: r.Token,
	}
}

// profileCommand checks the stored credentials.
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "profile",
		Usage:  "Fetch the current user's profile with the stored refresh token",
		Before: r.setup,
		Action: r.Profile,
	}
}

// moveCommand is the scheduled job.
func moveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "move",
		Usage:  "Move aged tracks from the source playlist into junk drawers",
		Before: r.setup,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report what would be moved without changing any playlist",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Summary format: text, json or csv",
				Value:   "text",
			},
		},
		Action: r.Move,
	}
}

// initCommand writes an example config file.
func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Write an example configuration file to the --config path",
		Action: r.Init,
	}
}
