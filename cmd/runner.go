package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/liverslices/spotify-automation/internal/services"
	"github.com/liverslices/spotify-automation/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	lookup      shared.LookupFunc
	spotifyOpts services.SpotifyOpts
	logger      *log.Logger
	logOutput   io.Writer
	logCloser   io.Closer
	output      io.Writer
	input       io.Reader
	now         func() time.Time
	openBrowser func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
//
// SpotifyOpts supplies endpoint and HTTP client overrides; credentials always come from the loaded config.
type RunnerOpts struct {
	Lookup      shared.LookupFunc
	SpotifyOpts services.SpotifyOpts
	LogOutput   io.Writer
	Output      io.Writer
	Input       io.Reader
	Now         func() time.Time
	OpenBrowser func(string) error
}

// NewRunner creates a new Runner with the provided options
func NewRunner(opts RunnerOpts) *Runner {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stdout
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      shared.DefaultConfig(),
		lookup:      opts.Lookup,
		spotifyOpts: opts.SpotifyOpts,
		logger:      shared.NewLogger(opts.LogOutput),
		logOutput:   opts.LogOutput,
		output:      opts.Output,
		input:       opts.Input,
		now:         opts.Now,
		openBrowser: opts.OpenBrowser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		tokenCommand, profileCommand, moveCommand, initCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// setup loads the configuration and attaches the rotating log file.
//
// Runs as the Before hook of every command that talks to Spotify.
func (r *Runner) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.configPath = cmd.String("config")

	config, err := shared.LoadConfig(r.configPath, r.lookup)
	if err != nil {
		return ctx, fmt.Errorf("failed to load config %s: %w", r.configPath, err)
	}
	r.config = config

	level := cmd.String("log-level")
	if level == "" {
		level = config.Log.Level
	}

	logger, closer, err := shared.NewFileLogger(r.logOutput, config.Log.Dir, level)
	if err != nil {
		return ctx, err
	}
	r.logger = logger
	r.logCloser = closer

	r.logger.Debug("config loaded", "path", r.configPath, "log_dir", config.Log.Dir)
	return ctx, nil
}

// Close releases the log file.
func (r *Runner) Close() error {
	if r.logCloser == nil {
		return nil
	}
	err := r.logCloser.Close()
	r.logCloser = nil
	return err
}

// newService builds a Spotify client from the loaded credentials.
func (r *Runner) newService(logger *log.Logger) (*services.SpotifyService, error) {
	opts := r.spotifyOpts
	opts.ClientID = r.config.Spotify.ClientID
	opts.ClientSecret = r.config.Spotify.ClientSecret
	opts.RedirectURI = r.config.Spotify.RedirectURI
	opts.RateLimit = r.config.RateLimit()
	opts.Logger = logger

	srv, err := services.NewSpotifyService(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}
	return srv, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
