package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	// Packages
	kong "github.com/alecthomas/kong"
	client "github.com/mutablelogic/go-client"

	weatherfc "github.com/lizzyg/weatherfc"
	"github.com/lizzyg/weatherfc/internal/config"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type Globals struct {
	Config string `name:"config" env:"WEATHERFC_CONFIG" help:"Path to a YAML config file" optional:""`
	Debug  bool   `name:"debug" help:"Enable debug logging and HTTP tracing"`
	Model  string `name:"model" help:"Model to use (defaults to openai.model)" optional:""`

	// Context
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger
}

type CLI struct {
	Globals

	Chat    ChatCmd    `cmd:"" default:"1" help:"Chat with the weather assistant"`
	Compare CompareCmd `cmd:"" help:"Ask a fixed prompt set to several models and write a report"`
}

////////////////////////////////////////////////////////////////////////////////
// MAIN

func main() {
	cli := CLI{}
	cmd := kong.Parse(&cli,
		kong.Name("weatherfc"),
		kong.Description("Weather assistant backed by tool-calling chat models"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	// Create a context
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	cli.Globals.ctx = ctx

	// Logging
	level := slog.LevelWarn
	if cli.Debug {
		level = slog.LevelDebug
	}
	cli.Globals.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(cli.Globals.logger)

	// Configuration
	var err error
	if cli.Config != "" {
		cli.Globals.cfg, err = config.LoadFile(cli.Config)
	} else {
		cli.Globals.cfg, err = config.Load()
	}
	cmd.FatalIfErrorf(err)

	// Run the command
	if err := cmd.Run(&cli.Globals); err != nil {
		cmd.FatalIfErrorf(err)
		return
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// assistant builds an Assistant that logs to logger.
func (g *Globals) assistant(logger *slog.Logger) (*weatherfc.Assistant, error) {
	opts := []weatherfc.Option{weatherfc.WithLogger(logger)}
	if g.Debug {
		opts = append(opts, weatherfc.WithWeatherClientOpts(client.OptTrace(os.Stderr, true)))
	}
	return weatherfc.New(*g.cfg, opts...)
}
