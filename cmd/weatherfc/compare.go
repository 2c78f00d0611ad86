package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	// Packages
	"github.com/lizzyg/weatherfc/internal/config"
	"github.com/lizzyg/weatherfc/internal/harness"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type CompareCmd struct {
	Models   []string `name:"models" help:"Models to compare (defaults to harness.models)" sep:"," optional:""`
	Delay    string   `name:"delay" help:"Minimum spacing between calls, e.g. 3s (defaults to harness.delay)" optional:""`
	CSV      string   `name:"csv" help:"CSV output path (defaults to harness.csv_path)" optional:""`
	Markdown string   `name:"markdown" help:"Markdown output path (defaults to harness.markdown_path)" optional:""`
	Log      string   `name:"log" help:"Log file path (defaults to harness.log_path)" optional:""`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *CompareCmd) Run(ctx *Globals) error {
	hc, err := cmd.settings(ctx.cfg.Harness)
	if err != nil {
		return err
	}

	logFile, err := os.Create(hc.LogPath)
	if err != nil {
		return err
	}
	defer logFile.Close()
	level := slog.LevelInfo
	if ctx.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level}))

	a, err := ctx.assistant(logger)
	if err != nil {
		return err
	}

	h := harness.New(a, hc.Models,
		harness.WithDelay(hc.Delay),
		harness.WithLogger(logger),
		harness.WithConsole(os.Stdout),
	)
	rows := h.Run(ctx.ctx)

	if err := harness.SaveCSV(hc.CSVPath, rows); err != nil {
		return err
	}
	if err := harness.SaveMarkdown(hc.MarkdownPath, h.Prompts(), h.Models(), rows); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Comparison complete. Results saved to `%s` and `%s`.\n", hc.CSVPath, hc.MarkdownPath)
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// settings applies the command line overrides to the configured harness settings.
func (cmd *CompareCmd) settings(hc config.HarnessConfig) (config.HarnessConfig, error) {
	if len(cmd.Models) > 0 {
		hc.Models = cmd.Models
	}
	if cmd.Delay != "" {
		d, err := time.ParseDuration(cmd.Delay)
		if err != nil {
			return hc, fmt.Errorf("--delay: %w", err)
		}
		if d < 0 {
			return hc, fmt.Errorf("--delay: must not be negative")
		}
		hc.Delay = d
	}
	if cmd.CSV != "" {
		hc.CSVPath = cmd.CSV
	}
	if cmd.Markdown != "" {
		hc.MarkdownPath = cmd.Markdown
	}
	if cmd.Log != "" {
		hc.LogPath = cmd.Log
	}
	if len(hc.Models) == 0 {
		return hc, fmt.Errorf("no models to compare")
	}
	return hc, nil
}
