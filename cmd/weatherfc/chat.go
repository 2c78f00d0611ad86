package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	// Packages
	glamour "github.com/charmbracelet/glamour"
	term "golang.org/x/term"

	moderr "github.com/lizzyg/weatherfc/errors"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type ChatCmd struct {
	Render bool `name:"render" help:"Render replies as Markdown when stdout is a terminal"`
}

const banner = "Weather Assistant Demo\n" +
	"Ensure your OPENAI_API_KEY environment variable is set.\n" +
	"Type your query (or 'quit' to exit):\n"

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *ChatCmd) Run(ctx *Globals) error {
	var reply func(string) string
	a, err := ctx.assistant(ctx.logger)
	switch {
	case err == nil:
		reply = func(text string) string { return a.Reply(ctx.ctx, ctx.Model, text) }
	case moderr.KindOf(err) == moderr.KindConfiguration:
		// Keep the loop usable; every input gets the configuration message
		ctx.logger.Warn("assistant not configured", slog.String("error", err.Error()))
		msg := err.Error()
		reply = func(string) string { return msg }
	default:
		return err
	}

	render := func(s string) string { return s }
	if cmd.Render {
		if r := newRenderer(os.Stdout); r != nil {
			render = r
		}
	}

	fmt.Fprint(os.Stdout, banner)
	return repl(ctx.ctx, os.Stdin, os.Stdout, reply, render)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// repl reads one line at a time from in and prints the reply to out until
// quit, exit, end of input or cancellation.
func repl(ctx context.Context, in io.Reader, out io.Writer, reply, render func(string) string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "\nYou: ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch strings.ToLower(line) {
		case "quit", "exit":
			return nil
		case "":
			continue
		}
		fmt.Fprintf(out, "Assistant: %s\n", render(reply(line)))
	}
}

// newRenderer returns a Markdown renderer sized to w, or nil when w is not a terminal.
func newRenderer(w *os.File) func(string) string {
	fd := int(w.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	width := 80
	if cols, _, err := term.GetSize(fd); err == nil && cols > 20 {
		width = cols - 4
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return nil
	}
	return func(s string) string {
		out, err := r.Render(s)
		if err != nil {
			return s
		}
		return strings.TrimRight(out, "\n")
	}
}
