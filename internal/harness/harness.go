// Package harness runs a fixed set of prompts against several models and
// collects the replies for side-by-side comparison.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Chatter answers one user message with one model.
type Chatter interface {
	Chat(ctx context.Context, model, message string) (string, error)
}

// Prompt is one test input and the behaviour it is meant to exercise.
type Prompt struct {
	Text     string
	Category string
}

// Row is the outcome of one (model, prompt) pair.
type Row struct {
	Prompt   string
	Category string
	Model    string
	Response string
}

// ErrorPrefix marks a Row whose call failed.
const ErrorPrefix = "ERROR: "

// DefaultPrompts covers plain weather questions, unrelated questions, missing
// or odd locations and dates in several shapes.
var DefaultPrompts = []Prompt{
	{"What's the weather like in New York?", "Valid location"},
	{"Tell me the weather forecast for Tokyo.", "Valid location"},
	{"Can you check the weather in College Park?", "Valid location"},
	{"Is it raining today in Paris?", "Valid location"},
	{"Tell me a joke.", "Non-weather query"},
	{"Who won the last FIFA World Cup and who was the most important player of that tournament?", "Non-weather query"},
	{"What's the capital of Norway?", "Non-weather query"},
	{"Do you believe AI Engineering requires significant skill?", "Non-weather query"},
	{"What's the weather like?", "Ambiguous location"},
	{"Is it cold outside?", "Ambiguous location"},
	{"Weather in heaven?", "Nonexistent location"},
	{"How's the sky there?", "Ambiguous location"},
	{"What's the weather in London tomorrow?", "Location + Time"},
	{"Will it rain in Dallas this weekend?", "Location + Time"},
	{"How will the weather be in New Delhi on 2025-06-20?", "Location + Time"},
	{"What's the temperature in Rome next Monday?", "Location + Time"},
	{"What's the forecast for tomorrow?", "Time only"},
	{"What's the weather in College Park?", "Location only"},
	{"Tell me how hot it will be next Friday.", "Time only"},
	{"Next Tuesday's rain forecast?", "Time only"},
	{"Weather in Chicago on Thufriday.", "Invalid time format"},
	{"Forecast in Miami on 2025-99-99.", "Invalid time format"},
	{"Show me weather in Los Angeles next next Monday.", "Invalid time format"},
}

// previewLen caps how much of a reply is echoed to the console.
const previewLen = 150

// Harness runs every prompt against every model, one call at a time.
type Harness struct {
	chatter Chatter
	models  []string
	prompts []Prompt
	delay   time.Duration
	logger  *slog.Logger
	console io.Writer
	runID   string
}

// Option allows functional configuration.
type Option func(*Harness)

// WithPrompts replaces DefaultPrompts.
func WithPrompts(p []Prompt) Option { return func(h *Harness) { h.prompts = p } }

// WithDelay sets the minimum spacing between calls. Zero disables pacing.
func WithDelay(d time.Duration) Option { return func(h *Harness) { h.delay = d } }

// WithLogger sets a custom slog logger.
func WithLogger(l *slog.Logger) Option { return func(h *Harness) { h.logger = l } }

// WithConsole sets where progress is printed. Defaults to io.Discard.
func WithConsole(w io.Writer) Option { return func(h *Harness) { h.console = w } }

// New returns a Harness that asks c every prompt with each of models.
func New(c Chatter, models []string, opts ...Option) *Harness {
	h := &Harness{
		chatter: c,
		models:  models,
		prompts: DefaultPrompts,
		delay:   3 * time.Second,
		logger:  slog.Default(),
		console: io.Discard,
		runID:   uuid.NewString(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// RunID identifies this run in the logs.
func (h *Harness) RunID() string { return h.runID }

// Prompts returns the prompts in run order.
func (h *Harness) Prompts() []Prompt { return h.prompts }

// Models returns the models in run order.
func (h *Harness) Models() []string { return h.models }

// Run iterates models (outer) by prompts (inner). A failed call is recorded
// as an ERROR row and never stops the run. Cancelling ctx stops the run and
// returns the rows collected so far.
func (h *Harness) Run(ctx context.Context) []Row {
	logger := h.logger.With(slog.String("run_id", h.runID))
	chatter := newRateLimitedChatter(h.chatter, h.delay)

	logger.Info("comparison started",
		slog.Int("models", len(h.models)),
		slog.Int("prompts", len(h.prompts)),
		slog.Duration("delay", h.delay),
	)
	start := time.Now()

	rows := make([]Row, 0, len(h.models)*len(h.prompts))
	for _, model := range h.models {
		for _, p := range h.prompts {
			if ctx.Err() != nil {
				logger.Warn("comparison cancelled", slog.Int("rows", len(rows)))
				return rows
			}
			fmt.Fprintf(h.console, "\n--- [%s] Executing %s ---\n", model, p.Category)

			row := Row{Prompt: p.Text, Category: p.Category, Model: model}
			resp, err := safeChat(ctx, chatter, model, p.Text)
			if err != nil {
				if ctx.Err() != nil {
					logger.Warn("comparison cancelled", slog.Int("rows", len(rows)))
					return rows
				}
				fmt.Fprintf(h.console, "Error on model %s with prompt '%s': %v\n", model, p.Text, err)
				logger.Error("chat failed",
					slog.String("model", model),
					slog.String("category", p.Category),
					slog.String("prompt", p.Text),
					slog.String("error", err.Error()),
				)
				row.Response = ErrorPrefix + err.Error()
			} else {
				fmt.Fprintf(h.console, "User: %s\nAssistant: %s...\n\n", p.Text, preview(resp))
				logger.Info("chat answered",
					slog.String("model", model),
					slog.String("category", p.Category),
					slog.String("prompt", p.Text),
					slog.String("response", resp),
				)
				row.Response = resp
			}
			rows = append(rows, row)
		}
	}

	logger.Info("comparison finished", slog.Int("rows", len(rows)), slog.Duration("elapsed", time.Since(start)))
	return rows
}

// safeChat turns a panic in the chatter into an error.
func safeChat(ctx context.Context, c Chatter, model, message string) (resp string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Chat(ctx, model, message)
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > previewLen {
		return string(r[:previewLen])
	}
	return s
}

// rateLimitedChatter spaces calls to the wrapped Chatter.
type rateLimitedChatter struct {
	chatter Chatter
	limiter *rate.Limiter
}

func newRateLimitedChatter(c Chatter, delay time.Duration) *rateLimitedChatter {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &rateLimitedChatter{chatter: c, limiter: rate.NewLimiter(limit, 1)}
}

func (r *rateLimitedChatter) Chat(ctx context.Context, model, message string) (string, error) {
	// Wait for rate limiter permission or context cancellation
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.chatter.Chat(ctx, model, message)
}
