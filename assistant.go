package weatherfc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mutablelogic/go-client"

	moderr "github.com/lizzyg/weatherfc/errors"
	"github.com/lizzyg/weatherfc/internal/config"
	"github.com/lizzyg/weatherfc/internal/core"
	"github.com/lizzyg/weatherfc/internal/providers/openai"
	"github.com/lizzyg/weatherfc/internal/util"
	"github.com/lizzyg/weatherfc/internal/weather"
)

// RawClient is implemented by provider adapters.
type RawClient = core.RawClient
type CallParams = core.CallParams
type ToolDef = core.ToolDef
type RawResponse = core.RawResponse
type Usage = core.Usage
type ToolCall = core.ToolCall

// Assistant answers user messages, calling tools when the model asks for them.
type Assistant struct {
	provider    RawClient
	tools       []Tool
	defs        []ToolDef
	model       string
	logger      *slog.Logger
	httpClient  *http.Client
	weatherOpts []client.ClientOpt
}

// Option allows functional configuration.
type Option func(*Assistant)

// WithLogger sets a custom slog logger.
func WithLogger(l *slog.Logger) Option { return func(a *Assistant) { a.logger = l } }

// WithHTTPClient sets the http.Client used for chat completions.
func WithHTTPClient(c *http.Client) Option { return func(a *Assistant) { a.httpClient = c } }

// WithTools replaces the default tool set.
func WithTools(tools ...Tool) Option { return func(a *Assistant) { a.tools = tools } }

// WithProvider replaces the chat completions client.
func WithProvider(p RawClient) Option { return func(a *Assistant) { a.provider = p } }

// WithWeatherClientOpts passes extra options to the Open-Meteo clients.
func WithWeatherClientOpts(opts ...client.ClientOpt) Option {
	return func(a *Assistant) { a.weatherOpts = append(a.weatherOpts, opts...) }
}

// New builds an Assistant from config and options. It fails with a
// configuration error when no API key is configured.
func New(cfg config.Config, opts ...Option) (*Assistant, error) {
	a := &Assistant{
		model:  cfg.OpenAI.Model,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.model == "" {
		a.model = config.DefaultModel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if a.provider == nil {
		a.provider = openai.New(cfg.OpenAI, a.httpClient, a.logger)
	}
	if a.tools == nil {
		timeout := cfg.Weather.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		wc, err := weather.NewClient(cfg.Weather.GeocodeURL, cfg.Weather.ForecastURL,
			append([]client.ClientOpt{client.OptTimeout(timeout)}, a.weatherOpts...)...)
		if err != nil {
			return nil, moderr.New(moderr.KindConfiguration, err, "weather client: %v", err)
		}
		a.tools = []Tool{NewWeatherTool(weather.NewService(wc, nil, a.logger))}
	}

	a.defs = make([]ToolDef, len(a.tools))
	for i, t := range a.tools {
		a.defs[i] = ToolDef{
			Name:        t.Name(),
			Description: t.Description(),
			JSONSchema:  util.GenerateJSONSchema(t.Parameters()),
		}
	}
	return a, nil
}

// Model returns the model used when Chat is called without one.
func (a *Assistant) Model() string { return a.model }

// Chat sends message to model (the configured default when empty) together
// with the tool declarations. When the model calls tools, each call is
// answered and a second completion without tools produces the reply.
func (a *Assistant) Chat(ctx context.Context, model, message string) (string, error) {
	if model == "" {
		model = a.model
	}
	conversation := []core.Message{
		{Role: string(RoleSystem), Content: SystemPrompt},
		{Role: string(RoleUser), Content: message},
	}

	resp, err := a.complete(ctx, model, conversation, a.defs)
	if err != nil {
		return "", err
	}

	// STOP: No tool call → Final answer
	if len(resp.ToolCalls) == 0 {
		return resp.Content, nil
	}

	conversation = append(conversation, core.Message{
		Role:      string(RoleAssistant),
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})
	// Every requested tool must exist before any of them runs.
	tools := make([]Tool, len(resp.ToolCalls))
	for i, tc := range resp.ToolCalls {
		tools[i] = findTool(a.tools, tc.Name)
		if tools[i] == nil {
			a.logger.Warn("unknown tool requested", slog.String("model", model), slog.String("tool", tc.Name))
			return "", moderr.New(moderr.KindUnsupportedCapability, moderr.ErrUnknownTool, "%s", moderr.ErrUnknownTool.Error())
		}
	}
	results := make([]core.ToolResult, 0, len(resp.ToolCalls))
	for i, tc := range resp.ToolCalls {
		results = append(results, core.ToolResult{
			CallID:  tc.CallID,
			Name:    tc.Name,
			Content: a.runTool(ctx, tools[i], tc),
		})
	}
	conversation = append(conversation, core.Message{Role: string(RoleTool), ToolResults: results})

	resp, err = a.complete(ctx, model, conversation, nil)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Reply is Chat for callers that only print: a failure becomes its message.
func (a *Assistant) Reply(ctx context.Context, model, message string) string {
	out, err := a.Chat(ctx, model, message)
	if err != nil {
		return err.Error()
	}
	return out
}

func (a *Assistant) complete(ctx context.Context, model string, msgs []core.Message, defs []ToolDef) (RawResponse, error) {
	params := CallParams{Model: model, Messages: msgs}
	if len(defs) > 0 {
		params.ToolDefs = defs
		params.ToolChoice = core.ToolChoiceAuto
	}

	start := time.Now()
	resp, err := a.provider.Call(ctx, params)
	duration := time.Since(start)

	a.logger.Info("llm call",
		slog.String("model", model),
		slog.Bool("tools", len(defs) > 0),
		slog.Int("tool_calls", len(resp.ToolCalls)),
		slog.Int("prompt_tokens", resp.Usage.PromptTokens),
		slog.Int("completion_tokens", resp.Usage.CompletionTokens),
		slog.Int("total_tokens", resp.Usage.TotalTokens),
		slog.Duration("latency_ms", duration),
		slog.Bool("error", err != nil),
	)

	if err != nil {
		kind := moderr.KindTransport
		if errors.Is(err, moderr.ErrMalformedResponse) {
			kind = moderr.KindMalformedResponse
		}
		return RawResponse{}, moderr.New(kind, err, "An error occurred: %v", err)
	}
	return resp, nil
}

// runTool decodes the call's arguments and executes the tool. The returned
// text is what the model sees, failures included.
func (a *Assistant) runTool(ctx context.Context, tool Tool, tc ToolCall) string {
	args := tool.Parameters()
	if err := util.DecodeStrict(tc.Args, args); err != nil {
		a.logger.Warn("invalid tool arguments",
			slog.String("tool", tc.Name),
			slog.String("args", string(tc.Args)),
			slog.String("error", err.Error()),
		)
		return moderr.ErrInvalidToolArgs.Error()
	}
	out, err := tool.Execute(ctx, args)
	if err != nil {
		return err.Error()
	}
	return out
}

func findTool(tools []Tool, name string) Tool {
	for _, t := range tools {
		if t.Name() == name {
			return t
		}
	}
	return nil
}
