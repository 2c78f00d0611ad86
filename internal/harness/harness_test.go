package harness

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedChatter answers "<model>: <message>" unless a reply is scripted.
type scriptedChatter struct {
	calls  []string
	errs   map[string]error
	panics map[string]bool
}

func (s *scriptedChatter) Chat(ctx context.Context, model, message string) (string, error) {
	key := model + "|" + message
	s.calls = append(s.calls, key)
	if s.panics[key] {
		panic("nil map write")
	}
	if err, ok := s.errs[key]; ok {
		return "", err
	}
	return model + ": " + message, nil
}

var testPrompts = []Prompt{
	{"What's the weather like in New York?", "Valid location"},
	{"Tell me a joke.", "Non-weather query"},
	{"Weather in heaven?", "Nonexistent location"},
}

var testModels = []string{"model-a", "model-b"}

func newTestHarness(c Chatter, opts ...Option) *Harness {
	base := []Option{WithPrompts(testPrompts), WithDelay(0), WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))}
	return New(c, testModels, append(base, opts...)...)
}

func TestRunRecordsFailuresAndContinues(t *testing.T) {
	c := &scriptedChatter{errs: map[string]error{
		"model-b|Tell me a joke.": errors.New("An error occurred: openai http 429: rate limited"),
	}}
	rows := newTestHarness(c).Run(context.Background())

	require.Len(t, rows, 6)
	assert.Len(t, c.calls, 6)

	// models outer, prompts inner
	assert.Equal(t, Row{Prompt: testPrompts[0].Text, Category: "Valid location", Model: "model-a", Response: "model-a: " + testPrompts[0].Text}, rows[0])
	assert.Equal(t, "model-a", rows[2].Model)
	assert.Equal(t, "model-b", rows[3].Model)

	failed := rows[4]
	assert.Equal(t, "Tell me a joke.", failed.Prompt)
	assert.True(t, strings.HasPrefix(failed.Response, "ERROR:"), failed.Response)
	assert.Equal(t, "ERROR: An error occurred: openai http 429: rate limited", failed.Response)
	assert.Equal(t, "model-b: Weather in heaven?", rows[5].Response)
}

func TestRunRecoversPanics(t *testing.T) {
	c := &scriptedChatter{panics: map[string]bool{"model-a|Weather in heaven?": true}}
	var rows []Row
	require.NotPanics(t, func() { rows = newTestHarness(c).Run(context.Background()) })
	require.Len(t, rows, 6)
	assert.Equal(t, "ERROR: panic: nil map write", rows[2].Response)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &cancellingChatter{cancel: cancel, after: 2}
	rows := newTestHarness(c).Run(ctx)
	assert.Len(t, rows, 2)
}

type cancellingChatter struct {
	cancel context.CancelFunc
	after  int
	n      int
}

func (c *cancellingChatter) Chat(ctx context.Context, model, message string) (string, error) {
	c.n++
	if c.n == c.after {
		c.cancel()
	}
	return "ok", nil
}

func TestRunPacesCalls(t *testing.T) {
	c := &scriptedChatter{}
	h := New(c, []string{"m"}, WithPrompts(testPrompts), WithDelay(40*time.Millisecond))
	start := time.Now()
	rows := h.Run(context.Background())
	require.Len(t, rows, 3)
	// the first call goes out immediately, the next two wait one interval each
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

func TestRunLogsWithRunID(t *testing.T) {
	var logs bytes.Buffer
	h := newTestHarness(&scriptedChatter{}, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	h.Run(context.Background())
	require.NotEmpty(t, h.RunID())
	assert.Contains(t, logs.String(), "run_id="+h.RunID())
	assert.Contains(t, logs.String(), "msg=\"chat answered\"")
}

func TestRunPrintsProgress(t *testing.T) {
	var out bytes.Buffer
	h := New(&scriptedChatter{}, []string{"m"}, WithPrompts(testPrompts[:1]), WithDelay(0), WithConsole(&out))
	h.Run(context.Background())
	assert.Equal(t, "\n--- [m] Executing Valid location ---\nUser: What's the weather like in New York?\nAssistant: m: What's the weather like in New York?...\n\n", out.String())
}

func TestDefaultPrompts(t *testing.T) {
	require.Len(t, DefaultPrompts, 23)
	seen := map[string]bool{}
	for _, p := range DefaultPrompts {
		assert.NotEmpty(t, p.Category)
		assert.False(t, seen[p.Text], "duplicate prompt %q", p.Text)
		seen[p.Text] = true
	}
}

func TestWriteCSV(t *testing.T) {
	rows := []Row{
		{Prompt: "Tell me a joke.", Category: "Non-weather query", Model: "m", Response: "Line one,\nline \"two\""},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Prompt", "Category", "Model", "Response"}, records[0])
	assert.Equal(t, []string{"Tell me a joke.", "Non-weather query", "m", "Line one,\nline \"two\""}, records[1])
}

func TestWriteMarkdown(t *testing.T) {
	prompts := []Prompt{{"Tell me a joke.", "Non-weather query"}, {"Weather in heaven?", "Nonexistent location"}}
	rows := []Row{
		{Prompt: "Tell me a joke.", Model: "m1", Response: "Knock knock.\nWho's there?"},
		{Prompt: "Weather in heaven?", Model: "m2", Response: "ERROR: boom"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, prompts, []string{"m1", "m2"}, rows))

	want := "# Weather Assistant Model Comparison\n\n" +
		"## Prompt: Tell me a joke.\n" +
		"**m1**:\n\n```\nKnock knock.  \nWho's there?\n```\n\n" +
		"\n---\n" +
		"## Prompt: Weather in heaven?\n" +
		"**m2**:\n\n```\nERROR: boom\n```\n\n" +
		"\n---\n"
	assert.Equal(t, want, buf.String())
}

func TestSaveReports(t *testing.T) {
	dir := t.TempDir()
	rows := []Row{{Prompt: "Tell me a joke.", Category: "Non-weather query", Model: "m", Response: "ha"}}

	csvPath := filepath.Join(dir, "out.csv")
	require.NoError(t, SaveCSV(csvPath, rows))
	b, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "Prompt,Category,Model,Response\nTell me a joke.,Non-weather query,m,ha\n", string(b))

	mdPath := filepath.Join(dir, "out.md")
	require.NoError(t, SaveMarkdown(mdPath, testPrompts[1:2], []string{"m"}, rows))
	b, err = os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "**m**:\n\n```\nha\n```")

	assert.Error(t, SaveCSV(filepath.Join(dir, "missing", "out.csv"), rows))
}
