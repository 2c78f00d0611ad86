package harness

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

var csvHeader = []string{"Prompt", "Category", "Model", "Response"}

// WriteCSV writes rows as CSV with a Prompt,Category,Model,Response header.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Prompt, r.Category, r.Model, r.Response}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMarkdown writes one section per prompt with one fenced reply per model.
// Models without a row for a prompt are skipped.
func WriteMarkdown(w io.Writer, prompts []Prompt, models []string, rows []Row) error {
	type key struct{ prompt, model string }
	byKey := make(map[key]string, len(rows))
	for _, r := range rows {
		k := key{r.Prompt, r.Model}
		if _, ok := byKey[k]; !ok {
			byKey[k] = r.Response
		}
	}

	var b strings.Builder
	b.WriteString("# Weather Assistant Model Comparison\n\n")
	for _, p := range prompts {
		fmt.Fprintf(&b, "## Prompt: %s\n", p.Text)
		for _, m := range models {
			resp, ok := byKey[key{p.Text, m}]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "**%s**:\n\n```\n%s\n```\n\n", m, strings.ReplaceAll(resp, "\n", "  \n"))
		}
		b.WriteString("\n---\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// SaveCSV writes rows to a new file at path.
func SaveCSV(path string, rows []Row) error {
	return writeFile(path, func(w io.Writer) error { return WriteCSV(w, rows) })
}

// SaveMarkdown writes the Markdown report to a new file at path.
func SaveMarkdown(path string, prompts []Prompt, models []string, rows []Row) error {
	return writeFile(path, func(w io.Writer) error { return WriteMarkdown(w, prompts, models, rows) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
