package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/flosch/pongo2/v6"
)

// DefaultReportTitle heads reports when the suite sets no title.
const DefaultReportTitle = "Łatynkatar site test"

// Report is the machine-readable outcome of one run.
type Report struct {
	RunID      string            `json:"run_id"`
	Title      string            `json:"title"`
	Seed       int64             `json:"seed"`
	BaseURL    string            `json:"base_url"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Results    []Result          `json:"results"`
}

// Summary counts results by outcome.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
}

// Tally counts the report's results.
func (r *Report) Tally() Summary {
	s := Summary{Total: len(r.Results)}
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomePass:
			s.Passed++
		case OutcomeFail:
			s.Failed++
		default:
			s.Errored++
		}
	}
	return s
}

// OK reports whether every scenario passed.
func (r *Report) OK() bool {
	s := r.Tally()
	return s.Passed == s.Total
}

// WriteJSON writes the report, followed by its summary, as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	type alias Report
	out := struct {
		alias
		Summary Summary `json:"summary"`
	}{alias(*r), r.Tally()}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

var reportTemplate = pongo2.Must(pongo2.FromString(reportHTML))

type metadataRow struct {
	Key   string
	Value string
}

type resultRow struct {
	Scenario   string
	Outcome    string
	Kind       string
	State      string
	DurationMS int64
	Message    string
	Screenshot string
}

// WriteHTML renders a self-contained HTML report.
func (r *Report) WriteHTML(w io.Writer) error {
	keys := make([]string, 0, len(r.Metadata)+1)
	for k := range r.Metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	rows := []metadataRow{{Key: "Randomly seed", Value: strconv.FormatInt(r.Seed, 10)}}
	for _, k := range keys {
		if k == "Randomly seed" {
			continue
		}
		rows = append(rows, metadataRow{Key: k, Value: r.Metadata[k]})
	}
	results := make([]resultRow, len(r.Results))
	for i, res := range r.Results {
		results[i] = resultRow{
			Scenario:   res.Scenario,
			Outcome:    string(res.Outcome),
			Kind:       res.Kind,
			State:      res.State.String(),
			DurationMS: res.DurationMS,
			Message:    res.Message,
			Screenshot: res.Screenshot,
		}
	}

	return reportTemplate.ExecuteWriter(pongo2.Context{
		"title":       r.Title,
		"run_id":      r.RunID,
		"base_url":    r.BaseURL,
		"started_at":  r.StartedAt.Format(time.RFC3339),
		"duration":    r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
		"environment": rows,
		"results":     results,
		"summary":     r.Tally(),
	}, w)
}

// WriteFiles writes report.json and report.html into dir and returns
// their paths.
func (r *Report) WriteFiles(dir string) (jsonPath, htmlPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create report dir: %w", err)
	}
	jsonPath = filepath.Join(dir, "report.json")
	htmlPath = filepath.Join(dir, "report.html")
	if err := writeFile(jsonPath, r.WriteJSON); err != nil {
		return "", "", err
	}
	if err := writeFile(htmlPath, r.WriteHTML); err != nil {
		return "", "", err
	}
	return jsonPath, htmlPath, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

const reportHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{ title }}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 40px; }
        table { border-collapse: collapse; margin-bottom: 30px; }
        th, td { border: 1px solid #ddd; padding: 6px 12px; text-align: left; vertical-align: top; }
        th { background: #f5f5f5; }
        .pass { color: #188038; }
        .fail { color: #d93025; }
        .error { color: #e37400; }
        pre { margin: 0; white-space: pre-wrap; }
    </style>
</head>
<body>
    <h1>{{ title }}</h1>
    <p>Run {{ run_id }} against {{ base_url }}, started {{ started_at }}, took {{ duration }}.</p>

    <h2>Environment</h2>
    <table>
    {% for row in environment %}
        <tr><th>{{ row.Key }}</th><td>{{ row.Value }}</td></tr>
    {% endfor %}
    </table>

    <h2>Summary</h2>
    <p>{{ summary.Total }} scenarios: {{ summary.Passed }} passed, {{ summary.Failed }} failed, {{ summary.Errored }} errors.</p>

    <h2>Results</h2>
    <table>
        <tr><th>Scenario</th><th>Outcome</th><th>Kind</th><th>State</th><th>Duration (ms)</th><th>Details</th></tr>
    {% for r in results %}
        <tr>
            <td>{{ r.Scenario }}</td>
            <td class="{{ r.Outcome }}">{{ r.Outcome }}</td>
            <td>{{ r.Kind }}</td>
            <td>{{ r.State }}</td>
            <td>{{ r.DurationMS }}</td>
            <td><pre>{{ r.Message }}</pre>{% if r.Screenshot %}<a href="{{ r.Screenshot }}">screenshot</a>{% endif %}</td>
        </tr>
    {% endfor %}
    </table>
</body>
</html>
`
