package harness_test

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/latynkatar-e2e/pkg/harness"
)

func sampleReport() *harness.Report {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &harness.Report{
		RunID:      "00000000-0000-0000-0000-000000000001",
		Title:      harness.DefaultReportTitle,
		Seed:       42,
		BaseURL:    "https://latynkatar.org/",
		StartedAt:  start,
		FinishedAt: start.Add(30 * time.Second),
		Metadata:   map[string]string{"Randomly seed": "42"},
		Results: []harness.Result{
			{
				Scenario:   "page-title",
				Outcome:    harness.OutcomePass,
				State:      harness.StateAsserted,
				TornDown:   true,
				Observed:   map[string]string{"title": "Łatynkatar"},
				DurationMS: 1200,
			},
			{
				Scenario:   "convert-old-graphics",
				Outcome:    harness.OutcomeFail,
				Kind:       "assertion",
				State:      harness.StateAsserted,
				TornDown:   true,
				Message:    `assertion: assert #output: expected "a", got "b"`,
				Selector:   "#output",
				Expected:   "a",
				Actual:     "b",
				Observed:   map[string]string{"#output": "b"},
				DurationMS: 850,
			},
		},
	}
}

func TestReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().WriteJSON(&buf))

	g := goldie.New(t)
	g.Assert(t, "report_json", buf.Bytes())
}

func TestReport_Tally(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, harness.Summary{Total: 2, Passed: 1, Failed: 1}, r.Tally())
	assert.False(t, r.OK())

	r.Results = append(r.Results, harness.Result{Outcome: harness.OutcomeError})
	assert.Equal(t, 1, r.Tally().Errored)
}

func TestReport_HTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().WriteHTML(&buf))
	html := buf.String()

	assert.Contains(t, html, "<title>Łatynkatar site test</title>")
	assert.Contains(t, html, "<th>Randomly seed</th><td>42</td>")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("Randomly seed")))
	assert.Contains(t, html, "convert-old-graphics")
	assert.Contains(t, html, `class="fail"`)
	assert.Contains(t, html, "2 scenarios: 1 passed, 1 failed, 0 errors.")
	assert.Contains(t, html, "took 30s")
}

func TestReport_WriteFiles(t *testing.T) {
	dir := t.TempDir() + "/nested"
	jsonPath, htmlPath, err := sampleReport().WriteFiles(dir)
	require.NoError(t, err)
	assert.FileExists(t, htmlPath)

	b, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded struct {
		Seed    int64           `json:"seed"`
		Summary harness.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, int64(42), decoded.Seed)
	assert.Equal(t, 2, decoded.Summary.Total)
}
