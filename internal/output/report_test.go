package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/torosent/docloader/internal/metrics"
	"github.com/torosent/docloader/internal/threshold"
)

func sampleReport() Report {
	return Report{
		RunID:     "01HX0000000000000000000000",
		Workload:  "kv",
		Operation: "insert",
		Targets:   []string{"travel.inventory.hotel", "travel.inventory.airline"},
		Stats: metrics.Stats{
			Total:         100,
			Successes:     95,
			Failures:      5,
			Outcomes:      metrics.ResultTable{"success": 95, "document_exists": 5},
			OpsPerSec:     50.0,
			Duration:      2 * time.Second,
			DurationMs:    2000,
			P99Latency:    12 * time.Millisecond,
			P99LatencyMs:  12,
			MeanLatencyMs: 3.5,
		},
	}
}

func TestPrintReportBasic(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleReport())

	output := buf.String()
	for _, want := range []string{
		"Total Operations:  100",
		"Successful:        95",
		"Failed:            5",
		"Operations/sec:    50.00",
		"Run ID:            01HX",
		"Operation:         insert",
		"P99:             12ms",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestPrintReportOutcomesSorted(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleReport())

	output := buf.String()
	success := strings.Index(output, "  success: 95")
	exists := strings.Index(output, "  document_exists: 5")
	if success < 0 || exists < 0 {
		t.Fatalf("outcome lines missing:\n%s", output)
	}
	if success > exists {
		t.Errorf("expected largest outcome first:\n%s", output)
	}
}

func TestPrintReportNoOutcomes(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, Report{})

	if !strings.Contains(buf.String(), "Outcomes:\n  None") {
		t.Errorf("expected empty outcomes marker:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Targets:") {
		t.Errorf("targets section should be omitted when empty")
	}
}

func TestPrintReportIncludesThresholds(t *testing.T) {
	report := sampleReport()
	th, err := threshold.Parse("op_failed:count < 1")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	report.Thresholds = threshold.NewEvaluator([]threshold.Threshold{th}).Evaluate(report.Stats)

	var buf bytes.Buffer
	PrintReport(&buf, report)

	output := buf.String()
	if !strings.Contains(output, "Thresholds:") {
		t.Errorf("expected thresholds section:\n%s", output)
	}
	if !strings.Contains(output, "✗ op_failed:count < 1") {
		t.Errorf("expected failing threshold line:\n%s", output)
	}
}

func TestPrintJSONReport(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSONReport(&buf, sampleReport()); err != nil {
		t.Fatalf("PrintJSONReport() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["run_id"] != "01HX0000000000000000000000" {
		t.Errorf("run_id = %v", decoded["run_id"])
	}
	stats, ok := decoded["stats"].(map[string]interface{})
	if !ok {
		t.Fatalf("stats = %T, want object", decoded["stats"])
	}
	if stats["total"] != float64(100) {
		t.Errorf("stats.total = %v, want 100", stats["total"])
	}
	outcomes, ok := stats["outcomes"].(map[string]interface{})
	if !ok || outcomes["document_exists"] != float64(5) {
		t.Errorf("stats.outcomes = %v", stats["outcomes"])
	}
	if _, ok := decoded["thresholds"]; ok {
		t.Error("thresholds should be omitted when empty")
	}
}

func TestPrintYAMLReport(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintYAMLReport(&buf, sampleReport()); err != nil {
		t.Fatalf("PrintYAMLReport() error = %v", err)
	}

	var decoded struct {
		Workload string `yaml:"workload"`
		Stats    struct {
			Failures int64            `yaml:"failures"`
			Outcomes map[string]int64 `yaml:"outcomes"`
		} `yaml:"stats"`
		Targets []string `yaml:"targets"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	if decoded.Workload != "kv" {
		t.Errorf("workload = %q, want kv", decoded.Workload)
	}
	if decoded.Stats.Failures != 5 {
		t.Errorf("failures = %d, want 5", decoded.Stats.Failures)
	}
	if decoded.Stats.Outcomes["success"] != 95 {
		t.Errorf("outcomes = %v", decoded.Stats.Outcomes)
	}
	if len(decoded.Targets) != 2 {
		t.Errorf("targets = %v", decoded.Targets)
	}
}

func TestPrintFormats(t *testing.T) {
	tests := []struct {
		format  string
		prefix  string
		wantErr bool
	}{
		{format: "", prefix: "\n--- Load Results ---"},
		{format: "text", prefix: "\n--- Load Results ---"},
		{format: "json", prefix: "{"},
		{format: "yaml", prefix: "run_id:"},
		{format: "html", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			err := Print(&buf, tt.format, sampleReport())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Print() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !strings.HasPrefix(buf.String(), tt.prefix) {
				t.Errorf("Print(%q) output starts with %q, want %q", tt.format, firstLine(buf.String()), tt.prefix)
			}
		})
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
