package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/torosent/docloader/internal/metrics"
	"github.com/torosent/docloader/internal/threshold"
)

// Report is the final summary of a run.
type Report struct {
	RunID      string             `json:"run_id" yaml:"run_id"`
	Workload   string             `json:"workload" yaml:"workload"`
	Operation  string             `json:"operation,omitempty" yaml:"operation,omitempty"`
	Targets    []string           `json:"targets,omitempty" yaml:"targets,omitempty"`
	Stats      metrics.Stats      `json:"stats" yaml:"stats"`
	Thresholds []threshold.Result `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// Print writes the report in the named format: text, json or yaml.
func Print(w io.Writer, format string, report Report) error {
	switch format {
	case "", "text":
		PrintReport(w, report)
		return nil
	case "json":
		return PrintJSONReport(w, report)
	case "yaml":
		return PrintYAMLReport(w, report)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, report Report) {
	stats := report.Stats
	fmt.Fprintln(w, "\n--- Load Results ---")
	if report.RunID != "" {
		fmt.Fprintf(w, "Run ID:            %s\n", report.RunID)
	}
	if report.Workload != "" {
		fmt.Fprintf(w, "Workload:          %s\n", report.Workload)
	}
	if report.Operation != "" {
		fmt.Fprintf(w, "Operation:         %s\n", report.Operation)
	}
	fmt.Fprintf(w, "Total Operations:  %d\n", stats.Total)
	fmt.Fprintf(w, "Successful:        %d\n", stats.Successes)
	fmt.Fprintf(w, "Failed:            %d\n", stats.Failures)
	fmt.Fprintf(w, "Duration:          %s\n", stats.Duration)
	fmt.Fprintf(w, "Operations/sec:    %.2f\n", stats.OpsPerSec)
	fmt.Fprintln(w, "\nLatency:")
	fmt.Fprintf(w, "  Min:             %s\n", stats.MinLatency)
	fmt.Fprintf(w, "  Max:             %s\n", stats.MaxLatency)
	fmt.Fprintf(w, "  Mean:            %s\n", stats.MeanLatency)
	fmt.Fprintf(w, "  P50:             %s\n", stats.P50Latency)
	fmt.Fprintf(w, "  P90:             %s\n", stats.P90Latency)
	fmt.Fprintf(w, "  P95:             %s\n", stats.P95Latency)
	fmt.Fprintf(w, "  P99:             %s\n", stats.P99Latency)

	fmt.Fprintln(w, "\nOutcomes:")
	rows := stats.Outcomes.Sorted()
	if len(rows) == 0 {
		fmt.Fprintln(w, "  None")
	}
	for _, row := range rows {
		fmt.Fprintf(w, "  %s: %d\n", row.Label, row.Count)
	}

	if len(report.Targets) > 0 {
		fmt.Fprintln(w, "\nTargets:")
		for _, name := range report.Targets {
			fmt.Fprintf(w, "  - %s\n", name)
		}
	}

	if len(report.Thresholds) > 0 {
		fmt.Fprintln(w, "\nThresholds:")
		for _, r := range report.Thresholds {
			fmt.Fprintf(w, "  %s\n", r.Message)
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, report Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
