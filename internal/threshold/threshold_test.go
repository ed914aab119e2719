package threshold

import (
	"testing"
	"time"

	"github.com/torosent/docloader/internal/metrics"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Threshold
		wantError bool
	}{
		{
			name:  "valid p95 latency threshold",
			input: "op_duration:p95 < 500",
			want: Threshold{
				Metric:    "op_duration",
				Aggregate: "p95",
				Operator:  "<",
				Value:     500,
				Raw:       "op_duration:p95 < 500",
			},
			wantError: false,
		},
		{
			name:  "valid failure rate threshold",
			input: "op_failed:rate < 0.01",
			want: Threshold{
				Metric:    "op_failed",
				Aggregate: "rate",
				Operator:  "<",
				Value:     0.01,
				Raw:       "op_failed:rate < 0.01",
			},
			wantError: false,
		},
		{
			name:  "valid p99 latency with <=",
			input: "op_duration:p99 <= 1000",
			want: Threshold{
				Metric:    "op_duration",
				Aggregate: "p99",
				Operator:  "<=",
				Value:     1000,
				Raw:       "op_duration:p99 <= 1000",
			},
			wantError: false,
		},
		{
			name:  "valid ops rate threshold with >",
			input: "ops:rate > 100",
			want: Threshold{
				Metric:    "ops",
				Aggregate: "rate",
				Operator:  ">",
				Value:     100,
				Raw:       "ops:rate > 100",
			},
			wantError: false,
		},
		{
			name:  "valid avg latency",
			input: "op_duration:avg < 200",
			want: Threshold{
				Metric:    "op_duration",
				Aggregate: "avg",
				Operator:  "<",
				Value:     200,
				Raw:       "op_duration:avg < 200",
			},
			wantError: false,
		},
		{
			name:  "outcome count",
			input: "outcome_document_exists:count == 0",
			want: Threshold{
				Metric:    "outcome_document_exists",
				Aggregate: "count",
				Operator:  "==",
				Value:     0,
				Raw:       "outcome_document_exists:count == 0",
			},
			wantError: false,
		},
		{
			name:      "outcome without label",
			input:     "outcome_:count == 0",
			wantError: true,
		},
		{
			name:      "empty string",
			input:     "",
			wantError: true,
		},
		{
			name:      "invalid format - missing operator",
			input:     "op_duration:p95 500",
			wantError: true,
		},
		{
			name:      "invalid metric",
			input:     "invalid_metric:p95 < 500",
			wantError: true,
		},
		{
			name:      "invalid aggregate",
			input:     "op_duration:p85 < 500",
			wantError: true,
		},
		{
			name:      "invalid operator",
			input:     "op_duration:p95 << 500",
			wantError: true,
		},
		{
			name:      "invalid value - not a number",
			input:     "op_duration:p95 < abc",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("Parse() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if !tt.wantError {
				if got.Metric != tt.want.Metric {
					t.Errorf("Parse() Metric = %v, want %v", got.Metric, tt.want.Metric)
				}
				if got.Aggregate != tt.want.Aggregate {
					t.Errorf("Parse() Aggregate = %v, want %v", got.Aggregate, tt.want.Aggregate)
				}
				if got.Operator != tt.want.Operator {
					t.Errorf("Parse() Operator = %v, want %v", got.Operator, tt.want.Operator)
				}
				if got.Value != tt.want.Value {
					t.Errorf("Parse() Value = %v, want %v", got.Value, tt.want.Value)
				}
				if got.Raw != tt.want.Raw {
					t.Errorf("Parse() Raw = %v, want %v", got.Raw, tt.want.Raw)
				}
			}
		})
	}
}

func TestParseMultiple(t *testing.T) {
	tests := []struct {
		name      string
		input     []string
		wantCount int
		wantError bool
	}{
		{
			name: "multiple valid thresholds",
			input: []string{
				"op_duration:p95 < 500",
				"op_failed:rate < 0.01",
				"ops:rate > 100",
			},
			wantCount: 3,
			wantError: false,
		},
		{
			name:      "empty slice",
			input:     []string{},
			wantCount: 0,
			wantError: false,
		},
		{
			name: "one valid, one invalid",
			input: []string{
				"op_duration:p95 < 500",
				"invalid threshold",
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMultiple(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ParseMultiple() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if !tt.wantError && len(got) != tt.wantCount {
				t.Errorf("ParseMultiple() returned %d thresholds, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestEvaluator(t *testing.T) {
	// Create sample stats
	stats := metrics.Stats{
		Total:         1000,
		Successes:     980,
		Failures:      20,
		Outcomes:      metrics.ResultTable{"success": 980, "document_exists": 15, "timeout": 5},
		MinLatency:    10 * time.Millisecond,
		MaxLatency:    500 * time.Millisecond,
		MeanLatency:   100 * time.Millisecond,
		P50Latency:    80 * time.Millisecond,
		P90Latency:    200 * time.Millisecond,
		P95Latency:    300 * time.Millisecond,
		P99Latency:    400 * time.Millisecond,
		MinLatencyMs:  10,
		MaxLatencyMs:  500,
		MeanLatencyMs: 100,
		P50LatencyMs:  80,
		P90LatencyMs:  200,
		P95LatencyMs:  300,
		P99LatencyMs:  400,
		OpsPerSec:     100,
		Duration:      10 * time.Second,
	}

	tests := []struct {
		name       string
		thresholds []string
		wantPass   []bool
	}{
		{
			name: "all thresholds pass",
			thresholds: []string{
				"op_duration:p99 < 500",
				"op_failed:rate < 0.05",
				"ops:rate > 50",
			},
			wantPass: []bool{true, true, true},
		},
		{
			name: "some thresholds fail",
			thresholds: []string{
				"op_duration:p99 < 300",
				"op_failed:rate < 0.01",
				"ops:rate > 50",
			},
			wantPass: []bool{false, false, true},
		},
		{
			name: "latency percentiles",
			thresholds: []string{
				"op_duration:p50 < 100",
				"op_duration:p90 < 250",
				"op_duration:p99 < 450",
			},
			wantPass: []bool{true, true, true},
		},
		{
			name: "avg and max latency",
			thresholds: []string{
				"op_duration:avg < 150",
				"op_duration:max < 600",
				"op_duration:min > 5",
			},
			wantPass: []bool{true, true, true},
		},
		{
			name: "failure count",
			thresholds: []string{
				"op_failed:count < 50",
			},
			wantPass: []bool{true},
		},
		{
			name: "ops count",
			thresholds: []string{
				"ops:count >= 1000",
			},
			wantPass: []bool{true},
		},
		{
			name: "outcome labels",
			thresholds: []string{
				"outcome_timeout:count == 0",
				"outcome_document_exists:rate < 0.02",
				"outcome_authentication_failure:count == 0",
			},
			wantPass: []bool{false, true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thresholds, err := ParseMultiple(tt.thresholds)
			if err != nil {
				t.Fatalf("ParseMultiple() error = %v", err)
			}

			evaluator := NewEvaluator(thresholds)
			results := evaluator.Evaluate(stats)

			if len(results) != len(tt.wantPass) {
				t.Fatalf("got %d results, want %d", len(results), len(tt.wantPass))
			}

			for i, result := range results {
				if result.Pass != tt.wantPass[i] {
					t.Errorf("threshold[%d] %q: got pass=%v, want %v (actual=%.2f)",
						i, result.Threshold.Raw, result.Pass, tt.wantPass[i], result.Actual)
				}
			}
		})
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name     string
		actual   float64
		operator string
		expected float64
		want     bool
	}{
		{"less than true", 50, "<", 100, true},
		{"less than false", 100, "<", 50, false},
		{"less than equal", 100, "<", 100, false},
		{"less than or equal true", 50, "<=", 100, true},
		{"less than or equal equal", 100, "<=", 100, true},
		{"less than or equal false", 150, "<=", 100, false},
		{"greater than true", 150, ">", 100, true},
		{"greater than false", 50, ">", 100, false},
		{"greater than equal", 100, ">", 100, false},
		{"greater than or equal true", 150, ">=", 100, true},
		{"greater than or equal equal", 100, ">=", 100, true},
		{"greater than or equal false", 50, ">=", 100, false},
		{"equal true", 100, "==", 100, true},
		{"equal false", 100, "==", 101, false},
		{"equal with floating point precision", 100.0000000001, "==", 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareValues(tt.actual, tt.operator, tt.expected)
			if got != tt.want {
				t.Errorf("compareValues(%.2f, %s, %.2f) = %v, want %v",
					tt.actual, tt.operator, tt.expected, got, tt.want)
			}
		})
	}
}

func TestExtractMetricValue(t *testing.T) {
	stats := metrics.Stats{
		Total:         1000,
		Successes:     950,
		Failures:      50,
		Outcomes:      metrics.ResultTable{"success": 950, "timeout": 40, "document_not_found": 10},
		MinLatencyMs:  10.5,
		MaxLatencyMs:  500.25,
		MeanLatencyMs: 100.75,
		P50LatencyMs:  80.5,
		P90LatencyMs:  200.25,
		P95LatencyMs:  300.5,
		P99LatencyMs:  400.5,
		OpsPerSec:     123.45,
	}

	tests := []struct {
		name      string
		threshold Threshold
		want      float64
		wantError bool
	}{
		{
			name:      "op_duration p50",
			threshold: Threshold{Metric: "op_duration", Aggregate: "p50"},
			want:      80.5,
		},
		{
			name:      "op_duration p90",
			threshold: Threshold{Metric: "op_duration", Aggregate: "p90"},
			want:      200.25,
		},
		{
			name:      "op_duration p95",
			threshold: Threshold{Metric: "op_duration", Aggregate: "p95"},
			want:      300.5,
		},
		{
			name:      "op_duration p99",
			threshold: Threshold{Metric: "op_duration", Aggregate: "p99"},
			want:      400.5,
		},
		{
			name:      "op_duration avg",
			threshold: Threshold{Metric: "op_duration", Aggregate: "avg"},
			want:      100.75,
		},
		{
			name:      "op_duration min",
			threshold: Threshold{Metric: "op_duration", Aggregate: "min"},
			want:      10.5,
		},
		{
			name:      "op_duration max",
			threshold: Threshold{Metric: "op_duration", Aggregate: "max"},
			want:      500.25,
		},
		{
			name:      "op_failed rate",
			threshold: Threshold{Metric: "op_failed", Aggregate: "rate"},
			want:      0.05,
		},
		{
			name:      "op_failed count",
			threshold: Threshold{Metric: "op_failed", Aggregate: "count"},
			want:      50,
		},
		{
			name:      "ops rate",
			threshold: Threshold{Metric: "ops", Aggregate: "rate"},
			want:      123.45,
		},
		{
			name:      "ops count",
			threshold: Threshold{Metric: "ops", Aggregate: "count"},
			want:      1000,
		},
		{
			name:      "outcome count",
			threshold: Threshold{Metric: "outcome_timeout", Aggregate: "count"},
			want:      40,
		},
		{
			name:      "outcome rate",
			threshold: Threshold{Metric: "outcome_document_not_found", Aggregate: "rate"},
			want:      0.01,
		},
		{
			name:      "unseen outcome",
			threshold: Threshold{Metric: "outcome_canceled", Aggregate: "count"},
			want:      0,
		},
		{
			name:      "unsupported aggregate for outcome",
			threshold: Threshold{Metric: "outcome_timeout", Aggregate: "p99"},
			wantError: true,
		},
		{
			name:      "unsupported metric",
			threshold: Threshold{Metric: "invalid_metric", Aggregate: "p95"},
			wantError: true,
		},
		{
			name:      "unsupported aggregate for metric",
			threshold: Threshold{Metric: "op_failed", Aggregate: "p95"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractMetricValue(tt.threshold, stats)
			if (err != nil) != tt.wantError {
				t.Errorf("extractMetricValue() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("extractMetricValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllPassed(t *testing.T) {
	if !AllPassed(nil) {
		t.Error("AllPassed(nil) = false, want true")
	}
	if AllPassed([]Result{{Pass: true}, {Pass: false}}) {
		t.Error("AllPassed with a failure = true")
	}
}

func TestEvaluatorWithCollectorStats(t *testing.T) {
	c := metrics.NewCollector()
	for i := 0; i < 99; i++ {
		c.Record(metrics.OutcomeSuccess, time.Millisecond)
	}
	c.Record(metrics.OutcomeTimeout, 10*time.Millisecond)

	thresholds, err := ParseMultiple([]string{"op_failed:rate <= 0.01", "outcome_timeout:count == 1", "ops:count == 100"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	results := NewEvaluator(thresholds).Evaluate(c.Stats(time.Second))
	for _, r := range results {
		if !r.Pass {
			t.Errorf("%s failed: %s", r.Threshold.Raw, r.Message)
		}
	}
}
