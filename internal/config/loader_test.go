package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{"hello", "hello"},
		{123, "123"},
		{true, "true"},
		{nil, ""},
		{[]byte("bytes"), "bytes"},
	}

	for _, tt := range tests {
		got, err := asString(tt.input)
		if err != nil {
			t.Errorf("asString(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asString(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		input interface{}
		want  int
	}{
		{123, 123},
		{"456", 456},
		{int64(789), 789},
		{float64(10.0), 10},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asInt(tt.input)
		if err != nil {
			t.Errorf("asInt(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asInt(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestAsBool(t *testing.T) {
	tests := []struct {
		input interface{}
		want  bool
	}{
		{true, true},
		{"true", true},
		{"1", true},
		{false, false},
		{"false", false},
		{"0", false},
		{nil, false},
	}

	for _, tt := range tests {
		got, err := asBool(tt.input)
		if err != nil {
			t.Errorf("asBool(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asBool(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAsDuration(t *testing.T) {
	tests := []struct {
		input interface{}
		want  time.Duration
	}{
		{time.Second, time.Second},
		{"1m", time.Minute},
		{10, 10 * time.Second}, // int treated as seconds
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asDuration(tt.input)
		if err != nil {
			t.Errorf("asDuration(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asDuration(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAsFloat64(t *testing.T) {
	tests := []struct {
		input interface{}
		want  float64
	}{
		{0.5, 0.5},
		{1, 1},
		{"0.25", 0.25},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asFloat64(tt.input)
		if err != nil {
			t.Errorf("asFloat64(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asFloat64(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestApplyConfigSettings(t *testing.T) {
	cfg := Defaults()
	settings := map[string]interface{}{
		"connectionstring": "couchbase://db.example.com",
		"username":         "loader",
		"password":         "secret",
		"operation":        "upsert",
		"numdocs":          10000,
		"docsize":          2048,
		"runfortime":       true,
		"runtimemins":      1.5,
		"buckets": []interface{}{
			map[string]interface{}{
				"bucketName":  "travel",
				"scope":       "inventory",
				"collections": []interface{}{"hotels", "airlines"},
			},
		},
		"query": map[string]interface{}{
			"statement":    "SELECT * FROM travel",
			"expect_field": "name",
		},
		"tracing": map[string]interface{}{
			"endpoint":    "localhost:4317",
			"sample_rate": 0.5,
		},
	}

	if err := applyConfigSettings(&cfg, settings); err != nil {
		t.Fatalf("applyConfigSettings() error = %v", err)
	}

	if cfg.ConnectionString != "couchbase://db.example.com" {
		t.Errorf("ConnectionString = %q, want couchbase://db.example.com", cfg.ConnectionString)
	}
	if cfg.Username != "loader" || cfg.Password != "secret" {
		t.Errorf("credentials = %q/%q, want loader/secret", cfg.Username, cfg.Password)
	}
	if cfg.Operation != "upsert" {
		t.Errorf("Operation = %q, want upsert", cfg.Operation)
	}
	if cfg.NumDocs != 10000 {
		t.Errorf("NumDocs = %d, want 10000", cfg.NumDocs)
	}
	if cfg.DocSize != 2048 {
		t.Errorf("DocSize = %d, want 2048", cfg.DocSize)
	}
	if !cfg.RunForTime {
		t.Error("RunForTime = false, want true")
	}
	if cfg.RunTime != 90*time.Second {
		t.Errorf("RunTime = %v, want 1m30s", cfg.RunTime)
	}
	if len(cfg.Buckets) != 1 {
		t.Fatalf("Buckets len = %d, want 1", len(cfg.Buckets))
	}
	b := cfg.Buckets[0]
	if b.BucketName != "travel" || b.Scope != "inventory" || len(b.Collections) != 2 || b.Collections[1] != "airlines" {
		t.Errorf("Buckets[0] = %+v", b)
	}
	if cfg.Query.Statement != "SELECT * FROM travel" || cfg.Query.ExpectField != "name" {
		t.Errorf("Query = %+v", cfg.Query)
	}
	if cfg.Tracing.Endpoint != "localhost:4317" || cfg.Tracing.SampleRate != 0.5 {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	// untouched settings keep their defaults
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", cfg.Workers, DefaultWorkers)
	}
}

func TestApplyConfigSettingsRunTimeWinsOverMinutes(t *testing.T) {
	cfg := Defaults()
	settings := map[string]interface{}{
		"run_time":    "45s",
		"runtimemins": 10,
	}
	if err := applyConfigSettings(&cfg, settings); err != nil {
		t.Fatalf("applyConfigSettings() error = %v", err)
	}
	if cfg.RunTime != 45*time.Second {
		t.Errorf("RunTime = %v, want 45s", cfg.RunTime)
	}
}

func TestApplyConfigSettingsBadBuckets(t *testing.T) {
	cfg := Defaults()
	err := applyConfigSettings(&cfg, map[string]interface{}{"buckets": "travel"})
	if err == nil {
		t.Fatal("applyConfigSettings() error = nil, want error for non-list buckets")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := Defaults()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs)

	args := []string{
		"--workers=8",
		"--operation=get",
		"--bucket=travel.inventory.hotels,airlines",
		"--bucket=default.users",
		"--redis-db=3",
		"--threshold=op_failed:count == 0",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if err := applyFlagOverrides(&cfg, fs); err != nil {
		t.Fatalf("applyFlagOverrides() error = %v", err)
	}

	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.Operation != "get" {
		t.Errorf("Operation = %q, want get", cfg.Operation)
	}
	if cfg.Redis.DB != 3 {
		t.Errorf("Redis.DB = %d, want 3", cfg.Redis.DB)
	}
	if len(cfg.Buckets) != 2 {
		t.Fatalf("Buckets = %+v, want 2 entries", cfg.Buckets)
	}
	if got := cfg.Buckets[0]; got.BucketName != "travel" || got.Scope != "inventory" || len(got.Collections) != 2 {
		t.Errorf("Buckets[0] = %+v", got)
	}
	if got := cfg.Buckets[1]; got.BucketName != "default" || got.Scope != "" || got.Collections[0] != "users" {
		t.Errorf("Buckets[1] = %+v", got)
	}
	if len(cfg.Thresholds) != 1 {
		t.Errorf("Thresholds = %v, want 1 entry", cfg.Thresholds)
	}
}

func TestParseBucketFlags(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    int
		wantErr bool
	}{
		{name: "single", input: []string{"b.c"}, want: 1},
		{name: "scoped with extra collections", input: []string{"b.s.c1", "c2", "c3"}, want: 1},
		{name: "two buckets", input: []string{"a.x", "b.y"}, want: 2},
		{name: "leading bare collection", input: []string{"c1"}, wantErr: true},
		{name: "too many parts", input: []string{"a.b.c.d"}, wantErr: true},
		{name: "empty bucket", input: []string{".c"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBucketFlags(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseBucketFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(got) != tt.want {
				t.Errorf("parseBucketFlags() = %+v, want %d buckets", got, tt.want)
			}
		})
	}
}

func TestLoader_Load(t *testing.T) {
	loader := NewLoader()
	args := []string{
		"--backend=memory",
		"--bucket=b.c",
		"--workers=2",
	}

	cfg, err := loader.Load(args)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend != BackendMemory {
		t.Errorf("Backend = %q, want memory", cfg.Backend)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoader_LoadHelp(t *testing.T) {
	if _, err := NewLoader().Load(nil); err != ErrHelpRequested {
		t.Errorf("Load(nil) error = %v, want ErrHelpRequested", err)
	}
}
