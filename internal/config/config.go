package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/torosent/docloader/internal/runner"
	"github.com/torosent/docloader/internal/threshold"
)

type Backend string

const (
	BackendCouchbase Backend = "couchbase"
	BackendRedis     Backend = "redis"
	BackendMemory    Backend = "memory"
)

type Workload string

const (
	WorkloadKV    Workload = "kv"
	WorkloadQuery Workload = "query"
)

type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

type ArrivalModel = runner.ArrivalModel

const (
	ArrivalModelUniform = runner.ArrivalModelUniform
	ArrivalModelPoisson = runner.ArrivalModelPoisson
)

const (
	DefaultWorkers        = 4
	DefaultReportInterval = 10 * time.Second
	DefaultOpTimeout      = 10 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultRunTime        = time.Minute
	DefaultRedisAddr      = "localhost:6379"
)

type Config struct {
	Backend          Backend        `mapstructure:"backend"`
	ConnectionString string         `mapstructure:"connection_string"`
	Username         string         `mapstructure:"username"`
	Password         string         `mapstructure:"password"`
	WANProfile       bool           `mapstructure:"wan_profile"`
	TLSSkipVerify    bool           `mapstructure:"tls_skip_verify"`
	Buckets          []BucketConfig `mapstructure:"buckets"`
	Redis            RedisConfig    `mapstructure:"redis"`
	Memory           MemoryConfig   `mapstructure:"memory"`
	Workload         Workload       `mapstructure:"workload"`
	Operation        string         `mapstructure:"operation"`
	NumDocs          int            `mapstructure:"num_docs"`
	DocSize          int            `mapstructure:"doc_size"`
	RunForTime       bool           `mapstructure:"run_for_time"`
	RunTime          time.Duration  `mapstructure:"run_time"`
	Workers          int            `mapstructure:"workers"`
	BatchSize        int            `mapstructure:"batch_size"`
	KeyPrefix        string         `mapstructure:"key_prefix"`
	ReportInterval   time.Duration  `mapstructure:"report_interval"`
	OpTimeout        time.Duration  `mapstructure:"op_timeout"`
	ConnectTimeout   time.Duration  `mapstructure:"connect_timeout"`
	Rate             int            `mapstructure:"rate"`
	Arrival          ArrivalConfig  `mapstructure:"arrival"`
	Retries          int            `mapstructure:"retries"`
	Seed             int64          `mapstructure:"seed"`
	Feeder           FeederConfig   `mapstructure:"feeder"`
	Query            QueryConfig    `mapstructure:"query"`
	Output           OutputFormat   `mapstructure:"output"`
	Dashboard        bool           `mapstructure:"dashboard"`
	LogLevel         string         `mapstructure:"log_level"`
	LogFormat        string         `mapstructure:"log_format"`
	LogErrors        bool           `mapstructure:"log_errors"`
	LogFile          string         `mapstructure:"log_file"`
	LogFileLevel     string         `mapstructure:"log_file_level"`
	MetricsAddr      string         `mapstructure:"metrics_addr"`
	Tracing          TracingConfig  `mapstructure:"tracing"`
	Thresholds       []string       `mapstructure:"thresholds"`
	ConfigFile       string         `mapstructure:"-"`
}

// BucketConfig names the collections of one bucket scope that receive documents.
type BucketConfig struct {
	BucketName  string   `mapstructure:"bucket_name"`
	Scope       string   `mapstructure:"scope"`
	Collections []string `mapstructure:"collections"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MemoryConfig tunes the in-process backend used for dry runs.
type MemoryConfig struct {
	Latency time.Duration `mapstructure:"latency"`
}

type ArrivalConfig struct {
	Model ArrivalModel `mapstructure:"model"`
}

type FeederConfig struct {
	Path string `mapstructure:"path"`
	Type string `mapstructure:"type"` // "csv" or "json"
}

type QueryConfig struct {
	Statement   string `mapstructure:"statement"`
	ExpectField string `mapstructure:"expect_field"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Enabled reports whether an exporter endpoint is configured, either here or via
// OTEL_EXPORTER_OTLP_ENDPOINT.
func (t TracingConfig) Enabled() bool {
	if strings.TrimSpace(t.Endpoint) != "" {
		return true
	}
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// Defaults returns a Config populated with the documented default values.
func Defaults() Config {
	return Config{
		Backend:        BackendCouchbase,
		Workload:       WorkloadKV,
		Operation:      runner.OperationInsert.String(),
		RunTime:        DefaultRunTime,
		Workers:        DefaultWorkers,
		BatchSize:      runner.DefaultBatchSize,
		KeyPrefix:      runner.DefaultKeyPrefix,
		ReportInterval: DefaultReportInterval,
		OpTimeout:      DefaultOpTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		Arrival:        ArrivalConfig{Model: ArrivalModelUniform},
		Redis:          RedisConfig{Addr: DefaultRedisAddr},
		Output:         OutputText,
		LogLevel:       "info",
		LogFormat:      "text",
		LogFileLevel:   "debug",
		Tracing:        TracingConfig{SampleRate: 1.0},
	}
}

// ParsedOperation returns the configured KV operation.
func (c Config) ParsedOperation() (runner.Operation, error) {
	return runner.ParseOperation(c.Operation)
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	switch c.Backend {
	case BackendCouchbase:
		if strings.TrimSpace(c.ConnectionString) == "" {
			issues = append(issues, "connection_string is required for the couchbase backend (use --help for usage information)")
		}
	case BackendRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			issues = append(issues, "redis: addr is required for the redis backend")
		}
	case BackendMemory:
	default:
		issues = append(issues, fmt.Sprintf("backend must be 'couchbase', 'redis', or 'memory', got %q", c.Backend))
	}

	bucketIssues := validateBuckets(c.Buckets)
	if len(bucketIssues) > 0 {
		issues = append(issues, bucketIssues...)
	}

	switch c.Workload {
	case WorkloadKV:
		if _, err := c.ParsedOperation(); err != nil {
			issues = append(issues, err.Error())
		}
	case WorkloadQuery:
		if c.Backend == BackendRedis {
			issues = append(issues, "query workload is not supported by the redis backend")
		}
		if strings.TrimSpace(c.Query.Statement) == "" {
			issues = append(issues, "query: statement is required for the query workload")
		}
	default:
		issues = append(issues, fmt.Sprintf("workload must be 'kv' or 'query', got %q", c.Workload))
	}

	for _, w := range c.Warnings() {
		fmt.Fprintln(os.Stderr, w)
	}

	if c.NumDocs < 0 {
		issues = append(issues, "num_docs must be >= 0")
	}
	if c.Workload == WorkloadKV && c.NumDocs == 0 && c.RunForTime {
		issues = append(issues, "num_docs must be > 0 when run_for_time is set")
	}
	if c.DocSize < 0 {
		issues = append(issues, "doc_size must be >= 0")
	}
	if c.RunForTime && c.RunTime <= 0 {
		issues = append(issues, "run_time must be > 0 when run_for_time is set")
	}
	if c.Workers < 1 {
		issues = append(issues, "workers must be >= 1")
	}
	if c.BatchSize < 1 {
		issues = append(issues, "batch_size must be >= 1")
	}
	if c.ReportInterval <= 0 {
		issues = append(issues, "report_interval must be > 0")
	}
	if c.OpTimeout < 0 {
		issues = append(issues, "op_timeout must be >= 0")
	}
	if c.ConnectTimeout < 0 {
		issues = append(issues, "connect_timeout must be >= 0")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Retries < 0 {
		issues = append(issues, "retries must be >= 0")
	}

	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		issues = append(issues, fmt.Sprintf("output must be 'text', 'json', or 'yaml', got %q", c.Output))
	}
	if c.Dashboard && c.Output != OutputText {
		issues = append(issues, "dashboard and structured output are mutually exclusive")
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		issues = append(issues, fmt.Sprintf("log_level: %v", err))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		issues = append(issues, fmt.Sprintf("log_format must be 'text' or 'json', got %q", c.LogFormat))
	}
	if strings.TrimSpace(c.LogFile) != "" {
		if _, err := log.ParseLevel(c.LogFileLevel); err != nil {
			issues = append(issues, fmt.Sprintf("log_file_level: %v", err))
		}
	}
	if c.Memory.Latency < 0 {
		issues = append(issues, "memory: latency must be >= 0")
	}

	arrivalIssues := validateArrivalConfig(c.Arrival)
	if len(arrivalIssues) > 0 {
		issues = append(issues, arrivalIssues...)
	}

	feederIssues := validateFeederConfig(c.Feeder)
	if len(feederIssues) > 0 {
		issues = append(issues, feederIssues...)
	}

	tracingIssues := validateTracingConfig(c.Tracing)
	if len(tracingIssues) > 0 {
		issues = append(issues, tracingIssues...)
	}

	if _, err := threshold.ParseMultiple(c.Thresholds); err != nil {
		issues = append(issues, err.Error())
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}

	return nil
}

// Warnings lists settings that are valid but probably not what the operator meant.
func (c Config) Warnings() []string {
	var warnings []string
	if c.Rate > 100000 {
		warnings = append(warnings, fmt.Sprintf("WARNING: High rate limit configured (%d ops/s per worker). Ensure the cluster can absorb it.", c.Rate))
	}
	if c.Workers*c.BatchSize > 200000 {
		warnings = append(warnings, fmt.Sprintf("WARNING: %d workers x %d batch size keeps more than 200000 operations in flight.", c.Workers, c.BatchSize))
	}
	if c.Workload == WorkloadKV && c.NumDocs > 0 && c.NumDocs < c.Workers {
		warnings = append(warnings, fmt.Sprintf("WARNING: num_docs (%d) is below workers (%d); %d workers receive no documents and stay idle.", c.NumDocs, c.Workers, c.Workers-1))
	}
	return warnings
}

func validateBuckets(buckets []BucketConfig) []string {
	if len(buckets) == 0 {
		return []string{"at least one bucket is required"}
	}
	var issues []string
	for idx, b := range buckets {
		if strings.TrimSpace(b.BucketName) == "" {
			issues = append(issues, fmt.Sprintf("buckets[%d]: bucket_name is required", idx))
		}
		if len(b.Collections) == 0 {
			issues = append(issues, fmt.Sprintf("buckets[%d]: at least one collection is required", idx))
		}
		for cIdx, coll := range b.Collections {
			if strings.TrimSpace(coll) == "" {
				issues = append(issues, fmt.Sprintf("buckets[%d].collections[%d]: name is empty", idx, cIdx))
			}
		}
	}
	return issues
}

func validateArrivalConfig(arr ArrivalConfig) []string {
	model := arr.Model
	if model == "" {
		model = ArrivalModelUniform
	}
	switch model {
	case ArrivalModelUniform, ArrivalModelPoisson:
		return nil
	default:
		return []string{fmt.Sprintf("arrival model %q is not supported", model)}
	}
}

func validateFeederConfig(feeder FeederConfig) []string {
	var issues []string
	if strings.TrimSpace(feeder.Path) == "" {
		return nil // No feeder configured
	}

	if strings.TrimSpace(feeder.Type) == "" {
		issues = append(issues, "feeder: type is required when path is specified")
	} else if feeder.Type != "csv" && feeder.Type != "json" {
		issues = append(issues, fmt.Sprintf("feeder: type must be 'csv' or 'json', got %q", feeder.Type))
	}

	return issues
}

func validateTracingConfig(tr TracingConfig) []string {
	var issues []string
	switch strings.ToLower(tr.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", tr.Protocol))
	}
	if tr.SampleRate < 0 || tr.SampleRate > 1.0 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", tr.SampleRate))
	}
	return issues
}
