package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "docloader",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	defaults := Defaults()

	// Connection flags
	flags.String("backend", string(defaults.Backend), "Store backend: 'couchbase', 'redis', or 'memory'")
	flags.String("connection-string", "", "Couchbase connection string (e.g. couchbase://localhost)")
	flags.String("username", "", "Couchbase username")
	flags.String("password", "", "Couchbase password")
	flags.Bool("wan-profile", false, "Apply the SDK's WAN development timeouts")
	flags.Bool("tls-skip-verify", false, "Skip TLS certificate verification")
	flags.StringSlice("bucket", nil, "Target keyspace as bucket[.scope].coll1,coll2 (repeatable)")
	flags.String("redis-addr", defaults.Redis.Addr, "Redis address for the redis backend")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database number")
	flags.Duration("memory-latency", 0, "Delay added to every operation of the memory backend")

	// Workload flags
	flags.String("workload", string(defaults.Workload), "Workload to run: 'kv' or 'query'")
	flags.StringP("operation", "o", defaults.Operation, "KV operation: insert, update, get, or delete")
	flags.IntP("num-docs", "n", 0, "Number of document ids per pass")
	flags.IntP("doc-size", "s", 0, "Minimum serialized document size in bytes")
	flags.Bool("run-for-time", false, "Replay the id range until run-time elapses")
	flags.Duration("run-time", defaults.RunTime, "How long to run when run-for-time is set (e.g. 30s, 5m)")
	flags.IntP("workers", "w", defaults.Workers, "Number of parallel dispatchers")
	flags.IntP("batch-size", "b", defaults.BatchSize, "Operations issued concurrently per batch")
	flags.String("key-prefix", defaults.KeyPrefix, "Prefix prepended to every document key")
	flags.Duration("op-timeout", defaults.OpTimeout, "Per-operation timeout")
	flags.Duration("connect-timeout", defaults.ConnectTimeout, "Cluster connect timeout")
	flags.IntP("rate", "r", 0, "Operations per second per worker (0 means unlimited)")
	flags.String("arrival-model", string(ArrivalModelUniform), "Arrival model to use when pacing operations (uniform or poisson)")
	flags.Int("retries", 0, "Number of retries per operation on transient failures")
	flags.Int64("seed", 0, "Seed for document generation (0 means random)")

	// Feeder flags
	flags.String("feeder-path", "", "Path to CSV or JSON file whose records seed documents")
	flags.String("feeder-type", "", "Type of feeder file: 'csv' or 'json'")

	// Query flags
	flags.String("query", "", "N1QL statement issued by the query workload")
	flags.String("expect-field", "", "Field path every returned row must contain")

	// Output flags
	flags.Duration("report-interval", defaults.ReportInterval, "Interval between progress reports")
	flags.String("output", string(defaults.Output), "Final report format: 'text', 'json', or 'yaml'")
	flags.Bool("dashboard", false, "Show live terminal dashboard with metrics")
	flags.String("log-level", defaults.LogLevel, "Log level (trace, debug, info, warn, error)")
	flags.String("log-format", defaults.LogFormat, "Log format: 'text' or 'json'")
	flags.Bool("log-errors", false, "Log each failed operation")
	flags.String("log-file", "", "Also write logs to this rotating file; {date} expands to the start date")
	flags.String("log-file-level", defaults.LogFileLevel, "Log level for the log file")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (e.g. localhost:4317)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: 'grpc' or 'http'")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("tracing-sample-rate", defaults.Tracing.SampleRate, "Fraction of operations traced (0.0-1.0)")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Performance thresholds (repeatable, e.g., 'op_duration:p99 < 50')")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("backend") {
		val, err := fs.GetString("backend")
		if err != nil {
			return err
		}
		cfg.Backend = Backend(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("connection-string") {
		val, err := fs.GetString("connection-string")
		if err != nil {
			return err
		}
		cfg.ConnectionString = strings.TrimSpace(val)
	}
	if fs.Changed("username") {
		val, err := fs.GetString("username")
		if err != nil {
			return err
		}
		cfg.Username = val
	}
	if fs.Changed("password") {
		val, err := fs.GetString("password")
		if err != nil {
			return err
		}
		cfg.Password = val
	}
	if fs.Changed("wan-profile") {
		val, err := fs.GetBool("wan-profile")
		if err != nil {
			return err
		}
		cfg.WANProfile = val
	}
	if fs.Changed("tls-skip-verify") {
		val, err := fs.GetBool("tls-skip-verify")
		if err != nil {
			return err
		}
		cfg.TLSSkipVerify = val
	}
	if fs.Changed("bucket") {
		vals, err := fs.GetStringSlice("bucket")
		if err != nil {
			return err
		}
		buckets, err := parseBucketFlags(vals)
		if err != nil {
			return err
		}
		cfg.Buckets = buckets
	}
	if fs.Changed("redis-addr") {
		val, err := fs.GetString("redis-addr")
		if err != nil {
			return err
		}
		cfg.Redis.Addr = strings.TrimSpace(val)
	}
	if fs.Changed("redis-password") {
		val, err := fs.GetString("redis-password")
		if err != nil {
			return err
		}
		cfg.Redis.Password = val
	}
	if fs.Changed("redis-db") {
		val, err := fs.GetInt("redis-db")
		if err != nil {
			return err
		}
		cfg.Redis.DB = val
	}
	if fs.Changed("memory-latency") {
		val, err := fs.GetDuration("memory-latency")
		if err != nil {
			return err
		}
		cfg.Memory.Latency = val
	}

	if fs.Changed("workload") {
		val, err := fs.GetString("workload")
		if err != nil {
			return err
		}
		cfg.Workload = Workload(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("operation") {
		val, err := fs.GetString("operation")
		if err != nil {
			return err
		}
		cfg.Operation = strings.TrimSpace(val)
	}
	if fs.Changed("num-docs") {
		val, err := fs.GetInt("num-docs")
		if err != nil {
			return err
		}
		cfg.NumDocs = val
	}
	if fs.Changed("doc-size") {
		val, err := fs.GetInt("doc-size")
		if err != nil {
			return err
		}
		cfg.DocSize = val
	}
	if fs.Changed("run-for-time") {
		val, err := fs.GetBool("run-for-time")
		if err != nil {
			return err
		}
		cfg.RunForTime = val
	}
	if fs.Changed("run-time") {
		val, err := fs.GetDuration("run-time")
		if err != nil {
			return err
		}
		cfg.RunTime = val
	}
	if fs.Changed("workers") {
		val, err := fs.GetInt("workers")
		if err != nil {
			return err
		}
		cfg.Workers = val
	}
	if fs.Changed("batch-size") {
		val, err := fs.GetInt("batch-size")
		if err != nil {
			return err
		}
		cfg.BatchSize = val
	}
	if fs.Changed("key-prefix") {
		val, err := fs.GetString("key-prefix")
		if err != nil {
			return err
		}
		cfg.KeyPrefix = val
	}
	if fs.Changed("op-timeout") {
		val, err := fs.GetDuration("op-timeout")
		if err != nil {
			return err
		}
		cfg.OpTimeout = val
	}
	if fs.Changed("connect-timeout") {
		val, err := fs.GetDuration("connect-timeout")
		if err != nil {
			return err
		}
		cfg.ConnectTimeout = val
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.Rate = val
	}
	if fs.Changed("arrival-model") {
		val, err := fs.GetString("arrival-model")
		if err != nil {
			return err
		}
		cfg.Arrival.Model = ArrivalModel(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("retries") {
		val, err := fs.GetInt("retries")
		if err != nil {
			return err
		}
		cfg.Retries = val
	}
	if fs.Changed("seed") {
		val, err := fs.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = val
	}

	if fs.Changed("feeder-path") {
		val, err := fs.GetString("feeder-path")
		if err != nil {
			return err
		}
		cfg.Feeder.Path = strings.TrimSpace(val)
	}
	if fs.Changed("feeder-type") {
		val, err := fs.GetString("feeder-type")
		if err != nil {
			return err
		}
		cfg.Feeder.Type = strings.TrimSpace(val)
	}

	if fs.Changed("query") {
		val, err := fs.GetString("query")
		if err != nil {
			return err
		}
		cfg.Query.Statement = strings.TrimSpace(val)
	}
	if fs.Changed("expect-field") {
		val, err := fs.GetString("expect-field")
		if err != nil {
			return err
		}
		cfg.Query.ExpectField = strings.TrimSpace(val)
	}

	if fs.Changed("report-interval") {
		val, err := fs.GetDuration("report-interval")
		if err != nil {
			return err
		}
		cfg.ReportInterval = val
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("log-format") {
		val, err := fs.GetString("log-format")
		if err != nil {
			return err
		}
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("log-errors") {
		val, err := fs.GetBool("log-errors")
		if err != nil {
			return err
		}
		cfg.LogErrors = val
	}
	if fs.Changed("log-file") {
		val, err := fs.GetString("log-file")
		if err != nil {
			return err
		}
		cfg.LogFile = strings.TrimSpace(val)
	}
	if fs.Changed("log-file-level") {
		val, err := fs.GetString("log-file-level")
		if err != nil {
			return err
		}
		cfg.LogFileLevel = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("metrics-addr") {
		val, err := fs.GetString("metrics-addr")
		if err != nil {
			return err
		}
		cfg.MetricsAddr = strings.TrimSpace(val)
	}

	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}

	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}

	return nil
}

// parseBucketFlags parses --bucket values of the form "bucket[.scope].coll1,coll2".
// pflag splits the value on commas, so bare collection names continue the
// preceding bucket.
func parseBucketFlags(vals []string) ([]BucketConfig, error) {
	var buckets []BucketConfig
	for _, raw := range vals {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, ".") {
			if len(buckets) == 0 {
				return nil, fmt.Errorf("bucket must be in bucket[.scope].collection form: %s", raw)
			}
			last := &buckets[len(buckets)-1]
			last.Collections = append(last.Collections, raw)
			continue
		}
		parts := strings.Split(raw, ".")
		var b BucketConfig
		switch len(parts) {
		case 2:
			b = BucketConfig{BucketName: parts[0], Collections: []string{parts[1]}}
		case 3:
			b = BucketConfig{BucketName: parts[0], Scope: parts[1], Collections: []string{parts[2]}}
		default:
			return nil, fmt.Errorf("bucket must be in bucket[.scope].collection form: %s", raw)
		}
		if b.BucketName == "" || b.Collections[0] == "" {
			return nil, fmt.Errorf("bucket and collection names cannot be empty: %s", raw)
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}
