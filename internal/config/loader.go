package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	// If no arguments provided and no config file, show help/usage
	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := Defaults()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(&cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(&cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.Backend = Backend(strings.ToLower(strings.TrimSpace(string(cfg.Backend))))
	cfg.Workload = Workload(strings.ToLower(strings.TrimSpace(string(cfg.Workload))))
	cfg.ConnectionString = strings.TrimSpace(cfg.ConnectionString)

	return &cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
// Keys are accepted in camelCase, snake_case and kebab-case.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "backend"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("backend: %w", err)
		}
		if val != "" {
			cfg.Backend = Backend(strings.ToLower(strings.TrimSpace(val)))
		}
	}

	if raw, ok := lookupSetting(settings, "connectionstring", "connection_string", "connection-string"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("connectionString: %w", err)
		}
		cfg.ConnectionString = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "username"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("username: %w", err)
		}
		cfg.Username = val
	}

	if raw, ok := lookupSetting(settings, "password"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("password: %w", err)
		}
		cfg.Password = val
	}

	if raw, ok := lookupSetting(settings, "wanprofile", "wan_profile", "wan-profile"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("wanProfile: %w", err)
		}
		cfg.WANProfile = val
	}

	if raw, ok := lookupSetting(settings, "tlsskipverify", "tls_skip_verify", "tls-skip-verify"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("tlsSkipVerify: %w", err)
		}
		cfg.TLSSkipVerify = val
	}

	if raw, ok := lookupSetting(settings, "buckets"); ok {
		buckets, err := parseBuckets(raw)
		if err != nil {
			return fmt.Errorf("buckets: %w", err)
		}
		cfg.Buckets = buckets
	}

	if raw, ok := lookupSetting(settings, "redis"); ok {
		redisCfg, err := parseRedis(raw, cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		cfg.Redis = redisCfg
	}

	if raw, ok := lookupSetting(settings, "memory"); ok {
		memCfg, err := parseMemory(raw, cfg.Memory)
		if err != nil {
			return fmt.Errorf("memory: %w", err)
		}
		cfg.Memory = memCfg
	}

	if raw, ok := lookupSetting(settings, "workload"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("workload: %w", err)
		}
		if val != "" {
			cfg.Workload = Workload(strings.ToLower(strings.TrimSpace(val)))
		}
	}

	if raw, ok := lookupSetting(settings, "operation"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("operation: %w", err)
		}
		if val != "" {
			cfg.Operation = strings.TrimSpace(val)
		}
	}

	if raw, ok := lookupSetting(settings, "numdocs", "num_docs", "num-docs"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("numDocs: %w", err)
		}
		cfg.NumDocs = val
	}

	if raw, ok := lookupSetting(settings, "docsize", "doc_size", "doc-size"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("docSize: %w", err)
		}
		cfg.DocSize = val
	}

	if raw, ok := lookupSetting(settings, "runfortime", "run_for_time", "run-for-time"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("runForTime: %w", err)
		}
		cfg.RunForTime = val
	}

	if raw, ok := lookupSetting(settings, "runtime", "run_time", "run-time"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("runTime: %w", err)
		}
		cfg.RunTime = dur
	} else if raw, ok := lookupSetting(settings, "runtimemins", "run_time_mins", "run-time-mins"); ok {
		mins, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("runTimeMins: %w", err)
		}
		cfg.RunTime = time.Duration(mins * float64(time.Minute))
	}

	if raw, ok := lookupSetting(settings, "workers", "threads"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("workers: %w", err)
		}
		cfg.Workers = val
	}

	if raw, ok := lookupSetting(settings, "batchsize", "batch_size", "batch-size"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("batchSize: %w", err)
		}
		cfg.BatchSize = val
	}

	if raw, ok := lookupSetting(settings, "keyprefix", "key_prefix", "key-prefix"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("keyPrefix: %w", err)
		}
		cfg.KeyPrefix = val
	}

	if raw, ok := lookupSetting(settings, "reportinterval", "report_interval", "report-interval"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("reportInterval: %w", err)
		}
		cfg.ReportInterval = dur
	}

	if raw, ok := lookupSetting(settings, "optimeout", "op_timeout", "op-timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("opTimeout: %w", err)
		}
		cfg.OpTimeout = dur
	}

	if raw, ok := lookupSetting(settings, "connecttimeout", "connect_timeout", "connect-timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("connectTimeout: %w", err)
		}
		cfg.ConnectTimeout = dur
	}

	if raw, ok := lookupSetting(settings, "rate"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("rate: %w", err)
		}
		cfg.Rate = val
	}

	if raw, ok := lookupSetting(settings, "arrival"); ok {
		arrival, err := parseArrival(raw)
		if err != nil {
			return fmt.Errorf("arrival: %w", err)
		}
		if arrival.Model != "" {
			cfg.Arrival = arrival
		}
	} else if raw, ok := lookupSetting(settings, "arrivalmodel", "arrival_model", "arrival-model"); ok {
		arrival, err := parseArrival(raw)
		if err != nil {
			return fmt.Errorf("arrivalModel: %w", err)
		}
		if arrival.Model != "" {
			cfg.Arrival = arrival
		}
	}

	if raw, ok := lookupSetting(settings, "retries"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("retries: %w", err)
		}
		cfg.Retries = val
	}

	if raw, ok := lookupSetting(settings, "seed"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		cfg.Seed = int64(val)
	}

	if raw, ok := lookupSetting(settings, "feeder"); ok {
		feeder, err := parseFeeder(raw)
		if err != nil {
			return fmt.Errorf("feeder: %w", err)
		}
		cfg.Feeder = feeder
	}

	if raw, ok := lookupSetting(settings, "query"); ok {
		query, err := parseQuery(raw)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		cfg.Query = query
	}

	if raw, ok := lookupSetting(settings, "output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("output: %w", err)
		}
		if val != "" {
			cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
		}
	}

	if raw, ok := lookupSetting(settings, "dashboard"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		cfg.Dashboard = val
	}

	if raw, ok := lookupSetting(settings, "loglevel", "log_level", "log-level"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("logLevel: %w", err)
		}
		if val != "" {
			cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
		}
	}

	if raw, ok := lookupSetting(settings, "logformat", "log_format", "log-format"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("logFormat: %w", err)
		}
		if val != "" {
			cfg.LogFormat = strings.ToLower(strings.TrimSpace(val))
		}
	}

	if raw, ok := lookupSetting(settings, "logerrors", "log_errors", "log-errors"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("logErrors: %w", err)
		}
		cfg.LogErrors = val
	}

	if raw, ok := lookupSetting(settings, "logfile", "log_file", "log-file"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("logFile: %w", err)
		}
		cfg.LogFile = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "logfilelevel", "log_file_level", "log-file-level"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("logFileLevel: %w", err)
		}
		if val != "" {
			cfg.LogFileLevel = strings.ToLower(strings.TrimSpace(val))
		}
	}

	if raw, ok := lookupSetting(settings, "metricsaddr", "metrics_addr", "metrics-addr"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("metricsAddr: %w", err)
		}
		cfg.MetricsAddr = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		tracing, err := parseTracing(raw, cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tracing
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		thresholds, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = thresholds
	}

	return nil
}

func parseBuckets(value interface{}) ([]BucketConfig, error) {
	if value == nil {
		return nil, nil
	}
	items, err := toInterfaceSlice(value)
	if err != nil {
		return nil, err
	}
	buckets := make([]BucketConfig, 0, len(items))
	for idx, item := range items {
		entry, err := toStringKeyMap(item)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", idx, err)
		}
		bucket, err := buildBucketConfig(entry)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", idx, err)
		}
		buckets = append(buckets, bucket)
	}
	return buckets, nil
}

func buildBucketConfig(settings map[string]interface{}) (BucketConfig, error) {
	var bucket BucketConfig
	if raw, ok := lookupSetting(settings, "bucketname", "bucket_name", "bucket-name", "bucket", "name"); ok {
		val, err := asString(raw)
		if err != nil {
			return BucketConfig{}, fmt.Errorf("bucketName: %w", err)
		}
		bucket.BucketName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "scope"); ok {
		val, err := asString(raw)
		if err != nil {
			return BucketConfig{}, fmt.Errorf("scope: %w", err)
		}
		bucket.Scope = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "collections"); ok {
		vals, err := asStringSlice(raw)
		if err != nil {
			return BucketConfig{}, fmt.Errorf("collections: %w", err)
		}
		for _, v := range vals {
			bucket.Collections = append(bucket.Collections, strings.TrimSpace(v))
		}
	}
	return bucket, nil
}

func parseRedis(value interface{}, base RedisConfig) (RedisConfig, error) {
	if value == nil {
		return base, nil
	}
	entry, err := toStringKeyMap(value)
	if err != nil {
		return RedisConfig{}, err
	}
	redisCfg := base
	if raw, ok := lookupSetting(entry, "addr", "address"); ok {
		val, err := asString(raw)
		if err != nil {
			return RedisConfig{}, fmt.Errorf("addr: %w", err)
		}
		redisCfg.Addr = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "password"); ok {
		val, err := asString(raw)
		if err != nil {
			return RedisConfig{}, fmt.Errorf("password: %w", err)
		}
		redisCfg.Password = val
	}
	if raw, ok := lookupSetting(entry, "db"); ok {
		val, err := asInt(raw)
		if err != nil {
			return RedisConfig{}, fmt.Errorf("db: %w", err)
		}
		redisCfg.DB = val
	}
	return redisCfg, nil
}

func parseMemory(value interface{}, base MemoryConfig) (MemoryConfig, error) {
	if value == nil {
		return base, nil
	}
	entry, err := toStringKeyMap(value)
	if err != nil {
		return MemoryConfig{}, err
	}
	memCfg := base
	if raw, ok := lookupSetting(entry, "latency"); ok {
		val, err := asDuration(raw)
		if err != nil {
			return MemoryConfig{}, fmt.Errorf("latency: %w", err)
		}
		memCfg.Latency = val
	}
	return memCfg, nil
}

func parseArrival(value interface{}) (ArrivalConfig, error) {
	if value == nil {
		return ArrivalConfig{}, nil
	}
	switch v := value.(type) {
	case string:
		model := strings.ToLower(strings.TrimSpace(v))
		if model == "" {
			return ArrivalConfig{}, nil
		}
		return ArrivalConfig{Model: ArrivalModel(model)}, nil
	default:
		entry, err := toStringKeyMap(value)
		if err != nil {
			return ArrivalConfig{}, err
		}
		if raw, ok := lookupSetting(entry, "model"); ok {
			val, err := asString(raw)
			if err != nil {
				return ArrivalConfig{}, fmt.Errorf("model: %w", err)
			}
			return ArrivalConfig{Model: ArrivalModel(strings.ToLower(strings.TrimSpace(val)))}, nil
		}
		return ArrivalConfig{}, fmt.Errorf("model field is required")
	}
}

func parseFeeder(value interface{}) (FeederConfig, error) {
	if value == nil {
		return FeederConfig{}, nil
	}
	entry, err := toStringKeyMap(value)
	if err != nil {
		return FeederConfig{}, err
	}
	var feeder FeederConfig
	if raw, ok := lookupSetting(entry, "path"); ok {
		val, err := asString(raw)
		if err != nil {
			return FeederConfig{}, fmt.Errorf("path: %w", err)
		}
		feeder.Path = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "type"); ok {
		val, err := asString(raw)
		if err != nil {
			return FeederConfig{}, fmt.Errorf("type: %w", err)
		}
		feeder.Type = strings.ToLower(strings.TrimSpace(val))
	}
	return feeder, nil
}

// parseQuery accepts either a bare statement string or a map with statement and
// expect_field.
func parseQuery(value interface{}) (QueryConfig, error) {
	if value == nil {
		return QueryConfig{}, nil
	}
	if s, ok := value.(string); ok {
		return QueryConfig{Statement: strings.TrimSpace(s)}, nil
	}
	entry, err := toStringKeyMap(value)
	if err != nil {
		return QueryConfig{}, err
	}
	var query QueryConfig
	if raw, ok := lookupSetting(entry, "statement"); ok {
		val, err := asString(raw)
		if err != nil {
			return QueryConfig{}, fmt.Errorf("statement: %w", err)
		}
		query.Statement = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "expectfield", "expect_field", "expect-field"); ok {
		val, err := asString(raw)
		if err != nil {
			return QueryConfig{}, fmt.Errorf("expectField: %w", err)
		}
		query.ExpectField = strings.TrimSpace(val)
	}
	return query, nil
}

func parseTracing(value interface{}, base TracingConfig) (TracingConfig, error) {
	if value == nil {
		return base, nil
	}
	entry, err := toStringKeyMap(value)
	if err != nil {
		return TracingConfig{}, err
	}
	tracing := base
	if raw, ok := lookupSetting(entry, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("endpoint: %w", err)
		}
		tracing.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("protocol: %w", err)
		}
		tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(entry, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("insecure: %w", err)
		}
		tracing.Insecure = val
	}
	if raw, ok := lookupSetting(entry, "servicename", "service_name", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("service_name: %w", err)
		}
		tracing.ServiceName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "samplerate", "sample_rate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("sample_rate: %w", err)
		}
		tracing.SampleRate = val
	}
	return tracing, nil
}
