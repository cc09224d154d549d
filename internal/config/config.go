package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nawalpathak-sudo/leetcode-sub000/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                          string
	ServiceName                     string
	ServiceVersion                  string
	HTTPAddr                        string
	DBURL                           string
	DBDisablePreparedBinary         bool
	CacheEnabled                    bool
	CacheTTL                        time.Duration
	CORSAllowedOrigins              []string
	ReadTimeout                     time.Duration
	WriteTimeout                    time.Duration
	PprofEnabled                    bool
	PprofAddr                       string
	UptraceEnabled                  bool
	UptraceDSN                      string
	UptraceLogsEnabled              bool
	UptraceCaptureRequestBody       bool
	UptraceRequestBodyMaxBytes      int
	PyroscopeEnabled                bool
	PyroscopeServerAddress          string
	PyroscopeAppName                string
	PyroscopeAuthToken              string
	PyroscopeBasicAuthUser          string
	PyroscopeBasicAuthPassword      string
	PyroscopeUploadRate             time.Duration
	LeetCodeEnabled                 bool
	LeetCodeBaseURL                 string
	LeetCodeTimeout                 time.Duration
	LeetCodeMaxRetries              int
	LeetCodeCircuitEnabled          bool
	LeetCodeCircuitFailureCount     int
	LeetCodeCircuitOpenTimeout      time.Duration
	LeetCodeCircuitHalfOpenMaxReq   int
	CodeforcesEnabled               bool
	CodeforcesBaseURL               string
	CodeforcesTimeout               time.Duration
	CodeforcesMaxRetries            int
	CodeforcesCircuitEnabled        bool
	CodeforcesCircuitFailureCount   int
	CodeforcesCircuitOpenTimeout    time.Duration
	CodeforcesCircuitHalfOpenMaxReq int
	RefreshEnabled                  bool
	RefreshInterval                 time.Duration
	RefreshMaxWorkers               int
	InternalJobToken                string
	QStashEnabled                   bool
	QStashBaseURL                   string
	QStashToken                     string
	QStashTargetBaseURL             string
	QStashRetries                   int
	QStashCircuitEnabled            bool
	QStashCircuitFailureCount       int
	QStashCircuitOpenTimeout        time.Duration
	QStashCircuitHalfOpenMaxReq     int
	LogLevel                        logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}

	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}
	uptraceCaptureRequestBody, err := strconv.ParseBool(getEnv("UPTRACE_CAPTURE_REQUEST_BODY", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_CAPTURE_REQUEST_BODY: %w", err)
	}
	uptraceRequestBodyMaxBytes, err := getEnvAsInt("UPTRACE_REQUEST_BODY_MAX_BYTES", 8192)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_REQUEST_BODY_MAX_BYTES: %w", err)
	}
	if uptraceRequestBodyMaxBytes <= 0 {
		return Config{}, fmt.Errorf("UPTRACE_REQUEST_BODY_MAX_BYTES must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofAddr == "" {
		pprofAddr = ":6060"
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	leetCodeCfg, err := loadPlatformClientConfig("LEETCODE", "https://leetcode.com/graphql")
	if err != nil {
		return Config{}, err
	}
	codeforcesCfg, err := loadPlatformClientConfig("CODEFORCES", "https://codeforces.com/api")
	if err != nil {
		return Config{}, err
	}

	refreshEnabled, err := strconv.ParseBool(getEnv("REFRESH_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_ENABLED: %w", err)
	}
	refreshInterval, err := time.ParseDuration(getEnv("REFRESH_INTERVAL", "6h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_INTERVAL: %w", err)
	}
	if refreshInterval <= 0 {
		return Config{}, fmt.Errorf("REFRESH_INTERVAL must be > 0")
	}
	refreshMaxWorkers, err := getEnvAsInt("REFRESH_MAX_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_MAX_WORKERS: %w", err)
	}
	if refreshMaxWorkers < 1 {
		return Config{}, fmt.Errorf("REFRESH_MAX_WORKERS must be >= 1")
	}
	if refreshEnabled && !leetCodeCfg.Enabled && !codeforcesCfg.Enabled {
		return Config{}, fmt.Errorf("REFRESH_ENABLED=true requires at least one platform client enabled")
	}

	qstashEnabled, err := strconv.ParseBool(getEnv("QSTASH_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse QSTASH_ENABLED: %w", err)
	}
	qstashRetries, err := getEnvAsInt("QSTASH_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse QSTASH_RETRIES: %w", err)
	}
	if qstashRetries < 0 {
		return Config{}, fmt.Errorf("QSTASH_RETRIES must be >= 0")
	}
	qstashCircuitEnabled, err := strconv.ParseBool(getEnv("QSTASH_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse QSTASH_CIRCUIT_ENABLED: %w", err)
	}
	qstashCircuitFailureCount, err := getEnvAsInt("QSTASH_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse QSTASH_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if qstashCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("QSTASH_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	qstashCircuitOpenTimeout, err := time.ParseDuration(getEnv("QSTASH_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse QSTASH_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if qstashCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("QSTASH_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	qstashCircuitHalfOpenMaxReq, err := getEnvAsInt("QSTASH_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse QSTASH_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if qstashCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("QSTASH_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	qstashBaseURL := strings.TrimSpace(getEnv("QSTASH_BASE_URL", "https://qstash.upstash.io"))
	qstashToken := strings.TrimSpace(getEnv("QSTASH_TOKEN", ""))
	qstashTargetBaseURL := strings.TrimSpace(getEnv("QSTASH_TARGET_BASE_URL", ""))
	internalJobToken := strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", ""))
	if qstashEnabled {
		if qstashToken == "" {
			return Config{}, fmt.Errorf("QSTASH_TOKEN is required when QSTASH_ENABLED=true")
		}
		if qstashTargetBaseURL == "" {
			return Config{}, fmt.Errorf("QSTASH_TARGET_BASE_URL is required when QSTASH_ENABLED=true")
		}
		if internalJobToken == "" {
			return Config{}, fmt.Errorf("INTERNAL_JOB_TOKEN is required when QSTASH_ENABLED=true")
		}
	}

	cfg := Config{
		AppEnv:                          appEnv,
		ServiceName:                     getEnv("APP_SERVICE_NAME", "coding-leaderboard-api"),
		ServiceVersion:                  getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                        getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                           getEnv("DB_URL", ""),
		CORSAllowedOrigins:              splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PprofEnabled:                    pprofEnabled,
		PprofAddr:                       pprofAddr,
		UptraceEnabled:                  uptraceEnabled,
		UptraceDSN:                      uptraceDSN,
		UptraceLogsEnabled:              uptraceLogsEnabled,
		UptraceCaptureRequestBody:       uptraceCaptureRequestBody,
		UptraceRequestBodyMaxBytes:      uptraceRequestBodyMaxBytes,
		PyroscopeEnabled:                pyroscopeEnabled,
		PyroscopeServerAddress:          pyroscopeServerAddress,
		PyroscopeAuthToken:              strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:          strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:      strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:             pyroscopeUploadRate,
		LeetCodeEnabled:                 leetCodeCfg.Enabled,
		LeetCodeBaseURL:                 leetCodeCfg.BaseURL,
		LeetCodeTimeout:                 leetCodeCfg.Timeout,
		LeetCodeMaxRetries:              leetCodeCfg.MaxRetries,
		LeetCodeCircuitEnabled:          leetCodeCfg.CircuitEnabled,
		LeetCodeCircuitFailureCount:     leetCodeCfg.CircuitFailureCount,
		LeetCodeCircuitOpenTimeout:      leetCodeCfg.CircuitOpenTimeout,
		LeetCodeCircuitHalfOpenMaxReq:   leetCodeCfg.CircuitHalfOpenMaxReq,
		CodeforcesEnabled:               codeforcesCfg.Enabled,
		CodeforcesBaseURL:               codeforcesCfg.BaseURL,
		CodeforcesTimeout:               codeforcesCfg.Timeout,
		CodeforcesMaxRetries:            codeforcesCfg.MaxRetries,
		CodeforcesCircuitEnabled:        codeforcesCfg.CircuitEnabled,
		CodeforcesCircuitFailureCount:   codeforcesCfg.CircuitFailureCount,
		CodeforcesCircuitOpenTimeout:    codeforcesCfg.CircuitOpenTimeout,
		CodeforcesCircuitHalfOpenMaxReq: codeforcesCfg.CircuitHalfOpenMaxReq,
		RefreshEnabled:                  refreshEnabled,
		RefreshInterval:                 refreshInterval,
		RefreshMaxWorkers:               refreshMaxWorkers,
		InternalJobToken:                internalJobToken,
		QStashEnabled:                   qstashEnabled,
		QStashBaseURL:                   qstashBaseURL,
		QStashToken:                     qstashToken,
		QStashTargetBaseURL:             qstashTargetBaseURL,
		QStashRetries:                   qstashRetries,
		QStashCircuitEnabled:            qstashCircuitEnabled,
		QStashCircuitFailureCount:       qstashCircuitFailureCount,
		QStashCircuitOpenTimeout:        qstashCircuitOpenTimeout,
		QStashCircuitHalfOpenMaxReq:     qstashCircuitHalfOpenMaxReq,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	cfg.DBDisablePreparedBinary = dbDisablePreparedBinary

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}
	cfg.CacheEnabled = cacheEnabled
	cfg.CacheTTL = cacheTTL

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	cfg.LogLevel = parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	return cfg, nil
}

type platformClientConfig struct {
	Enabled               bool
	BaseURL               string
	Timeout               time.Duration
	MaxRetries            int
	CircuitEnabled        bool
	CircuitFailureCount   int
	CircuitOpenTimeout    time.Duration
	CircuitHalfOpenMaxReq int
}

// loadPlatformClientConfig reads the env block shared by both upstream
// platform clients. Keys are prefixed, e.g. LEETCODE_TIMEOUT.
func loadPlatformClientConfig(prefix, defaultBaseURL string) (platformClientConfig, error) {
	enabled, err := strconv.ParseBool(getEnv(prefix+"_ENABLED", "true"))
	if err != nil {
		return platformClientConfig{}, fmt.Errorf("parse %s_ENABLED: %w", prefix, err)
	}
	timeout, err := time.ParseDuration(getEnv(prefix+"_TIMEOUT", "20s"))
	if err != nil {
		return platformClientConfig{}, fmt.Errorf("parse %s_TIMEOUT: %w", prefix, err)
	}
	if timeout <= 0 {
		return platformClientConfig{}, fmt.Errorf("%s_TIMEOUT must be > 0", prefix)
	}
	maxRetries, err := getEnvAsInt(prefix+"_MAX_RETRIES", 1)
	if err != nil {
		return platformClientConfig{}, fmt.Errorf("parse %s_MAX_RETRIES: %w", prefix, err)
	}
	if maxRetries < 0 {
		return platformClientConfig{}, fmt.Errorf("%s_MAX_RETRIES must be >= 0", prefix)
	}
	circuitEnabled, err := strconv.ParseBool(getEnv(prefix+"_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return platformClientConfig{}, fmt.Errorf("parse %s_CIRCUIT_ENABLED: %w", prefix, err)
	}
	circuitFailureCount, err := getEnvAsInt(prefix+"_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return platformClientConfig{}, fmt.Errorf("parse %s_CIRCUIT_FAILURE_COUNT: %w", prefix, err)
	}
	if circuitFailureCount < 1 {
		return platformClientConfig{}, fmt.Errorf("%s_CIRCUIT_FAILURE_COUNT must be >= 1", prefix)
	}
	circuitOpenTimeout, err := time.ParseDuration(getEnv(prefix+"_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return platformClientConfig{}, fmt.Errorf("parse %s_CIRCUIT_OPEN_TIMEOUT: %w", prefix, err)
	}
	if circuitOpenTimeout <= 0 {
		return platformClientConfig{}, fmt.Errorf("%s_CIRCUIT_OPEN_TIMEOUT must be > 0", prefix)
	}
	circuitHalfOpenMaxReq, err := getEnvAsInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return platformClientConfig{}, fmt.Errorf("parse %s_CIRCUIT_HALF_OPEN_MAX_REQ: %w", prefix, err)
	}
	if circuitHalfOpenMaxReq < 1 {
		return platformClientConfig{}, fmt.Errorf("%s_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1", prefix)
	}

	return platformClientConfig{
		Enabled:               enabled,
		BaseURL:               strings.TrimSpace(getEnv(prefix+"_BASE_URL", defaultBaseURL)),
		Timeout:               timeout,
		MaxRetries:            maxRetries,
		CircuitEnabled:        circuitEnabled,
		CircuitFailureCount:   circuitFailureCount,
		CircuitOpenTimeout:    circuitOpenTimeout,
		CircuitHalfOpenMaxReq: circuitHalfOpenMaxReq,
	}, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
