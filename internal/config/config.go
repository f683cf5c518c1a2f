package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/statlink/internal/platform/logging"
)

var validate = validator.New()

// ProviderConfig holds the transport settings shared by every upstream.
type ProviderConfig struct {
	BaseURL               string        `validate:"required,url"`
	Timeout               time.Duration `validate:"gt=0"`
	MaxAttempts           int           `validate:"gte=1,lte=10"`
	BackoffBase           time.Duration `validate:"gt=0"`
	BackoffMax            time.Duration `validate:"gtefield=BackoffBase"`
	RateLimit             float64       `validate:"gte=0"`
	RateBurst             int           `validate:"gte=1"`
	Concurrency           int           `validate:"gte=1"`
	CircuitEnabled        bool
	CircuitFailureCount   int           `validate:"gte=1"`
	CircuitOpenTimeout    time.Duration `validate:"gt=0"`
	CircuitHalfOpenMaxReq int           `validate:"gte=1"`
}

// Config stores runtime configuration for the CLI and the serve command.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	LogLevel                   logging.Level
	LogFormat                  logging.Format
	DataDir                    string
	CrosswalkFile              string
	CrosswalkUpstreamURLs      []string
	CrosswalkMaxAge            time.Duration
	DatasetMaxAge              time.Duration
	FetchMaxConcurrency        int
	HTTPUserAgent              string
	Chadwick                   ProviderConfig
	Statcast                   ProviderConfig
	FanGraphs                  ProviderConfig
	BRef                       ProviderConfig
	BRefRespectRobots          bool
	DBURL                      string
	DBDisablePreparedBinary    bool
	CrosswalkMirrorEnabled     bool
	CacheTTL                   time.Duration
	HTTPAddr                   string
	HTTPReadTimeout            time.Duration
	HTTPWriteTimeout           time.Duration
	CORSAllowedOrigins         []string
	AdminToken                 string
	MetricsEnabled             bool
	MetricsAddr                string
	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

var (
	chadwickDefaults = ProviderConfig{
		BaseURL:     "https://raw.githubusercontent.com/chadwickbureau/register/master/data",
		Timeout:     60 * time.Second,
		RateLimit:   5,
		RateBurst:   4,
		Concurrency: 4,
	}
	statcastDefaults = ProviderConfig{
		BaseURL:     "https://baseballsavant.mlb.com",
		Timeout:     120 * time.Second,
		RateLimit:   2,
		RateBurst:   2,
		Concurrency: 2,
	}
	fanGraphsDefaults = ProviderConfig{
		BaseURL:     "https://www.fangraphs.com",
		Timeout:     60 * time.Second,
		RateLimit:   1,
		RateBurst:   1,
		Concurrency: 1,
	}
	brefDefaults = ProviderConfig{
		BaseURL:     "https://www.baseball-reference.com",
		Timeout:     60 * time.Second,
		RateLimit:   0.3,
		RateBurst:   1,
		Concurrency: 1,
	}
)

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

	metricsEnabled, err := strconv.ParseBool(getEnv("METRICS_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse METRICS_ENABLED: %w", err)
	}
	metricsAddr := strings.TrimSpace(getEnv("METRICS_ADDR", ":9090"))
	if metricsEnabled && metricsAddr == "" {
		return Config{}, fmt.Errorf("METRICS_ADDR is required when METRICS_ENABLED=true")
	}

	dataDir := strings.TrimSpace(getEnv("DATA_DIR", defaultDataDir()))
	crosswalkMaxAge, err := time.ParseDuration(getEnv("CROSSWALK_MAX_AGE", "720h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CROSSWALK_MAX_AGE: %w", err)
	}
	if crosswalkMaxAge <= 0 {
		return Config{}, fmt.Errorf("CROSSWALK_MAX_AGE must be > 0")
	}
	datasetMaxAge, err := time.ParseDuration(getEnv("DATASET_MAX_AGE", "6h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DATASET_MAX_AGE: %w", err)
	}
	if datasetMaxAge <= 0 {
		return Config{}, fmt.Errorf("DATASET_MAX_AGE must be > 0")
	}
	fetchMaxConcurrency, err := getEnvAsInt("FETCH_MAX_CONCURRENCY", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse FETCH_MAX_CONCURRENCY: %w", err)
	}
	if fetchMaxConcurrency < 1 {
		return Config{}, fmt.Errorf("FETCH_MAX_CONCURRENCY must be >= 1")
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	chadwick, err := loadProvider("CHADWICK", chadwickDefaults)
	if err != nil {
		return Config{}, err
	}
	statcast, err := loadProvider("STATCAST", statcastDefaults)
	if err != nil {
		return Config{}, err
	}
	fanGraphs, err := loadProvider("FANGRAPHS", fanGraphsDefaults)
	if err != nil {
		return Config{}, err
	}
	bref, err := loadProvider("BREF", brefDefaults)
	if err != nil {
		return Config{}, err
	}
	brefRespectRobots, err := strconv.ParseBool(getEnv("BREF_RESPECT_ROBOTS", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BREF_RESPECT_ROBOTS: %w", err)
	}

	mirrorEnabled, err := strconv.ParseBool(getEnv("CROSSWALK_MIRROR_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CROSSWALK_MIRROR_ENABLED: %w", err)
	}
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if mirrorEnabled && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when CROSSWALK_MIRROR_ENABLED=true")
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "statlink"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		LogLevel:                   logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		LogFormat:                  logging.ParseFormat(getEnv("APP_LOG_FORMAT", defaultLogFormat(appEnv))),
		DataDir:                    dataDir,
		CrosswalkFile:              strings.TrimSpace(getEnv("CROSSWALK_FILE", filepath.Join(dataDir, "people.csv"))),
		CrosswalkUpstreamURLs:      splitCSV(getEnv("CROSSWALK_UPSTREAM_URLS", "")),
		CrosswalkMaxAge:            crosswalkMaxAge,
		DatasetMaxAge:              datasetMaxAge,
		FetchMaxConcurrency:        fetchMaxConcurrency,
		HTTPUserAgent:              strings.TrimSpace(getEnv("HTTP_USER_AGENT", "statlink/1.0 (+https://github.com/riskibarqy/statlink)")),
		Chadwick:                   chadwick,
		Statcast:                   statcast,
		FanGraphs:                  fanGraphs,
		BRef:                       bref,
		BRefRespectRobots:          brefRespectRobots,
		DBURL:                      dbURL,
		DBDisablePreparedBinary:    dbDisablePreparedBinary,
		CrosswalkMirrorEnabled:     mirrorEnabled,
		CacheTTL:                   cacheTTL,
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		HTTPReadTimeout:            readTimeout,
		HTTPWriteTimeout:           writeTimeout,
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		AdminToken:                 strings.TrimSpace(getEnv("APP_ADMIN_TOKEN", "")),
		MetricsEnabled:             metricsEnabled,
		MetricsAddr:                metricsAddr,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if cfg.CrosswalkFile == "" {
		return Config{}, fmt.Errorf("CROSSWALK_FILE cannot be empty")
	}

	return cfg, nil
}

func loadProvider(prefix string, defaults ProviderConfig) (ProviderConfig, error) {
	var (
		cfg = defaults
		err error
	)
	cfg.BaseURL = strings.TrimSpace(getEnv(prefix+"_BASE_URL", defaults.BaseURL))

	durations := []struct {
		key      string
		dst      *time.Duration
		fallback time.Duration
	}{
		{"TIMEOUT", &cfg.Timeout, defaults.Timeout},
		{"BACKOFF_BASE", &cfg.BackoffBase, orDuration(defaults.BackoffBase, time.Second)},
		{"BACKOFF_MAX", &cfg.BackoffMax, orDuration(defaults.BackoffMax, 30*time.Second)},
		{"CIRCUIT_OPEN_TIMEOUT", &cfg.CircuitOpenTimeout, orDuration(defaults.CircuitOpenTimeout, 30*time.Second)},
	}
	for _, d := range durations {
		key := prefix + "_" + d.key
		if *d.dst, err = time.ParseDuration(getEnv(key, d.fallback.String())); err != nil {
			return ProviderConfig{}, fmt.Errorf("parse %s: %w", key, err)
		}
	}

	ints := []struct {
		key      string
		dst      *int
		fallback int
	}{
		{"MAX_ATTEMPTS", &cfg.MaxAttempts, orInt(defaults.MaxAttempts, 4)},
		{"RATE_BURST", &cfg.RateBurst, orInt(defaults.RateBurst, 1)},
		{"CONCURRENCY", &cfg.Concurrency, orInt(defaults.Concurrency, 1)},
		{"CIRCUIT_FAILURE_COUNT", &cfg.CircuitFailureCount, orInt(defaults.CircuitFailureCount, 5)},
		{"CIRCUIT_HALF_OPEN_MAX_REQ", &cfg.CircuitHalfOpenMaxReq, orInt(defaults.CircuitHalfOpenMaxReq, 1)},
	}
	for _, i := range ints {
		key := prefix + "_" + i.key
		if *i.dst, err = getEnvAsInt(key, i.fallback); err != nil {
			return ProviderConfig{}, fmt.Errorf("parse %s: %w", key, err)
		}
	}

	if cfg.RateLimit, err = strconv.ParseFloat(getEnv(prefix+"_RATE_LIMIT", strconv.FormatFloat(defaults.RateLimit, 'f', -1, 64)), 64); err != nil {
		return ProviderConfig{}, fmt.Errorf("parse %s_RATE_LIMIT: %w", prefix, err)
	}
	if cfg.CircuitEnabled, err = strconv.ParseBool(getEnv(prefix+"_CIRCUIT_ENABLED", "true")); err != nil {
		return ProviderConfig{}, fmt.Errorf("parse %s_CIRCUIT_ENABLED: %w", prefix, err)
	}

	if err := validate.Struct(cfg); err != nil {
		return ProviderConfig{}, fmt.Errorf("invalid %s provider config: %w", prefix, err)
	}
	return cfg, nil
}

func orDuration(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}

func orInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func defaultDataDir() string {
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "statlink")
	}
	return ".statlink"
}

func defaultLogFormat(appEnv string) string {
	if appEnv == EnvDev {
		return string(logging.FormatConsole)
	}
	return string(logging.FormatJSON)
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
