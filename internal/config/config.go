package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module provides Config loaded from the environment.
var Module = fx.Module("config",
	fx.Provide(Load),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPPort    string
	FrontendURL string

	Telemetry TelemetryConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	SeedSampleHomes   bool

	MQTT       MQTTConfig
	Thresholds ThresholdConfig
	Ingest     IngestConfig
	Broadcast  BroadcastConfig
	Redis      RedisConfig
	Query      QueryConfig
	RateLimit  RateLimitConfig
	MetricPush MetricPushConfig
	Simulator  SimulatorConfig
}

// TelemetryConfig covers logging and OpenTelemetry export.
type TelemetryConfig struct {
	LogLevel      string
	LogFormat     string
	OtelEnabled   bool
	OtlpEndpoint  string
	OtlpProtocol  string
	SamplingRatio float64
}

type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
	QoS      int
}

// Enabled reports whether a broker is configured.
func (c MQTTConfig) Enabled() bool {
	return strings.TrimSpace(c.Broker) != ""
}

type ThresholdConfig struct {
	High       float64
	Low        float64
	ConfigPath string
}

type IngestConfig struct {
	Workers        int
	QueueSize      int
	PersistTimeout time.Duration
	ValidateHomes  bool
}

type BroadcastConfig struct {
	SubscriberBuffer int
	RedisEnabled     bool
	RedisChannel     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type QueryConfig struct {
	StatisticsWindow  time.Duration
	HistoryWindow     time.Duration
	AlertsDefaultSize int
}

type RateLimitConfig struct {
	Enabled     bool
	StreamRate  float64
	StreamBurst int
}

type MetricPushConfig struct {
	Exporter  string
	Endpoint  string
	AuthToken string
	Interval  time.Duration
}

type SimulatorConfig struct {
	Homes    int
	Interval time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "gridpulse"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPPort:    getenv("HTTP_PORT", getenv("PORT", "5000")),
		FrontendURL: strings.TrimSpace(getenv("FRONTEND_URL", "http://localhost:3000")),

		Telemetry: TelemetryConfig{
			LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:     strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			OtelEnabled:   getenvBool("OTEL_ENABLED", false),
			OtlpEndpoint:  strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317"))),
			OtlpProtocol:  strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			SamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "smartgrid"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		SeedSampleHomes:   getenvBool("SEED_SAMPLE_HOMES", false),

		MQTT: MQTTConfig{
			Broker:   strings.TrimSpace(getenvAllowEmpty("MQTT_BROKER", "mqtt://localhost:1883")),
			ClientID: strings.TrimSpace(getenv("MQTT_CLIENT_ID", "")),
			Topic:    strings.TrimSpace(getenv("MQTT_TOPIC", "home/+/consumption")),
			QoS:      getenvInt("MQTT_QOS", 1),
		},
		Thresholds: ThresholdConfig{
			High:       getenvFloat("ALERT_HIGH_THRESHOLD", 1200),
			Low:        getenvFloat("ALERT_LOW_THRESHOLD", 250),
			ConfigPath: strings.TrimSpace(getenv("THRESHOLDS_CONFIG_PATH", "")),
		},
		Ingest: IngestConfig{
			Workers:        getenvInt("INGEST_WORKERS", 8),
			QueueSize:      getenvInt("INGEST_QUEUE_SIZE", 1024),
			PersistTimeout: getenvDuration("INGEST_PERSIST_TIMEOUT", 2*time.Second),
			ValidateHomes:  getenvBool("INGEST_VALIDATE_HOMES", false),
		},
		Broadcast: BroadcastConfig{
			SubscriberBuffer: getenvInt("BROADCAST_SUBSCRIBER_BUFFER", 64),
			RedisEnabled:     getenvBool("BROADCAST_REDIS_ENABLED", false),
			RedisChannel:     strings.TrimSpace(getenv("BROADCAST_REDIS_CHANNEL", "gridpulse:events")),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "localhost:6379")),
			Password: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Query: QueryConfig{
			StatisticsWindow:  getenvDuration("STATISTICS_WINDOW", 24*time.Hour),
			HistoryWindow:     getenvDuration("HISTORY_WINDOW", 24*time.Hour),
			AlertsDefaultSize: getenvInt("ALERTS_DEFAULT_LIMIT", 50),
		},
		RateLimit: RateLimitConfig{
			Enabled:     getenvBool("RATE_LIMIT_ENABLED", false),
			StreamRate:  getenvFloat("RATE_LIMIT_STREAM_RATE", 1),
			StreamBurst: getenvInt("RATE_LIMIT_STREAM_BURST", 5),
		},
		MetricPush: MetricPushConfig{
			Exporter:  strings.ToLower(strings.TrimSpace(getenv("METRICS_PUSH_EXPORTER", ""))),
			Endpoint:  strings.TrimSpace(getenv("METRICS_PUSH_ENDPOINT", "")),
			AuthToken: strings.TrimSpace(getenv("METRICS_PUSH_AUTH_TOKEN", "")),
			Interval:  getenvDuration("METRICS_PUSH_INTERVAL", time.Minute),
		},
		Simulator: SimulatorConfig{
			Homes:    getenvInt("SIMULATOR_HOMES", 10),
			Interval: getenvDuration("SIMULATOR_INTERVAL", 5*time.Second),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvAllowEmpty distinguishes an unset key from one explicitly set to "".
func getenvAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
