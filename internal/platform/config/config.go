package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration read from the environment.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Store    Store
	Notify   Notify
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// IsDevelopment switches on human-readable logs and the in-memory store
// fallback when no database is configured.
func (s Server) IsDevelopment() bool {
	return s.Environment == "development" || s.Environment == "dev"
}

type Postgres struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
}

// Redis configures the optional company baseline cache. An empty URL
// disables it.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// Kafka configures the company change publisher. With no brokers the
// dispatcher logs notifications instead.
type Kafka struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// Store bounds every persistence call.
type Store struct {
	CallTimeout    time.Duration
	MaxRetries     uint64
	InitialBackoff time.Duration
	SaveAttempts   int
}

// Notify sizes the company-wide fan-out dispatcher.
type Notify struct {
	QueueSize      int
	Workers        int
	BatchSize      int
	PublishRetries uint64
	JobRetries     uint64
}

// FromEnv builds the configuration from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []string
	r := envReader{errs: &errs}

	cfg := Config{
		Server: Server{
			Addr:            r.str("DASHBOARD_ADDR", ":8080"),
			Environment:     r.str("DASHBOARD_ENV", "development"),
			LogLevel:        r.str("LOG_LEVEL", "info"),
			RequestTimeout:  r.duration("DASHBOARD_REQUEST_TIMEOUT", 10*time.Second),
			ShutdownTimeout: r.duration("DASHBOARD_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: Postgres{
			DSN:             r.str("DATABASE_URL", ""),
			MaxOpenConns:    r.integer("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    r.integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: r.duration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrateOnStart:  r.boolean("DATABASE_MIGRATE_ON_START", true),
		},
		Redis: Redis{
			URL:          r.str("REDIS_URL", ""),
			PoolSize:     r.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: r.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  r.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  r.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: r.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     r.duration("REDIS_CACHE_TTL", 5*time.Minute),
		},
		Kafka: Kafka{
			Brokers:  r.list("KAFKA_BROKERS"),
			Topic:    r.str("KAFKA_TOPIC", "dashboard.company-config-changed"),
			ClientID: r.str("KAFKA_CLIENT_ID", "dashboard-service"),
		},
		Store: Store{
			CallTimeout:    r.duration("STORE_CALL_TIMEOUT", 2*time.Second),
			MaxRetries:     uint64(r.integer("STORE_MAX_RETRIES", 3)),
			InitialBackoff: r.duration("STORE_INITIAL_BACKOFF", 50*time.Millisecond),
			SaveAttempts:   r.integer("STORE_SAVE_ATTEMPTS", 3),
		},
		Notify: Notify{
			QueueSize:      r.integer("NOTIFY_QUEUE_SIZE", 256),
			Workers:        r.integer("NOTIFY_WORKERS", 2),
			BatchSize:      r.integer("NOTIFY_BATCH_SIZE", 100),
			PublishRetries: uint64(r.integer("NOTIFY_PUBLISH_RETRIES", 5)),
			JobRetries:     uint64(r.integer("NOTIFY_JOB_RETRIES", 2)),
		},
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

type envReader struct {
	errs *[]string
}

func (r envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (r envReader) integer(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		*r.errs = append(*r.errs, fmt.Sprintf("%s must be a non-negative integer", key))
		return def
	}
	return n
}

func (r envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		*r.errs = append(*r.errs, fmt.Sprintf("%s must be a non-negative duration", key))
		return def
	}
	return d
}

func (r envReader) boolean(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Sprintf("%s must be a boolean", key))
		return def
	}
	return b
}

func (r envReader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
