package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/reflux/internal/domain"
)

const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type Config struct {
	ListenAddr      string        // ex: "127.0.0.1:8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Storage            string        // "sqlite" | "redis" | "memory"
	SQLitePath         string        // path to the SQLite database file
	PersistTimeout     time.Duration // deadline for a single snapshot write
	CheckpointInterval time.Duration // interval to re-persist after a failed write, 0 = disabled
	SymptomsFile       string        // optional YAML symptom catalog, empty = builtin
	SymptomsReload     time.Duration // interval to re-read SymptomsFile, 0 = only on demand
	Timezone           string        // IANA name used for day grouping, "Local" by default
	Location           *time.Location
	Locale             string // month names for day titles ("en", "tr")

	// Redis, only read when Storage is "redis"
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password
	RedisDB               int           // Redis DB number
	RedisNamespace        string        // key prefix, ex: "reflux:"
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers

	RateLimitBurst  int // writes a client may burst
	RateLimitPerMin int // writes refilled per client per minute
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenAddr:      getenv("REFLUX_LISTEN_ADDR", "127.0.0.1:8080"),
		ShutdownTimeout: mustDuration("REFLUX_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("REFLUX_LOG_LEVEL", "info"),
		PrettyLog: mustBool("REFLUX_PRETTY_LOG", true),

		// Journal
		Storage:            strings.ToLower(getenv("REFLUX_STORAGE", StorageSQLite)),
		SQLitePath:         getenv("REFLUX_SQLITE_PATH", "reflux.db"),
		PersistTimeout:     mustDuration("REFLUX_PERSIST_TIMEOUT", 5*time.Second),
		CheckpointInterval: mustDuration("REFLUX_CHECKPOINT_INTERVAL", 5*time.Minute),
		SymptomsFile:       getenv("REFLUX_SYMPTOMS_FILE", ""),
		SymptomsReload:     mustDuration("REFLUX_SYMPTOMS_RELOAD_INTERVAL", time.Hour),
		Timezone:           getenv("REFLUX_TIMEZONE", "Local"),
		Locale:             strings.ToLower(getenv("REFLUX_LOCALE", domain.DefaultLocale)),

		// Access restrictions
		AllowedCIDRS: parseAllowedIPs(getenv("REFLUX_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("REFLUX_TRUST_PROXY", false),

		RateLimitBurst:  getenvInt("REFLUX_RATE_LIMIT_BURST", 30),
		RateLimitPerMin: getenvInt("REFLUX_RATE_LIMIT_PER_MIN", 60),
	}

	switch cfg.Storage {
	case StorageSQLite, StorageMemory:
	case StorageRedis:
		loadRedis(cfg)
	default:
		panic(fmt.Sprintf("❌ FATAL: Invalid REFLUX_STORAGE %q (want sqlite, redis or memory)", cfg.Storage))
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid REFLUX_TIMEZONE %q: %v", cfg.Timezone, err))
	}
	cfg.Location = loc

	if !domain.SupportedLocale(cfg.Locale) {
		panic(fmt.Sprintf("❌ FATAL: Unsupported REFLUX_LOCALE %q", cfg.Locale))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("REFLUX_REDIS_ADDR")
	cfg.RedisUser = getenv("REFLUX_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("REFLUX_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("REFLUX_REDIS_PASSWORD", "")
	cfg.RedisDB = getenvInt("REFLUX_REDIS_DB", 0)
	cfg.RedisNamespace = getenv("REFLUX_REDIS_NAMESPACE", "reflux:")
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)

	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: REFLUX_REDIS_PASSWORD is required when REFLUX_REDIS_PASSWORD_REQUIRED=true")
	}
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
