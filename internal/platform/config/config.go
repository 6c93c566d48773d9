// Package config builds runtime configuration from the environment so main
// stays lean. A .env file is honored when present; real environment
// variables always win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"fleetworks/internal/threshold"
	"fleetworks/pkg/domain"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
}

// Database captures Postgres connectivity.
type Database struct {
	DSN string
}

// Redis captures cache connectivity. An empty URL disables caching.
type Redis struct {
	URL          string
	CacheTTL     time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// TestHistorySource configures the vehicle test-history lookup (OAuth
// client-credentials token endpoint plus an API key on every request).
type TestHistorySource struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	APIKey       string
	Timeout      time.Duration
}

// RegistrationSource configures the vehicle registration lookup.
type RegistrationSource struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Routing captures reminder recipients per responsibility.
type Routing struct {
	OfficeRecipients   []string
	WorkshopRecipients []string
}

// Kafka captures the reminder decision topic.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Sweep captures the cron schedules the sweeper binary runs on.
type Sweep struct {
	SyncSchedule     string
	ReminderSchedule string
}

// Config is everything the binaries need, resolved once at startup.
type Config struct {
	Server       Server
	Database     Database
	Redis        Redis
	TestHistory  TestHistorySource
	Registration RegistrationSource
	Windows      threshold.Windows
	Fixtures     []domain.VRM
	Routing      Routing
	Kafka        Kafka
	Sweep        Sweep
}

// FromEnv loads configuration, reading .env first when one exists.
func FromEnv() (Config, error) {
	// Missing .env is fine; containers set real environment variables.
	_ = godotenv.Load()

	windows, err := windowsFromEnv()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: Server{
			Addr:          env("FLEETWORKS_ADDR", ":8080"),
			JWTSigningKey: env("JWT_SIGNING_KEY", ""),
			JWTIssuer:     env("JWT_ISSUER", "fleetworks"),
		},
		Database: Database{
			DSN: env("DATABASE_DSN", ""),
		},
		Redis: Redis{
			URL:          env("REDIS_URL", ""),
			CacheTTL:     envDuration("SOURCE_CACHE_TTL", 15*time.Minute),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		TestHistory: TestHistorySource{
			BaseURL:      env("MOT_API_BASE_URL", ""),
			TokenURL:     env("MOT_TOKEN_URL", ""),
			ClientID:     env("MOT_CLIENT_ID", ""),
			ClientSecret: env("MOT_CLIENT_SECRET", ""),
			Scope:        env("MOT_SCOPE", ""),
			APIKey:       env("MOT_API_KEY", ""),
			Timeout:      envDuration("MOT_TIMEOUT", 10*time.Second),
		},
		Registration: RegistrationSource{
			BaseURL: env("VES_API_BASE_URL", ""),
			APIKey:  env("VES_API_KEY", ""),
			Timeout: envDuration("VES_TIMEOUT", 10*time.Second),
		},
		Windows:  windows,
		Fixtures: fixturesFromEnv(),
		Routing: Routing{
			OfficeRecipients:   envList("REMIND_OFFICE_RECIPIENTS"),
			WorkshopRecipients: envList("REMIND_WORKSHOP_RECIPIENTS"),
		},
		Kafka: Kafka{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   env("KAFKA_REMINDER_TOPIC", "fleetworks.reminder-decisions"),
		},
		Sweep: Sweep{
			SyncSchedule:     env("SYNC_SCHEDULE", "15 2 * * *"),
			ReminderSchedule: env("REMINDER_SCHEDULE", "0 7 * * *"),
		},
	}

	if cfg.Server.JWTSigningKey == "" {
		return Config{}, fmt.Errorf("JWT_SIGNING_KEY is required")
	}
	return cfg, nil
}

func windowsFromEnv() (threshold.Windows, error) {
	w := threshold.DefaultWindows()
	var err error
	if w.DateLeadDays, err = envInt("WINDOW_DATE_LEAD_DAYS", w.DateLeadDays); err != nil {
		return w, err
	}
	if w.MileageLead, err = envInt64("WINDOW_MILEAGE_LEAD", w.MileageLead); err != nil {
		return w, err
	}
	if w.HoursLead, err = envInt64("WINDOW_HOURS_LEAD", w.HoursLead); err != nil {
		return w, err
	}
	return w, nil
}

func fixturesFromEnv() []domain.VRM {
	raw := envList("SOURCE_TEST_FIXTURES")
	out := make([]domain.VRM, 0, len(raw))
	for _, v := range raw {
		out = append(out, domain.VRM(strings.ToUpper(v)))
	}
	return out
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envInt64(key string, fallback int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
