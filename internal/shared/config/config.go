package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	DatabaseURL     string
	Env             string

	LogServiceName  string
	LogCollectorURL string
	LogShipping     bool

	Webhooks          map[string]string
	WebhookTimeout    time.Duration
	WebhookRatePerSec float64
	WorkflowSchedules string

	RateLimitRPS   float64
	RateLimitBurst int
}

// webhookEnv maps workflow names onto the env var holding their URL.
var webhookEnv = map[string]string{
	"LinkedIn":         "WEBHOOK_LINKEDIN_URL",
	"FranceTravail":    "WEBHOOK_FRANCE_TRAVAIL_URL",
	"GoogleAlerts":     "WEBHOOK_GOOGLE_ALERTS_URL",
	"CompaniesDetails": "WEBHOOK_COMPANIES_DETAILS_URL",
	"CompanyDetails":   "WEBHOOK_COMPANY_DETAILS_URL",
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	collector := strings.TrimSpace(os.Getenv("LOG_COLLECTOR_URL"))

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     dbURL,
		Env:             env,

		LogServiceName:  getEnv("LOG_SERVICE_NAME", "job-tracker-api"),
		LogCollectorURL: collector,
		// Shipping defaults on exactly when a collector is configured.
		LogShipping: getBool("LOG_SHIPPING_ENABLED", collector != ""),

		Webhooks:          loadWebhooks(),
		WebhookTimeout:    getDuration("WEBHOOK_TIMEOUT", 10*time.Second),
		WebhookRatePerSec: getFloat("WEBHOOK_RATE_PER_SEC", 2),
		WorkflowSchedules: os.Getenv("WORKFLOW_SCHEDULES"),

		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 40),
	}
}

func loadWebhooks() map[string]string {
	out := make(map[string]string, len(webhookEnv))
	for name, key := range webhookEnv {
		if url := strings.TrimSpace(os.Getenv(key)); url != "" {
			out[name] = url
		}
	}
	return out
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config %s invalid bool: %v", key, err)
		return def
	}
	return val
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config %s invalid float: %v", key, err)
		return def
	}
	return val
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config %s invalid duration: %v", key, err)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

// IsDevLike reports whether env allows in-memory fallbacks.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
