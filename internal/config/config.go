package config

import (
	"os"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	// SheetAPIURL is the Apps-Script-style endpoint of the spreadsheet-backed
	// system of record. Everything business-stateful lives behind it.
	SheetAPIURL string

	// GenAI settings for the tutor and content generation.
	GenAIAPIKey string
	GenAIModel  string

	AuthSecret string

	DBDriver string
	DBDSN    string

	// Local fallback login for when the sheet API is unreachable.
	AdminUser     string
	AdminPassHash string // bcrypt

	HeartbeatInterval time.Duration

	CORSOrigins []string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	// Offline runs embedded sqlite; online deployments default to postgres.
	// DB_DRIVER overrides either way.
	defaultDriver := "sqlite"
	if mode == ModeOnline {
		defaultDriver = "postgres"
	}
	return Config{
		Mode:              mode,
		HTTPAddr:          envOr("HTTP_ADDR", ":8080"),
		SheetAPIURL:       os.Getenv("SHEET_API_URL"),
		GenAIAPIKey:       os.Getenv("GENAI_API_KEY"),
		GenAIModel:        envOr("GENAI_MODEL", "gemini-1.5-flash"),
		AuthSecret:        envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		DBDriver:          envOr("DB_DRIVER", defaultDriver),
		DBDSN:             envOr("DB_DSN", ""),
		AdminUser:         envOr("ADMIN_USER", "admin"),
		AdminPassHash:     os.Getenv("ADMIN_PASS_HASH"),
		HeartbeatInterval: envDuration("HEARTBEAT_INTERVAL", 5*time.Second),
		CORSOrigins:       csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
