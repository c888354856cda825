package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Auth     AuthConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AllowedOrigins []string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

// AuthConfig keeps raw values; service.NewAuthService parses and validates them.
type AuthConfig struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     string
	RefreshTokenTTL    string
	BcryptCost         string
	CookieSecure       string
	CookieSameSite     string
	CookieDomain       string
	CookiePath         string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Server: ServerConfig{
			Port:           getenv("PORT", "4000"),
			GinMode:        getenv("GIN_MODE", "release"),
			AllowedOrigins: splitList(getenv("CORS_ORIGIN", "http://localhost:5173")),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Auth: AuthConfig{
			AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
			RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
			AccessTokenTTL:     getenv("ACCESS_TOKEN_TTL", "1h"),
			RefreshTokenTTL:    getenv("REFRESH_TOKEN_TTL", "240h"),
			BcryptCost:         os.Getenv("BCRYPT_COST"),
			CookieSecure:       os.Getenv("AUTH_COOKIE_SECURE"),
			CookieSameSite:     getenv("AUTH_COOKIE_SAMESITE", "none"),
			CookieDomain:       os.Getenv("AUTH_COOKIE_DOMAIN"),
			CookiePath:         getenv("AUTH_COOKIE_PATH", "/"),
		},
		Log: LogConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "json"),
		},
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
