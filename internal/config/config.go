package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultMyFabtotumURL = "https://my.fabtotum.com/myfabtotum/default/call/jsonrpc2"
	DefaultProbeAddr     = "my.fabtotum.com:443"
	DefaultLogLevel      = "info"
)

type Config struct {
	Port      string
	JwtSecret string
	DbURL     string

	MyFabtotumURL string
	ProbeAddr     string
	DeviceSerial  string
	DeviceMAC     string

	RedisAddr     string
	RedisPassword string

	AllowedOrigins []string
	LogLevel       string
}

// Load reads the configuration from a .env file or environment variables and returns a Config struct.
// It returns an error if any required variable is missing.
func Load() (*Config, error) {
	// Try to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	jwtSecret := os.Getenv("JWT_SECRET")
	dbURL := os.Getenv("DATABASE_URL")

	if port == "" || jwtSecret == "" || dbURL == "" {
		return nil, fmt.Errorf("missing required environment variables: PORT=%q, JWT_SECRET=%q, DATABASE_URL=%q", port, jwtSecret, dbURL)
	}

	cfg := &Config{
		Port:      port,
		JwtSecret: jwtSecret,
		DbURL:     dbURL,

		MyFabtotumURL: getenv("MYFABTOTUM_URL", DefaultMyFabtotumURL),
		ProbeAddr:     getenv("MYFABTOTUM_PROBE_ADDR", DefaultProbeAddr),
		DeviceSerial:  os.Getenv("DEVICE_SERIAL"),
		DeviceMAC:     os.Getenv("DEVICE_MAC"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", DefaultLogLevel)),
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
