package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr string

	// BuzzMode picks the winner-determination discipline for the whole
	// deployment: "broadcast" (every replica reduces the ordered stream) or
	// "authority" (per-room arbiter over the store).
	BuzzMode string

	// Transport: "memory" (single process) or "nats".
	Transport string
	NATSURL   string

	// DatabaseURL empty means the in-memory store.
	DatabaseURL string

	GeminiAPIKey string
	GeminiURL    string

	LogJSON bool
}

func Load() Config {
	// .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	return Config{
		Addr:         getenv("ADDR", ":8080"),
		BuzzMode:     getenv("BUZZ_MODE", "authority"),
		Transport:    getenv("TRANSPORT", "memory"),
		NATSURL:      getenv("NATS_URL", "nats://127.0.0.1:4222"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiURL:    os.Getenv("GEMINI_URL"),
		LogJSON:      os.Getenv("LOG_JSON") == "1",
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
