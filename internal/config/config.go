package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries every tunable the server reads from the environment.
type Config struct {
	Port string

	// Gameplay
	MaxPlayersPerLobby int
	MaxRoundsPerPlayer int
	GemBonus           int

	// Matchmaking
	QueueEntryTTL time.Duration
	SweepInterval time.Duration

	// Sessions left active with no completion are closed after this age.
	SessionTTL time.Duration

	// Optional write-through archive. Empty disables persistence entirely.
	DatabaseURL string
}

// Load reads configuration from the environment, falling back to defaults.
// godotenv is applied by the caller before this runs.
func Load() Config {
	return Config{
		Port:               getEnv("PORT", "3001"),
		MaxPlayersPerLobby: getEnvInt("MAX_PLAYERS_PER_LOBBY", 8),
		MaxRoundsPerPlayer: getEnvInt("MAX_ROUNDS_PER_PLAYER", 4),
		GemBonus:           getEnvInt("GEM_BONUS", 10),
		QueueEntryTTL:      getEnvDuration("QUEUE_ENTRY_TTL", 60*time.Second),
		SweepInterval:      getEnvDuration("SWEEP_INTERVAL", 30*time.Second),
		SessionTTL:         getEnvDuration("SESSION_TTL", 30*time.Minute),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
