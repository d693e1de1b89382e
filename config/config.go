package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything main needs to wire the portal together. Values
// come from the environment, with an optional .env file loaded first.
type Config struct {
	ListenAddr    string
	DBPath        string
	RedisConn     string
	SessionSecret []byte
	SessionTTL    time.Duration

	StreamHeartbeat time.Duration
	CacheTTL        time.Duration

	// Bootstrap credentials used only when the users table is empty.
	AdminUsername string
	AdminPassword string

	Debug bool
}

// Load reads configuration from the environment. A missing .env file is not
// an error; a missing session secret or database path is.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:      ":8080",
		DBPath:          os.Getenv("DB_PATH"),
		RedisConn:       os.Getenv("REDIS_CONNECTION_STRING"),
		SessionTTL:      30 * 24 * time.Hour,
		StreamHeartbeat: 30 * time.Second,
		CacheTTL:        time.Minute,
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if cfg.DBPath == "" {
		return nil, errors.New("missing DB_PATH")
	}

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		return nil, errors.New("missing SESSION_SECRET")
	}
	cfg.SessionSecret = []byte(secret)

	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, errors.New("invalid SESSION_TTL")
		}
		cfg.SessionTTL = d
	}
	if v := os.Getenv("STREAM_HEARTBEAT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, errors.New("invalid STREAM_HEARTBEAT")
		}
		cfg.StreamHeartbeat = d
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, errors.New("invalid CACHE_TTL")
		}
		cfg.CacheTTL = d
	}
	cfg.AdminUsername = os.Getenv("ADMIN_USERNAME")
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin"
	}
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")

	if v, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil {
		cfg.Debug = v
	}

	return cfg, nil
}
