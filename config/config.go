package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CookieEnv selects the cookie attribute profile for the deployment.
type CookieEnv string

const (
	// EnvDev serves a cross-site frontend, which requires SameSite=None.
	EnvDev CookieEnv = "dev"
	// EnvProd serves same-site subdomains and can use SameSite=Lax.
	EnvProd CookieEnv = "prod"
)

// Config holds every runtime setting, loaded once from the environment.
type Config struct {
	ServerPort  string
	MongoURI    string
	MongoDBName string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	CookieEnv CookieEnv

	// CORSOrigin is echoed in Access-Control-Allow-Origin. The API is
	// cookie-authenticated, and browsers refuse credentialed responses that
	// claim "*", so the origin must be named explicitly.
	CORSOrigin string

	// TaskWriteLimit/TaskWriteWindow describe the write-verb throttle for
	// task and subtask endpoints. A zero limit means the throttle is not
	// configured and all requests are allowed.
	TaskWriteLimit  int
	TaskWriteWindow time.Duration

	PasswordBlacklistPath string
}

// Load reads the configuration from environment variables. SERVER_PORT,
// MONGO_URI, MONGO_DB_NAME and JWT_SECRET are required.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:            os.Getenv("SERVER_PORT"),
		MongoURI:              os.Getenv("MONGO_URI"),
		MongoDBName:           os.Getenv("MONGO_DB_NAME"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		AccessTokenTTL:        30 * time.Minute,
		RefreshTokenTTL:       24 * time.Hour,
		CookieEnv:             EnvProd,
		CORSOrigin:            os.Getenv("CORS_ORIGIN"),
		PasswordBlacklistPath: os.Getenv("PASSWORD_BLACKLIST_PATH"),
	}

	if cfg.ServerPort == "" {
		return nil, fmt.Errorf("SERVER_PORT is not set in the environment variables")
	}
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is not set in the environment variables")
	}
	if cfg.MongoDBName == "" {
		return nil, fmt.Errorf("MONGO_DB_NAME is not set in the environment variables")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set in the environment variables")
	}

	if v := os.Getenv("ACCESS_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ACCESS_TOKEN_TTL: %v", err)
		}
		cfg.AccessTokenTTL = d
	}
	if v := os.Getenv("REFRESH_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REFRESH_TOKEN_TTL: %v", err)
		}
		cfg.RefreshTokenTTL = d
	}

	switch env := os.Getenv("COOKIE_ENV"); env {
	case "", "prod":
		cfg.CookieEnv = EnvProd
	case "dev":
		cfg.CookieEnv = EnvDev
	default:
		return nil, fmt.Errorf("invalid COOKIE_ENV %q, expected dev or prod", env)
	}

	if v := os.Getenv("TASK_WRITE_RATE"); v != "" {
		limit, window, err := ParseRate(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TASK_WRITE_RATE: %v", err)
		}
		cfg.TaskWriteLimit = limit
		cfg.TaskWriteWindow = window
	}

	return cfg, nil
}

// ParseRate parses a throttle rate of the form "20/minute": a request count
// followed by one of second, minute, hour or day.
func ParseRate(rate string) (int, time.Duration, error) {
	parts := strings.SplitN(rate, "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("rate %q must look like <count>/<period>", rate)
	}

	count, err := strconv.Atoi(parts[0])
	if err != nil || count <= 0 {
		return 0, 0, fmt.Errorf("rate %q has an invalid request count", rate)
	}

	var window time.Duration
	switch parts[1] {
	case "second":
		window = time.Second
	case "minute":
		window = time.Minute
	case "hour":
		window = time.Hour
	case "day":
		window = 24 * time.Hour
	default:
		return 0, 0, fmt.Errorf("rate %q has an unknown period, expected second, minute, hour or day", rate)
	}

	return count, window, nil
}
