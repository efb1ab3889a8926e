// Package config loads server settings from the environment, optionally
// seeded from a .env file.
//
// Real environment variables win over the file, so a deployment can
// override any value without editing it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          int
	DBPath        string
	LogLevel      slog.Level
	JWTSecret     string
	SessionTTL    time.Duration
	SecureCookies bool
	GitHub        GitHubConfig
	Admin         AdminConfig
}

type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Enabled reports whether GitHub OAuth can be offered.
func (g GitHubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// AdminConfig names an account to create or promote at startup. Empty Email
// disables it.
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

// Load reads envFile (ignored if it does not exist; "" skips it) and then the
// process environment.
//
//	PORT                 8080
//	DB_PATH              data/devrel.db
//	LOG_LEVEL            info           debug | info | warn | error
//	JWT_SECRET           (required)     at least 16 characters
//	SESSION_TTL          24h            any time.ParseDuration value
//	COOKIE_SECURE        false
//	GITHUB_CLIENT_ID, GITHUB_CLIENT_SECRET, GITHUB_CALLBACK_URL
//	ADMIN_EMAIL, ADMIN_PASSWORD, ADMIN_NAME
func Load(envFile string) (Config, error) {
	get, err := source(envFile)
	if err != nil {
		return Config{}, err
	}

	var cfg Config

	if cfg.Port, err = strconv.Atoi(get("PORT", "8080")); err != nil || cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("config: invalid PORT %q", get("PORT", ""))
	}
	store, err := loadStore(get)
	if err != nil {
		return Config{}, err
	}
	cfg.DBPath, cfg.LogLevel = store.DBPath, store.LogLevel

	cfg.JWTSecret = get("JWT_SECRET", "")
	if len(cfg.JWTSecret) < 16 {
		return Config{}, errors.New("config: JWT_SECRET must be set to at least 16 characters")
	}

	if cfg.SessionTTL, err = time.ParseDuration(get("SESSION_TTL", "24h")); err != nil || cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("config: invalid SESSION_TTL %q", get("SESSION_TTL", ""))
	}

	if cfg.SecureCookies, err = strconv.ParseBool(get("COOKIE_SECURE", "false")); err != nil {
		return Config{}, fmt.Errorf("config: invalid COOKIE_SECURE: %w", err)
	}

	cfg.GitHub = GitHubConfig{
		ClientID:     get("GITHUB_CLIENT_ID", ""),
		ClientSecret: get("GITHUB_CLIENT_SECRET", ""),
		CallbackURL:  get("GITHUB_CALLBACK_URL", fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)),
	}

	cfg.Admin = AdminConfig{
		Email:    strings.TrimSpace(get("ADMIN_EMAIL", "")),
		Password: get("ADMIN_PASSWORD", ""),
		Name:     get("ADMIN_NAME", ""),
	}
	return cfg, nil
}

// StoreConfig is the part of Config that offline tools such as cmd/seed need.
// It does not require JWT_SECRET.
type StoreConfig struct {
	DBPath   string
	LogLevel slog.Level
}

// LoadStore reads DB_PATH and LOG_LEVEL the same way Load does.
func LoadStore(envFile string) (StoreConfig, error) {
	get, err := source(envFile)
	if err != nil {
		return StoreConfig{}, err
	}
	return loadStore(get)
}

func loadStore(get lookup) (StoreConfig, error) {
	sc := StoreConfig{DBPath: get("DB_PATH", "data/devrel.db")}
	if err := sc.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return StoreConfig{}, fmt.Errorf("config: invalid LOG_LEVEL: %w", err)
	}
	return sc, nil
}

// lookup returns the value of key, or def when it is unset or empty.
type lookup func(key, def string) string

func source(envFile string) (lookup, error) {
	file := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			file = vals
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: reading %s: %w", envFile, err)
		}
	}
	return func(key, def string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		if v := file[key]; v != "" {
			return v
		}
		return def
	}, nil
}
