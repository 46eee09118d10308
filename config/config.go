package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Gemini Gemini `yaml:"gemini"`
	HTTP   HTTP   `yaml:"http"`
	Auth   Auth   `yaml:"auth"`
	DB     DB     `yaml:"db"`
	Debug  bool   `yaml:"debug"`
}

type Gemini struct {
	// Gemini API key; the assistant answers with canned replies when empty
	APIKey string `yaml:"api_key" example:"AIzaSy..."`
	// Model name
	Model string `yaml:"model" example:"gemini-1.5-pro" validate:"required"`
	// Per-call deadline for the generation request
	Timeout time.Duration `yaml:"timeout" example:"30s" validate:"gt=0"`
}

type HTTP struct {
	// Listen address
	Addr string `yaml:"addr" example:":8080" validate:"required"`
	// Externally reachable base URL, used in verification links
	PublicBaseURL string `yaml:"public_base_url" example:"https://aidbridge.example.org" validate:"required,url"`
	// Requests per second allowed per client IP
	RateLimit float64 `yaml:"rate_limit" example:"20" validate:"gt=0"`
}

type Auth struct {
	// HMAC secret for issued JWTs
	JWTSecret string `yaml:"jwt_secret" validate:"required,min=16"`
	// Token lifetime
	TokenTTL time.Duration `yaml:"token_ttl" example:"24h" validate:"gt=0"`
	// Shared secret for admin endpoints; admin endpoints are disabled when empty
	AdminToken string `yaml:"admin_token"`
}

type DB struct {
	// SQLite database path
	Path string `yaml:"path" example:"aidbridge.db" validate:"required"`
}

// GenerationAPIKey implements domain.CredentialProvider.
func (c *Config) GenerationAPIKey() (string, bool) {
	key := strings.TrimSpace(c.Gemini.APIKey)
	return key, key != ""
}

func defaults() Config {
	return Config{
		Gemini: Gemini{Model: "gemini-1.5-pro", Timeout: 30 * time.Second},
		HTTP:   HTTP{Addr: ":8080", PublicBaseURL: "http://localhost:8080", RateLimit: 20},
		Auth:   Auth{TokenTTL: 24 * time.Hour},
		DB:     DB{Path: "aidbridge.db"},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path, then the
// environment. A .env file in the working directory is loaded first without overriding
// variables already set.
func Load(path string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.Errorf("failed to load .env: %w", err)
	}
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	result := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, oops.Errorf("failed to read config file: %w", err)
		default:
			if err = yaml.Unmarshal(data, &result); err != nil {
				return nil, oops.Errorf("failed to parse YAML config: %w", err)
			}
		}
	}

	if err := applyEnv(&result, lookup); err != nil {
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("GEMINI_API_KEY", &cfg.Gemini.APIKey)
	str("GEMINI_MODEL", &cfg.Gemini.Model)
	str("HTTP_ADDR", &cfg.HTTP.Addr)
	str("PUBLIC_BASE_URL", &cfg.HTTP.PublicBaseURL)
	str("JWT_SECRET", &cfg.Auth.JWTSecret)
	str("ADMIN_TOKEN", &cfg.Auth.AdminToken)
	str("DB_PATH", &cfg.DB.Path)

	durations := map[string]*time.Duration{
		"GEMINI_TIMEOUT": &cfg.Gemini.Timeout,
		"TOKEN_TTL":      &cfg.Auth.TokenTTL,
	}
	for key, dst := range durations {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return oops.With("key", key).Errorf("invalid duration: %w", err)
			}
			*dst = d
		}
	}

	if v, ok := lookup("RATE_LIMIT"); ok && v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return oops.With("key", "RATE_LIMIT").Errorf("invalid rate limit: %w", err)
		}
		cfg.HTTP.RateLimit = rate
	}

	if v, ok := lookup("DEBUG"); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return oops.With("key", "DEBUG").Errorf("invalid bool: %w", err)
		}
		cfg.Debug = debug
	}
	return nil
}
