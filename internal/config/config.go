package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string   `mapstructure:"PORT"`
	Env             string   `mapstructure:"ENV"`
	DataBackend     string   `mapstructure:"DATA_BACKEND"`
	DataDir         string   `mapstructure:"DATA_DIR"`
	SQLitePath      string   `mapstructure:"SQLITE_PATH"`
	DatabaseURL     string   `mapstructure:"DATABASE_URL"`
	JWTSecret       string   `mapstructure:"JWT_SECRET"`
	TokenTTLMinutes int      `mapstructure:"TOKEN_TTL_MINUTES"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
	DefaultLanguage string   `mapstructure:"DEFAULT_LANGUAGE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATA_BACKEND", "file")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("SQLITE_PATH", "clinicd.db")
	v.SetDefault("TOKEN_TTL_MINUTES", 480)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DEFAULT_LANGUAGE", "en")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATA_BACKEND")
	v.BindEnv("DATA_DIR")
	v.BindEnv("SQLITE_PATH")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("TOKEN_TTL_MINUTES")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("DEFAULT_LANGUAGE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Production
// requires an explicit JWT secret; development falls back to a generated
// one.
func (c *Config) Validate() error {
	switch c.DataBackend {
	case "memory", "file", "sqlite", "postgres":
	default:
		return fmt.Errorf("DATA_BACKEND must be \"memory\", \"file\", \"sqlite\", or \"postgres\", got %q", c.DataBackend)
	}
	if c.DataBackend == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when DATA_BACKEND is \"postgres\"")
	}
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	if c.TokenTTLMinutes <= 0 {
		return fmt.Errorf("TOKEN_TTL_MINUTES must be positive, got %d", c.TokenTTLMinutes)
	}
	return nil
}
