package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	CatalogPath string `env:"CATALOG_PATH"`

	// Vacío deshabilita la persistencia: /api/submit sigue puntuando.
	DatabaseURL             string `env:"DATABASE_URL"`
	DBMaxConns              int    `env:"DB_MAX_CONNS" envDefault:"10"`
	DBConnectTimeoutSeconds int    `env:"DB_CONNECT_TIMEOUT_SECONDS" envDefault:"5"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LLMAPIKey  string `env:"LLM_API_KEY"`
	LLMBaseURL string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel   string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"30"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"720"`
	AdminPasswordHash    string `env:"ADMIN_PASSWORD_HASH"`

	SubmitRateWindowSeconds int `env:"SUBMIT_RATE_WINDOW_SECONDS" envDefault:"60"`
	SubmitRateMax           int `env:"SUBMIT_RATE_MAX" envDefault:"10"`

	AdminLoginRateWindowSeconds int `env:"ADMIN_LOGIN_RATE_WINDOW_SECONDS" envDefault:"900"`
	AdminLoginRateMax           int `env:"ADMIN_LOGIN_RATE_MAX" envDefault:"5"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.CORSAllowedOrigins = cleanOrigins(cfg.CORSAllowedOrigins)
	return &cfg, nil
}

func (c *Config) PersistenceEnabled() bool { return c.DatabaseURL != "" }

func (c *Config) GuidanceEnabled() bool { return c.LLMAPIKey != "" }

func (c *Config) AdminEnabled() bool { return c.JWTSecret != "" && c.AdminPasswordHash != "" }

func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWTRefreshTTLMinutes) * time.Minute
}

func (c *Config) SubmitRateWindow() time.Duration {
	return time.Duration(c.SubmitRateWindowSeconds) * time.Second
}

func (c *Config) AdminLoginRateWindow() time.Duration {
	return time.Duration(c.AdminLoginRateWindowSeconds) * time.Second
}

// DBConnectTimeout cae a 5s si no hay un valor positivo.
func (c *Config) DBConnectTimeout() time.Duration {
	if c.DBConnectTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.DBConnectTimeoutSeconds) * time.Second
}

// AllowAllOrigins es true cuando la lista es exactamente "*".
func (c *Config) AllowAllOrigins() bool {
	return len(c.CORSAllowedOrigins) == 1 && c.CORSAllowedOrigins[0] == "*"
}

func cleanOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
