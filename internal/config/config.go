package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is populated from SENSEI_* environment variables.
type Config struct {
	Environment string `envconfig:"environment" default:"dev"`

	APIBaseURL    string        `envconfig:"api_base_url" default:"http://localhost:8000"`
	ListenAddress string        `envconfig:"listen_address" default:":8080"`
	PollInterval  time.Duration `envconfig:"poll_interval" default:"2500ms"`

	// MySQLDSN enables the persistent result store; empty means in-memory.
	MySQLDSN string `envconfig:"mysql_dsn"`

	GraphCacheDir string        `envconfig:"graph_cache_dir" default:".cache/graphs"`
	GraphCacheTTL time.Duration `envconfig:"graph_cache_ttl" default:"24h"`

	// UseMock serves generated data instead of talking to a real backend.
	UseMock bool `envconfig:"use_mock"`
}

// LoadFromEnv loads the configuration from environment variables and an
// optional .env file.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Overload()

	config := new(Config)
	if err := envconfig.Process("sensei", config); err != nil {
		return nil, err
	}
	return config, nil
}

// IsEnvProduction reports whether the application runs in production mode.
func (c *Config) IsEnvProduction() bool {
	return c.Environment == "prod" || c.Environment == "production"
}
