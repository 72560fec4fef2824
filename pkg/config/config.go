package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	AI      AIConfig      `yaml:"ai"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

type ServerConfig struct {
	Listen           string   `yaml:"listen"`
	DBPath           string   `yaml:"db_path"`
	AdminToken       string   `yaml:"admin_token"`
	CORSOrigins      []string `yaml:"cors_origins"`
	SeedTenants      []string `yaml:"seed_tenants"`
	TokenRateLimit   int      `yaml:"token_rate_limit"`
	TokenRateWindowS int      `yaml:"token_rate_window_s"`
}

type AIConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	TimeoutS int    `yaml:"timeout_s"`
	Simulate bool   `yaml:"simulate"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default returns a config with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:           ":8080",
			DBPath:           "cordon.db",
			TokenRateLimit:   10,
			TokenRateWindowS: 60,
		},
		AI: AIConfig{
			Model:    "gpt-4o-mini",
			TimeoutS: 30,
			Simulate: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
		Tracing: TracingConfig{
			SampleRatio: 1,
		},
	}
}

// Load reads config from file with env var overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	if listen := os.Getenv("CORDON_LISTEN"); listen != "" {
		cfg.Server.Listen = listen
	}
	if dbPath := os.Getenv("CORDON_DB_PATH"); dbPath != "" {
		cfg.Server.DBPath = dbPath
	}
	if endpoint := os.Getenv("CORDON_AI_ENDPOINT"); endpoint != "" {
		cfg.AI.Endpoint = endpoint
		cfg.AI.Simulate = false
	}
	if key := os.Getenv("CORDON_AI_API_KEY"); key != "" {
		cfg.AI.APIKey = key
	}
	if token := os.Getenv("CORDON_ADMIN_TOKEN"); token != "" {
		cfg.Server.AdminToken = token
	}
	if level := os.Getenv("CORDON_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return ErrMissingListen
	}
	if c.Server.DBPath == "" {
		return ErrMissingDBPath
	}
	if !c.AI.Simulate {
		if c.AI.Endpoint == "" {
			return ErrMissingAIEndpoint
		}
		if !strings.HasPrefix(c.AI.Endpoint, "http://") && !strings.HasPrefix(c.AI.Endpoint, "https://") {
			return &Error{"ai endpoint must be an http(s) URL"}
		}
	}
	if c.AI.TimeoutS <= 0 {
		c.AI.TimeoutS = 30
	}
	if c.Server.TokenRateLimit < 0 {
		c.Server.TokenRateLimit = 0
	}
	if c.Server.TokenRateWindowS <= 0 {
		c.Server.TokenRateWindowS = 60
	}
	if c.Tracing.SampleRatio <= 0 || c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = 1
	}
	return nil
}

var (
	ErrMissingListen     = &Error{"listen address is required"}
	ErrMissingDBPath     = &Error{"database path is required"}
	ErrMissingAIEndpoint = &Error{"ai endpoint is required unless simulate is enabled"}
)

type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
