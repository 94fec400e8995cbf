package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AI struct {
		Provider    string  `yaml:"provider"`
		Model       string  `yaml:"model"`
		APIKey      string  `yaml:"api_key"`
		BaseURL     string  `yaml:"base_url"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"ai"`
	Guard struct {
		ContinuityEnabled bool    `yaml:"continuity_enabled"`
		SafeModeEnabled   bool    `yaml:"safe_mode_enabled"`
		RecencyWeight     float64 `yaml:"recency_weight"`
		MaxCharacters     int     `yaml:"max_characters"`
		MaxLocations      int     `yaml:"max_locations"`
		MaxRounds         int     `yaml:"max_rounds"`
	} `yaml:"guard"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	var cfg Config
	cfg.AI.Provider = "gemini"
	cfg.AI.Temperature = 0.7
	cfg.Guard.ContinuityEnabled = true
	cfg.Guard.SafeModeEnabled = true
	cfg.Guard.RecencyWeight = 1.0
	cfg.Guard.MaxCharacters = 6
	cfg.Guard.MaxLocations = 4
	cfg.Guard.MaxRounds = 6
	return &cfg
}

// LoadConfig reads the YAML config file, then applies .env and environment
// overrides. A missing file is not an error; defaults apply.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if file, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if apiKey := os.Getenv("WRITEWME_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if provider := os.Getenv("WRITEWME_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if model := os.Getenv("WRITEWME_AI_MODEL"); model != "" {
		cfg.AI.Model = model
	}
	if baseURL := os.Getenv("WRITEWME_AI_BASE_URL"); baseURL != "" {
		cfg.AI.BaseURL = baseURL
	}
	if raw := os.Getenv("WRITEWME_SAFE_MODE"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			cfg.Guard.SafeModeEnabled = v
		}
	}
	if raw := os.Getenv("WRITEWME_CONTINUITY"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			cfg.Guard.ContinuityEnabled = v
		}
	}

	normalize(cfg)
	return cfg, nil
}

func normalize(cfg *Config) {
	if cfg.Guard.RecencyWeight < 0 {
		cfg.Guard.RecencyWeight = 0
	}
	if cfg.Guard.RecencyWeight > 2 {
		cfg.Guard.RecencyWeight = 2
	}
	if cfg.Guard.MaxCharacters <= 0 {
		cfg.Guard.MaxCharacters = 6
	}
	if cfg.Guard.MaxLocations <= 0 {
		cfg.Guard.MaxLocations = 4
	}
	if cfg.Guard.MaxRounds <= 0 {
		cfg.Guard.MaxRounds = 6
	}
}
