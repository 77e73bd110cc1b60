package model

import "time"

// Config is the complete sieve configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Predictor PredictorConfig `yaml:"predictor" mapstructure:"predictor"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	MaxConns          int           `yaml:"max_conns" mapstructure:"max_conns"` // 0 = unbounded
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" mapstructure:"read_header_timeout"`
	CORSOrigin        string        `yaml:"cors_origin" mapstructure:"cors_origin"`
}

// StorageConfig configures the knowledge base database
type StorageConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // SQLite file; empty keeps the knowledge base in memory
}

// PredictorConfig configures the statistical predictor adapter
type PredictorConfig struct {
	Provider          string        `yaml:"provider" mapstructure:"provider"` // http, openai, ollama, "" (disabled)
	URL               string        `yaml:"url" mapstructure:"url"`           // http provider endpoint
	Model             string        `yaml:"model" mapstructure:"model"`
	APIKey            string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"` // 0 = no client timeout
	MaxTokens         int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig configures the snapshot cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Cleanup time.Duration `yaml:"cleanup" mapstructure:"cleanup"`
}

// BatchConfig configures batch identification
type BatchConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LogConfig configures logging
type LogConfig struct {
	JSON  bool   `yaml:"json" mapstructure:"json"`
	Level string `yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":5000",
			MaxConns:          256,
			ReadHeaderTimeout: 5 * time.Second,
			CORSOrigin:        "*",
		},
		Storage: StorageConfig{
			Path: "sieve.db",
		},
		Predictor: PredictorConfig{
			Provider:          "http",
			URL:               "http://localhost:8000/predict",
			Model:             "gpt-4o-mini",
			MaxTokens:         50,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
			Cleanup: 15 * time.Minute,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
