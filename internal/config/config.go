package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
		StateTTL string `yaml:"state_ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Session struct {
		AutosaveInterval    string `yaml:"autosave_interval"`
		AutoAdvanceDelay    string `yaml:"auto_advance_delay"`
		GradeSpatialWidgets bool   `yaml:"grade_spatial_widgets"`
		// StateBackend picks where quiz state is saved: memory, redis or postgres.
		StateBackend string `yaml:"state_backend"`
	} `yaml:"session"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Media struct {
		Type           string `yaml:"type"`
		LocalPath      string `yaml:"local_path"`
		URLPrefix      string `yaml:"url_prefix"`
		MaxUploadBytes int64  `yaml:"max_upload_bytes"`
		MinioEndpoint  string `yaml:"minio_endpoint"`
		MinioAccessKey string `yaml:"minio_access_key"`
		MinioSecretKey string `yaml:"minio_secret_key"`
		MinioBucket    string `yaml:"minio_bucket"`
		MinioUseSSL    bool   `yaml:"minio_use_ssl"`
	} `yaml:"media"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
