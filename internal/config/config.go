package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Auth     AuthConfig     `yaml:"auth"`
	Uploads  UploadConfig   `yaml:"uploads"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port    int  `yaml:"port"`
	DevMode bool `yaml:"dev_mode"`
}

// StorageConfig selects and configures the document store backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // file, sqlite or postgres
	Key     string `yaml:"key"`     // stable instance identifier
	Dir     string `yaml:"dir"`     // file backend
	Path    string `yaml:"path"`    // sqlite backend
	DSN     string `yaml:"dsn"`     // postgres backend
}

// ScheduleConfig covers the coordinator defaults.
type ScheduleConfig struct {
	DefaultSwitchoverTime string        `yaml:"default_switchover_time"`
	RefreshInterval       time.Duration `yaml:"refresh_interval"`
}

// Principal is a configured API user. PasswordHash is a bcrypt hash.
type Principal struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	IsParent     bool   `yaml:"is_parent"`
}

// AuthConfig configures token signing and the configured principals.
type AuthConfig struct {
	JWTSecret  string      `yaml:"jwt_secret"`
	Issuer     string      `yaml:"issuer"`
	Principals []Principal `yaml:"principals"`
}

// UploadConfig configures the item image upload endpoint.
type UploadConfig struct {
	Dir        string `yaml:"dir"`
	PublicPath string `yaml:"public_path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			Key:     "default",
			Dir:     "data",
			Path:    "data/schoolbag.db",
		},
		Schedule: ScheduleConfig{
			DefaultSwitchoverTime: "12:00",
			RefreshInterval:       time.Minute,
		},
		Auth: AuthConfig{
			Issuer: "schoolbag-go",
		},
		Uploads: UploadConfig{
			Dir:        "data/uploads",
			PublicPath: "/uploads",
		},
	}
}

// Load reads the YAML file at path, falling back to defaults when the
// file does not exist. Environment variables PORT and SCHOOLBAG_JWT_SECRET
// override the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}
	if secret := os.Getenv("SCHOOLBAG_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}

	if cfg.Storage.Key == "" {
		cfg.Storage.Key = "default"
	}
	if cfg.Schedule.RefreshInterval <= 0 {
		cfg.Schedule.RefreshInterval = time.Minute
	}
	return cfg, nil
}
