package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Store     StoreConfig     `yaml:"store"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Notify    NotifyConfig    `yaml:"notify"`
	Seed      bool            `yaml:"seed"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type TransportConfig struct {
	// Mode is "http" or "stdio".
	Mode string `yaml:"mode"`
}

type StoreConfig struct {
	// Backend is "sqlite" or "file".
	Backend  string `yaml:"backend"`
	Slot     string `yaml:"slot"`
	FilePath string `yaml:"file_path"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// AdminConfig holds the plan-date unlock code. CodeHash, a bcrypt hash,
// takes precedence over Code when set.
type AdminConfig struct {
	Code     string `yaml:"code"`
	CodeHash string `yaml:"code_hash"`
}

// NotifyConfig enables cross-process change notifications over NATS when
// NATSURL is set.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Store: StoreConfig{
			Backend:  "sqlite",
			Slot:     "forest_ops_projects_v1",
			FilePath: "forest_ops_projects_v1.json",
		},
		DB: DBConfig{
			Path: "procdash.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Admin: AdminConfig{
			Code: "2468",
		},
		Notify: NotifyConfig{
			Subject: "procdash.projects.changed",
		},
		Seed: true,
	}
}

// Load reads configuration from an optional .env file, an optional YAML
// file and environment variables, in increasing precedence.
func Load() (Config, error) {
	envFile := os.Getenv("PROCDASH_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("PROCDASH_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"PROCDASH_SERVER_HOST":     &cfg.Server.Host,
		"PROCDASH_TRANSPORT":       &cfg.Transport.Mode,
		"PROCDASH_STORE_BACKEND":   &cfg.Store.Backend,
		"PROCDASH_STORE_SLOT":      &cfg.Store.Slot,
		"PROCDASH_STORE_FILE":      &cfg.Store.FilePath,
		"PROCDASH_DB_PATH":         &cfg.DB.Path,
		"PROCDASH_LOG_LEVEL":       &cfg.Log.Level,
		"PROCDASH_ADMIN_CODE":      &cfg.Admin.Code,
		"PROCDASH_ADMIN_CODE_HASH": &cfg.Admin.CodeHash,
		"PROCDASH_NATS_URL":        &cfg.Notify.NATSURL,
		"PROCDASH_NATS_SUBJECT":    &cfg.Notify.Subject,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if portStr := os.Getenv("PROCDASH_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid PROCDASH_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if seedStr := os.Getenv("PROCDASH_SEED"); seedStr != "" {
		seed, err := strconv.ParseBool(seedStr)
		if err != nil {
			return fmt.Errorf("invalid PROCDASH_SEED: %w", err)
		}
		cfg.Seed = seed
	}
	return nil
}

// Validate reports configuration values the server cannot run with.
func (c Config) Validate() error {
	var problems []string
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		problems = append(problems, fmt.Sprintf("transport.mode %q must be http or stdio", c.Transport.Mode))
	}
	switch c.Store.Backend {
	case "sqlite":
		if c.DB.Path == "" {
			problems = append(problems, "db.path is required for the sqlite backend")
		}
	case "file":
		if c.Store.FilePath == "" {
			problems = append(problems, "store.file_path is required for the file backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.backend %q must be sqlite or file", c.Store.Backend))
	}
	if c.Store.Slot == "" {
		problems = append(problems, "store.slot is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Admin.Code == "" && c.Admin.CodeHash == "" {
		problems = append(problems, "admin.code or admin.code_hash is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
