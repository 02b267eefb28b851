package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/satriahrh/mentalhs/server/adapters/llm"
	"github.com/satriahrh/mentalhs/server/adapters/mongo"
	"github.com/satriahrh/mentalhs/server/adapters/translate"
)

// Storage backends for sessions
const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Settings store backends
const (
	SettingsMemory = "memory"
	SettingsBadger = "badger"
)

// Speech providers
const (
	SpeechMock   = "mock"
	SpeechGoogle = "google"
)

const (
	defaultPort         = "8080"
	defaultGeminiModel  = "gemini-2.0-flash"
	defaultSettingsPath = "data/settings"
)

// Config holds all server configuration
type Config struct {
	Port          string                     `yaml:"port"`
	JWTSecret     string                     `yaml:"jwt_secret"`
	AdminKey      string                     `yaml:"admin_key"`
	Storage       string                     `yaml:"storage"`
	SettingsStore string                     `yaml:"settings_store"`
	SettingsPath  string                     `yaml:"settings_path"`
	Speech        string                     `yaml:"speech_provider"`
	Gemini        llm.GeminiConfig           `yaml:"gemini"`
	Mongo         mongo.Config               `yaml:"mongo"`
	Translate     translate.GoogleFreeConfig `yaml:"translate"`
}

// Load reads .env (if present), then the optional YAML file named by
// CONFIG_FILE, then environment variables. Environment wins.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile decodes a YAML config file into cfg
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.AdminKey, "ADMIN_KEY")
	setString(&cfg.Storage, "STORAGE")
	setString(&cfg.SettingsStore, "SETTINGS_STORE")
	setString(&cfg.SettingsPath, "SETTINGS_PATH")
	setString(&cfg.Speech, "SPEECH_PROVIDER")
	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL")
	setString(&cfg.Mongo.URI, "MONGODB_URI")
	setString(&cfg.Mongo.Database, "MONGODB_DATABASE")
	setString(&cfg.Translate.Endpoint, "TRANSLATE_ENDPOINT")

	if v := os.Getenv("GEMINI_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("invalid GEMINI_TEMPERATURE %q: %w", v, err)
		}
		cfg.Gemini.Temperature = float32(f)
	}
	if v := os.Getenv("GEMINI_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GEMINI_TIMEOUT_SECONDS %q: %w", v, err)
		}
		cfg.Gemini.TimeoutSeconds = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.Storage == "" {
		cfg.Storage = StorageMemory
	}
	if cfg.SettingsStore == "" {
		cfg.SettingsStore = SettingsMemory
	}
	if cfg.SettingsStore == SettingsBadger && cfg.SettingsPath == "" {
		cfg.SettingsPath = defaultSettingsPath
	}
	if cfg.Speech == "" {
		cfg.Speech = SpeechMock
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = defaultGeminiModel
	}
}

// Validate checks the backend selections and value ranges
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StorageMongo:
	default:
		return fmt.Errorf("storage must be %s or %s, got %q", StorageMemory, StorageMongo, c.Storage)
	}

	switch c.SettingsStore {
	case SettingsMemory, SettingsBadger:
	default:
		return fmt.Errorf("settings_store must be %s or %s, got %q", SettingsMemory, SettingsBadger, c.SettingsStore)
	}

	switch c.Speech {
	case SpeechMock, SpeechGoogle:
	default:
		return fmt.Errorf("speech_provider must be %s or %s, got %q", SpeechMock, SpeechGoogle, c.Speech)
	}

	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		return fmt.Errorf("gemini temperature must be between 0 and 2, got %f", c.Gemini.Temperature)
	}
	if c.Gemini.TimeoutSeconds < 0 {
		return fmt.Errorf("gemini timeout must not be negative, got %d", c.Gemini.TimeoutSeconds)
	}
	return nil
}
