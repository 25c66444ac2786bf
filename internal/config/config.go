package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all server configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	JWT     JWTConfig     `yaml:"jwt"`
	Redis   RedisConfig   `yaml:"redis"`
	Session SessionConfig `yaml:"session"`
	Mix     MixConfig     `yaml:"mix"`
}

// ServerConfig holds server-specific settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// JWTConfig holds JWT authentication settings
type JWTConfig struct {
	Issuer              string `yaml:"issuer"`
	PublicKeyURL        string `yaml:"public_key_url"`
	PublicKeyRefreshHrs int    `yaml:"public_key_refresh_hours"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address         string `yaml:"address"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	BlacklistPrefix string `yaml:"blacklist_prefix"`
}

// SessionConfig holds session settings
type SessionConfig struct {
	MaxPlayers int `yaml:"max_players"`
}

// MixConfig holds the item combination settings
type MixConfig struct {
	DatabasePath    string `yaml:"database_path"` // empty uses the embedded database
	Cipher          string `yaml:"cipher"`        // bux or blowfish
	CipherKey       string `yaml:"cipher_key"`
	ItemsPath       string `yaml:"items_path"`
	AuditDir        string `yaml:"audit_dir"`  // empty disables the audit log
	RateLimit       int    `yaml:"rate_limit"` // evaluations per minute
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	BoxWidth        int    `yaml:"box_width"`
	BoxHeight       int    `yaml:"box_height"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if not provided
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.JWT.PublicKeyRefreshHrs == 0 {
		cfg.JWT.PublicKeyRefreshHrs = 24
	}
	if cfg.Redis.BlacklistPrefix == "" {
		cfg.Redis.BlacklistPrefix = "blacklist:"
	}
	if cfg.Session.MaxPlayers == 0 {
		cfg.Session.MaxPlayers = 100
	}
	if cfg.Mix.Cipher == "" {
		cfg.Mix.Cipher = "bux"
	}
	if cfg.Mix.RateLimit == 0 {
		cfg.Mix.RateLimit = 60
	}
	if cfg.Mix.CacheTTLSeconds == 0 {
		cfg.Mix.CacheTTLSeconds = 30
	}
	if cfg.Mix.BoxWidth == 0 {
		cfg.Mix.BoxWidth = 8
	}
	if cfg.Mix.BoxHeight == 0 {
		cfg.Mix.BoxHeight = 4
	}

	return &cfg, nil
}
