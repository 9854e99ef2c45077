package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv       = "WIKITIPS_CONFIG"
	databasePathEnv     = "DATABASE_PATH"
	serverAddrEnv       = "SERVER_ADDR"
	claudeAPIKeyEnv     = "CLAUDE_API_KEY"
	claudeModelEnv      = "CLAUDE_MODEL"
	blueskyIdentEnv     = "BLUESKY_IDENTIFIER"
	blueskyPasswordEnv  = "BLUESKY_APP_PASSWORD"
	mailchimpAPIKeyEnv  = "MAILCHIMP_API_KEY"
	mailchimpListIDEnv  = "MAILCHIMP_LIST_ID"
	apiSecretKeyEnv     = "API_SECRET_KEY"
	defaultAPISecretKey = "change_this_secret_key_in_production"
)

// Config holds high-level settings required across the application.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Bluesky   BlueskyConfig   `yaml:"bluesky"`
	Mailchimp MailchimpConfig `yaml:"mailchimp"`
	API       APIConfig       `yaml:"api"`
}

// SiteConfig identifies the publication in outbound content.
type SiteConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig describes the SQLite store location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// AnalysisConfig defines how to contact the analysis provider.
type AnalysisConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
	Version  string `yaml:"version"`
}

// BlueskyConfig wires the social publisher credentials.
type BlueskyConfig struct {
	ServiceURL  string `yaml:"serviceUrl"`
	Identifier  string `yaml:"identifier"`
	AppPassword string `yaml:"appPassword"`
	AutoShare   bool   `yaml:"autoShare"`
}

// MailchimpConfig wires the campaign provider.
type MailchimpConfig struct {
	APIKey   string `yaml:"apiKey"`
	ListID   string `yaml:"listId"`
	FromName string `yaml:"fromName"`
}

// APIConfig guards the privileged JSON endpoints.
type APIConfig struct {
	SecretKey string `yaml:"secretKey"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(serverAddrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(claudeAPIKeyEnv); v != "" {
		c.Analysis.APIKey = v
	}
	if v := os.Getenv(claudeModelEnv); v != "" {
		c.Analysis.Model = v
	}
	if v := os.Getenv(blueskyIdentEnv); v != "" {
		c.Bluesky.Identifier = v
	}
	if v := os.Getenv(blueskyPasswordEnv); v != "" {
		c.Bluesky.AppPassword = v
	}
	if v := os.Getenv(mailchimpAPIKeyEnv); v != "" {
		c.Mailchimp.APIKey = v
	}
	if v := os.Getenv(mailchimpListIDEnv); v != "" {
		c.Mailchimp.ListID = v
	}
	if v := os.Getenv(apiSecretKeyEnv); v != "" {
		c.API.SecretKey = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Site.Name != "" {
		base.Site.Name = override.Site.Name
	}
	if override.Site.URL != "" {
		base.Site.URL = override.Site.URL
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}

	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Analysis.Endpoint != "" {
		base.Analysis.Endpoint = override.Analysis.Endpoint
	}
	if override.Analysis.Model != "" {
		base.Analysis.Model = override.Analysis.Model
	}
	if override.Analysis.APIKey != "" {
		base.Analysis.APIKey = override.Analysis.APIKey
	}
	if override.Analysis.Version != "" {
		base.Analysis.Version = override.Analysis.Version
	}

	if override.Bluesky.ServiceURL != "" {
		base.Bluesky.ServiceURL = override.Bluesky.ServiceURL
	}
	if override.Bluesky.Identifier != "" {
		base.Bluesky.Identifier = override.Bluesky.Identifier
	}
	if override.Bluesky.AppPassword != "" {
		base.Bluesky.AppPassword = override.Bluesky.AppPassword
	}
	if override.Bluesky.AutoShare {
		base.Bluesky.AutoShare = true
	}

	if override.Mailchimp.APIKey != "" {
		base.Mailchimp.APIKey = override.Mailchimp.APIKey
	}
	if override.Mailchimp.ListID != "" {
		base.Mailchimp.ListID = override.Mailchimp.ListID
	}
	if override.Mailchimp.FromName != "" {
		base.Mailchimp.FromName = override.Mailchimp.FromName
	}

	if override.API.SecretKey != "" {
		base.API.SecretKey = override.API.SecretKey
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Site:     SiteConfig{Name: "News - Droits Humains", URL: "http://localhost:8080"},
		Server:   ServerConfig{Addr: "127.0.0.1:8080"},
		Database: DatabaseConfig{Path: "data/news.db"},
		Logging:  LoggingConfig{Level: "info"},
		Analysis: AnalysisConfig{
			Endpoint: "https://api.anthropic.com/v1/messages",
			Model:    "claude-sonnet-4-20250514",
			APIKey:   "",
			Version:  "2023-06-01",
		},
		Bluesky: BlueskyConfig{
			ServiceURL: "https://bsky.social/xrpc",
		},
		Mailchimp: MailchimpConfig{},
		API:       APIConfig{SecretKey: defaultAPISecretKey},
	}
}
