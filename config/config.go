package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	Discord  DiscordConfig  `json:"discord"`
	Database DatabaseConfig `json:"database"`
	Tickets  TicketsConfig  `json:"tickets"`
	Events   EventsConfig   `json:"events"`
	Lang     LangConfig     `json:"lang"`
}

type DiscordConfig struct {
	Token   string `json:"token"`
	GuildID string `json:"guild_id"`
}

type DatabaseConfig struct {
	Driver  string        `json:"driver"`
	SQLite  SQLiteConfig  `json:"sqlite"`
	MongoDB MongoDBConfig `json:"mongodb"`
}

type SQLiteConfig struct {
	Path string `json:"path"`
}

type MongoDBConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

type TicketsConfig struct {
	// TranscriptLimit caps how many messages a closing transcript keeps.
	TranscriptLimit int `json:"transcript_limit"`
	// DefaultNameTemplate is used when a ticket type has no template of
	// its own.
	DefaultNameTemplate string `json:"default_name_template"`
}

type EventsConfig struct {
	Enabled  bool   `json:"enabled"`
	URL      string `json:"url"`
	Exchange string `json:"exchange"`
}

type LangConfig struct {
	File string `json:"file"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.SQLite.Path == "" {
		cfg.Database.SQLite.Path = "data/bot.db"
	}
	if cfg.Tickets.TranscriptLimit <= 0 {
		cfg.Tickets.TranscriptLimit = 500
	}
	if cfg.Tickets.DefaultNameTemplate == "" {
		cfg.Tickets.DefaultNameTemplate = "ticket-{user}"
	}
	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = "ticket-bot"
	}
	if cfg.Lang.File == "" {
		cfg.Lang.File = "lang.yml"
	}
	return &cfg, nil
}

func SaveConfig(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
