package storage

import (
	"errors"
	"fmt"

	"ticket-bot/config"
)

var DB Store

// ErrNotFound is returned by lookups for panels, ticket types and tickets
// that do not exist.
var ErrNotFound = errors.New("not found")

type Store interface {
	Init() error
	Close() error

	GetPanel(guildID, name string) (*Panel, error)
	ListPanels(guildID string) ([]Panel, error)
	SavePanel(p *Panel) error
	DeletePanel(guildID, name string) error

	GetTicketConfig(guildID, ticketType string) (*TicketConfig, error)
	ListTicketConfigs(guildID string) ([]TicketConfig, error)
	SaveTicketConfig(c *TicketConfig) error
	DeleteTicketConfig(guildID, ticketType string) error

	GetTicket(channelID string) (*Ticket, error)
	ListTickets(guildID string) ([]Ticket, error)
	CountTickets(guildID, ownerID, ticketType string) (int, error)
	SaveTicket(t *Ticket) error
	DeleteTicket(channelID string) error
}

func InitDB(cfg *config.DatabaseConfig) error {
	switch cfg.Driver {
	case "sqlite":
		db := &SQLiteStore{Path: cfg.SQLite.Path}
		if err := db.Init(); err != nil {
			return err
		}
		DB = db
		return nil

	case "mongodb":
		db := &MongoStore{URI: cfg.MongoDB.URI, DBName: cfg.MongoDB.Database}
		if err := db.Init(); err != nil {
			return err
		}
		DB = db
		return nil

	default:
		return fmt.Errorf("unsupported database driver: %s (use \"sqlite\" or \"mongodb\")", cfg.Driver)
	}
}
