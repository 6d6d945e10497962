package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps each record as a JSON document keyed by its natural key,
// with the columns needed for lookups and counting pulled out alongside.
type SQLiteStore struct {
	Path string
	db   *sql.DB
}

func (s *SQLiteStore) Init() error {
	_ = os.MkdirAll(filepath.Dir(s.Path), 0755)

	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return fmt.Errorf("sqlite open: %w", err)
	}
	s.db = db

	schema := `
	CREATE TABLE IF NOT EXISTS panels (
		guild_id    TEXT NOT NULL,
		name        TEXT NOT NULL,
		doc         TEXT NOT NULL,
		PRIMARY KEY (guild_id, name)
	);

	CREATE TABLE IF NOT EXISTS ticket_configs (
		guild_id    TEXT NOT NULL,
		type        TEXT NOT NULL,
		doc         TEXT NOT NULL,
		PRIMARY KEY (guild_id, type)
	);

	CREATE TABLE IF NOT EXISTS tickets (
		channel_id  TEXT PRIMARY KEY,
		guild_id    TEXT NOT NULL,
		owner_id    TEXT NOT NULL,
		type        TEXT NOT NULL,
		doc         TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tickets_guild_owner_type ON tickets(guild_id, owner_id, type);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite schema: %w", err)
	}
	log.Printf("[DB] SQLite initialised at %s", s.Path)
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) GetPanel(guildID, name string) (*Panel, error) {
	var doc string
	err := s.db.QueryRow(
		"SELECT doc FROM panels WHERE guild_id = ? AND name = ?",
		guildID, name,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var p Panel
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) ListPanels(guildID string) ([]Panel, error) {
	rows, err := s.db.Query(
		"SELECT doc FROM panels WHERE guild_id = ? ORDER BY name",
		guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var panels []Panel
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			continue
		}
		var p Panel
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			continue
		}
		panels = append(panels, p)
	}
	return panels, rows.Err()
}

func (s *SQLiteStore) SavePanel(p *Panel) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		"INSERT INTO panels (guild_id, name, doc) VALUES (?, ?, ?) ON CONFLICT(guild_id, name) DO UPDATE SET doc = excluded.doc",
		p.GuildID, p.Name, string(doc),
	)
	return err
}

func (s *SQLiteStore) DeletePanel(guildID, name string) error {
	res, err := s.db.Exec("DELETE FROM panels WHERE guild_id = ? AND name = ?", guildID, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) GetTicketConfig(guildID, ticketType string) (*TicketConfig, error) {
	var doc string
	err := s.db.QueryRow(
		"SELECT doc FROM ticket_configs WHERE guild_id = ? AND type = ?",
		guildID, ticketType,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var c TicketConfig
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) ListTicketConfigs(guildID string) ([]TicketConfig, error) {
	rows, err := s.db.Query(
		"SELECT doc FROM ticket_configs WHERE guild_id = ? ORDER BY type",
		guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []TicketConfig
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			continue
		}
		var c TicketConfig
		if err := json.Unmarshal([]byte(doc), &c); err != nil {
			continue
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

func (s *SQLiteStore) SaveTicketConfig(c *TicketConfig) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		"INSERT INTO ticket_configs (guild_id, type, doc) VALUES (?, ?, ?) ON CONFLICT(guild_id, type) DO UPDATE SET doc = excluded.doc",
		c.GuildID, c.Type, string(doc),
	)
	return err
}

func (s *SQLiteStore) DeleteTicketConfig(guildID, ticketType string) error {
	res, err := s.db.Exec("DELETE FROM ticket_configs WHERE guild_id = ? AND type = ?", guildID, ticketType)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) GetTicket(channelID string) (*Ticket, error) {
	var doc string
	err := s.db.QueryRow("SELECT doc FROM tickets WHERE channel_id = ?", channelID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var t Ticket
	if err := json.Unmarshal([]byte(doc), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLiteStore) ListTickets(guildID string) ([]Ticket, error) {
	rows, err := s.db.Query("SELECT doc FROM tickets WHERE guild_id = ?", guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			continue
		}
		var t Ticket
		if err := json.Unmarshal([]byte(doc), &t); err != nil {
			continue
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (s *SQLiteStore) CountTickets(guildID, ownerID, ticketType string) (int, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM tickets WHERE guild_id = ? AND owner_id = ? AND type = ?",
		guildID, ownerID, ticketType,
	).Scan(&n)
	return n, err
}

func (s *SQLiteStore) SaveTicket(t *Ticket) error {
	doc, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		"INSERT INTO tickets (channel_id, guild_id, owner_id, type, doc) VALUES (?, ?, ?, ?, ?) ON CONFLICT(channel_id) DO UPDATE SET doc = excluded.doc",
		t.ChannelID, t.GuildID, t.OwnerID, t.Type, string(doc),
	)
	return err
}

func (s *SQLiteStore) DeleteTicket(channelID string) error {
	res, err := s.db.Exec("DELETE FROM tickets WHERE channel_id = ?", channelID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
