package storage

import (
	"time"

	"ticket-bot/composer"
)

// Panel is a named, guild-scoped saved message. Panels are authored through
// the composer and sent to a channel to give members ticket-opening buttons.
type Panel struct {
	GuildID string           `json:"guild_id" bson:"guild_id"`
	Name    string           `json:"name"     bson:"name"`
	Message composer.Message `json:"message"  bson:"message"`
}

// TicketConfig describes one ticket type: who can manage and view tickets of
// that type, where its channels go, and the message posted into each new
// ticket. MaxTickets of zero disables the type.
type TicketConfig struct {
	GuildID        string   `json:"guild_id"         bson:"guild_id"`
	Type           string   `json:"type"             bson:"type"`
	ManagerRoles   []string `json:"manager_roles"    bson:"manager_roles"`
	ViewerRoles    []string `json:"viewer_roles"     bson:"viewer_roles"`
	ManagerUsers   []string `json:"manager_users"    bson:"manager_users"`
	ViewerUsers    []string `json:"viewer_users"     bson:"viewer_users"`
	OwnerCanManage bool     `json:"owner_can_manage" bson:"owner_can_manage"`
	MaxTickets     int      `json:"max_tickets"      bson:"max_tickets"`
	NameTemplate   string   `json:"name_template"    bson:"name_template"`
	CategoryID     string   `json:"category_id"      bson:"category_id"`
	LogChannelID   string   `json:"log_channel_id"   bson:"log_channel_id"`

	// Message is posted into every newly created ticket channel. Nil
	// falls back to the built-in welcome message.
	Message *composer.Message `json:"message,omitempty" bson:"message,omitempty"`
}

// Ticket is one open ticket channel. Config is a snapshot of the type's
// configuration at creation time; /add and /remove mutate this snapshot, so
// later changes to the type never rewrite existing tickets.
type Ticket struct {
	ChannelID string       `json:"channel_id" bson:"channel_id"`
	GuildID   string       `json:"guild_id"   bson:"guild_id"`
	Type      string       `json:"type"       bson:"type"`
	OwnerID   string       `json:"owner_id"   bson:"owner_id"`
	OpenedAt  time.Time    `json:"opened_at"  bson:"opened_at"`
	Config    TicketConfig `json:"config"     bson:"config"`
}
