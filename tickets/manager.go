package tickets

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"ticket-bot/composer"
	"ticket-bot/events"
	"ticket-bot/storage"
)

var (
	ErrTypeDisabled = errors.New("this ticket type is disabled")
	ErrTicketLimit  = errors.New("you already have the maximum number of open tickets for this type")
)

// allowOverwrites is the permission set granted to everyone a ticket is
// shared with: the owner, viewer and manager roles, and added users.
const allowOverwrites = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory |
	discordgo.PermissionAddReactions |
	discordgo.PermissionAttachFiles |
	discordgo.PermissionEmbedLinks

const DefaultTranscriptLimit = 500

// Manager owns the ticket channel lifecycle: creating channels with the
// right overwrites, syncing overwrites after overrides change, and closing
// with a transcript.
type Manager struct {
	Session         *discordgo.Session
	Store           storage.Store
	Events          *events.Publisher
	TranscriptLimit int
}

// FormatName expands the placeholders a name template or welcome message may
// carry.
func FormatName(template string, user *discordgo.User) string {
	r := strings.NewReplacer(
		"{user}", user.Username,
		"{tag}", user.String(),
		"{id}", user.ID,
		"{mention}", user.Mention(),
	)
	return r.Replace(template)
}

// Create opens a ticket channel for member under cfg and records the ticket
// with a snapshot of cfg. A MaxTickets of zero disables the type entirely.
func (m *Manager) Create(guildID string, member *discordgo.Member, cfg *storage.TicketConfig) (*storage.Ticket, error) {
	if cfg.MaxTickets == 0 {
		return nil, ErrTypeDisabled
	}
	open, err := m.Store.CountTickets(guildID, member.User.ID, cfg.Type)
	if err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}
	if open >= cfg.MaxTickets {
		return nil, ErrTicketLimit
	}

	overwrites := channelOverwrites(guildID, member.User.ID, cfg)
	channel, err := m.Session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 FormatName(cfg.NameTemplate, member.User),
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             cfg.CategoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return nil, fmt.Errorf("create channel: %w", err)
	}

	if cfg.Message != nil && !cfg.Message.IsEmpty() {
		content, embeds, components := composer.Render(cfg.Message)
		_, err = m.Session.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
			Content:    FormatName(content, member.User),
			Embeds:     embeds,
			Components: components,
		})
		if err != nil {
			log.Printf("[TICKETS] welcome message in %s: %v", channel.ID, err)
		}
	}

	ticket := &storage.Ticket{
		ChannelID: channel.ID,
		GuildID:   guildID,
		Type:      cfg.Type,
		OwnerID:   member.User.ID,
		OpenedAt:  time.Now().UTC(),
		Config:    *cfg,
	}
	if err := m.Store.SaveTicket(ticket); err != nil {
		return nil, fmt.Errorf("save ticket: %w", err)
	}

	m.Events.Publish(events.Event{
		Kind:      events.TicketOpened,
		GuildID:   guildID,
		ChannelID: channel.ID,
		UserID:    member.User.ID,
		Type:      cfg.Type,
	})
	return ticket, nil
}

// Close saves the transcript, removes the record and deletes the channel.
func (m *Manager) Close(t *storage.Ticket, closerID string) error {
	_, _ = m.Session.ChannelMessageSend(t.ChannelID, "Closing ticket...")

	if err := m.SaveTranscript(t); err != nil {
		log.Printf("[TICKETS] transcript for %s: %v", t.ChannelID, err)
	}
	if err := m.Store.DeleteTicket(t.ChannelID); err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	if _, err := m.Session.ChannelDelete(t.ChannelID); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}

	m.Events.Publish(events.Event{
		Kind:      events.TicketClosed,
		GuildID:   t.GuildID,
		ChannelID: t.ChannelID,
		UserID:    closerID,
		Type:      t.Type,
	})
	return nil
}

// Recalculate rewrites the channel overwrites from the ticket's snapshot,
// applied after /add or /remove changes it.
func (m *Manager) Recalculate(t *storage.Ticket) error {
	overwrites := channelOverwrites(t.GuildID, t.OwnerID, &t.Config)
	_, err := m.Session.ChannelEditComplex(t.ChannelID, &discordgo.ChannelEdit{
		PermissionOverwrites: overwrites,
	})
	return err
}

// SaveTranscript renders the channel history as a text attachment and sends
// it to the configured log channel plus the ticket owner's DMs. No log
// channel means no transcript.
func (m *Manager) SaveTranscript(t *storage.Ticket) error {
	if t.Config.LogChannelID == "" {
		return nil
	}

	limit := m.TranscriptLimit
	if limit <= 0 {
		limit = DefaultTranscriptLimit
	}
	transcript, err := m.renderTranscript(t.ChannelID, limit)
	if err != nil {
		return err
	}

	send := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "Transcript",
			Description: fmt.Sprintf("Transcript for <#%s>", t.ChannelID),
			Color:       0x006994,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "User", Value: fmt.Sprintf("<@%s>", t.OwnerID), Inline: true},
				{Name: "Type", Value: t.Type, Inline: true},
			},
		}},
		Files: []*discordgo.File{{
			Name:        fmt.Sprintf("transcript-%s.txt", t.ChannelID),
			ContentType: "text/plain",
			Reader:      strings.NewReader(transcript),
		}},
	}

	if _, err := m.Session.ChannelMessageSendComplex(t.Config.LogChannelID, send); err != nil {
		return fmt.Errorf("log channel: %w", err)
	}

	// DM a copy to the owner; closed DMs are their choice.
	if dm, err := m.Session.UserChannelCreate(t.OwnerID); err == nil {
		send.Files[0].Reader = strings.NewReader(transcript)
		_, _ = m.Session.ChannelMessageSendComplex(dm.ID, send)
	}
	return nil
}

// renderTranscript fetches up to limit messages (oldest first) and formats
// them as plain text.
func (m *Manager) renderTranscript(channelID string, limit int) (string, error) {
	var all []*discordgo.Message
	beforeID := ""
	for len(all) < limit {
		page := limit - len(all)
		if page > 100 {
			page = 100
		}
		batch, err := m.Session.ChannelMessages(channelID, page, beforeID, "", "")
		if err != nil {
			return "", err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		beforeID = batch[len(batch)-1].ID
	}

	var b strings.Builder
	for i := len(all) - 1; i >= 0; i-- {
		msg := all[i]
		b.WriteString(msg.Timestamp.UTC().Format("2006-01-02 15:04:05"))
		b.WriteString(" ")
		b.WriteString(msg.Author.String())
		b.WriteString(": ")
		b.WriteString(msg.Content)
		for _, a := range msg.Attachments {
			b.WriteString("\n    [attachment] ")
			b.WriteString(a.URL)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// CanManage reports whether a user may close or modify the ticket: the owner
// when the type allows it, manager users, holders of a manager role, or
// anyone with the Manage Channels permission.
func CanManage(t *storage.Ticket, userID string, roleIDs []string, permissions int64) bool {
	if t.OwnerID == userID && t.Config.OwnerCanManage {
		return true
	}
	if contains(t.Config.ManagerUsers, userID) {
		return true
	}
	for _, role := range roleIDs {
		if contains(t.Config.ManagerRoles, role) {
			return true
		}
	}
	return permissions&discordgo.PermissionManageChannels != 0 ||
		permissions&discordgo.PermissionAdministrator != 0
}

func channelOverwrites(guildID, ownerID string, cfg *storage.TicketConfig) []*discordgo.PermissionOverwrite {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    ownerID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: allowOverwrites,
		},
	}
	for _, role := range cfg.ManagerRoles {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: role, Type: discordgo.PermissionOverwriteTypeRole, Allow: allowOverwrites,
		})
	}
	for _, role := range cfg.ViewerRoles {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: role, Type: discordgo.PermissionOverwriteTypeRole, Allow: allowOverwrites,
		})
	}
	for _, user := range cfg.ManagerUsers {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: user, Type: discordgo.PermissionOverwriteTypeMember, Allow: allowOverwrites,
		})
	}
	for _, user := range cfg.ViewerUsers {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: user, Type: discordgo.PermissionOverwriteTypeMember, Allow: allowOverwrites,
		})
	}
	return overwrites
}
