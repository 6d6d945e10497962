package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"

	"ticket-bot/composer"
	"ticket-bot/lang"
	"ticket-bot/storage"
	"ticket-bot/tickets"
)

const closeConfirmTimeout = 60 * time.Second

func ticketCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "create",
			Description: "Create a new ticket.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "type",
					Description:  "The type of ticket to create.",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
		{
			Name:        "close",
			Description: "Close the current ticket.",
		},
		{
			Name:        "add",
			Description: "Add a user or role to the ticket.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionMentionable,
					Name:        "user-role",
					Description: "The user or role to add.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "permission",
					Description: "The permission to give to the user or role.",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "View Ticket", Value: "view"},
						{Name: "Manage Ticket", Value: "manage"},
					},
				},
			},
		},
		{
			Name:        "remove",
			Description: "Remove a user or role from the ticket.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionMentionable,
					Name:        "user-role",
					Description: "The user or role to remove.",
					Required:    true,
				},
			},
		},
	}
}

func handleCreateCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	createTicket(s, i, optStr(opts, "type", ""))
}

func handleCreateTicketButton(s *discordgo.Session, i *discordgo.InteractionCreate, ticketType string) {
	createTicket(s, i, ticketType)
}

// createTicket serves both the /create command and panel buttons; either way
// the interaction gets an ephemeral progress reply.
func createTicket(s *discordgo.Session, i *discordgo.InteractionCreate, ticketType string) {
	if err := deferReply(s, i, true); err != nil {
		return
	}

	cfg, err := storage.DB.GetTicketConfig(i.GuildID, ticketType)
	if errors.Is(err, storage.ErrNotFound) {
		replyError(s, i, lang.T("tickets.config_missing"))
		return
	}
	if err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}

	editReply(s, i, lang.T("tickets.creating"))

	ticket, err := Tickets.Create(i.GuildID, i.Member, cfg)
	switch {
	case errors.Is(err, tickets.ErrTypeDisabled):
		replyError(s, i, lang.T("tickets.type_disabled"))
		return
	case errors.Is(err, tickets.ErrTicketLimit):
		replyError(s, i, lang.T("tickets.limit_reached"))
		return
	case err != nil:
		replyError(s, i, lang.T("generic.error"))
		return
	}

	editReply(s, i, lang.T("tickets.created", "channel", ticket.ChannelID))
}

func handleCloseCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	closeTicket(s, i)
}

func handleCloseButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	closeTicket(s, i)
}

func closeTicket(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := deferReply(s, i, true); err != nil {
		return
	}

	ticket, err := storage.DB.GetTicket(i.ChannelID)
	if errors.Is(err, storage.ErrNotFound) {
		replyError(s, i, lang.T("tickets.not_a_ticket"))
		return
	}
	if err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}

	if !tickets.CanManage(ticket, i.Member.User.ID, i.Member.Roles, i.Member.Permissions) {
		replyError(s, i, lang.T("tickets.close_denied"))
		return
	}

	prompter := &confirmPrompter{s: s, i: i}
	ok, err := composer.AwaitConfirm(context.Background(), prompter, i.Member.User.ID,
		lang.T("tickets.close_confirm"), closeConfirmTimeout)
	if err != nil || !ok {
		editReply(s, i, lang.T("tickets.close_cancelled"))
		return
	}

	editReply(s, i, lang.T("tickets.closing"))
	if err := Tickets.Close(ticket, i.Member.User.ID); err != nil {
		replyError(s, i, lang.T("generic.error"))
	}
}

func handleAddCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := deferReply(s, i, true); err != nil {
		return
	}

	opts := optionMap(i)
	ticket, err := storage.DB.GetTicket(i.ChannelID)
	if errors.Is(err, storage.ErrNotFound) {
		replyError(s, i, lang.T("tickets.not_a_ticket"))
		return
	}
	if err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}

	if !tickets.CanManage(ticket, i.Member.User.ID, i.Member.Roles, i.Member.Permissions) {
		replyError(s, i, lang.T("tickets.add_denied"))
		return
	}

	targetID, kind, ok := resolveMentionable(i, opts["user-role"])
	if !ok {
		replyError(s, i, lang.T("generic.invalid_target"))
		return
	}
	perm, err := tickets.ParsePermission(optStr(opts, "permission", ""))
	if err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}

	if err := tickets.Grant(&ticket.Config, kind, perm, targetID); err != nil {
		replyError(s, i, lang.T("config.override_exists"))
		return
	}
	if err := storage.DB.SaveTicket(ticket); err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}
	if err := Tickets.Recalculate(ticket); err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}

	_ = s.InteractionResponseDelete(i.Interaction)
	announce(s, i.ChannelID, "User Added", lang.T("tickets.added",
		"user", i.Member.User.ID,
		"target", mention(kind, targetID),
		"permission", perm.String()))
}

func handleRemoveCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := deferReply(s, i, true); err != nil {
		return
	}

	opts := optionMap(i)
	ticket, err := storage.DB.GetTicket(i.ChannelID)
	if errors.Is(err, storage.ErrNotFound) {
		replyError(s, i, lang.T("tickets.not_a_ticket"))
		return
	}
	if err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}

	if !tickets.CanManage(ticket, i.Member.User.ID, i.Member.Roles, i.Member.Permissions) {
		replyError(s, i, lang.T("tickets.remove_denied"))
		return
	}

	targetID, kind, ok := resolveMentionable(i, opts["user-role"])
	if !ok {
		replyError(s, i, lang.T("generic.invalid_target"))
		return
	}

	if err := tickets.Revoke(&ticket.Config, kind, targetID); err != nil {
		replyError(s, i, lang.T("config.override_missing"))
		return
	}
	if err := storage.DB.SaveTicket(ticket); err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}
	if err := Tickets.Recalculate(ticket); err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}

	_ = s.InteractionResponseDelete(i.Interaction)
	announce(s, i.ChannelID, "User Removed", lang.T("tickets.removed",
		"user", i.Member.User.ID,
		"target", mention(kind, targetID)))
}

func announce(s *discordgo.Session, channelID, title, description string) {
	_, _ = s.ChannelMessageSendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       0x57F287,
	})
}

// confirmPrompter asks a yes/no question as an ephemeral follow-up under the
// deferred reply.
type confirmPrompter struct {
	s *discordgo.Session
	i *discordgo.InteractionCreate
}

func (p *confirmPrompter) ShowConfirm(question, yesID, noID string) (func(), error) {
	msg, err := p.s.FollowupMessageCreate(p.i.Interaction, true, &discordgo.WebhookParams{
		Content: question,
		Flags:   discordgo.MessageFlagsEphemeral,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{CustomID: yesID, Label: "Close Ticket", Style: discordgo.DangerButton},
					discordgo.Button{CustomID: noID, Label: "Cancel", Style: discordgo.SecondaryButton},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	cleanup := func() {
		_ = p.s.FollowupMessageDelete(p.i.Interaction, msg.ID)
	}
	return cleanup, nil
}

func (p *confirmPrompter) AckConfirm(ev *composer.Event) error {
	return p.s.InteractionRespond(ev.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}
