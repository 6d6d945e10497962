package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"ticket-bot/composer"
	"ticket-bot/events"
	"ticket-bot/lang"
	"ticket-bot/storage"
)

var adminPermission = int64(discordgo.PermissionAdministrator)

func panelCommands() []*discordgo.ApplicationCommand {
	panelOption := func(desc string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         "panel",
			Description:  desc,
			Required:     true,
			Autocomplete: true,
		}
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:                     "panel",
			Description:              "Manage the guild's ticket panels.",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List all ticket panels.",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "send",
					Description: "Send a ticket panel to a channel.",
					Options: []*discordgo.ApplicationCommandOption{
						panelOption("The panel to send."),
						{
							Type:         discordgo.ApplicationCommandOptionChannel,
							Name:         "channel",
							Description:  "The channel to send the panel to.",
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "Create a new ticket panel.",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "panel",
							Description: "The panel to create.",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "edit",
					Description: "Edit a ticket panel.",
					Options: []*discordgo.ApplicationCommandOption{
						panelOption("The panel to edit."),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "clone",
					Description: "Clone a ticket panel.",
					Options: []*discordgo.ApplicationCommandOption{
						panelOption("The panel to clone."),
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "new-panel",
							Description: "The name of the new panel.",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "delete",
					Description: "Delete a ticket panel.",
					Options: []*discordgo.ApplicationCommandOption{
						panelOption("The panel to delete."),
					},
				},
			},
		},
	}
}

func handlePanelCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := deferReply(s, i, false); err != nil {
		return
	}

	sub := i.ApplicationCommandData().Options[0]
	opts := subOptMap(sub.Options)

	switch sub.Name {
	case "list":
		handlePanelList(s, i)
	case "send":
		handlePanelSend(s, i, opts)
	case "create":
		handlePanelCreate(s, i, opts)
	case "edit":
		handlePanelEdit(s, i, opts)
	case "clone":
		handlePanelClone(s, i, opts)
	case "delete":
		handlePanelDelete(s, i, opts)
	}
}

func handlePanelList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	panels, err := storage.DB.ListPanels(i.GuildID)
	if err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}
	if len(panels) == 0 {
		replyError(s, i, lang.T("panel.none"))
		return
	}

	var b strings.Builder
	for n, p := range panels {
		fmt.Fprintf(&b, "%d. %s\n", n+1, p.Name)
	}
	replySuccess(s, i, b.String())
}

func handlePanelSend(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	name := optStr(opts, "panel", "")
	channelID := i.ChannelID
	if opt, ok := opts["channel"]; ok {
		channelID = opt.Value.(string)
	}

	panel, err := storage.DB.GetPanel(i.GuildID, name)
	if errors.Is(err, storage.ErrNotFound) {
		replyError(s, i, lang.T("panel.not_found"))
		return
	}
	if err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}

	content, embeds, components := composer.Render(&panel.Message)
	_, err = s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    content,
		Embeds:     embeds,
		Components: components,
	})
	if err != nil {
		replyError(s, i, lang.T("panel.channel_missing"))
		return
	}

	Tickets.Events.Publish(events.Event{
		Kind:      events.PanelSent,
		GuildID:   i.GuildID,
		ChannelID: channelID,
		UserID:    i.Member.User.ID,
		Panel:     name,
	})
	replySuccess(s, i, lang.T("panel.sent", "panel", name, "channel", channelID))
}

func handlePanelCreate(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	name := optStr(opts, "panel", "")
	if _, err := storage.DB.GetPanel(i.GuildID, name); err == nil {
		replyError(s, i, lang.T("panel.exists"))
		return
	}

	message := composeMessage(s, i, composer.Message{})
	panel := &storage.Panel{GuildID: i.GuildID, Name: name, Message: message}
	if err := storage.DB.SavePanel(panel); err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}
	replySuccess(s, i, lang.T("panel.created", "panel", name))
}

func handlePanelEdit(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	name := optStr(opts, "panel", "")
	panel, err := storage.DB.GetPanel(i.GuildID, name)
	if errors.Is(err, storage.ErrNotFound) {
		replyError(s, i, lang.T("panel.not_found"))
		return
	}
	if err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}

	panel.Message = composeMessage(s, i, panel.Message)
	if err := storage.DB.SavePanel(panel); err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}
	replySuccess(s, i, lang.T("panel.edited", "panel", name))
}

func handlePanelClone(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	name := optStr(opts, "panel", "")
	newName := optStr(opts, "new-panel", "")

	panel, err := storage.DB.GetPanel(i.GuildID, name)
	if errors.Is(err, storage.ErrNotFound) {
		replyError(s, i, lang.T("panel.not_found"))
		return
	}
	if err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}
	if _, err := storage.DB.GetPanel(i.GuildID, newName); err == nil {
		replyError(s, i, lang.T("panel.exists"))
		return
	}

	clone := &storage.Panel{GuildID: i.GuildID, Name: newName, Message: panel.Message.Clone()}
	if err := storage.DB.SavePanel(clone); err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}
	replySuccess(s, i, lang.T("panel.cloned", "panel", name, "new", newName))
}

func handlePanelDelete(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	name := optStr(opts, "panel", "")
	err := storage.DB.DeletePanel(i.GuildID, name)
	if errors.Is(err, storage.ErrNotFound) {
		replyError(s, i, lang.T("panel.not_found"))
		return
	}
	if err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}
	replySuccess(s, i, lang.T("panel.deleted", "panel", name))
}

// composeMessage runs an interactive editing session on top of the deferred
// reply and blocks until the author finishes or the session times out.
func composeMessage(s *discordgo.Session, i *discordgo.InteractionCreate, seed composer.Message) composer.Message {
	surface := composer.NewDiscordSurface(s, i.Interaction, i.ChannelID)
	session := composer.NewSession(surface, i.Member.User.ID, seed)
	return session.Edit(context.Background())
}

func autocompletePanelName(s *discordgo.Session, i *discordgo.InteractionCreate) {
	panels, err := storage.DB.ListPanels(i.GuildID)
	if err != nil {
		autocompleteChoices(s, i, nil, "")
		return
	}
	names := make([]string, 0, len(panels))
	for _, p := range panels {
		names = append(names, p.Name)
	}
	autocompleteChoices(s, i, names, focusedString(i.ApplicationCommandData().Options))
}
