package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"ticket-bot/composer"
	"ticket-bot/lang"
	"ticket-bot/storage"
	"ticket-bot/tickets"
)

func ticketConfigCommands() []*discordgo.ApplicationCommand {
	nameOption := &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionString,
		Name:         "name",
		Description:  "The name of the ticket config.",
		Required:     true,
		Autocomplete: true,
	}
	permissionOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "permission",
		Description: "The permission to set the override for.",
		Required:    true,
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "View Ticket", Value: "view"},
			{Name: "Manage Ticket", Value: "manage"},
		},
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:                     "ticket-config",
			Description:              "Manage the guild's ticket configs.",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List all ticket configs.",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "Create a new ticket config.",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "The name of the ticket config.",
							Required:    true,
						},
						{
							Type:         discordgo.ApplicationCommandOptionChannel,
							Name:         "category",
							Description:  "The category to create tickets in.",
							Required:     true,
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name-template",
							Description: "The template for the ticket name.",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "max-tickets",
							Description: "The maximum amount of tickets a user can have open.",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Name:        "owner-can-manage",
							Description: "Whether the ticket owner can manage their own ticket.",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "edit",
					Description: "Edit a ticket config.",
					Options: []*discordgo.ApplicationCommandOption{
						nameOption,
						{
							Type:         discordgo.ApplicationCommandOptionChannel,
							Name:         "category",
							Description:  "The category to create tickets in.",
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name-template",
							Description: "The template for the ticket name.",
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "max-tickets",
							Description: "The maximum amount of tickets a user can have open.",
						},
						{
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Name:        "owner-can-manage",
							Description: "Whether the ticket owner can manage their own ticket.",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set-message",
					Description: "Set the message to be sent at the start of tickets.",
					Options: []*discordgo.ApplicationCommandOption{
						nameOption,
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set-log-channel",
					Description: "Set the channel transcripts are sent to.",
					Options: []*discordgo.ApplicationCommandOption{
						nameOption,
						{
							Type:         discordgo.ApplicationCommandOptionChannel,
							Name:         "channel",
							Description:  "The channel to send transcripts to.  Leave out to disable transcripts.",
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set-default-override",
					Description: "Set a default override.",
					Options: []*discordgo.ApplicationCommandOption{
						nameOption,
						{
							Type:        discordgo.ApplicationCommandOptionMentionable,
							Name:        "user-role",
							Description: "The user or role to set the override for.",
							Required:    true,
						},
						permissionOption,
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove-default-override",
					Description: "Remove a default override.",
					Options: []*discordgo.ApplicationCommandOption{
						nameOption,
						{
							Type:        discordgo.ApplicationCommandOptionMentionable,
							Name:        "user-role",
							Description: "The user or role to remove the override for.",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "delete",
					Description: "Delete a ticket config.",
					Options: []*discordgo.ApplicationCommandOption{
						nameOption,
					},
				},
			},
		},
	}
}

func handleTicketConfigCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := deferReply(s, i, false); err != nil {
		return
	}

	sub := i.ApplicationCommandData().Options[0]
	opts := subOptMap(sub.Options)

	switch sub.Name {
	case "list":
		handleConfigList(s, i)
	case "create":
		handleConfigCreate(s, i, opts)
	case "edit":
		handleConfigEdit(s, i, opts)
	case "set-message":
		handleConfigSetMessage(s, i, opts)
	case "set-log-channel":
		handleConfigSetLogChannel(s, i, opts)
	case "set-default-override":
		handleConfigSetOverride(s, i, opts)
	case "remove-default-override":
		handleConfigRemoveOverride(s, i, opts)
	case "delete":
		handleConfigDelete(s, i, opts)
	}
}

func handleConfigList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	configs, err := storage.DB.ListTicketConfigs(i.GuildID)
	if err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}
	if len(configs) == 0 {
		replyError(s, i, lang.T("config.none"))
		return
	}

	var b strings.Builder
	for _, c := range configs {
		fmt.Fprintf(&b, "**• %s** - <#%s> - `%s` (%d)\n", c.Type, c.CategoryID, c.NameTemplate, c.MaxTickets)
	}
	replyStatus(s, i, "Ticket Configs", b.String(), 0x006994)
}

// fetchConfig looks a config up and reports the not-found case to the user.
func fetchConfig(s *discordgo.Session, i *discordgo.InteractionCreate, name string) *storage.TicketConfig {
	cfg, err := storage.DB.GetTicketConfig(i.GuildID, name)
	if errors.Is(err, storage.ErrNotFound) {
		replyError(s, i, lang.T("config.not_found"))
		return nil
	}
	if err != nil {
		replyError(s, i, lang.T("generic.error"))
		return nil
	}
	return cfg
}

func handleConfigCreate(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	name := optStr(opts, "name", "")
	if _, err := storage.DB.GetTicketConfig(i.GuildID, name); err == nil {
		replyError(s, i, lang.T("config.exists"))
		return
	}

	maxTickets := optInt(opts, "max-tickets", 0)
	if maxTickets < 0 {
		replyError(s, i, lang.T("config.max_tickets"))
		return
	}

	cfg := &storage.TicketConfig{
		GuildID:        i.GuildID,
		Type:           name,
		CategoryID:     opts["category"].Value.(string),
		NameTemplate:   optStr(opts, "name-template", storage.Cfg.Tickets.DefaultNameTemplate),
		ManagerRoles:   []string{},
		ViewerRoles:    []string{},
		ManagerUsers:   []string{},
		ViewerUsers:    []string{},
		OwnerCanManage: optBool(opts, "owner-can-manage", true),
		MaxTickets:     int(maxTickets),
	}
	if err := storage.DB.SaveTicketConfig(cfg); err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}
	replySuccess(s, i, lang.T("config.created", "name", name))
}

func handleConfigEdit(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	name := optStr(opts, "name", "")
	cfg := fetchConfig(s, i, name)
	if cfg == nil {
		return
	}

	if opt, ok := opts["category"]; ok {
		cfg.CategoryID = opt.Value.(string)
	}
	if tpl := optStr(opts, "name-template", ""); tpl != "" {
		cfg.NameTemplate = tpl
	}
	if opt, ok := opts["max-tickets"]; ok {
		if opt.IntValue() < 0 {
			replyError(s, i, lang.T("config.max_tickets"))
			return
		}
		cfg.MaxTickets = int(opt.IntValue())
	}
	if opt, ok := opts["owner-can-manage"]; ok {
		cfg.OwnerCanManage = opt.BoolValue()
	}

	if err := storage.DB.SaveTicketConfig(cfg); err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}
	replySuccess(s, i, lang.T("config.updated", "name", name))
}

func handleConfigSetMessage(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	name := optStr(opts, "name", "")
	cfg := fetchConfig(s, i, name)
	if cfg == nil {
		return
	}

	seed := composer.Message{}
	if cfg.Message != nil {
		seed = cfg.Message.Clone()
	}

	// An emptied message clears the welcome message entirely.
	result := composeMessage(s, i, seed)
	if result.IsEmpty() {
		cfg.Message = nil
	} else {
		cfg.Message = &result
	}

	if err := storage.DB.SaveTicketConfig(cfg); err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}
	replySuccess(s, i, lang.T("config.message_updated", "name", name))
}

func handleConfigSetLogChannel(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	name := optStr(opts, "name", "")
	cfg := fetchConfig(s, i, name)
	if cfg == nil {
		return
	}

	cfg.LogChannelID = ""
	if opt, ok := opts["channel"]; ok {
		cfg.LogChannelID = opt.Value.(string)
	}

	if err := storage.DB.SaveTicketConfig(cfg); err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}
	replySuccess(s, i, lang.T("config.updated", "name", name))
}

func handleConfigSetOverride(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	name := optStr(opts, "name", "")
	cfg := fetchConfig(s, i, name)
	if cfg == nil {
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

	if err := tickets.Grant(cfg, kind, perm, targetID); err != nil {
		replyError(s, i, lang.T("config.override_exists"))
		return
	}
	if err := storage.DB.SaveTicketConfig(cfg); err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}
	replySuccess(s, i, lang.T("config.override_set",
		"target", mention(kind, targetID),
		"permission", optStr(opts, "permission", "")))
}

func handleConfigRemoveOverride(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	name := optStr(opts, "name", "")
	cfg := fetchConfig(s, i, name)
	if cfg == nil {
		return
	}

	targetID, kind, ok := resolveMentionable(i, opts["user-role"])
	if !ok {
		replyError(s, i, lang.T("generic.invalid_target"))
		return
	}

	if err := tickets.Revoke(cfg, kind, targetID); err != nil {
		replyError(s, i, lang.T("config.override_missing"))
		return
	}
	if err := storage.DB.SaveTicketConfig(cfg); err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}
	replySuccess(s, i, lang.T("config.override_removed", "target", mention(kind, targetID)))
}

func handleConfigDelete(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	name := optStr(opts, "name", "")
	err := storage.DB.DeleteTicketConfig(i.GuildID, name)
	if errors.Is(err, storage.ErrNotFound) {
		replyError(s, i, lang.T("config.not_found"))
		return
	}
	if err != nil {
		replyError(s, i, lang.T("generic.error"))
		return
	}
	replySuccess(s, i, lang.T("config.deleted", "name", name))
}

func autocompleteConfigName(s *discordgo.Session, i *discordgo.InteractionCreate) {
	configs, err := storage.DB.ListTicketConfigs(i.GuildID)
	if err != nil {
		autocompleteChoices(s, i, nil, "")
		return
	}
	names := make([]string, 0, len(configs))
	for _, c := range configs {
		names = append(names, c.Type)
	}
	autocompleteChoices(s, i, names, focusedString(i.ApplicationCommandData().Options))
}
