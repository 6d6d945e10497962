package handlers

import (
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"ticket-bot/composer"
	"ticket-bot/tickets"
)

// Tickets is the shared ticket manager, wired up in main before the gateway
// connects.
var Tickets *tickets.Manager

func Commands() []*discordgo.ApplicationCommand {
	cmds := make([]*discordgo.ApplicationCommand, 0)
	cmds = append(cmds, panelCommands()...)
	cmds = append(cmds, ticketConfigCommands()...)
	cmds = append(cmds, ticketCommands()...)
	return cmds
}

func Register(s *discordgo.Session) {
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.GuildID == "" {
			return
		}

		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			handleSlashCommand(s, i)
		case discordgo.InteractionApplicationCommandAutocomplete:
			handleAutocomplete(s, i)
		case discordgo.InteractionMessageComponent:
			handleComponent(s, i)
		case discordgo.InteractionModalSubmit:
			handleModalSubmit(s, i)
		}
	})
}

func handleSlashCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name

	switch name {
	case "panel":
		handlePanelCommand(s, i)
	case "ticket-config":
		handleTicketConfigCommand(s, i)
	case "create":
		handleCreateCommand(s, i)
	case "close":
		handleCloseCommand(s, i)
	case "add":
		handleAddCommand(s, i)
	case "remove":
		handleRemoveCommand(s, i)
	default:
		log.Printf("Unknown command: %s", name)
	}
}

func handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "panel":
		autocompletePanelName(s, i)
	case "ticket-config":
		autocompleteConfigName(s, i)
	case "create":
		autocompleteConfigName(s, i)
	}
}

// handleComponent first offers the click to a live composer session or
// confirmation prompt; only unclaimed custom IDs fall through to the static
// panel buttons.
func handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if composer.Dispatch(componentEvent(i)) {
		return
	}

	customID := i.MessageComponentData().CustomID
	switch {
	case strings.HasPrefix(customID, "create-ticket-"):
		handleCreateTicketButton(s, i, strings.TrimPrefix(customID, "create-ticket-"))
	case customID == "close":
		handleCloseButton(s, i)
	default:
		log.Printf("Unknown component: %s", customID)
	}
}

// handleModalSubmit routes modal submissions to their sessions. A submission
// whose session has expired is acknowledged and dropped.
func handleModalSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if composer.Dispatch(modalEvent(i)) {
		return
	}
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

func componentEvent(i *discordgo.InteractionCreate) *composer.Event {
	data := i.MessageComponentData()
	ev := &composer.Event{
		Kind:        composer.EventButton,
		UserID:      i.Member.User.ID,
		CustomID:    data.CustomID,
		Interaction: i,
	}
	if data.ComponentType == discordgo.SelectMenuComponent {
		ev.Kind = composer.EventSelect
		if len(data.Values) > 0 {
			ev.Selected = data.Values[0]
		}
	}
	return ev
}

func modalEvent(i *discordgo.InteractionCreate) *composer.Event {
	data := i.ModalSubmitData()
	values := make(map[string]string)
	for _, row := range data.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if input, ok := c.(*discordgo.TextInput); ok {
				values[input.CustomID] = input.Value
			}
		}
	}
	return &composer.Event{
		Kind:        composer.EventModal,
		UserID:      i.Member.User.ID,
		CustomID:    data.CustomID,
		Values:      values,
		Interaction: i,
	}
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
	if err != nil {
		log.Printf("Failed to respond: %v", err)
	}
}

func deferReply(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	})
}

func editReply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	if err != nil {
		log.Printf("Failed to edit reply: %v", err)
	}
}

// replySuccess and replyError replace the deferred reply with a status
// embed, wiping any leftover preview content and components.
func replySuccess(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	replyStatus(s, i, "Success", content, 0x57F287)
}

func replyError(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	replyStatus(s, i, "Error", content, 0xED4245)
}

func replyStatus(s *discordgo.Session, i *discordgo.InteractionCreate, title, content string, color int) {
	empty := ""
	embeds := []*discordgo.MessageEmbed{{
		Title:       title,
		Description: content,
		Color:       color,
	}}
	components := []discordgo.MessageComponent{}
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content:    &empty,
		Embeds:     &embeds,
		Components: &components,
	})
	if err != nil {
		log.Printf("Failed to edit reply: %v", err)
	}
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range i.ApplicationCommandData().Options {
		m[opt.Name] = opt
	}
	return m
}

func subOptMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func optStr(m map[string]*discordgo.ApplicationCommandInteractionDataOption, key, def string) string {
	if o, ok := m[key]; ok {
		return o.StringValue()
	}
	return def
}

func optInt(m map[string]*discordgo.ApplicationCommandInteractionDataOption, key string, def int64) int64 {
	if o, ok := m[key]; ok {
		return o.IntValue()
	}
	return def
}

func optBool(m map[string]*discordgo.ApplicationCommandInteractionDataOption, key string, def bool) bool {
	if o, ok := m[key]; ok {
		return o.BoolValue()
	}
	return def
}

// resolveMentionable splits a mentionable option into its ID and whether it
// names a role or a user.
func resolveMentionable(i *discordgo.InteractionCreate, opt *discordgo.ApplicationCommandInteractionDataOption) (string, tickets.TargetKind, bool) {
	id, ok := opt.Value.(string)
	if !ok {
		return "", 0, false
	}
	resolved := i.ApplicationCommandData().Resolved
	if resolved == nil {
		return "", 0, false
	}
	if _, isRole := resolved.Roles[id]; isRole {
		return id, tickets.TargetRole, true
	}
	if _, isUser := resolved.Users[id]; isUser {
		return id, tickets.TargetUser, true
	}
	return "", 0, false
}

// mention renders a target for status messages.
func mention(kind tickets.TargetKind, id string) string {
	if kind == tickets.TargetRole {
		return "<@&" + id + ">"
	}
	return "<@" + id + ">"
}

// autocompleteChoices sends up to 25 matching name choices.
func autocompleteChoices(s *discordgo.Session, i *discordgo.InteractionCreate, names []string, typed string) {
	typed = strings.ToLower(typed)
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(names))
	for _, name := range names {
		if !strings.Contains(strings.ToLower(name), typed) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  name,
			Value: name,
		})
		if len(choices) == 25 {
			break
		}
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		log.Printf("Failed to respond to autocomplete: %v", err)
	}
}

// focusedString digs the focused option's current value out of a
// (possibly nested) option tree.
func focusedString(opts []*discordgo.ApplicationCommandInteractionDataOption) string {
	for _, opt := range opts {
		if opt.Focused {
			if s, ok := opt.Value.(string); ok {
				return s
			}
			return ""
		}
		if v := focusedString(opt.Options); v != "" {
			return v
		}
	}
	return ""
}
