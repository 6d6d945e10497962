package composer

import (
	"github.com/bwmarrin/discordgo"
)

// Surface is the interaction-transport capability a session drives: one
// in-place-edited preview message, one control panel message, and transient
// modals and selection prompts. Implemented over discordgo for the bot and
// by a fake in tests.
type Surface interface {
	// UpdatePreview re-renders the live preview in place.
	UpdatePreview(content string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) error
	// ShowPanel posts the control panel on first call and edits it in
	// place afterwards.
	ShowPanel(components []discordgo.MessageComponent) error
	// ClosePanel deletes the control panel. Deleting an already-deleted
	// panel must not fail the session.
	ClosePanel() error
	// ShowModal responds to ev with a modal of labelled text inputs.
	ShowModal(ev *Event, customID, title string, inputs []discordgo.TextInput) error
	// ShowSelect responds to ev with a single-choice menu and returns a
	// cleanup that removes the prompt once it has been consumed.
	ShowSelect(ev *Event, customID, prompt string, options []discordgo.SelectMenuOption) (func(), error)
	// Ack acknowledges ev without any visible response.
	Ack(ev *Event) error
	// Error shows an inline, submitter-only error for ev.
	Error(ev *Event, msg string) error
}

// discordSurface binds a session to a deferred slash-command interaction:
// the interaction response is the preview, the panel is a follow-up channel
// message.
type discordSurface struct {
	s           *discordgo.Session
	interaction *discordgo.Interaction
	channelID   string
	panelID     string
}

// NewDiscordSurface wraps an already-deferred command interaction as the
// editing surface for a session.
func NewDiscordSurface(s *discordgo.Session, interaction *discordgo.Interaction, channelID string) Surface {
	return &discordSurface{s: s, interaction: interaction, channelID: channelID}
}

func (d *discordSurface) UpdatePreview(content string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	_, err := d.s.InteractionResponseEdit(d.interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	})
	return err
}

func (d *discordSurface) ShowPanel(components []discordgo.MessageComponent) error {
	if d.panelID == "" {
		msg, err := d.s.ChannelMessageSendComplex(d.channelID, &discordgo.MessageSend{
			Content:    "Editing message...",
			Components: components,
		})
		if err != nil {
			return err
		}
		d.panelID = msg.ID
		return nil
	}
	_, err := d.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    d.channelID,
		ID:         d.panelID,
		Components: &components,
	})
	return err
}

func (d *discordSurface) ClosePanel() error {
	if d.panelID == "" {
		return nil
	}
	return d.s.ChannelMessageDelete(d.channelID, d.panelID)
}

func (d *discordSurface) ShowModal(ev *Event, customID, title string, inputs []discordgo.TextInput) error {
	rows := make([]discordgo.MessageComponent, 0, len(inputs))
	for _, input := range inputs {
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{input},
		})
	}
	return d.s.InteractionRespond(ev.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: rows,
		},
	})
}

func (d *discordSurface) ShowSelect(ev *Event, customID, prompt string, options []discordgo.SelectMenuOption) (func(), error) {
	err := d.s.InteractionRespond(ev.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: prompt,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.SelectMenu{
							MenuType: discordgo.StringSelectMenu,
							CustomID: customID,
							Options:  options,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	cleanup := func() {
		_ = d.s.InteractionResponseDelete(ev.Interaction.Interaction)
	}
	return cleanup, nil
}

func (d *discordSurface) Ack(ev *Event) error {
	return d.s.InteractionRespond(ev.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

func (d *discordSurface) Error(ev *Event, msg string) error {
	return d.s.InteractionRespond(ev.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
