package composer

import (
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// The platform rejects a message with no content, embeds or components, so a
// blank model renders as this near-invisible placeholder.
const emptyPlaceholder = "_ _"

// Render maps a Message to its platform payload. It is a pure function: the
// same model always yields the same payload, so the live editing preview and
// the finally delivered message can never diverge.
func Render(m *Message) (string, []*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	if m.IsEmpty() {
		return emptyPlaceholder, []*discordgo.MessageEmbed{}, []discordgo.MessageComponent{}
	}
	return m.Content, renderEmbeds(m.Embed), ButtonRows(m.Buttons)
}

func renderEmbeds(e *Embed) []*discordgo.MessageEmbed {
	if e == nil {
		return []*discordgo.MessageEmbed{}
	}
	fields := make([]*discordgo.MessageEmbedField, 0, len(e.Fields))
	for _, f := range e.Fields {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return []*discordgo.MessageEmbed{{
		Title:       e.Title,
		Description: e.Description,
		Color:       ParseColor(e.Color),
		Fields:      fields,
	}}
}

// ParseColor converts a six-digit hex string to the 24-bit integer the
// platform expects. Anything unparseable comes out as 0 (black); validation
// happens before a color is ever stored.
func ParseColor(hex string) int {
	v, err := strconv.ParseInt(hex, 16, 32)
	if err != nil || v < 0 {
		return 0
	}
	return int(v)
}

// ButtonRows chunks buttons into action rows of at most five, preserving
// order across rows.
func ButtonRows(buttons []Button) []discordgo.MessageComponent {
	rows := make([]discordgo.MessageComponent, 0, (len(buttons)+4)/5)
	for start := 0; start < len(buttons); start += 5 {
		end := start + 5
		if end > len(buttons) {
			end = len(buttons)
		}
		row := discordgo.ActionsRow{}
		for _, b := range buttons[start:end] {
			row.Components = append(row.Components, discordgo.Button{
				CustomID: b.CustomID,
				Label:    b.Label,
				Style:    discordgo.ButtonStyle(b.Style),
				Disabled: b.Disabled,
				Emoji:    componentEmoji(b.Emoji),
			})
		}
		rows = append(rows, row)
	}
	return rows
}

func componentEmoji(emoji string) *discordgo.ComponentEmoji {
	if emoji == "" {
		return nil
	}
	return &discordgo.ComponentEmoji{Name: emoji}
}
