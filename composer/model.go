package composer

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

const (
	// Discord caps message content at 2000 characters and a message at
	// 25 buttons (5 rows of 5).
	MaxContentLength = 2000
	MaxButtons       = 25
	MaxCustomIDLen   = 100

	DefaultColor       = "000000"
	DefaultDescription = "Description."
)

var (
	ErrNoEmbed        = errors.New("message has no embed")
	ErrStaleSelection = errors.New("selection no longer exists")

	colorPattern = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)
)

// ButtonStyle mirrors the platform button style values.
type ButtonStyle int

const (
	StylePrimary ButtonStyle = iota + 1
	StyleSecondary
	StyleSuccess
	StyleDanger
	StyleLink
)

var styleNames = map[string]ButtonStyle{
	"Primary":   StylePrimary,
	"Secondary": StyleSecondary,
	"Success":   StyleSuccess,
	"Danger":    StyleDanger,
	"Link":      StyleLink,
}

// ParseButtonStyle resolves a human-readable style name submitted through a
// modal. Unknown names fail so the caller can surface the error without
// committing a half-built button.
func ParseButtonStyle(name string) (ButtonStyle, error) {
	if style, ok := styleNames[name]; ok {
		return style, nil
	}
	return 0, fmt.Errorf("unknown button style %q (use Primary, Secondary, Success, Danger or Link)", name)
}

func (s ButtonStyle) String() string {
	for name, style := range styleNames {
		if style == s {
			return name
		}
	}
	return fmt.Sprintf("ButtonStyle(%d)", int(s))
}

type EmbedField struct {
	Name   string `bson:"name"   json:"name"`
	Value  string `bson:"value"  json:"value"`
	Inline bool   `bson:"inline" json:"inline"`
}

type Embed struct {
	Title       string       `bson:"title"       json:"title"`
	Description string       `bson:"description" json:"description"`
	Color       string       `bson:"color"       json:"color"`
	Fields      []EmbedField `bson:"fields"      json:"fields"`
}

type Button struct {
	CustomID string      `bson:"custom_id"       json:"custom_id"`
	Label    string      `bson:"label"           json:"label"`
	Style    ButtonStyle `bson:"style"           json:"style"`
	Disabled bool        `bson:"disabled"        json:"disabled"`
	Emoji    string      `bson:"emoji,omitempty" json:"emoji,omitempty"`
}

// Message is the editable rich-message model the composer session mutates and
// the store persists: plain content, at most one embed, and an ordered list
// of buttons.
type Message struct {
	Content string   `bson:"content"           json:"content"`
	Embed   *Embed   `bson:"embed,omitempty"   json:"embed,omitempty"`
	Buttons []Button `bson:"buttons,omitempty" json:"buttons,omitempty"`
}

// IsEmpty reports whether nothing has been set; such a message renders as a
// placeholder because the platform rejects fully empty payloads.
func (m *Message) IsEmpty() bool {
	return m.Content == "" && m.Embed == nil && len(m.Buttons) == 0
}

// Clone returns a deep copy so a resolved model can be handed to the caller
// without sharing the field and button slices.
func (m *Message) Clone() Message {
	out := Message{Content: m.Content}
	if m.Embed != nil {
		e := *m.Embed
		e.Fields = append([]EmbedField(nil), m.Embed.Fields...)
		out.Embed = &e
	}
	out.Buttons = append([]Button(nil), m.Buttons...)
	return out
}

func (m *Message) SetContent(content string) error {
	if utf8.RuneCountInString(content) > MaxContentLength {
		return fmt.Errorf("content exceeds %d characters", MaxContentLength)
	}
	m.Content = content
	return nil
}

// ToggleEmbed adds a default embed when none exists and removes the embed
// otherwise. Returns true when the message now carries an embed.
func (m *Message) ToggleEmbed() bool {
	if m.Embed == nil {
		m.Embed = &Embed{
			Description: DefaultDescription,
			Color:       DefaultColor,
		}
		return true
	}
	m.Embed = nil
	return false
}

func (m *Message) SetTitle(title string) error {
	if m.Embed == nil {
		return ErrNoEmbed
	}
	m.Embed.Title = title
	return nil
}

// SetDescription keeps the embed description non-empty: an embed without a
// description is rejected by the platform.
func (m *Message) SetDescription(description string) error {
	if m.Embed == nil {
		return ErrNoEmbed
	}
	if description == "" {
		description = "Please provide a description."
	}
	m.Embed.Description = description
	return nil
}

// SetColor validates the hex code before committing; on failure the prior
// color is retained.
func (m *Message) SetColor(color string) error {
	if m.Embed == nil {
		return ErrNoEmbed
	}
	if !ValidColor(color) {
		return fmt.Errorf("invalid color %q: provide a six-digit hex code (no #)", color)
	}
	m.Embed.Color = color
	return nil
}

func ValidColor(color string) bool {
	return colorPattern.MatchString(color)
}

func (m *Message) AddField(name, value string, inline bool) error {
	if m.Embed == nil {
		return ErrNoEmbed
	}
	if name == "" || value == "" {
		return errors.New("a field needs both a name and a value")
	}
	m.Embed.Fields = append(m.Embed.Fields, EmbedField{Name: name, Value: value, Inline: inline})
	return nil
}

// EditField replaces the field at index. Submitting an empty name and value
// deletes the field instead. A stale index is a no-op failure, never a panic:
// the list may have shrunk between the selection render and the submission.
func (m *Message) EditField(index int, name, value string, inline bool) error {
	if m.Embed == nil {
		return ErrNoEmbed
	}
	if index < 0 || index >= len(m.Embed.Fields) {
		return ErrStaleSelection
	}
	if name == "" && value == "" {
		return m.RemoveField(index)
	}
	m.Embed.Fields[index] = EmbedField{Name: name, Value: value, Inline: inline}
	return nil
}

func (m *Message) RemoveField(index int) error {
	if m.Embed == nil {
		return ErrNoEmbed
	}
	if index < 0 || index >= len(m.Embed.Fields) {
		return ErrStaleSelection
	}
	m.Embed.Fields = append(m.Embed.Fields[:index], m.Embed.Fields[index+1:]...)
	return nil
}

func (m *Message) AddButton(b Button) error {
	if err := m.checkButton(b, -1); err != nil {
		return err
	}
	if len(m.Buttons) >= MaxButtons {
		return fmt.Errorf("a message can hold at most %d buttons", MaxButtons)
	}
	m.Buttons = append(m.Buttons, b)
	return nil
}

func (m *Message) EditButton(index int, b Button) error {
	if index < 0 || index >= len(m.Buttons) {
		return ErrStaleSelection
	}
	if err := m.checkButton(b, index); err != nil {
		return err
	}
	m.Buttons[index] = b
	return nil
}

func (m *Message) RemoveButton(index int) error {
	if index < 0 || index >= len(m.Buttons) {
		return ErrStaleSelection
	}
	m.Buttons = append(m.Buttons[:index], m.Buttons[index+1:]...)
	return nil
}

func (m *Message) checkButton(b Button, ignoreIndex int) error {
	if b.CustomID == "" || b.Label == "" {
		return errors.New("a button needs both an ID and a label")
	}
	if len(b.CustomID) > MaxCustomIDLen {
		return fmt.Errorf("button ID exceeds %d characters", MaxCustomIDLen)
	}
	if b.Style < StylePrimary || b.Style > StyleLink {
		return fmt.Errorf("unknown button style %d", int(b.Style))
	}
	for i, existing := range m.Buttons {
		if i != ignoreIndex && existing.CustomID == b.CustomID {
			return fmt.Errorf("button ID %q is already in use", b.CustomID)
		}
	}
	return nil
}
