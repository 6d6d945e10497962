package composer

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

const (
	// DefaultIdleTimeout is the rolling window the control panel stays
	// armed after the last accepted interaction.
	DefaultIdleTimeout = 120 * time.Second
	// DefaultModalTimeout bounds each modal or selection wait.
	DefaultModalTimeout = 120 * time.Second
)

// Session drives one interactive message-editing flow: it owns a Message
// model, renders a live preview plus a control panel, and mutates the model
// one accepted interaction at a time until the owner presses Done or the
// idle window lapses. Every control custom ID embeds the session token so
// concurrent sessions cannot see each other's input.
type Session struct {
	id      string
	ownerID string
	surface Surface

	idleTimeout  time.Duration
	modalTimeout time.Duration

	model  Message
	events chan *Event

	start  sync.Once
	done   chan struct{}
	result Message
}

func NewSession(surface Surface, ownerID string, seed Message) *Session {
	return &Session{
		id:           uuid.NewString(),
		ownerID:      ownerID,
		surface:      surface,
		idleTimeout:  DefaultIdleTimeout,
		modalTimeout: DefaultModalTimeout,
		model:        seed.Clone(),
		events:       make(chan *Event, 8),
		done:         make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// SetTimeouts overrides the idle and modal windows. Only meaningful before
// Edit is first called.
func (s *Session) SetTimeouts(idle, modal time.Duration) {
	s.idleTimeout = idle
	s.modalTimeout = modal
}

// Edit runs the session and blocks until it resolves, returning the final
// model. Calling Edit again while the session is running (or after it has
// resolved) joins the same outcome instead of opening a second editing
// surface.
func (s *Session) Edit(ctx context.Context) Message {
	s.start.Do(func() {
		go s.run(ctx)
	})
	<-s.done
	return s.result.Clone()
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	register(s.id, s.ownerID, s.events)
	defer unregister(s.id)

	s.refreshPreview()
	s.refreshPanel()

	idle := time.NewTimer(s.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			s.finish()
			return
		case <-idle.C:
			s.finish()
			return
		case ev := <-s.events:
			// The deadline wins over a simultaneously available event.
			select {
			case <-idle.C:
				s.finish()
				return
			default:
			}
			if s.handle(ctx, ev) {
				s.finish()
				return
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(s.idleTimeout)
		}
	}
}

// finish tears down the control panel and publishes the model. Cleanup
// failures never block resolution.
func (s *Session) finish() {
	if err := s.surface.ClosePanel(); err != nil {
		log.Printf("[composer] session %s: panel cleanup: %v", s.id, err)
	}
	s.result = s.model
}

func (s *Session) refreshPreview() {
	content, embeds, components := Render(&s.model)
	if err := s.surface.UpdatePreview(content, embeds, components); err != nil {
		log.Printf("[composer] session %s: preview update: %v", s.id, err)
	}
}

func (s *Session) refreshPanel() {
	if err := s.surface.ShowPanel(s.controlPanel()); err != nil {
		log.Printf("[composer] session %s: panel update: %v", s.id, err)
	}
}

// handle processes one accepted control-panel click. It reports true when
// the session should close.
func (s *Session) handle(ctx context.Context, ev *Event) bool {
	if ev.Kind != EventButton {
		return false
	}

	switch ev.Action() {
	case "done":
		_ = s.surface.Ack(ev)
		return true
	case "content":
		s.editContent(ctx, ev)
	case "embed":
		_ = s.surface.Ack(ev)
		s.model.ToggleEmbed()
		s.refreshPreview()
		s.refreshPanel()
	case "title":
		s.editTitle(ctx, ev)
	case "description":
		s.editDescription(ctx, ev)
	case "color":
		s.editColor(ctx, ev)
	case "afield":
		s.addField(ctx, ev)
	case "rfields":
		s.editFields(ctx, ev)
	case "addbutton":
		s.addButton(ctx, ev)
	case "editbutton":
		s.editButton(ctx, ev)
	case "removebutton":
		s.removeButton(ctx, ev)
	}
	return false
}

func (s *Session) editContent(ctx context.Context, ev *Event) {
	input := discordgo.TextInput{
		CustomID: "content",
		Label:    "New Content:",
		Style:    discordgo.TextInputParagraph,
		Value:    s.model.Content,
		Required: false,
	}
	sub := s.awaitModal(ctx, ev, "content", "Edit Message Content", input)
	if sub == nil {
		return
	}
	_ = s.surface.Ack(sub)
	_ = s.model.SetContent(sub.Values["content"])
	s.refreshPreview()
}

func (s *Session) editTitle(ctx context.Context, ev *Event) {
	if s.model.Embed == nil {
		_ = s.surface.Ack(ev)
		return
	}
	input := discordgo.TextInput{
		CustomID: "title",
		Label:    "New Title:",
		Style:    discordgo.TextInputShort,
		Value:    s.model.Embed.Title,
		Required: false,
	}
	sub := s.awaitModal(ctx, ev, "title", "Edit Embed Title", input)
	if sub == nil {
		return
	}
	_ = s.surface.Ack(sub)
	_ = s.model.SetTitle(sub.Values["title"])
	s.refreshPreview()
}

func (s *Session) editDescription(ctx context.Context, ev *Event) {
	if s.model.Embed == nil {
		_ = s.surface.Ack(ev)
		return
	}
	input := discordgo.TextInput{
		CustomID: "description",
		Label:    "New Description:",
		Style:    discordgo.TextInputParagraph,
		Value:    s.model.Embed.Description,
		Required: true,
	}
	sub := s.awaitModal(ctx, ev, "description", "Edit Embed Description", input)
	if sub == nil {
		return
	}
	_ = s.surface.Ack(sub)
	_ = s.model.SetDescription(sub.Values["description"])
	s.refreshPreview()
}

func (s *Session) editColor(ctx context.Context, ev *Event) {
	if s.model.Embed == nil {
		_ = s.surface.Ack(ev)
		return
	}
	input := discordgo.TextInput{
		CustomID:    "color",
		Label:       "New Color:",
		Style:       discordgo.TextInputShort,
		Value:       s.model.Embed.Color,
		Placeholder: "Hex color code (no #).",
		Required:    false,
	}
	sub := s.awaitModal(ctx, ev, "color", "Edit Embed Color", input)
	if sub == nil {
		return
	}
	if err := s.model.SetColor(sub.Values["color"]); err != nil {
		_ = s.surface.Error(sub, "Invalid color format. Please provide a valid hex color code (no #).")
		return
	}
	_ = s.surface.Ack(sub)
	s.refreshPreview()
}

func (s *Session) addField(ctx context.Context, ev *Event) {
	if s.model.Embed == nil {
		_ = s.surface.Ack(ev)
		return
	}
	sub := s.awaitModal(ctx, ev, "afield", "Add Embed Field",
		discordgo.TextInput{CustomID: "name", Label: "Field name:", Style: discordgo.TextInputShort, Required: true},
		discordgo.TextInput{CustomID: "value", Label: "Field value:", Style: discordgo.TextInputParagraph, Required: true},
		discordgo.TextInput{CustomID: "inline", Label: "Inline?", Style: discordgo.TextInputShort, Value: "true", Required: true},
	)
	if sub == nil {
		return
	}
	if err := s.model.AddField(sub.Values["name"], sub.Values["value"], sub.Values["inline"] == "true"); err != nil {
		_ = s.surface.Error(sub, "Please provide a name and value for the field.")
		return
	}
	_ = s.surface.Ack(sub)
	s.refreshPreview()
	s.refreshPanel()
}

func (s *Session) editFields(ctx context.Context, ev *Event) {
	if s.model.Embed == nil || len(s.model.Embed.Fields) == 0 {
		_ = s.surface.Error(ev, "No fields to edit.")
		return
	}

	options := make([]discordgo.SelectMenuOption, 0, len(s.model.Embed.Fields))
	for i, f := range s.model.Embed.Fields {
		options = append(options, discordgo.SelectMenuOption{
			Label:       f.Name,
			Description: truncate(f.Value, 50),
			Value:       itoa(i),
		})
	}
	sel, index := s.awaitSelect(ctx, ev, "rfields", "Select a field to edit or remove.", options)
	if sel == nil {
		return
	}
	if s.model.Embed == nil || index < 0 || index >= len(s.model.Embed.Fields) {
		_ = s.surface.Ack(sel)
		return
	}
	field := s.model.Embed.Fields[index]

	sub := s.awaitModal(ctx, sel, "rfields", "Edit Field - Leave blank to delete.",
		discordgo.TextInput{CustomID: "name", Label: "Field name:", Style: discordgo.TextInputShort, Value: field.Name, Required: false},
		discordgo.TextInput{CustomID: "value", Label: "Field value:", Style: discordgo.TextInputParagraph, Value: field.Value, Required: false},
		discordgo.TextInput{CustomID: "inline", Label: "Inline?", Style: discordgo.TextInputShort, Value: boolString(field.Inline), Required: true},
	)
	if sub == nil {
		return
	}
	_ = s.surface.Ack(sub)
	err := s.model.EditField(index, sub.Values["name"], sub.Values["value"], sub.Values["inline"] == "true")
	if err != nil && !errors.Is(err, ErrStaleSelection) {
		log.Printf("[composer] session %s: edit field: %v", s.id, err)
	}
	s.refreshPreview()
	s.refreshPanel()
}

func buttonInputs(b Button, prefill bool) []discordgo.TextInput {
	inputs := []discordgo.TextInput{
		{CustomID: "id", Label: "Button ID:", Style: discordgo.TextInputShort, Required: true, Placeholder: `"create-ticket-support", "close"`},
		{CustomID: "label", Label: "Button Label:", Style: discordgo.TextInputShort, Required: true},
		{CustomID: "style", Label: "Button Style:", Style: discordgo.TextInputShort, Required: true, Placeholder: "Primary, Secondary, Success, Danger"},
		{CustomID: "disabled", Label: "Disabled:", Style: discordgo.TextInputShort, Required: true, Value: "false"},
		{CustomID: "emoji", Label: "Button Emoji:", Style: discordgo.TextInputShort, Required: false},
	}
	if prefill {
		inputs[0].Value = b.CustomID
		inputs[1].Value = b.Label
		inputs[2].Value = b.Style.String()
		inputs[3].Value = boolString(b.Disabled)
		inputs[4].Value = b.Emoji
	}
	return inputs
}

func (s *Session) addButton(ctx context.Context, ev *Event) {
	sub := s.awaitModal(ctx, ev, "addbutton", "Add Button", buttonInputs(Button{}, false)...)
	if sub == nil {
		return
	}
	button, err := buttonFromValues(sub.Values)
	if err == nil {
		err = s.model.AddButton(button)
	}
	if err != nil {
		_ = s.surface.Error(sub, err.Error())
		return
	}
	_ = s.surface.Ack(sub)
	s.refreshPreview()
	s.refreshPanel()
}

func (s *Session) editButton(ctx context.Context, ev *Event) {
	if len(s.model.Buttons) == 0 {
		_ = s.surface.Error(ev, "No buttons to edit.")
		return
	}
	sel, index := s.awaitSelect(ctx, ev, "editbutton", "Select a button to edit.", buttonOptions(s.model.Buttons))
	if sel == nil {
		return
	}
	if index < 0 || index >= len(s.model.Buttons) {
		_ = s.surface.Ack(sel)
		return
	}

	sub := s.awaitModal(ctx, sel, "editbutton", "Edit Button", buttonInputs(s.model.Buttons[index], true)...)
	if sub == nil {
		return
	}
	button, err := buttonFromValues(sub.Values)
	if err == nil {
		err = s.model.EditButton(index, button)
	}
	if err != nil && !errors.Is(err, ErrStaleSelection) {
		_ = s.surface.Error(sub, err.Error())
		return
	}
	_ = s.surface.Ack(sub)
	s.refreshPreview()
}

func (s *Session) removeButton(ctx context.Context, ev *Event) {
	if len(s.model.Buttons) == 0 {
		_ = s.surface.Error(ev, "No buttons to remove.")
		return
	}
	sel, index := s.awaitSelect(ctx, ev, "removebutton", "Select a button to remove.", buttonOptions(s.model.Buttons))
	if sel == nil {
		return
	}
	_ = s.surface.Ack(sel)
	if err := s.model.RemoveButton(index); err != nil {
		return
	}
	s.refreshPreview()
	s.refreshPanel()
}

func buttonOptions(buttons []Button) []discordgo.SelectMenuOption {
	options := make([]discordgo.SelectMenuOption, 0, len(buttons))
	for i, b := range buttons {
		options = append(options, discordgo.SelectMenuOption{
			Label:       b.Label,
			Description: truncate(b.CustomID, 50),
			Value:       itoa(i),
		})
	}
	return options
}

func buttonFromValues(values map[string]string) (Button, error) {
	style, err := ParseButtonStyle(values["style"])
	if err != nil {
		return Button{}, err
	}
	return Button{
		CustomID: values["id"],
		Label:    values["label"],
		Style:    style,
		Disabled: values["disabled"] == "true",
		Emoji:    values["emoji"],
	}, nil
}

// awaitModal shows a modal in response to ev and waits for its submission.
// Returns nil when the wait times out or the context ends; the pending
// sub-step is simply abandoned and control returns to the panel loop.
func (s *Session) awaitModal(ctx context.Context, ev *Event, action, title string, inputs ...discordgo.TextInput) *Event {
	modalID := s.cid(action + ".modal")
	if err := s.surface.ShowModal(ev, modalID, title, inputs); err != nil {
		log.Printf("[composer] session %s: show modal: %v", s.id, err)
		return nil
	}
	return s.await(ctx, EventModal, modalID)
}

// awaitSelect shows a single-choice menu and waits for a pick, returning the
// selection event and the chosen index (-1 on timeout). The prompt message
// is removed regardless of outcome.
func (s *Session) awaitSelect(ctx context.Context, ev *Event, action, prompt string, options []discordgo.SelectMenuOption) (*Event, int) {
	selectID := s.cid(action + ".select")
	cleanup, err := s.surface.ShowSelect(ev, selectID, prompt, options)
	if err != nil {
		log.Printf("[composer] session %s: show select: %v", s.id, err)
		return nil, -1
	}
	if cleanup != nil {
		defer cleanup()
	}

	sel := s.await(ctx, EventSelect, selectID)
	if sel == nil {
		return nil, -1
	}
	return sel, atoi(sel.Selected)
}

// await blocks for one event of the given kind and custom ID, bounded by the
// modal window. Non-matching events arriving mid-wait are stray input from
// an outdated surface and are dropped.
func (s *Session) await(ctx context.Context, kind EventKind, customID string) *Event {
	timer := time.NewTimer(s.modalTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			return nil
		case ev := <-s.events:
			select {
			case <-timer.C:
				return nil
			default:
			}
			if ev.Kind == kind && ev.CustomID == customID {
				return ev
			}
		}
	}
}

// controlPanel builds the editing controls for the current model shape:
// embed controls only exist while an embed does, and list editors are
// disabled while their lists are empty.
func (s *Session) controlPanel() []discordgo.MessageComponent {
	embedLabel, embedStyle := "Add Embed", discordgo.PrimaryButton
	if s.model.Embed != nil {
		embedLabel, embedStyle = "Remove Embed", discordgo.DangerButton
	}

	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{CustomID: s.cid("done"), Label: "Done", Style: discordgo.SuccessButton},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{CustomID: s.cid("content"), Label: "Edit Content", Style: discordgo.PrimaryButton},
			discordgo.Button{CustomID: s.cid("embed"), Label: embedLabel, Style: embedStyle},
		}},
	}

	if s.model.Embed != nil {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{CustomID: s.cid("title"), Label: "Edit Title", Style: discordgo.PrimaryButton},
			discordgo.Button{CustomID: s.cid("description"), Label: "Edit Description", Style: discordgo.PrimaryButton},
			discordgo.Button{CustomID: s.cid("color"), Label: "Edit Color", Style: discordgo.PrimaryButton},
			discordgo.Button{CustomID: s.cid("afield"), Label: "Add Field", Style: discordgo.PrimaryButton},
			discordgo.Button{CustomID: s.cid("rfields"), Label: "Edit/Remove Field", Style: discordgo.PrimaryButton, Disabled: len(s.model.Embed.Fields) == 0},
		}})
	}

	rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{CustomID: s.cid("addbutton"), Label: "Add Button", Style: discordgo.PrimaryButton},
		discordgo.Button{CustomID: s.cid("editbutton"), Label: "Edit Button", Style: discordgo.PrimaryButton, Disabled: len(s.model.Buttons) == 0},
		discordgo.Button{CustomID: s.cid("removebutton"), Label: "Remove Button", Style: discordgo.DangerButton, Disabled: len(s.model.Buttons) == 0},
	}})

	return rows
}

func (s *Session) cid(action string) string {
	return action + ":" + s.id
}
