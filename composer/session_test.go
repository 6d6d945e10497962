package composer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

// fakeSurface records every call a session makes so tests can assert on the
// surface traffic without a live gateway.
type fakeSurface struct {
	mu       sync.Mutex
	previews int
	panels   [][]discordgo.MessageComponent
	modals   []string
	selects  []string
	errs     []string
	closed   bool
}

func (f *fakeSurface) UpdatePreview(string, []*discordgo.MessageEmbed, []discordgo.MessageComponent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previews++
	return nil
}

func (f *fakeSurface) ShowPanel(components []discordgo.MessageComponent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panels = append(f.panels, components)
	return nil
}

func (f *fakeSurface) ClosePanel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSurface) ShowModal(_ *Event, customID, _ string, _ []discordgo.TextInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modals = append(f.modals, customID)
	return nil
}

func (f *fakeSurface) ShowSelect(_ *Event, customID, _ string, _ []discordgo.SelectMenuOption) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selects = append(f.selects, customID)
	return func() {}, nil
}

func (f *fakeSurface) Ack(*Event) error { return nil }

func (f *fakeSurface) Error(_ *Event, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, msg)
	return nil
}

func (f *fakeSurface) snapshot() (previews, panels, modals, selects, errs int, closed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.previews, len(f.panels), len(f.modals), len(f.selects), len(f.errs), f.closed
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startSession(t *testing.T, owner string, seed Message) (*Session, *fakeSurface, <-chan Message) {
	t.Helper()
	surface := &fakeSurface{}
	s := NewSession(surface, owner, seed)
	out := make(chan Message, 1)
	go func() {
		out <- s.Edit(context.Background())
	}()
	waitFor(t, "initial panel", func() bool {
		_, panels, _, _, _, _ := surface.snapshot()
		return panels > 0
	})
	return s, surface, out
}

func click(s *Session, owner, action string) bool {
	return Dispatch(&Event{Kind: EventButton, UserID: owner, CustomID: action + ":" + s.ID()})
}

func submitModal(s *Session, owner, action string, values map[string]string) bool {
	return Dispatch(&Event{
		Kind:     EventModal,
		UserID:   owner,
		CustomID: action + ".modal:" + s.ID(),
		Values:   values,
	})
}

func pickOption(s *Session, owner, action, value string) bool {
	return Dispatch(&Event{
		Kind:     EventSelect,
		UserID:   owner,
		CustomID: action + ".select:" + s.ID(),
		Selected: value,
	})
}

func resolved(t *testing.T, out <-chan Message) Message {
	t.Helper()
	select {
	case m := <-out:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("session did not resolve")
		return Message{}
	}
}

func TestSessionDoneReturnsSeed(t *testing.T) {
	seed := Message{Content: "keep me"}
	s, surface, out := startSession(t, "owner", seed)

	if !click(s, "owner", "done") {
		t.Fatal("done click was not routed")
	}
	got := resolved(t, out)
	if got.Content != "keep me" {
		t.Errorf("result content = %q", got.Content)
	}
	waitFor(t, "panel close", func() bool {
		_, _, _, _, _, closed := surface.snapshot()
		return closed
	})
	if Dispatch(&Event{Kind: EventButton, UserID: "owner", CustomID: "done:" + s.ID()}) {
		t.Error("resolved session still registered")
	}
}

func TestSessionToggleEmbed(t *testing.T) {
	s, _, out := startSession(t, "owner", Message{})

	click(s, "owner", "embed")
	click(s, "owner", "done")

	got := resolved(t, out)
	if got.Embed == nil {
		t.Fatal("result has no embed")
	}
	if got.Embed.Description != DefaultDescription || got.Embed.Color != DefaultColor {
		t.Errorf("embed defaults = %+v", got.Embed)
	}
}

func TestSessionTitleModalFlow(t *testing.T) {
	seed := Message{Embed: &Embed{Description: "d", Color: "000000"}}
	s, surface, out := startSession(t, "owner", seed)

	click(s, "owner", "title")
	waitFor(t, "title modal", func() bool {
		_, _, modals, _, _, _ := surface.snapshot()
		return modals > 0
	})
	submitModal(s, "owner", "title", map[string]string{"title": "Open a ticket"})

	waitFor(t, "title applied", func() bool {
		previews, _, _, _, _, _ := surface.snapshot()
		return previews >= 2
	})
	click(s, "owner", "done")

	got := resolved(t, out)
	if got.Embed.Title != "Open a ticket" {
		t.Errorf("title = %q", got.Embed.Title)
	}
}

func TestSessionFieldSelectDelete(t *testing.T) {
	seed := Message{Embed: &Embed{
		Description: "d",
		Color:       "000000",
		Fields:      []EmbedField{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}},
	}}
	s, surface, out := startSession(t, "owner", seed)

	click(s, "owner", "rfields")
	waitFor(t, "field select", func() bool {
		_, _, _, selects, _, _ := surface.snapshot()
		return selects > 0
	})
	pickOption(s, "owner", "rfields", "0")
	waitFor(t, "field modal", func() bool {
		_, _, modals, _, _, _ := surface.snapshot()
		return modals > 0
	})
	// Blank name and value delete the field instead of editing it.
	submitModal(s, "owner", "rfields", map[string]string{"name": "", "value": "", "inline": "false"})
	waitFor(t, "field removed", func() bool {
		previews, _, _, _, _, _ := surface.snapshot()
		return previews >= 2
	})
	click(s, "owner", "done")

	got := resolved(t, out)
	if len(got.Embed.Fields) != 1 || got.Embed.Fields[0].Name != "b" {
		t.Errorf("fields = %+v", got.Embed.Fields)
	}
}

func TestSessionInvalidColorKeepsPrior(t *testing.T) {
	seed := Message{Embed: &Embed{Description: "d", Color: "FF0000"}}
	s, surface, out := startSession(t, "owner", seed)

	click(s, "owner", "color")
	waitFor(t, "color modal", func() bool {
		_, _, modals, _, _, _ := surface.snapshot()
		return modals > 0
	})
	submitModal(s, "owner", "color", map[string]string{"color": "not-a-color"})
	waitFor(t, "inline error", func() bool {
		_, _, _, _, errs, _ := surface.snapshot()
		return errs > 0
	})
	click(s, "owner", "done")

	got := resolved(t, out)
	if got.Embed.Color != "FF0000" {
		t.Errorf("color = %q after rejected submission", got.Embed.Color)
	}
}

func TestSessionModalTimeout(t *testing.T) {
	s := NewSession(&fakeSurface{}, "owner", Message{Content: "before"})
	s.SetTimeouts(5*time.Second, 60*time.Millisecond)
	surface := s.surface.(*fakeSurface)

	out := make(chan Message, 1)
	go func() { out <- s.Edit(context.Background()) }()
	waitFor(t, "initial panel", func() bool {
		_, panels, _, _, _, _ := surface.snapshot()
		return panels > 0
	})

	click(s, "owner", "content")
	waitFor(t, "content modal", func() bool {
		_, _, modals, _, _, _ := surface.snapshot()
		return modals > 0
	})
	// No submission: the sub-step lapses and the session keeps running.
	time.Sleep(120 * time.Millisecond)

	if !click(s, "owner", "done") {
		t.Fatal("session gone after modal timeout")
	}
	got := resolved(t, out)
	if got.Content != "before" {
		t.Errorf("content = %q, want unchanged", got.Content)
	}
}

func TestSessionIdleTimeout(t *testing.T) {
	s := NewSession(&fakeSurface{}, "owner", Message{Content: "idle"})
	s.SetTimeouts(50*time.Millisecond, 50*time.Millisecond)
	surface := s.surface.(*fakeSurface)

	got := s.Edit(context.Background())
	if got.Content != "idle" {
		t.Errorf("result = %q", got.Content)
	}
	_, _, _, _, _, closed := surface.snapshot()
	if !closed {
		t.Error("panel not closed on idle timeout")
	}
}

func TestDispatchFiltersByOwner(t *testing.T) {
	s, surface, out := startSession(t, "owner", Message{Content: "mine"})

	// A stranger's click is claimed but has no effect.
	if !click(s, "intruder", "embed") {
		t.Error("event for a live token reported unrouted")
	}
	time.Sleep(50 * time.Millisecond)
	previews, _, _, _, _, _ := surface.snapshot()
	if previews != 1 {
		t.Errorf("previews = %d, stranger input reached the session", previews)
	}

	click(s, "owner", "done")
	got := resolved(t, out)
	if got.Embed != nil {
		t.Error("stranger toggled the embed")
	}
}

func TestDispatchUnknownToken(t *testing.T) {
	ev := &Event{Kind: EventButton, UserID: "u", CustomID: "create-ticket-support"}
	if Dispatch(ev) {
		t.Error("static custom ID claimed by the registry")
	}
	ev = &Event{Kind: EventButton, UserID: "u", CustomID: "done:no-such-token"}
	if Dispatch(ev) {
		t.Error("unknown token claimed")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	a, _, outA := startSession(t, "alice", Message{})
	b, _, outB := startSession(t, "bob", Message{})

	click(a, "alice", "embed")
	click(b, "bob", "done")

	gotB := resolved(t, outB)
	if gotB.Embed != nil {
		t.Error("alice's toggle leaked into bob's session")
	}

	click(a, "alice", "done")
	gotA := resolved(t, outA)
	if gotA.Embed == nil {
		t.Error("alice's toggle was lost")
	}
}

// fakePrompter backs AwaitConfirm tests.
type fakePrompter struct {
	mu          sync.Mutex
	yesID, noID string
	cleanedUp   bool
}

func (p *fakePrompter) ShowConfirm(_, yesID, noID string) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.yesID, p.noID = yesID, noID
	return func() {
		p.mu.Lock()
		p.cleanedUp = true
		p.mu.Unlock()
	}, nil
}

func (p *fakePrompter) AckConfirm(*Event) error { return nil }

func (p *fakePrompter) ids() (string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.yesID, p.noID
}

func TestAwaitConfirmYes(t *testing.T) {
	p := &fakePrompter{}
	done := make(chan bool, 1)
	go func() {
		ok, err := AwaitConfirm(context.Background(), p, "owner", "Close this ticket?", 2*time.Second)
		if err != nil {
			t.Error(err)
		}
		done <- ok
	}()

	waitFor(t, "confirm prompt", func() bool {
		yes, _ := p.ids()
		return yes != ""
	})
	yes, _ := p.ids()

	// A stranger cannot answer for the owner.
	Dispatch(&Event{Kind: EventButton, UserID: "intruder", CustomID: yes})
	select {
	case <-done:
		t.Fatal("stranger resolved the confirmation")
	case <-time.After(50 * time.Millisecond):
	}

	Dispatch(&Event{Kind: EventButton, UserID: "owner", CustomID: yes})
	select {
	case ok := <-done:
		if !ok {
			t.Error("yes click resolved false")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation did not resolve")
	}
}

func TestAwaitConfirmTimeout(t *testing.T) {
	p := &fakePrompter{}
	ok, err := AwaitConfirm(context.Background(), p, "owner", "Sure?", 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("timeout resolved true")
	}
}
