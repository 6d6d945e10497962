package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ticket-bot/composer"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := &SQLiteStore{Path: filepath.Join(t.TempDir(), "tickets.db")}
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPanelRoundTrip(t *testing.T) {
	s := newTestStore(t)

	msg := composer.Message{Content: "Need help?"}
	msg.ToggleEmbed()
	msg.SetTitle("Support")
	msg.AddButton(composer.Button{CustomID: "create-ticket-support", Label: "Open", Style: composer.StylePrimary})

	p := &Panel{GuildID: "g1", Name: "support", Message: msg}
	if err := s.SavePanel(p); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetPanel("g1", "support")
	if err != nil {
		t.Fatal(err)
	}
	if got.Message.Content != "Need help?" || got.Message.Embed == nil || len(got.Message.Buttons) != 1 {
		t.Errorf("panel round trip lost data: %+v", got.Message)
	}

	// Saving the same name overwrites.
	p.Message.Content = "Updated"
	if err := s.SavePanel(p); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetPanel("g1", "support")
	if got.Message.Content != "Updated" {
		t.Errorf("upsert did not replace: %q", got.Message.Content)
	}

	panels, err := s.ListPanels("g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(panels) != 1 {
		t.Errorf("panels = %d, want 1", len(panels))
	}

	if _, err := s.GetPanel("g1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing panel: err = %v, want ErrNotFound", err)
	}
	if err := s.DeletePanel("g1", "support"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeletePanel("g1", "support"); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: err = %v, want ErrNotFound", err)
	}
}

func TestPanelsAreGuildScoped(t *testing.T) {
	s := newTestStore(t)

	s.SavePanel(&Panel{GuildID: "g1", Name: "support"})
	s.SavePanel(&Panel{GuildID: "g2", Name: "support"})

	if _, err := s.GetPanel("g1", "support"); err != nil {
		t.Fatal(err)
	}
	panels, _ := s.ListPanels("g1")
	if len(panels) != 1 {
		t.Errorf("g1 panels = %d, want 1", len(panels))
	}
}

func TestTicketConfigRoundTrip(t *testing.T) {
	s := newTestStore(t)

	c := &TicketConfig{
		GuildID:      "g1",
		Type:         "support",
		ManagerRoles: []string{"r1"},
		ViewerUsers:  []string{"u9"},
		MaxTickets:   3,
		NameTemplate: "ticket-{user}",
	}
	if err := s.SaveTicketConfig(c); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTicketConfig("g1", "support")
	if err != nil {
		t.Fatal(err)
	}
	if got.MaxTickets != 3 || len(got.ManagerRoles) != 1 || got.NameTemplate != "ticket-{user}" {
		t.Errorf("config round trip lost data: %+v", got)
	}

	if _, err := s.GetTicketConfig("g1", "billing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing config: err = %v, want ErrNotFound", err)
	}

	configs, _ := s.ListTicketConfigs("g1")
	if len(configs) != 1 {
		t.Errorf("configs = %d, want 1", len(configs))
	}
}

func TestTicketCounting(t *testing.T) {
	s := newTestStore(t)

	open := func(channel, owner, typ string) {
		t.Helper()
		err := s.SaveTicket(&Ticket{
			ChannelID: channel,
			GuildID:   "g1",
			Type:      typ,
			OwnerID:   owner,
			OpenedAt:  time.Now(),
			Config:    TicketConfig{GuildID: "g1", Type: typ},
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	open("c1", "alice", "support")
	open("c2", "alice", "support")
	open("c3", "alice", "billing")
	open("c4", "bob", "support")

	n, err := s.CountTickets("g1", "alice", "support")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("alice support tickets = %d, want 2", n)
	}

	if err := s.DeleteTicket("c1"); err != nil {
		t.Fatal(err)
	}
	n, _ = s.CountTickets("g1", "alice", "support")
	if n != 1 {
		t.Errorf("after close = %d, want 1", n)
	}

	tickets, _ := s.ListTickets("g1")
	if len(tickets) != 3 {
		t.Errorf("open tickets = %d, want 3", len(tickets))
	}
}

func TestTicketSnapshotMutation(t *testing.T) {
	s := newTestStore(t)

	ticket := &Ticket{
		ChannelID: "c1",
		GuildID:   "g1",
		Type:      "support",
		OwnerID:   "alice",
		Config:    TicketConfig{GuildID: "g1", Type: "support", ViewerUsers: []string{"bob"}},
	}
	if err := s.SaveTicket(ticket); err != nil {
		t.Fatal(err)
	}

	// /add mutates the per-ticket snapshot, not the type config.
	ticket.Config.ViewerUsers = append(ticket.Config.ViewerUsers, "carol")
	if err := s.SaveTicket(ticket); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTicket("c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Config.ViewerUsers) != 2 {
		t.Errorf("viewer users = %v", got.Config.ViewerUsers)
	}
}
