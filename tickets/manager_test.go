package tickets

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"ticket-bot/storage"
)

func TestFormatName(t *testing.T) {
	user := &discordgo.User{ID: "42", Username: "alice"}

	cases := []struct {
		template string
		want     string
	}{
		{"ticket-{user}", "ticket-alice"},
		{"{id}-help", "42-help"},
		{"plain", "plain"},
		{"{user}-{user}", "alice-alice"},
	}
	for _, c := range cases {
		if got := FormatName(c.template, user); got != c.want {
			t.Errorf("FormatName(%q) = %q, want %q", c.template, got, c.want)
		}
	}

	if got := FormatName("hi {mention}", user); got != "hi <@42>" {
		t.Errorf("mention = %q", got)
	}
}

func TestCanManage(t *testing.T) {
	ticket := &storage.Ticket{
		OwnerID: "owner",
		Config: storage.TicketConfig{
			OwnerCanManage: true,
			ManagerUsers:   []string{"mod"},
			ManagerRoles:   []string{"staff"},
		},
	}

	if !CanManage(ticket, "owner", nil, 0) {
		t.Error("owner denied with OwnerCanManage set")
	}
	if !CanManage(ticket, "mod", nil, 0) {
		t.Error("manager user denied")
	}
	if !CanManage(ticket, "random", []string{"staff", "other"}, 0) {
		t.Error("manager role holder denied")
	}
	if CanManage(ticket, "random", []string{"other"}, 0) {
		t.Error("bystander allowed")
	}
	if !CanManage(ticket, "random", nil, discordgo.PermissionManageChannels) {
		t.Error("Manage Channels holder denied")
	}

	ticket.Config.OwnerCanManage = false
	if CanManage(ticket, "owner", nil, 0) {
		t.Error("owner allowed with OwnerCanManage unset")
	}
}

func TestChannelOverwrites(t *testing.T) {
	cfg := &storage.TicketConfig{
		ManagerRoles: []string{"staff"},
		ViewerRoles:  []string{"helpers"},
		ManagerUsers: []string{"mod"},
		ViewerUsers:  []string{"guest"},
	}

	overwrites := channelOverwrites("guild", "owner", cfg)
	if len(overwrites) != 6 {
		t.Fatalf("overwrites = %d, want 6", len(overwrites))
	}

	everyone := overwrites[0]
	if everyone.ID != "guild" || everyone.Deny&discordgo.PermissionViewChannel == 0 {
		t.Errorf("@everyone overwrite = %+v", everyone)
	}
	owner := overwrites[1]
	if owner.ID != "owner" || owner.Type != discordgo.PermissionOverwriteTypeMember {
		t.Errorf("owner overwrite = %+v", owner)
	}
	if owner.Allow&discordgo.PermissionViewChannel == 0 || owner.Allow&discordgo.PermissionSendMessages == 0 {
		t.Errorf("owner allow = %d", owner.Allow)
	}

	kindOf := map[string]discordgo.PermissionOverwriteType{}
	for _, ow := range overwrites[2:] {
		kindOf[ow.ID] = ow.Type
	}
	if kindOf["staff"] != discordgo.PermissionOverwriteTypeRole || kindOf["guest"] != discordgo.PermissionOverwriteTypeMember {
		t.Errorf("overwrite kinds = %v", kindOf)
	}
}
