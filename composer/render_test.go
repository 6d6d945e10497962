package composer

import (
	"reflect"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestRenderEmptyPlaceholder(t *testing.T) {
	var m Message
	content, embeds, components := Render(&m)
	if content != "_ _" {
		t.Errorf("content = %q, want placeholder", content)
	}
	if len(embeds) != 0 || len(components) != 0 {
		t.Error("empty model rendered embeds or components")
	}
}

func TestRenderDeterministic(t *testing.T) {
	m := Message{Content: "hi"}
	m.ToggleEmbed()
	m.SetTitle("T")
	m.AddField("a", "1", true)
	m.AddButton(Button{CustomID: "x", Label: "X", Style: StyleLink})

	c1, e1, comp1 := Render(&m)
	c2, e2, comp2 := Render(&m)
	if c1 != c2 || !reflect.DeepEqual(e1, e2) || !reflect.DeepEqual(comp1, comp2) {
		t.Error("two renders of the same model differ")
	}
}

func TestRenderEmbed(t *testing.T) {
	var m Message
	m.ToggleEmbed()
	m.SetTitle("Support")
	m.SetDescription("Open a ticket below.")
	m.SetColor("5865F2")
	m.AddField("Hours", "9-5", true)

	_, embeds, _ := Render(&m)
	if len(embeds) != 1 {
		t.Fatalf("embeds = %d, want 1", len(embeds))
	}
	e := embeds[0]
	if e.Title != "Support" || e.Description != "Open a ticket below." {
		t.Errorf("embed = %+v", e)
	}
	if e.Color != 0x5865F2 {
		t.Errorf("color = %#x, want 0x5865F2", e.Color)
	}
	if len(e.Fields) != 1 || !e.Fields[0].Inline {
		t.Errorf("fields = %+v", e.Fields)
	}
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"000000", 0},
		{"FFFFFF", 0xFFFFFF},
		{"ff0000", 0xFF0000},
		{"nonsense", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := ParseColor(c.in); got != c.want {
			t.Errorf("ParseColor(%q) = %#x, want %#x", c.in, got, c.want)
		}
	}
}

func TestButtonRowsChunking(t *testing.T) {
	var buttons []Button
	for i := 0; i < 12; i++ {
		buttons = append(buttons, Button{CustomID: "b" + itoa(i), Label: "B" + itoa(i), Style: StylePrimary})
	}

	rows := ButtonRows(buttons)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	wantSizes := []int{5, 5, 2}
	n := 0
	for i, row := range rows {
		ar, ok := row.(discordgo.ActionsRow)
		if !ok {
			t.Fatalf("row %d is %T", i, row)
		}
		if len(ar.Components) != wantSizes[i] {
			t.Errorf("row %d has %d buttons, want %d", i, len(ar.Components), wantSizes[i])
		}
		for _, c := range ar.Components {
			b := c.(discordgo.Button)
			if b.CustomID != "b"+itoa(n) {
				t.Errorf("button %d out of order: %s", n, b.CustomID)
			}
			n++
		}
	}
}

func TestButtonRowsEmoji(t *testing.T) {
	rows := ButtonRows([]Button{{CustomID: "x", Label: "X", Style: StylePrimary, Emoji: "🎫"}})
	b := rows[0].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	if b.Emoji == nil || b.Emoji.Name != "🎫" {
		t.Errorf("emoji = %+v", b.Emoji)
	}

	rows = ButtonRows([]Button{{CustomID: "y", Label: "Y", Style: StylePrimary}})
	if rows[0].(discordgo.ActionsRow).Components[0].(discordgo.Button).Emoji != nil {
		t.Error("empty emoji rendered a component emoji")
	}
}
