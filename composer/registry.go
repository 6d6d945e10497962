package composer

import (
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// EventKind identifies the interaction type carried by an Event.
type EventKind int

const (
	EventButton EventKind = iota
	EventModal
	EventSelect
)

// Event is the transport-level interaction handed to a waiting session or
// confirmation prompt: who submitted it, the routing custom ID, and any
// submitted values.
type Event struct {
	Kind     EventKind
	UserID   string
	CustomID string
	// Values maps text-input custom IDs to their submitted values for
	// modal events.
	Values map[string]string
	// Selected is the chosen option value for select-menu events.
	Selected string
	// Interaction is the underlying platform interaction, used by the
	// surface to reply. Nil in tests.
	Interaction *discordgo.InteractionCreate
}

// Action returns the action prefix of the custom ID ("title" of
// "title:550e84...").
func (ev *Event) Action() string {
	action, _, _ := strings.Cut(ev.CustomID, ":")
	return action
}

// Token returns the session token suffix of the custom ID.
func (ev *Event) Token() string {
	_, token, ok := strings.Cut(ev.CustomID, ":")
	if !ok {
		return ""
	}
	return token
}

// The registry routes component and modal interactions back to the session
// that created them. Custom IDs carry a per-session token; the registry keys
// waiters by that token, which is what lets two admins edit different panels
// at the same time without cross-talk.
type waiter struct {
	ownerID string
	ch      chan *Event
}

var (
	regMu   sync.RWMutex
	waiters = make(map[string]waiter)
)

func register(token, ownerID string, ch chan *Event) {
	regMu.Lock()
	waiters[token] = waiter{ownerID: ownerID, ch: ch}
	regMu.Unlock()
}

func unregister(token string) {
	regMu.Lock()
	delete(waiters, token)
	regMu.Unlock()
}

// Dispatch routes an event to the session owning its token. It reports
// whether the event was addressed to a live session at all, so the caller
// can fall through to static component handling. Events from any user other
// than the session owner are swallowed without effect, and a session that is
// mid-step simply drops extra input rather than queueing it up.
func Dispatch(ev *Event) bool {
	token := ev.Token()
	if token == "" {
		return false
	}

	regMu.RLock()
	w, ok := waiters[token]
	regMu.RUnlock()
	if !ok {
		return false
	}
	if w.ownerID != ev.UserID {
		return true
	}

	select {
	case w.ch <- ev:
	default:
	}
	return true
}
