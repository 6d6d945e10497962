package composer

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Prompter posts a yes/no question with two buttons carrying the given
// custom IDs, and acknowledges the answering click. Implementations decide
// where the prompt lives (ephemeral follow-up, channel message).
type Prompter interface {
	ShowConfirm(question, yesID, noID string) (cleanup func(), err error)
	AckConfirm(ev *Event) error
}

// AwaitConfirm asks ownerID a yes/no question and blocks for the answer.
// It resolves false on timeout or context cancellation. Clicks from other
// users are ignored, so a confirmation posted in a shared channel cannot be
// answered on the owner's behalf.
func AwaitConfirm(ctx context.Context, p Prompter, ownerID, question string, timeout time.Duration) (bool, error) {
	token := uuid.NewString()
	events := make(chan *Event, 4)

	register(token, ownerID, events)
	defer unregister(token)

	cleanup, err := p.ShowConfirm(question, "confirm.yes:"+token, "confirm.no:"+token)
	if err != nil {
		return false, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, nil
		case <-timer.C:
			return false, nil
		case ev := <-events:
			if ev.Kind != EventButton {
				continue
			}
			switch ev.Action() {
			case "confirm.yes":
				_ = p.AckConfirm(ev)
				return true, nil
			case "confirm.no":
				_ = p.AckConfirm(ev)
				return false, nil
			}
		}
	}
}
