// Package events publishes ticket lifecycle notifications to an AMQP
// exchange so other services (dashboards, stats collectors) can follow what
// the bot is doing without polling the database.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	TicketOpened = "ticket.opened"
	TicketClosed = "ticket.closed"
	PanelSent    = "panel.sent"
)

// Event is the JSON payload published for every lifecycle change.
type Event struct {
	Kind      string    `json:"kind"`
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Type      string    `json:"type,omitempty"`
	Panel     string    `json:"panel,omitempty"`
	At        time.Time `json:"at"`
}

type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// Connect dials the broker and declares a durable topic exchange. Events are
// best-effort: the bot works fine without a broker, so callers treat a nil
// Publisher as "disabled".
func Connect(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	log.Printf("[EVENTS] Connected to %s (exchange %s)", url, exchange)
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.conn.Close()
}

// Publish sends one event with its kind as the routing key. Failures are
// logged and swallowed; a broker outage must never fail a ticket operation.
func (p *Publisher) Publish(ev Event) {
	if p == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[EVENTS] marshal %s: %v", ev.Kind, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, p.exchange, ev.Kind, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   ev.At,
		Body:        body,
	})
	if err != nil {
		log.Printf("[EVENTS] publish %s: %v", ev.Kind, err)
	}
}
