package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type MongoStore struct {
	URI    string
	DBName string

	client  *mongo.Client
	panels  *mongo.Collection
	configs *mongo.Collection
	tickets *mongo.Collection
}

func (m *MongoStore) Init() error {
	if m.URI == "" || m.DBName == "" {
		return fmt.Errorf("database.mongodb.uri and database.mongodb.database must be set in config.json to use driver=mongodb")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(m.URI))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	db := client.Database(m.DBName)
	m.client = client
	m.panels = db.Collection("panels")
	m.configs = db.Collection("ticket_configs")
	m.tickets = db.Collection("tickets")

	m.panels.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "guild_id", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	m.configs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "guild_id", Value: 1}, {Key: "type", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	m.tickets.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "channel_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	m.tickets.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "owner_id", Value: 1}, {Key: "type", Value: 1}},
	})

	log.Printf("[DB] MongoDB initialised (database %s)", m.DBName)
	return nil
}

func (m *MongoStore) Close() error {
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoStore) GetPanel(guildID, name string) (*Panel, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var p Panel
	err := m.panels.FindOne(ctx, bson.M{"guild_id": guildID, "name": name}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *MongoStore) ListPanels(guildID string) ([]Panel, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := m.panels.Find(ctx, bson.M{"guild_id": guildID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var panels []Panel
	return panels, cursor.All(ctx, &panels)
}

func (m *MongoStore) SavePanel(p *Panel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.panels.ReplaceOne(
		ctx,
		bson.M{"guild_id": p.GuildID, "name": p.Name},
		p,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (m *MongoStore) DeletePanel(guildID, name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := m.panels.DeleteOne(ctx, bson.M{"guild_id": guildID, "name": name})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) GetTicketConfig(guildID, ticketType string) (*TicketConfig, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var c TicketConfig
	err := m.configs.FindOne(ctx, bson.M{"guild_id": guildID, "type": ticketType}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *MongoStore) ListTicketConfigs(guildID string) ([]TicketConfig, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := m.configs.Find(ctx, bson.M{"guild_id": guildID},
		options.Find().SetSort(bson.D{{Key: "type", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var configs []TicketConfig
	return configs, cursor.All(ctx, &configs)
}

func (m *MongoStore) SaveTicketConfig(c *TicketConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.configs.ReplaceOne(
		ctx,
		bson.M{"guild_id": c.GuildID, "type": c.Type},
		c,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (m *MongoStore) DeleteTicketConfig(guildID, ticketType string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := m.configs.DeleteOne(ctx, bson.M{"guild_id": guildID, "type": ticketType})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) GetTicket(channelID string) (*Ticket, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var t Ticket
	err := m.tickets.FindOne(ctx, bson.M{"channel_id": channelID}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (m *MongoStore) ListTickets(guildID string) ([]Ticket, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := m.tickets.Find(ctx, bson.M{"guild_id": guildID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tickets []Ticket
	return tickets, cursor.All(ctx, &tickets)
}

func (m *MongoStore) CountTickets(guildID, ownerID, ticketType string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := m.tickets.CountDocuments(ctx, bson.M{
		"guild_id": guildID,
		"owner_id": ownerID,
		"type":     ticketType,
	})
	return int(n), err
}

func (m *MongoStore) SaveTicket(t *Ticket) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.tickets.ReplaceOne(
		ctx,
		bson.M{"channel_id": t.ChannelID},
		t,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (m *MongoStore) DeleteTicket(channelID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := m.tickets.DeleteOne(ctx, bson.M{"channel_id": channelID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
