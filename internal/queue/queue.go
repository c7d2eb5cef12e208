// Package queue wraps RabbitMQ for durable search-index sync.
//
// In queue sync mode the API publishes one Event per catalog write to the
// "search_sync" queue, and the worker applies each event to Elasticsearch.
//
// Durability guarantees:
//   - Queue is declared as durable, so it survives broker restarts.
//   - Messages are marked as Persistent and written to disk.
//   - Consumer uses manual ack: a message is only removed from the queue
//     after the worker has applied it to the index.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"car-rental-catalog/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

const syncQueueName = "search_sync"

// Op names the index operation an Event carries.
type Op string

const (
	OpConfigure  Op = "configure"
	OpUpsert     Op = "upsert"
	OpDelete     Op = "delete"
	OpReplaceAll Op = "replace_all"
)

// Event is one search-index change.
type Event struct {
	Op      Op                    `json:"op"`
	ID      string                `json:"id,omitempty"`
	Record  *models.SearchRecord  `json:"record,omitempty"`
	Records []models.SearchRecord `json:"records,omitempty"`
}

// Validate rejects events that can never be applied.
func (e Event) Validate() error {
	switch e.Op {
	case OpConfigure, OpReplaceAll:
		return nil
	case OpUpsert:
		if e.Record == nil || e.Record.ID == "" {
			return fmt.Errorf("queue: upsert event without record")
		}
		return nil
	case OpDelete:
		if e.ID == "" {
			return fmt.Errorf("queue: delete event without id")
		}
		return nil
	default:
		return fmt.Errorf("queue: unknown op %q", e.Op)
	}
}

// Publisher owns the AMQP connection for the API side (publish only).
// Its methods match the index writer used by the catalog syncer, so the
// syncer can write to the queue instead of the index.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

// NewPublisher dials RabbitMQ and declares the shared queue.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("queue: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("queue: open channel: %w", err)
	}

	q, err := declareQueue(ch)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, channel: ch, queue: q}, nil
}

// Publish serialises the event and sends it to the queue.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return p.channel.PublishWithContext(ctx,
		"",           // default exchange routes directly to the named queue
		p.queue.Name, // routing key == queue name for default exchange
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (p *Publisher) ConfigureIndex(ctx context.Context) error {
	return p.Publish(ctx, Event{Op: OpConfigure})
}

func (p *Publisher) UpsertRecord(ctx context.Context, rec models.SearchRecord) error {
	return p.Publish(ctx, Event{Op: OpUpsert, ID: rec.ID, Record: &rec})
}

func (p *Publisher) DeleteRecord(ctx context.Context, id string) error {
	return p.Publish(ctx, Event{Op: OpDelete, ID: id})
}

func (p *Publisher) ReplaceAll(ctx context.Context, recs []models.SearchRecord) error {
	if recs == nil {
		recs = []models.SearchRecord{}
	}
	return p.Publish(ctx, Event{Op: OpReplaceAll, Records: recs})
}

// Close releases the AMQP channel and connection.
func (p *Publisher) Close() {
	p.channel.Close()
	p.conn.Close()
}

// Consumer owns the AMQP connection for the worker side (consume only).
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

// NewConsumer dials RabbitMQ and sets QoS to process one message at a time.
func NewConsumer(url string) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("queue: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("queue: open channel: %w", err)
	}

	// One in-flight message keeps index writes in publish order.
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("queue: set qos: %w", err)
	}

	q, err := declareQueue(ch)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Consumer{conn: conn, channel: ch, queue: q}, nil
}

// Acknowledger settles a delivery. amqp.Delivery satisfies it.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Delivery carries a decoded Event and ack/nack helpers.
type Delivery struct {
	Event Event
	raw   Acknowledger
}

// NewDelivery pairs an event with its acknowledger.
func NewDelivery(ev Event, ack Acknowledger) Delivery {
	return Delivery{Event: ev, raw: ack}
}

// Ack removes the message from RabbitMQ after successful processing.
func (d *Delivery) Ack() error { return d.raw.Ack(false) }

// Nack requeues the message so it is retried.
func (d *Delivery) Nack() error { return d.raw.Nack(false, true) }

// Discard permanently rejects a message (e.g. unparseable payload).
func (d *Delivery) Discard() error { return d.raw.Nack(false, false) }

// Consume returns a channel of Delivery values. Each value must be Ack'd or
// Nack'd. Messages that do not decode into a valid Event are discarded here.
func (c *Consumer) Consume() (<-chan Delivery, error) {
	rawMsgs, err := c.channel.Consume(
		c.queue.Name,
		"",    // consumer tag, auto-generated
		false, // auto-ack disabled; we ack after the index write
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("queue: consume: %w", err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for d := range rawMsgs {
			ev, err := Decode(d.Body)
			if err != nil {
				d.Nack(false, false)
				continue
			}
			out <- NewDelivery(ev, d)
		}
	}()

	return out, nil
}

// Decode parses and validates a message body.
func Decode(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("queue: decode event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Close releases the AMQP channel and connection.
func (c *Consumer) Close() {
	c.channel.Close()
	c.conn.Close()
}

// declareQueue is shared between Publisher and Consumer so both sides
// always declare the same durable queue.
func declareQueue(ch *amqp.Channel) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		syncQueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("queue: declare: %w", err)
	}
	return q, nil
}
