// Package notify implements the event notifier (C8): durable,
// at-least-once per-subscriber delivery over a RabbitMQ topic
// exchange, with consumer-side (transaction_id, resource_id) dedup
// (§4.6).
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
	"github.com/ArunaStorage/aruna-sub004/pkg/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange is the single topic exchange every committed transaction publishes to.
const Exchange = "aruna.events"

// Envelope is the wire payload published for one affected/removed id.
type Envelope struct {
	TransactionID string       `json:"transaction_id"`
	ResourceID    models.ID    `json:"resource_id"`
	Event         models.Event `json:"event"`
}

// RoutingKey builds the hierarchy-path routing key a subscriber's
// durable queue binds against with a wildcard suffix (§4.6
// "hierarchies[] ... subscriptions are filtered against these
// paths").
func RoutingKey(hierarchy []models.ID) string {
	parts := make([]string, len(hierarchy))
	for i, id := range hierarchy {
		parts[i] = id.String()
	}
	return strings.Join(parts, ".")
}

// Notifier publishes committed-transaction events.
type Notifier struct {
	ch *amqp.Channel
}

// NewNotifier declares the topic exchange and wraps ch.
func NewNotifier(ch *amqp.Channel) (*Notifier, error) {
	if err := ch.ExchangeDeclare(Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, merrors.New(merrors.KindUnavailable, "declare exchange", err)
	}
	return &Notifier{ch: ch}, nil
}

// Publish emits the event (§4.6's "Each event is one of ...") once
// under the routing key of its resource id alone and once under the
// routing key of each of its hierarchy paths.
func (n *Notifier) Publish(ctx context.Context, transactionID string, event models.Event) error {
	env := Envelope{TransactionID: transactionID, ResourceID: event.ResourceID, Event: event}
	body, err := json.Marshal(env)
	if err != nil {
		return merrors.New(merrors.KindInternal, "encode event envelope", err)
	}

	routingKeys := []string{RoutingKey([]models.ID{event.ResourceID})}
	for _, path := range event.Hierarchies {
		routingKeys = append(routingKeys, RoutingKey(path))
	}

	for _, key := range routingKeys {
		err := n.ch.PublishWithContext(ctx, Exchange, key, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
		if err != nil {
			return merrors.New(merrors.KindUnavailable, "publish event", err)
		}
	}
	return nil
}

// Delivery is one pulled, not-yet-acknowledged message.
type Delivery struct {
	ReplyID string
	Envelope Envelope
	raw      amqp.Delivery
}

// Consumer binds a durable queue to Exchange for one Subscriber and
// exposes batched pull/ack plus (transaction_id, resource_id) dedup.
type Consumer struct {
	ch    *amqp.Channel
	queue string

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewConsumer declares and binds a durable queue named after sub.ID to
// RoutingKey(target) with a wildcard suffix when sub.Cascade is set
// (§4.6 "Subscribers").
func NewConsumer(ch *amqp.Channel, sub models.Subscriber, targetHierarchy []models.ID) (*Consumer, error) {
	queueName := "sub." + sub.ID.String()
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return nil, merrors.New(merrors.KindUnavailable, "declare subscriber queue", err)
	}
	bindingKey := RoutingKey(targetHierarchy)
	if sub.Cascade {
		bindingKey += ".#"
	}
	if err := ch.QueueBind(queueName, bindingKey, Exchange, false, nil); err != nil {
		return nil, merrors.New(merrors.KindUnavailable, "bind subscriber queue", err)
	}
	return &Consumer{ch: ch, queue: queueName, seen: map[string]struct{}{}}, nil
}

// Pull fetches up to batchSize undelivered messages without
// auto-acking; duplicates already observed via Ack are filtered out
// client-side per the §4.6 dedup contract.
func (c *Consumer) Pull(ctx context.Context, batchSize int) ([]Delivery, error) {
	out := make([]Delivery, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		msg, ok, err := c.ch.Get(c.queue, false)
		if err != nil {
			return nil, merrors.New(merrors.KindUnavailable, "pull from queue", err)
		}
		if !ok {
			break
		}
		var env Envelope
		if err := json.Unmarshal(msg.Body, &env); err != nil {
			_ = msg.Nack(false, false)
			continue
		}
		key := dedupKey(env.TransactionID, env.ResourceID)
		c.mu.Lock()
		_, dup := c.seen[key]
		c.mu.Unlock()
		if dup {
			_ = msg.Ack(false)
			continue
		}
		out = append(out, Delivery{
			ReplyID:  fmt.Sprintf("%d", msg.DeliveryTag),
			Envelope: env,
			raw:      msg,
		})
	}
	return out, nil
}

// Ack acknowledges every given delivery (as returned by Pull), marking their
// (transaction_id, resource_id) pairs as seen for future dedup.
func (c *Consumer) Ack(ctx context.Context, deliveries []Delivery) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range deliveries {
		if err := d.raw.Ack(false); err != nil {
			return merrors.New(merrors.KindUnavailable, "ack delivery", err)
		}
		c.seen[dedupKey(d.Envelope.TransactionID, d.Envelope.ResourceID)] = struct{}{}
	}
	return nil
}

func dedupKey(transactionID string, resourceID models.ID) string {
	return transactionID + "/" + resourceID.String()
}
