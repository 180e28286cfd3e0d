package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"intake/config"
	"intake/internal/database"
	"intake/internal/logger"
)

type EventType string

const (
	SessionCreated   EventType = "session.created"
	StepCompleted    EventType = "step.completed"
	SessionCompleted EventType = "session.completed"
	IFCUpdated       EventType = "ifc.updated"
)

const AdminChannel = "admin"

const subscriberBuffer = 64

var ErrBusClosed = errors.New("event bus is closed")

type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Channel   string         `json:"channel"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type subscription struct {
	id int
	ch chan Event
}

// EventBus fans events out to in-process subscribers and, when a cache
// client is configured, republishes them on "events:<channel>" for other
// instances.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]subscription
	nextID      int
	closed      bool
	client      database.CacheClient
	log         logger.Logger
}

func New(client database.CacheClient, config config.Config) *EventBus {
	log := logger.New("EventBus")
	log.Function("New").Debug("Creating event bus", "remote", client != nil, "environment", config.Environment)

	return &EventBus{
		subscribers: make(map[string][]subscription),
		client:      client,
		log:         log,
	}
}

// Subscribe returns a buffered stream of events for channel and a function
// that ends the subscription. A slow subscriber misses events rather than
// blocking publishers.
func (b *EventBus) Subscribe(channel string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	b.nextID++
	id := b.nextID
	b.subscribers[channel] = append(b.subscribers[channel], subscription{id: id, ch: ch})

	return ch, func() { b.unsubscribe(channel, id) }
}

func (b *EventBus) unsubscribe(channel string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[channel]
	for i, sub := range subs {
		if sub.id == id {
			close(sub.ch)
			b.subscribers[channel] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

func (b *EventBus) Publish(ctx context.Context, event Event) error {
	log := b.log.Function("Publish")

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	for _, sub := range b.subscribers[event.Channel] {
		select {
		case sub.ch <- event:
		default:
			log.Warn("Dropping event for slow subscriber", "type", event.Type, "channel", event.Channel)
		}
	}
	b.mu.RUnlock()

	if err := database.NewCacheBuilder(b.client, event.Channel).
		WithHashPattern("events:%s").
		WithStruct(event).
		WithContext(ctx).
		Publish(); err != nil {
		return log.Err("failed to publish event to cache", err, "type", event.Type)
	}

	log.Debug("Published event", "type", event.Type, "channel", event.Channel)
	return nil
}

func (b *EventBus) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[channel])
}

func (b *EventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for channel, subs := range b.subscribers {
		for _, sub := range subs {
			close(sub.ch)
		}
		delete(b.subscribers, channel)
	}

	return nil
}
