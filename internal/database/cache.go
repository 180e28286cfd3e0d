package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"intake/config"

	"github.com/valkey-io/valkey-go"
)

type CacheClient valkey.Client

// Cache holds one valkey client per logical database. Both are nil when no
// cache address is configured; every CacheBuilder operation is then a no-op.
type Cache struct {
	Session CacheClient
	Events  CacheClient
}

const (
	sessionCacheDB = 0
	eventsCacheDB  = 1
)

func (c Cache) Enabled() bool {
	return c.Session != nil
}

func (c Cache) Close() {
	if c.Session != nil {
		c.Session.Close()
	}
	if c.Events != nil {
		c.Events.Close()
	}
}

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")

	if config.DatabaseCacheAddress == "" {
		log.Info("Cache address is empty, running without cache")
		return nil
	}

	if config.DatabaseCachePort == 0 {
		return log.Error("cache address or port is empty",
			"address", config.DatabaseCacheAddress, "port", config.DatabaseCachePort)
	}

	address := fmt.Sprintf("%s:%d", config.DatabaseCacheAddress, config.DatabaseCachePort)

	session, err := newCacheClient(address, sessionCacheDB)
	if err != nil {
		return log.Err("failed to create session cache client", err, "address", address)
	}

	events, err := newCacheClient(address, eventsCacheDB)
	if err != nil {
		session.Close()
		return log.Err("failed to create events cache client", err, "address", address)
	}

	s.Cache = Cache{Session: session, Events: events}
	log.Info("Connected to cache", "address", address)

	return nil
}

func newCacheClient(address string, db int) (CacheClient, error) {
	return valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{address},
		SelectDB:    db,
	})
}

type CacheBuilder struct {
	client  CacheClient
	key     string
	pattern string
	value   any
	ttl     time.Duration
	ctx     context.Context
}

func NewCacheBuilder(client CacheClient, key any) *CacheBuilder {
	return &CacheBuilder{
		client:  client,
		key:     fmt.Sprint(key),
		pattern: "%s",
		ctx:     context.Background(),
	}
}

// WithHashPattern namespaces the key, e.g. "session:%s".
func (b *CacheBuilder) WithHashPattern(pattern string) *CacheBuilder {
	b.pattern = pattern
	return b
}

func (b *CacheBuilder) WithStruct(value any) *CacheBuilder {
	b.value = value
	return b
}

func (b *CacheBuilder) WithTTL(ttl time.Duration) *CacheBuilder {
	b.ttl = ttl
	return b
}

func (b *CacheBuilder) WithContext(ctx context.Context) *CacheBuilder {
	b.ctx = ctx
	return b
}

func (b *CacheBuilder) Key() string {
	return fmt.Sprintf(b.pattern, b.key)
}

func (b *CacheBuilder) Set() error {
	if b.client == nil {
		return nil
	}

	payload, err := json.Marshal(b.value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	set := b.client.B().Set().Key(b.Key()).Value(string(payload))
	if b.ttl > 0 {
		return b.client.Do(b.ctx, set.ExSeconds(int64(b.ttl.Seconds())).Build()).Error()
	}
	return b.client.Do(b.ctx, set.Build()).Error()
}

// Get decodes the cached value into out. found is false on a miss or when
// the cache is disabled.
func (b *CacheBuilder) Get(out any) (found bool, err error) {
	if b.client == nil {
		return false, nil
	}

	payload, err := b.client.Do(b.ctx, b.client.B().Get().Key(b.Key()).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return true, nil
}

func (b *CacheBuilder) Delete() error {
	if b.client == nil {
		return nil
	}
	return b.client.Do(b.ctx, b.client.B().Del().Key(b.Key()).Build()).Error()
}

// Publish sends the builder's value on the channel named by its key.
func (b *CacheBuilder) Publish() error {
	if b.client == nil {
		return nil
	}

	payload, err := json.Marshal(b.value)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	cmd := b.client.B().Publish().Channel(b.Key()).Message(string(payload)).Build()
	return b.client.Do(b.ctx, cmd).Error()
}
