package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyValueStore is the slice of the redis client the document backend needs.
type KeyValueStore interface {
	GetFromCache(ctx context.Context, key string) (string, error)
	SetToCache(ctx context.Context, key string, value string, expiration time.Duration) error
	Close() error
}

// DocumentStore keeps the whole snapshot as one JSON document under a
// single key.
type DocumentStore struct {
	kv  KeyValueStore
	key string
}

func NewDocumentStore(kv KeyValueStore, key string) *DocumentStore {
	if key == "" {
		key = "clinic:data"
	}
	return &DocumentStore{kv: kv, key: key}
}

func (d *DocumentStore) Name() string { return "redis" }

func (d *DocumentStore) Load(ctx context.Context) (*Snapshot, error) {
	raw, err := d.kv.GetFromCache(ctx, d.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot document: %w", err)
	}
	return DecodeSnapshot([]byte(raw))
}

func (d *DocumentStore) Save(ctx context.Context, snapshot *Snapshot) error {
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	if err := d.kv.SetToCache(ctx, d.key, string(data), 0); err != nil {
		return fmt.Errorf("failed to write snapshot document: %w", err)
	}
	return nil
}

func (d *DocumentStore) Close() error {
	return d.kv.Close()
}
