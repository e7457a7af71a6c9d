// Package cache provides the response cache that sits in front of the
// recommendation pipeline, absorbing repeated identical requests.
package cache

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrMiss is returned when no entry exists for a key.
var ErrMiss = errors.New("cache miss")

// DefaultTTL bounds how long a cached response is served.
const DefaultTTL = time.Hour

// Cache is the interface the pipeline consumes.
type Cache interface {
	// Get retrieves a cached value.
	Get(key string) ([]byte, error)
	// Set stores a value with a TTL. A non-positive TTL uses DefaultTTL.
	Set(key string, value []byte, ttl time.Duration) error
	// Close closes the cache.
	Close() error
}

// Key normalizes a raw query into a cache key. Two requests differing only in
// case or surrounding whitespace share an entry.
func Key(rawQuery string) string {
	return "reply:" + strings.ToLower(strings.TrimSpace(rawQuery))
}

// BadgerCache implements Cache on BadgerDB.
type BadgerCache struct {
	db *badger.DB
}

// NewBadgerCache opens a BadgerDB-backed cache at path.
func NewBadgerCache(path string) (*BadgerCache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is noisy at default levels

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &BadgerCache{db: db}, nil
}

// Get retrieves a cached value.
func (c *BadgerCache) Get(key string) ([]byte, error) {
	var val []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return val, nil
}

// Set stores a value with a TTL.
func (c *BadgerCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value).WithTTL(ttl)
		return txn.SetEntry(e)
	})
}

// Close closes the cache.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}
