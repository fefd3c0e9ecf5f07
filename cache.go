package expiringcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/samber/mo"
)

// EvictCallback is called when an entry is reclaimed because it expired,
// either lazily by Get or by the background sweep.
type EvictCallback[K comparable, V any] func(key K, value V)

type Options[K comparable, V any] struct {
	LogLevel      string // "debug", "info", "warn", "error"
	EvictCallback EvictCallback[K, V]
	KeyEncoder    KeyEncoder[K] // defaults to EncodeKey
}

// Cache is a key-value store whose entries expire a fixed ttl after they were
// last Put. Expired entries are never returned. They are removed lazily when
// read and by a sweep that runs every ttl.
type Cache[K comparable, V any] struct {
	db     *memdb.MemDB
	ttl    time.Duration
	opts   Options[K, V]
	encode KeyEncoder[K]
	now    func() time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func New[K comparable, V any](ttl time.Duration, opts Options[K, V]) (*Cache[K, V], error) {
	return newCache(ttl, opts, time.Now)
}

func newCache[K comparable, V any](ttl time.Duration, opts Options[K, V], now func() time.Time) (*Cache[K, V], error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidTTL, ttl)
	}

	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableName: {
				Name: tableName,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
		},
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to create memdb: %w", err)
	}

	encode := opts.KeyEncoder
	if encode == nil {
		encode = EncodeKey[K]
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache[K, V]{
		db:     db,
		ttl:    ttl,
		opts:   opts,
		encode: encode,
		now:    now,
		ctx:    ctx,
		cancel: cancel,
	}

	c.wg.Add(1)
	go c.sweepLoop()
	return c, nil
}

// TTL returns the time-to-live applied to every Put.
func (c *Cache[K, V]) TTL() time.Duration {
	return c.ttl
}

// Put stores value under key, replacing any previous entry, and sets it to
// expire ttl from now.
func (c *Cache[K, V]) Put(key K, value V) {
	e := &entry[K, V]{
		ID:        c.id(key),
		Key:       key,
		Value:     value,
		ExpiresAt: c.now().Add(c.ttl),
	}

	txn := c.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableName, e); err != nil {
		c.log("error", "Failed to insert key %s: %v", e.ID, err)
		return
	}
	txn.Commit()

	c.log("debug", "Put key: %s, expires at: %v", e.ID, e.ExpiresAt)
}

// Get returns the value stored under key. An expired entry is removed and
// reported as missing.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V

	id := c.id(key)
	e := c.lookup(id)
	if e == nil {
		return zero, false
	}

	now := c.now()
	if e.expired(now) {
		c.reclaim(e)
		return zero, false
	}

	c.log("debug", "Get key: %s", id)
	return e.Value, true
}

// GetOption is Get returning mo.Some(value) or mo.None.
func (c *Cache[K, V]) GetOption(key K) mo.Option[V] {
	if v, ok := c.Get(key); ok {
		return mo.Some(v)
	}
	return mo.None[V]()
}

// Lookup is Get returning ErrItemNotFound for a missing or expired key.
func (c *Cache[K, V]) Lookup(key K) (V, error) {
	v, ok := c.Get(key)
	if !ok {
		return v, fmt.Errorf("%w: %v", ErrItemNotFound, key)
	}
	return v, nil
}

// Remove deletes key. Removing a missing key is a no-op.
func (c *Cache[K, V]) Remove(key K) {
	id := c.id(key)

	txn := c.db.Txn(true)
	defer txn.Abort()
	raw, err := txn.First(tableName, indexID, id)
	if err != nil {
		c.log("error", "Failed to find key %s: %v", id, err)
		return
	}
	if raw == nil {
		return
	}
	if err := txn.Delete(tableName, raw); err != nil {
		c.log("error", "Failed to delete key %s: %v", id, err)
		return
	}
	txn.Commit()

	c.log("debug", "Removed key: %s", id)
}

// Clear removes every entry in a single transaction.
func (c *Cache[K, V]) Clear() {
	txn := c.db.Txn(true)
	defer txn.Abort()
	n, err := txn.DeleteAll(tableName, indexID)
	if err != nil {
		c.log("error", "Failed to clear cache: %v", err)
		return
	}
	txn.Commit()

	c.log("info", "Cache cleared, %d entries removed", n)
}

// Len returns the number of stored entries, including expired entries that
// have not been reclaimed yet.
func (c *Cache[K, V]) Len() int {
	count := 0
	c.scan(func(*entry[K, V]) { count++ })
	return count
}

// Keys returns the keys of all stored entries, expired or not, in index order.
func (c *Cache[K, V]) Keys() []K {
	var keys []K
	c.scan(func(e *entry[K, V]) { keys = append(keys, e.Key) })
	return keys
}

// Close stops the background sweep. The cache stays usable afterwards and
// still hides expired entries from Get. Close is safe to call more than once.
func (c *Cache[K, V]) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.wg.Wait()
		c.log("info", "Cache closed")
	})
	return nil
}

// id returns the index value for key. The prefix keeps it non-empty, which
// memdb requires, whatever the KeyEncoder returns.
func (c *Cache[K, V]) id(key K) string {
	return "k:" + c.encode(key)
}

func (c *Cache[K, V]) lookup(id string) *entry[K, V] {
	txn := c.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tableName, indexID, id)
	if err != nil {
		c.log("error", "Failed to retrieve key %s: %v", id, err)
		return nil
	}
	if raw == nil {
		return nil
	}
	return raw.(*entry[K, V])
}

// scan calls fn for every row of a read snapshot.
func (c *Cache[K, V]) scan(fn func(*entry[K, V])) {
	txn := c.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableName, indexID)
	if err != nil {
		c.log("error", "Failed to iterate cache: %v", err)
		return
	}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		fn(obj.(*entry[K, V]))
	}
}

// reclaim deletes e if it is still the row stored under its key. A row put
// after e was read is left alone.
func (c *Cache[K, V]) reclaim(e *entry[K, V]) {
	txn := c.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableName, indexID, e.ID)
	if err != nil {
		c.log("error", "Failed to find key %s: %v", e.ID, err)
		return
	}
	if cur, ok := raw.(*entry[K, V]); !ok || cur != e {
		return
	}
	if err := txn.Delete(tableName, e); err != nil {
		c.log("error", "Failed to remove expired key %s: %v", e.ID, err)
		return
	}
	txn.Commit()

	c.log("debug", "Expired key: %s", e.ID)
	c.evicted(e)
}

// evicted runs the EvictCallback. A panicking callback is logged and does not
// propagate.
func (c *Cache[K, V]) evicted(e *entry[K, V]) {
	if c.opts.EvictCallback == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log("error", "EvictCallback panicked for key %s: %v", e.ID, r)
		}
	}()
	c.opts.EvictCallback(e.Key, e.Value)
}
