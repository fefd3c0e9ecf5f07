package expiringcache

import "time"

const (
	tableName = "cache"
	indexID   = "id"
)

// entry is the row stored in the memdb table. Rows are never mutated after
// insertion; Put always inserts a fresh *entry, so pointer identity tells
// whether a row was replaced between a read and a later delete.
type entry[K comparable, V any] struct {
	ID        string
	Key       K
	Value     V
	ExpiresAt time.Time
}

func (e *entry[K, V]) expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
