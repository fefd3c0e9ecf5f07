// Package expiringcache implements an in-memory key-value cache whose entries
// expire a fixed TTL after they are written.
//
// Entries live in a go-memdb table. Reads use snapshots, writes are
// serialized transactions, and Clear replaces the whole table in one commit.
// Expired entries are never returned: Get drops them on access, and a sweep
// goroutine owned by each Cache removes the rest once per TTL until Close.
package expiringcache
