package expiringcache

import "time"

// sweepLoop runs a sweep every ttl until Close. The ticker's first tick
// arrives one full period after construction.
func (c *Cache[K, V]) sweepLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.sweep(c.now())
		}
	}
}

// sweep removes every entry that expired before now and returns how many it
// removed. Candidates are collected and deleted inside one write transaction,
// so a key re-Put after now was sampled cannot be removed. A panic ends only
// the current pass.
func (c *Cache[K, V]) sweep(now time.Time) int {
	defer func() {
		if r := recover(); r != nil {
			c.log("error", "Sweep aborted: %v", r)
		}
	}()

	txn := c.db.Txn(true)
	defer txn.Abort()

	it, err := txn.Get(tableName, indexID)
	if err != nil {
		c.log("error", "Failed to iterate cache: %v", err)
		return 0
	}

	var dead []*entry[K, V]
	for obj := it.Next(); obj != nil; obj = it.Next() {
		e := obj.(*entry[K, V])
		if e.expired(now) {
			dead = append(dead, e)
		}
	}
	if len(dead) == 0 {
		return 0
	}

	gone := dead[:0]
	for _, e := range dead {
		if err := txn.Delete(tableName, e); err != nil {
			c.log("error", "Failed to remove expired key %s: %v", e.ID, err)
			continue
		}
		gone = append(gone, e)
	}
	txn.Commit()

	c.log("debug", "Sweep removed %d expired entries", len(gone))
	for _, e := range gone {
		c.evicted(e)
	}
	return len(gone)
}
