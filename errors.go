package expiringcache

import "errors"

var (
	ErrInvalidTTL   = errors.New("ttl must be positive")
	ErrItemNotFound = errors.New("item not found")
)
