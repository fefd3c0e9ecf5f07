package expiringcache

import (
	"log"
	"strings"
)

var logLevels = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

// ValidLogLevel reports whether level is accepted by Options.LogLevel.
// The empty string is valid and disables logging.
func ValidLogLevel(level string) bool {
	if level == "" {
		return true
	}
	_, ok := logLevels[level]
	return ok
}

func (c *Cache[K, V]) log(level, format string, v ...interface{}) {
	threshold, ok := logLevels[c.opts.LogLevel]
	if !ok || logLevels[level] < threshold {
		return
	}
	log.Printf("["+strings.ToUpper(level)+"] "+format, v...)
}
