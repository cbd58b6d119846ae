// Package cache provides a small generic key-value cache with an in-memory
// implementation for development and tests and a Redis implementation for
// production. Sessions are stored through it.
//
//	c := cache.NewMemory[session.Data](cache.WithTTL(2 * time.Hour))
//	defer c.Close()
//
//	c = cache.NewRedis[session.Data](client, nil, cache.WithPrefix("session"))
//
// Remember wraps a loader with the cache and collapses concurrent misses
// for one key into a single load.
package cache
