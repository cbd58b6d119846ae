// Package redis opens go-redis clients for the session and cache stores.
//
// Open validates the URL, applies pool and socket timeouts and pings the
// server with retries so the application fails fast at startup when Redis is
// unreachable. Healthcheck and Shutdown plug the client into the readiness
// endpoint and the graceful shutdown sequence.
package redis
