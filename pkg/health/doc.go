// Package health serves liveness and readiness probes.
//
// Readiness runs named checks such as db.Healthcheck and redis.Healthcheck
// concurrently under one timeout and answers 503 if any fails. Both handlers
// answer plain text, or JSON when asked via Accept or ?format=json.
package health
