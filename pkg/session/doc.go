// Package session holds per-visitor state between requests.
//
// A Session is loaded from a Store by the token in its cookie, mutated by
// handlers and saved back at the end of the request when dirty. Flash values
// written with Flash survive exactly one further request: the kernel calls
// RemoveOldFlashData and then AgeFlashData after every handler.
//
//	sess.Flash("status", "Product saved")
//
// CacheStore adapts any cache.Cache[session.Data], so the same code runs on an
// in-process map during tests and on Redis in production.
package session
