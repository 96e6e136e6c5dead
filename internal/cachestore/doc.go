// Package cachestore persists opaque response payloads keyed by a caller
// supplied string, with staleness judged against a TTL at read time.
//
// Reads fail open: a broken row or unavailable database is reported as a miss
// and logged, never returned as an error, so a damaged cache can only cost an
// extra network lookup.
package cachestore
