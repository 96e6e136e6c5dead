// Package tmdb provides the minimal TMDB API client used to turn a local
// series name into the canonical title the tracker search expects.
//
// It exposes TV search and TV detail retrieval plus CanonicalName, which picks
// the best title for a query. Options allow tests to supply custom HTTP
// clients without modifying production code.
package tmdb
