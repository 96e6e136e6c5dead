// Package items defines the media items handed to showmark and loads batches
// of them from JSON or YAML documents on disk or over HTTP.
package items

import (
	"fmt"
	"strings"
)

// Hints carry optional upstream knowledge that shortens resolution.
type Hints struct {
	// CanonicalName, when set, replaces the TMDB lookup.
	CanonicalName string `json:"canonical_name,omitempty" yaml:"canonical_name,omitempty"`
	TMDBID        int64  `json:"tmdb_id,omitempty" yaml:"tmdb_id,omitempty"`
}

// Item is one accepted episode. ResolvedID is filled in by the resolver, or
// supplied upstream as a manual override.
type Item struct {
	Title      string `json:"title" yaml:"title"`
	LocalName  string `json:"local_name" yaml:"local_name"`
	Hints      Hints  `json:"hints,omitempty" yaml:"hints,omitempty"`
	Season     *int   `json:"season,omitempty" yaml:"season,omitempty"`
	Episode    *int   `json:"episode,omitempty" yaml:"episode,omitempty"`
	ResolvedID string `json:"resolved_id,omitempty" yaml:"resolved_id,omitempty"`
}

// EpisodeCode renders the S01E02 form used in logs. Missing numbers render as
// "??".
func (it Item) EpisodeCode() string {
	return fmt.Sprintf("S%sE%s", pad(it.Season), pad(it.Episode))
}

// DisplayTitle prefers the item title and falls back to the series name.
func (it Item) DisplayTitle() string {
	if t := strings.TrimSpace(it.Title); t != "" {
		return t
	}
	if n := strings.TrimSpace(it.LocalName); n != "" {
		return n + " " + it.EpisodeCode()
	}
	return "(untitled)"
}

func pad(v *int) string {
	if v == nil {
		return "??"
	}
	return fmt.Sprintf("%02d", *v)
}
