// Package config loads, normalizes, and validates showmark configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MYEPISODES_PASSWORD and TMDB_API_KEY. The Config type centralizes every knob
// the CLI needs so the state database location, tracker credentials, and cache
// retention windows are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, parsed retention windows, and clear validation errors.
package config
