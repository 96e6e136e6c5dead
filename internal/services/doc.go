// Package services defines shared utilities consumed by the run pipeline and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and item titles for logging.
//   - Structured error markers plus the Wrap helper that let callers decide
//     whether a failure ends the whole run or only skips a single item.
//
// Use these helpers when wiring new integrations so that error classification
// stays uniform across the resolver, session manager, and executor.
package services
