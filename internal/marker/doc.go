// Package marker runs the per-item "mark acquired" pipeline for a batch.
//
// Run logs in once, then processes items strictly in order. Every item ends
// with exactly one Outcome (marked, skipped, or failed) and a failure on one
// item never stops the rest. A failed login stops the run before any item is
// touched, and an empty batch never logs in at all.
package marker
