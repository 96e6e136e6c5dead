// Package resolver maps an item's local series name to the tracker's show id.
//
// Resolution walks a fixed chain: an id already on the item, the persistent
// name table, and finally a tracker search for the canonical series name
// (from an item hint, else a cached TMDB lookup, else the raw name). A search
// hit is written back to the table so the next run skips the network. When a
// show id reappears under a new local name the existing record is renamed,
// keeping one record per id.
package resolver
