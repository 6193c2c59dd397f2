// Package repositories implements SQLite persistence for the match cache.
//
// The cache records every Spotify-to-Yandex pairing the sync engine resolves,
// keyed by Spotify track ID, so matches can be inspected later without
// re-querying either service. It is advisory: the engine treats cache
// failures as non-fatal and the sync state file remains the source of truth
// for what has been processed.
package repositories
