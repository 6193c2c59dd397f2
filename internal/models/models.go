package models

import (
	"fmt"
	"strings"
	"time"
)

// SourceTrack is one liked entry from the Spotify library.
//
// Produced transiently for a single run; only its ID and the watermark
// derived from AddedAt are ever persisted.
type SourceTrack struct {
	ID         string    // Spotify track ID, stable and unique
	Title      string    // Track name
	Artists    []string  // Artist names in Spotify order
	AlbumName  string    // Album name
	DurationMS int       // Track length in milliseconds
	AddedAt    time.Time // When the track was liked; zero if absent or unparseable
}

// Label renders the track in the "Artist1, Artist2 — Title" form used for
// both search queries and human-readable output.
func (t SourceTrack) Label() string {
	return fmt.Sprintf("%s — %s", strings.Join(t.Artists, ", "), t.Title)
}

// LikeKey is the composite identity of a like in the Yandex Music library.
//
// Two likes with the same key are the same like.
type LikeKey struct {
	TrackID string
	AlbumID string
}

// String renders the key in the "trackId:albumId" wire form the likes API expects.
func (k LikeKey) String() string {
	return k.TrackID + ":" + k.AlbumID
}

// Valid reports whether both components of the key are present.
func (k LikeKey) Valid() bool {
	return k.TrackID != "" && k.AlbumID != ""
}

// MatchCandidate is a Yandex Music track returned by search.
//
// Ephemeral; the first album ID is authoritative for the like key.
type MatchCandidate struct {
	ID       string   // Yandex track ID
	AlbumIDs []string // Associated album IDs, first is authoritative
	Title    string   // Track title
	Artists  []string // Artist names
}

// Key builds the candidate's LikeKey from its track ID and first album ID.
//
// The returned key may be invalid when either ID is missing; callers treat
// that as a data-shape failure, not a reason to search again.
func (c MatchCandidate) Key() LikeKey {
	key := LikeKey{TrackID: c.ID}
	if len(c.AlbumIDs) > 0 {
		key.AlbumID = c.AlbumIDs[0]
	}
	return key
}

// Label renders the candidate in the same "Artists — Title" form as [SourceTrack.Label].
func (c MatchCandidate) Label() string {
	return fmt.Sprintf("%s — %s", strings.Join(c.Artists, ", "), c.Title)
}

// CachedMatch is a resolved source-to-target pairing stored in the sqlite
// match cache for later inspection.
type CachedMatch struct {
	SpotifyID    string    `json:"spotify_id"`
	YandexTrack  string    `json:"yandex_track"`
	YandexAlbum  string    `json:"yandex_album"`
	SourceLabel  string    `json:"source_label"`
	MatchedLabel string    `json:"matched_label"`
	MatchedAt    time.Time `json:"matched_at"`
}
