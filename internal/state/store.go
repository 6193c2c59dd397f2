// Package state persists the sync cursor between runs: the set of Spotify
// track IDs already handled and the high-watermark timestamp of the most
// recent liked track considered so far.
//
// The on-disk form is a small JSON file written through a temporary file and
// an atomic rename, so a crash mid-write never leaves a corrupt file behind.
// A corrupt or missing file is never fatal; it just means a fresh start.
package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/desertthunder/likesync/internal/models"
)

// DefaultFileName is the state file used when no STATE_FILE override or
// config value is present.
const DefaultFileName = "spotify_yandex_state.json"

// SyncState is the durable cursor, held in memory as a set plus a timestamp.
//
// The watermark only moves forward, and only after the track that produced
// it has been durably marked processed.
type SyncState struct {
	ProcessedIDs map[string]struct{}
	Watermark    time.Time // zero means no watermark yet (full import)
}

// NewSyncState returns an empty state: no processed IDs, no watermark.
func NewSyncState() *SyncState {
	return &SyncState{ProcessedIDs: map[string]struct{}{}}
}

// Processed reports whether the given Spotify ID has already been handled.
func (s *SyncState) Processed(id string) bool {
	_, ok := s.ProcessedIDs[id]
	return ok
}

// MarkProcessed records a Spotify ID as handled regardless of outcome.
func (s *SyncState) MarkProcessed(id string) {
	s.ProcessedIDs[id] = struct{}{}
}

// Advance moves the watermark forward to ts if it is newer.
func (s *SyncState) Advance(ts time.Time) {
	if !ts.IsZero() && ts.After(s.Watermark) {
		s.Watermark = ts
	}
}

// stateFile is the serialized layout. The set becomes a sorted list only at
// this boundary; processed IDs are accepted as any JSON scalar and coerced
// to strings on load.
type stateFile struct {
	ProcessedSpotifyIDs []json.RawMessage `json:"processed_spotify_ids"`
	LastSpotifyAddedAt  *string           `json:"last_spotify_added_at"`
}

// Store reads and writes the state file at a fixed path.
type Store struct {
	path string
}

// NewStore creates a Store for the given path, falling back to
// [DefaultFileName] in the working directory when path is empty.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultFileName
	}
	return &Store{path: path}
}

// Path returns the file location this store owns.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state file.
//
// A missing, unreadable, or unparseable file yields a fresh default state;
// resuming from scratch is always safe, aborting the run is not.
func (s *Store) Load() *SyncState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return NewSyncState()
	}

	var raw stateFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return NewSyncState()
	}

	st := NewSyncState()
	for _, entry := range raw.ProcessedSpotifyIDs {
		if id := coerceID(entry); id != "" {
			st.ProcessedIDs[id] = struct{}{}
		}
	}

	if raw.LastSpotifyAddedAt != nil {
		st.Watermark = models.ParseTimestamp(*raw.LastSpotifyAddedAt)
	}

	return st
}

// Save writes the complete state durably: marshal, write to a temporary
// sibling file, then rename over the real location. Cheap enough to call
// after every single processed track.
func (s *Store) Save(st *SyncState) error {
	raw := stateFile{ProcessedSpotifyIDs: []json.RawMessage{}}

	ids := make([]string, 0, len(st.ProcessedIDs))
	for id := range st.ProcessedIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		encoded, err := json.Marshal(id)
		if err != nil {
			return fmt.Errorf("failed to encode processed id: %w", err)
		}
		raw.ProcessedSpotifyIDs = append(raw.ProcessedSpotifyIDs, encoded)
	}

	if !st.Watermark.IsZero() {
		formatted := models.FormatTimestamp(st.Watermark)
		raw.LastSpotifyAddedAt = &formatted
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

// Reset removes the state file. Missing files are not an error.
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}

// coerceID normalizes a stored processed-ID entry to a string.
//
// Older state files written by other tools have been seen holding numbers;
// anything scalar becomes its string form, anything else is dropped.
func coerceID(raw json.RawMessage) string {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var asAny any
	if err := dec.Decode(&asAny); err != nil {
		return ""
	}

	switch v := asAny.(type) {
	case json.Number:
		return v.String()
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return ""
	}
}
