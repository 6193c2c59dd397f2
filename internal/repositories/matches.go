package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/likesync/internal/models"
	"github.com/desertthunder/likesync/internal/shared"
)

const matchesSchema = `
	CREATE TABLE IF NOT EXISTS matched_tracks (
		id TEXT PRIMARY KEY,
		spotify_id TEXT NOT NULL UNIQUE,
		yandex_track TEXT NOT NULL,
		yandex_album TEXT NOT NULL,
		source_label TEXT NOT NULL,
		matched_label TEXT NOT NULL,
		matched_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_matched_tracks_matched_at ON matched_tracks(matched_at);
`

// MatchRepository persists resolved track pairings, implementing
// tasks.MatchCacher.
//
// Rows are keyed by Spotify ID; re-resolving the same source track replaces
// the prior pairing rather than accumulating duplicates.
type MatchRepository struct {
	db *sql.DB
}

// NewMatchRepository creates a MatchRepository and ensures its schema exists.
func NewMatchRepository(db *sql.DB) (*MatchRepository, error) {
	if _, err := db.Exec(matchesSchema); err != nil {
		return nil, fmt.Errorf("failed to create matched_tracks schema: %w", err)
	}
	return &MatchRepository{db: db}, nil
}

// CacheMatch upserts a resolved pairing keyed by its Spotify track ID.
func (r *MatchRepository) CacheMatch(match models.CachedMatch) error {
	if match.SpotifyID == "" {
		return fmt.Errorf("%w: match has no spotify id", shared.ErrInvalidInput)
	}

	matchedAt := match.MatchedAt
	if matchedAt.IsZero() {
		matchedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO matched_tracks (id, spotify_id, yandex_track, yandex_album, source_label, matched_label, matched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(spotify_id) DO UPDATE SET
			yandex_track = excluded.yandex_track,
			yandex_album = excluded.yandex_album,
			source_label = excluded.source_label,
			matched_label = excluded.matched_label,
			matched_at = excluded.matched_at
	`

	_, err := r.db.Exec(query,
		shared.GenerateID(),
		match.SpotifyID,
		match.YandexTrack,
		match.YandexAlbum,
		match.SourceLabel,
		match.MatchedLabel,
		matchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to cache match: %w", err)
	}

	return nil
}

// Get retrieves the cached pairing for a Spotify track ID, or nil when the
// track has never been matched.
func (r *MatchRepository) Get(spotifyID string) (*models.CachedMatch, error) {
	query := `
		SELECT spotify_id, yandex_track, yandex_album, source_label, matched_label, matched_at
		FROM matched_tracks
		WHERE spotify_id = ?
	`

	match, err := scanMatch(r.db.QueryRow(query, spotifyID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return match, nil
}

// List returns all cached pairings, most recently matched first.
func (r *MatchRepository) List() ([]models.CachedMatch, error) {
	query := `
		SELECT spotify_id, yandex_track, yandex_album, source_label, matched_label, matched_at
		FROM matched_tracks
		ORDER BY matched_at DESC, spotify_id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []models.CachedMatch
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, *match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}

	return matches, nil
}

// Count returns the number of cached pairings.
func (r *MatchRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM matched_tracks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (*models.CachedMatch, error) {
	var match models.CachedMatch
	err := row.Scan(
		&match.SpotifyID,
		&match.YandexTrack,
		&match.YandexAlbum,
		&match.SourceLabel,
		&match.MatchedLabel,
		&match.MatchedAt,
	)
	if err != nil {
		return nil, err
	}
	return &match, nil
}
