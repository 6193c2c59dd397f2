package services

import (
	"context"

	"github.com/desertthunder/likesync/internal/models"
	"golang.org/x/oauth2"
)

// SavedTrackPage is one page of the Spotify saved-tracks listing,
// newest-added-first.
//
// RawCount is the number of items the API returned before filtering out
// entries with a missing track payload or ID; the change detector advances
// its offset by RawCount so dropped entries never desynchronize paging.
type SavedTrackPage struct {
	Tracks   []models.SourceTrack
	RawCount int
}

// SourceService lists a user's liked tracks from the source catalog.
type SourceService interface {
	// Authenticate performs OAuth or token-based authentication with the service.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// LikedTracks retrieves one page of the user's liked tracks ordered
	// newest-added-first. A page with RawCount < limit is the last one.
	LikedTracks(ctx context.Context, limit, offset int) (*SavedTrackPage, error)

	// Name returns the service name (e.g. "Spotify")
	Name() string
}

// TargetService mutates the like set of the target catalog.
type TargetService interface {
	// Authenticate verifies the bearer credential with the service.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// LikedTracks retrieves the full current like set as like keys.
	LikedTracks(ctx context.Context) ([]models.LikeKey, error)

	// SearchTracks issues a free-text track search and returns the results
	// in ranking order. An empty slice means no results.
	SearchTracks(ctx context.Context, query string) ([]models.MatchCandidate, error)

	// LikeTrack adds a like for the given key. Liking an already-liked
	// track is a no-op on the service side.
	LikeTrack(ctx context.Context, key models.LikeKey) error

	// Name returns the service name (e.g. "Yandex Music")
	Name() string
}

// OAuthService is implemented by services that authorize through a browser
// redirect flow; the auth command drives it against a loopback callback server.
type OAuthService interface {
	GetAuthURL(state string) string
	OAuthConfig() *oauth2.Config
	Authenticate(ctx context.Context, credentials map[string]string) error
}
