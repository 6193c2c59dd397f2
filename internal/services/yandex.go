// Yandex Music API implementation of [TargetService]
//
// The public API is undocumented; shapes follow the ones the official
// clients exchange. Every payload arrives wrapped in {"result": ...} and
// numeric IDs are decoded as [json.Number] then normalized to strings.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/likesync/internal/models"
	"github.com/desertthunder/likesync/internal/shared"
	"golang.org/x/time/rate"
)

const defaultYandexBaseURL = "https://api.music.yandex.net"

// yandexArtist represents an artist in Yandex Music responses.
type yandexArtist struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// yandexAlbum represents an album in Yandex Music responses.
type yandexAlbum struct {
	ID    json.Number `json:"id"`
	Title string      `json:"title"`
}

// yandexTrack represents a track in search results.
type yandexTrack struct {
	ID      json.Number    `json:"id"`
	Title   string         `json:"title"`
	Artists []yandexArtist `json:"artists"`
	Albums  []yandexAlbum  `json:"albums"`
}

// yandexLibraryTrack is one entry of the user's likes listing.
type yandexLibraryTrack struct {
	ID      json.Number `json:"id"`
	AlbumID json.Number `json:"albumId"`
}

// YandexService implements [TargetService] for the Yandex Music API.
//
// All requests pass through a shared rate limiter; the API throttles
// aggressively and the engine issues one search per track.
type YandexService struct {
	baseURL    string
	token      string
	uid        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewYandexService creates a new Yandex Music service with the given OAuth token.
func NewYandexService(token, baseURL string) (*YandexService, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing yandex music token", shared.ErrMissingCredentials)
	}
	if baseURL == "" {
		baseURL = defaultYandexBaseURL
	}

	return &YandexService{
		baseURL:    baseURL,
		token:      token,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
	}, nil
}

func (y *YandexService) Name() string {
	return "Yandex Music"
}

// Authenticate verifies the token by resolving the account UID.
func (y *YandexService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if token, ok := credentials["token"]; ok && token != "" {
		y.token = token
		y.uid = ""
	}
	return y.ensureUID(ctx)
}

// doRequest performs a rate-limited, token-authenticated request.
//
// Transport timeouts come back wrapped in [shared.ErrTimeout]; undecodable
// bodies in [shared.ErrMalformedResponse].
func (y *YandexService) doRequest(ctx context.Context, method, endpoint string, form url.Values, result any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter interrupted: %w", err)
	}

	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, y.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "OAuth "+y.token)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: yandex music: %v", shared.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: yandex music returned status %d", shared.ErrInvalidCredentials, resp.StatusCode)
	case resp.StatusCode == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: yandex music returned status %d", shared.ErrTimeout, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: yandex music returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
		}
	}

	return nil
}

// ensureUID resolves and caches the account UID required by the likes endpoints.
func (y *YandexService) ensureUID(ctx context.Context) error {
	if y.uid != "" {
		return nil
	}

	var response struct {
		Result struct {
			Account struct {
				UID json.Number `json:"uid"`
			} `json:"account"`
		} `json:"result"`
	}

	if err := y.doRequest(ctx, http.MethodGet, "/account/status", nil, &response); err != nil {
		return err
	}

	uid := response.Result.Account.UID.String()
	if uid == "" || uid == "0" {
		return fmt.Errorf("%w: account status carried no uid", shared.ErrInvalidCredentials)
	}

	y.uid = uid
	return nil
}

// LikedTracks retrieves the full current like set as like keys.
//
// Entries missing a track or album ID are dropped; they cannot participate
// in duplicate suppression anyway.
func (y *YandexService) LikedTracks(ctx context.Context) ([]models.LikeKey, error) {
	if err := y.ensureUID(ctx); err != nil {
		return nil, err
	}

	var response struct {
		Result struct {
			Library struct {
				Tracks []yandexLibraryTrack `json:"tracks"`
			} `json:"library"`
		} `json:"result"`
	}

	endpoint := fmt.Sprintf("/users/%s/likes/tracks", y.uid)
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	keys := make([]models.LikeKey, 0, len(response.Result.Library.Tracks))
	for _, track := range response.Result.Library.Tracks {
		key := models.LikeKey{TrackID: track.ID.String(), AlbumID: track.AlbumID.String()}
		if key.Valid() {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

// SearchTracks issues a free-text search scoped to track results.
//
// A response without a tracks block yields an empty slice, the same as a
// genuine zero-result search.
func (y *YandexService) SearchTracks(ctx context.Context, query string) ([]models.MatchCandidate, error) {
	var response struct {
		Result struct {
			Tracks *struct {
				Results []yandexTrack `json:"results"`
			} `json:"tracks"`
		} `json:"result"`
	}

	endpoint := fmt.Sprintf("/search?text=%s&type=track&page=0", url.QueryEscape(query))
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	if response.Result.Tracks == nil {
		return nil, nil
	}

	candidates := make([]models.MatchCandidate, 0, len(response.Result.Tracks.Results))
	for _, track := range response.Result.Tracks.Results {
		candidate := models.MatchCandidate{
			ID:    track.ID.String(),
			Title: track.Title,
		}
		for _, album := range track.Albums {
			if id := album.ID.String(); id != "" {
				candidate.AlbumIDs = append(candidate.AlbumIDs, id)
			}
		}
		for _, artist := range track.Artists {
			candidate.Artists = append(candidate.Artists, artist.Name)
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// LikeTrack adds a like for the given key via the add-multiple endpoint.
func (y *YandexService) LikeTrack(ctx context.Context, key models.LikeKey) error {
	if !key.Valid() {
		return fmt.Errorf("%w: incomplete like key %q", shared.ErrInvalidArgument, key.String())
	}
	if err := y.ensureUID(ctx); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("track-ids", key.String())

	endpoint := fmt.Sprintf("/users/%s/likes/tracks/add-multiple", y.uid)
	return y.doRequest(ctx, http.MethodPost, endpoint, form, nil)
}

// isTimeout reports whether err is a transport-level timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
