package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/likesync/internal/models"
	"github.com/desertthunder/likesync/internal/shared"
)

// accountStatusBody is the minimal /account/status payload carrying a uid.
const accountStatusBody = `{"result": {"account": {"uid": 112233}}}`

func testYandexService(t *testing.T, handler http.HandlerFunc) *YandexService {
	t.Helper()

	stub := httptest.NewServer(handler)
	t.Cleanup(stub.Close)

	svc, err := NewYandexService("test_token", stub.URL)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	svc.httpClient = stub.Client()
	return svc
}

func TestYandexService(t *testing.T) {
	t.Run("NewYandexService", func(t *testing.T) {
		t.Run("Missing Token", func(t *testing.T) {
			_, err := NewYandexService("", "")
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Defaults", func(t *testing.T) {
			svc, err := NewYandexService("tok", "")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.baseURL != defaultYandexBaseURL {
				t.Errorf("expected default base URL, got %s", svc.baseURL)
			}
			if svc.Name() != "Yandex Music" {
				t.Errorf("unexpected name %s", svc.Name())
			}
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("Resolves UID", func(t *testing.T) {
			svc := testYandexService(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "OAuth test_token" {
					t.Errorf("unexpected authorization header %q", got)
				}
				fmt.Fprint(w, accountStatusBody)
			})

			if err := svc.Authenticate(context.Background(), nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.uid != "112233" {
				t.Errorf("expected uid 112233, got %s", svc.uid)
			}
		})

		t.Run("Invalid Token", func(t *testing.T) {
			svc := testYandexService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			})

			err := svc.Authenticate(context.Background(), nil)
			if !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})

		t.Run("Missing UID", func(t *testing.T) {
			svc := testYandexService(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"result": {"account": {}}}`)
			})

			err := svc.Authenticate(context.Background(), nil)
			if !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	})

	t.Run("LikedTracks", func(t *testing.T) {
		svc := testYandexService(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/account/status":
				fmt.Fprint(w, accountStatusBody)
			case "/users/112233/likes/tracks":
				fmt.Fprint(w, `{"result": {"library": {"tracks": [
					{"id": 100, "albumId": 200},
					{"id": "101", "albumId": "201"},
					{"id": 102}
				]}}}`)
			default:
				http.NotFound(w, r)
			}
		})

		keys, err := svc.LikedTracks(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(keys) != 2 {
			t.Fatalf("expected 2 keys (incomplete entry dropped), got %d", len(keys))
		}
		if keys[0].String() != "100:200" || keys[1].String() != "101:201" {
			t.Errorf("unexpected keys %v", keys)
		}
	})

	t.Run("SearchTracks", func(t *testing.T) {
		t.Run("Numeric IDs Normalized", func(t *testing.T) {
			svc := testYandexService(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("type"); got != "track" {
					t.Errorf("expected type=track, got %q", got)
				}
				if got := r.URL.Query().Get("text"); got != "The xx — Intro" {
					t.Errorf("unexpected query text %q", got)
				}
				fmt.Fprint(w, `{"result": {"tracks": {"results": [
					{"id": 42, "title": "Intro",
					 "artists": [{"id": 9, "name": "The xx"}],
					 "albums": [{"id": 7, "title": "xx"}, {"id": 8, "title": "xx deluxe"}]}
				]}}}`)
			})

			candidates, err := svc.SearchTracks(context.Background(), "The xx — Intro")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(candidates) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(candidates))
			}

			c := candidates[0]
			if c.ID != "42" || c.Title != "Intro" {
				t.Errorf("unexpected candidate %+v", c)
			}
			if len(c.AlbumIDs) != 2 || c.AlbumIDs[0] != "7" {
				t.Errorf("expected first album 7, got %v", c.AlbumIDs)
			}
			if c.Key().String() != "42:7" {
				t.Errorf("expected like key 42:7, got %s", c.Key().String())
			}
		})

		t.Run("Missing Tracks Block", func(t *testing.T) {
			svc := testYandexService(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"result": {"best": null}}`)
			})

			candidates, err := svc.SearchTracks(context.Background(), "anything")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(candidates) != 0 {
				t.Errorf("expected no candidates, got %d", len(candidates))
			}
		})

		t.Run("Gateway Timeout Is Transient", func(t *testing.T) {
			svc := testYandexService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusGatewayTimeout)
			})

			_, err := svc.SearchTracks(context.Background(), "anything")
			if !errors.Is(err, shared.ErrTimeout) {
				t.Errorf("expected ErrTimeout, got %v", err)
			}
		})

		t.Run("Malformed Body", func(t *testing.T) {
			svc := testYandexService(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"result": {"tracks"`)
			})

			_, err := svc.SearchTracks(context.Background(), "anything")
			if !errors.Is(err, shared.ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	})

	t.Run("LikeTrack", func(t *testing.T) {
		t.Run("Posts Wire Form Key", func(t *testing.T) {
			var gotBody string
			svc := testYandexService(t, func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/account/status":
					fmt.Fprint(w, accountStatusBody)
				case "/users/112233/likes/tracks/add-multiple":
					if r.Method != http.MethodPost {
						t.Errorf("expected POST, got %s", r.Method)
					}
					if err := r.ParseForm(); err != nil {
						t.Errorf("failed to parse form: %v", err)
					}
					gotBody = r.PostForm.Get("track-ids")
					fmt.Fprint(w, `{"result": {"revision": 2}}`)
				default:
					http.NotFound(w, r)
				}
			})

			key := models.LikeKey{TrackID: "42", AlbumID: "7"}
			if err := svc.LikeTrack(context.Background(), key); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if gotBody != "42:7" {
				t.Errorf("expected track-ids 42:7, got %q", gotBody)
			}
		})

		t.Run("Rejects Incomplete Key", func(t *testing.T) {
			svc, _ := NewYandexService("tok", "")
			err := svc.LikeTrack(context.Background(), models.LikeKey{TrackID: "42"})
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})
}
