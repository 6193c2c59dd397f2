// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/likesync/internal/models"
	"github.com/desertthunder/likesync/internal/services"
)

// MockSource is a test double for [services.SourceService] with no tracks.
type MockSource struct{}

func (m *MockSource) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *MockSource) LikedTracks(ctx context.Context, limit, offset int) (*services.SavedTrackPage, error) {
	return &services.SavedTrackPage{}, nil
}

func (m *MockSource) Name() string { return "mock-source" }

// MockTarget is a test double for [services.TargetService] that finds nothing.
type MockTarget struct{}

func (m *MockTarget) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *MockTarget) LikedTracks(ctx context.Context) ([]models.LikeKey, error) {
	return nil, nil
}

func (m *MockTarget) SearchTracks(ctx context.Context, query string) ([]models.MatchCandidate, error) {
	return nil, nil
}

func (m *MockTarget) LikeTrack(ctx context.Context, key models.LikeKey) error {
	return nil
}

func (m *MockTarget) Name() string { return "mock-target" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading a response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
