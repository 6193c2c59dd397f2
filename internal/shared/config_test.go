package shared

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./likesync.db" {
			t.Errorf("expected database path ./likesync.db, got %s", config.Database.Path)
		}

		if config.Sync.StateFile != "spotify_yandex_state.json" {
			t.Errorf("expected default state file, got %s", config.Sync.StateFile)
		}

		if config.Sync.PageSize != 50 || config.Sync.RetryAttempts != 3 || config.Sync.RetryDelaySeconds != 3 {
			t.Errorf("unexpected sync defaults: %+v", config.Sync)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id placeholder, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Credentials.Spotify.RedirectURI != "http://127.0.0.1:8888/callback" {
			t.Errorf("unexpected redirect URI %s", config.Credentials.Spotify.RedirectURI)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:9999/callback"

[credentials.yandex]
token = "test_yandex_token"

[sync]
state_file = "/custom/state.json"
page_size = 25
retry_attempts = 5
retry_delay_seconds = 1

[database]
path = "/custom/path.db"
max_open_conns = 2
max_idle_conns = 2
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("unexpected client id %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Yandex.Token != "test_yandex_token" {
			t.Errorf("unexpected yandex token %s", config.Credentials.Yandex.Token)
		}
		if config.Sync.StateFile != "/custom/state.json" || config.Sync.PageSize != 25 {
			t.Errorf("unexpected sync settings %+v", config.Sync)
		}
		if config.Database.Path != "/custom/path.db" {
			t.Errorf("unexpected database path %s", config.Database.Path)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})

	t.Run("Environment Overrides", func(t *testing.T) {
		t.Setenv("SPOTIFY_CLIENT_ID", "env_client")
		t.Setenv("YANDEX_MUSIC_TOKEN", "env_token")
		t.Setenv("STATE_FILE", "/env/state.json")

		config := DefaultConfig()

		if config.Credentials.Spotify.ClientID != "env_client" {
			t.Errorf("expected env client id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Yandex.Token != "env_token" {
			t.Errorf("expected env yandex token, got %s", config.Credentials.Yandex.Token)
		}
		if config.Sync.StateFile != "/env/state.json" {
			t.Errorf("expected env state file, got %s", config.Sync.StateFile)
		}
	})

	t.Run("SaveConfig Round Trip", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		config := DefaultConfig()
		config.Credentials.Spotify.AccessToken = "saved_token"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}
		if loaded.Credentials.Spotify.AccessToken != "saved_token" {
			t.Errorf("expected saved token, got %s", loaded.Credentials.Spotify.AccessToken)
		}
	})
}

func TestSpotifyConfigUpdate(t *testing.T) {
	t.Run("Stores Token Fields", func(t *testing.T) {
		creds := SpotifyConfig{RefreshToken: "old_refresh"}

		token := &oauth2.Token{AccessToken: "new_access", RefreshToken: "new_refresh"}
		if err := creds.Update(token); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		if creds.AccessToken != "new_access" || creds.RefreshToken != "new_refresh" {
			t.Errorf("unexpected credentials %+v", creds)
		}
	})

	t.Run("Keeps Refresh Token When Absent", func(t *testing.T) {
		creds := SpotifyConfig{RefreshToken: "old_refresh"}

		if err := creds.Update(&oauth2.Token{AccessToken: "new_access"}); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if creds.RefreshToken != "old_refresh" {
			t.Errorf("refresh token should be preserved, got %s", creds.RefreshToken)
		}
	})

	t.Run("Rejects Empty Token", func(t *testing.T) {
		creds := SpotifyConfig{}
		if err := creds.Update(nil); err == nil {
			t.Error("expected an error for a nil token")
		}
		if err := creds.Update(&oauth2.Token{}); err == nil {
			t.Error("expected an error for an empty token")
		}
	})
}
