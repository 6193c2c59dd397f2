package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/likesync/internal/models"
	"github.com/desertthunder/likesync/internal/shared"
	"github.com/desertthunder/likesync/internal/state"
	tu "github.com/desertthunder/likesync/internal/testing"
	"github.com/urfave/cli/v3"
)

func testRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:  shared.DefaultConfig(),
		Spotify: &tu.MockSource{},
		Yandex:  &tu.MockTarget{},
		Output:  output,
	})
	return runner, output
}

// runCommand executes one of the runner's registered commands against args.
func runCommand(t *testing.T, r *Runner, args ...string) error {
	t.Helper()

	app := &cli.Command{
		Name:     "likesync",
		Commands: r.register(),
	}
	return app.Run(context.Background(), append([]string{"likesync"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			spotify := &tu.MockSource{}
			yandex := &tu.MockTarget{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				Spotify:    spotify,
				Yandex:     yandex,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Error("expected configPath to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.spotify != spotify {
				t.Error("expected spotify to be set")
			}
			if runner.yandex != yandex {
				t.Error("expected yandex to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.configPath != "config.toml" {
				t.Errorf("expected default config path, got %s", runner.configPath)
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner, _ := testRunner(t)

		commands := runner.register()
		want := []string{"setup", "auth", "sync", "state"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, name := range want {
			if commands[i].Name != name {
				t.Errorf("command %d: expected %s, got %s", i, name, commands[i].Name)
			}
		}
	})

	t.Run("write helpers", func(t *testing.T) {
		t.Run("writeJSON pretty", func(t *testing.T) {
			runner, output := testRunner(t)

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if !strings.Contains(output.String(), "\"key\": \"value\"") {
				t.Errorf("unexpected output: %s", output.String())
			}
		})

		t.Run("writeJSON compact", func(t *testing.T) {
			runner, output := testRunner(t)

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if output.String() != "{\"key\":\"value\"}\n" {
				t.Errorf("unexpected output: %q", output.String())
			}
		})

		t.Run("writePlain formats", func(t *testing.T) {
			runner, output := testRunner(t)

			if err := runner.writePlain("count: %d\n", 3); err != nil {
				t.Fatalf("writePlain failed: %v", err)
			}
			if output.String() != "count: 3\n" {
				t.Errorf("unexpected output: %q", output.String())
			}
		})

		t.Run("failing writer surfaces error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writePlain("anything"); err == nil {
				t.Error("expected a write error")
			}
		})
	})
}

func TestStateCommands(t *testing.T) {
	t.Run("Show Empty State", func(t *testing.T) {
		runner, output := testRunner(t)
		statePath := filepath.Join(t.TempDir(), "state.json")

		if err := runCommand(t, runner, "state", "show", "--state", statePath); err != nil {
			t.Fatalf("state show failed: %v", err)
		}

		if !strings.Contains(output.String(), "Processed tracks: 0") {
			t.Errorf("unexpected output: %s", output.String())
		}
		if !strings.Contains(output.String(), "full library") {
			t.Errorf("expected a missing-watermark notice: %s", output.String())
		}
	})

	t.Run("Show Populated State As JSON", func(t *testing.T) {
		runner, output := testRunner(t)
		statePath := filepath.Join(t.TempDir(), "state.json")

		store := state.NewStore(statePath)
		st := state.NewSyncState()
		st.MarkProcessed("a")
		st.MarkProcessed("b")
		st.Advance(models.ParseTimestamp("2025-01-02T00:00:00Z"))
		if err := store.Save(st); err != nil {
			t.Fatalf("failed to seed state: %v", err)
		}

		if err := runCommand(t, runner, "state", "show", "--state", statePath, "--json"); err != nil {
			t.Fatalf("state show failed: %v", err)
		}

		if !strings.Contains(output.String(), "\"processed_count\": 2") {
			t.Errorf("unexpected output: %s", output.String())
		}
		if !strings.Contains(output.String(), "2025-01-02T00:00:00Z") {
			t.Errorf("expected watermark in output: %s", output.String())
		}
	})

	t.Run("Reset Requires Force", func(t *testing.T) {
		runner, _ := testRunner(t)
		statePath := filepath.Join(t.TempDir(), "state.json")

		store := state.NewStore(statePath)
		if err := store.Save(state.NewSyncState()); err != nil {
			t.Fatalf("failed to seed state: %v", err)
		}

		if err := runCommand(t, runner, "state", "reset", "--state", statePath); err == nil {
			t.Error("expected an error without --force")
		}
		tu.AssertFileExists(t, statePath)
	})

	t.Run("Reset With Force", func(t *testing.T) {
		runner, output := testRunner(t)
		statePath := filepath.Join(t.TempDir(), "state.json")

		store := state.NewStore(statePath)
		if err := store.Save(state.NewSyncState()); err != nil {
			t.Fatalf("failed to seed state: %v", err)
		}

		if err := runCommand(t, runner, "state", "reset", "--state", statePath, "--force"); err != nil {
			t.Fatalf("state reset failed: %v", err)
		}
		tu.AssertNoFile(t, statePath)
		if !strings.Contains(output.String(), "✓") {
			t.Errorf("expected confirmation output: %s", output.String())
		}
	})
}

func TestSyncRunPreconditions(t *testing.T) {
	t.Run("Missing Spotify Credentials", func(t *testing.T) {
		runner, _ := testRunner(t)
		runner.config.Credentials.Spotify.ClientID = ""
		runner.config.Credentials.Spotify.ClientSecret = ""

		err := runCommand(t, runner, "sync", "run")
		if err == nil {
			t.Error("expected a credentials error")
		}
	})

	t.Run("Not Authorized", func(t *testing.T) {
		runner, _ := testRunner(t)
		runner.config.Credentials.Spotify.ClientID = "id"
		runner.config.Credentials.Spotify.ClientSecret = "secret"
		runner.config.Credentials.Spotify.AccessToken = ""

		err := runCommand(t, runner, "sync", "run")
		if err == nil {
			t.Error("expected a not-authenticated error")
		}
	})

	t.Run("Missing Yandex Token", func(t *testing.T) {
		runner, _ := testRunner(t)
		runner.config.Credentials.Spotify.ClientID = "id"
		runner.config.Credentials.Spotify.ClientSecret = "secret"
		runner.config.Credentials.Spotify.AccessToken = "tok"
		runner.config.Credentials.Yandex.Token = ""

		err := runCommand(t, runner, "sync", "run")
		if err == nil {
			t.Error("expected a missing-token error")
		}
	})

	t.Run("Unknown Report Format", func(t *testing.T) {
		runner, _ := testRunner(t)
		runner.config.Credentials.Spotify.ClientID = "id"
		runner.config.Credentials.Spotify.ClientSecret = "secret"
		runner.config.Credentials.Spotify.AccessToken = "tok"
		runner.config.Credentials.Yandex.Token = "ym"
		runner.config.Database.Path = ""
		runner.config.Sync.StateFile = filepath.Join(t.TempDir(), "state.json")

		err := runCommand(t, runner, "sync", "run", "--report", "xml")
		if err == nil {
			t.Error("expected an invalid-format error")
		}
	})
}

func TestSummarize(t *testing.T) {
	t.Run("Cancelled Run Prints Nothing", func(t *testing.T) {
		runner, output := testRunner(t)
		store := state.NewStore(filepath.Join(t.TempDir(), "state.json"))

		runner.summarize(nil, store)

		if output.Len() != 0 {
			t.Errorf("expected no output for a cancelled run, got %q", output.String())
		}
	})
}

func TestSetupCommand(t *testing.T) {
	t.Run("Creates Config And Database", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		runner, output := testRunner(t)
		configPath := filepath.Join(dir, "config.toml")

		if err := runCommand(t, runner, "setup", "--config", configPath); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		tu.AssertFileExists(t, configPath)
		if !strings.Contains(output.String(), "Config created") {
			t.Errorf("expected creation notice: %s", output.String())
		}
	})
}
