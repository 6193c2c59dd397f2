package ui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/likesync/internal/shared"
	"github.com/desertthunder/likesync/internal/tasks"
)

type stubEngine struct {
	result *tasks.SyncRunResult
	err    error
}

func (s *stubEngine) Run(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.SyncRunResult, error) {
	return s.result, s.err
}

func TestModel(t *testing.T) {
	t.Run("Quit Cancels The Run", func(t *testing.T) {
		m := NewModel(context.Background(), &stubEngine{})

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		if cmd == nil {
			t.Fatal("expected a quit command")
		}
		if !errors.Is(m.ctx.Err(), context.Canceled) {
			t.Errorf("expected the engine context to be cancelled, got %v", m.ctx.Err())
		}
	})

	t.Run("Quit Before Completion Is A Cancellation", func(t *testing.T) {
		m := NewModel(context.Background(), &stubEngine{})

		result, err := m.outcome()
		if result != nil {
			t.Errorf("expected no result, got %+v", result)
		}
		if !errors.Is(err, shared.ErrCancelled) {
			t.Errorf("expected ErrCancelled, got %v", err)
		}
	})

	t.Run("Completed Run Returns Its Result", func(t *testing.T) {
		m := NewModel(context.Background(), &stubEngine{})
		m.result = &tasks.SyncRunResult{Total: 2, Liked: 2}

		result, err := m.outcome()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Liked != 2 {
			t.Errorf("expected 2 liked, got %d", result.Liked)
		}
	})

	t.Run("Engine Failure Surfaces", func(t *testing.T) {
		m := NewModel(context.Background(), &stubEngine{})
		m.err = errors.New("engine exploded")

		if _, err := m.outcome(); err == nil || err.Error() != "engine exploded" {
			t.Errorf("expected the engine error back, got %v", err)
		}
	})
}
