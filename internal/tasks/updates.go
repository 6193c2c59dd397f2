package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/likesync/internal/models"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSnapshot Phase = iota
	FetchSource
	SearchTrack
	LikeTrack
	SkipTrack
	SaveState
	Complete
)

func (p Phase) String() string {
	switch p {
	case FetchSnapshot:
		return "fetch_snapshot"
	case FetchSource:
		return "fetch_source"
	case SearchTrack:
		return "search_track"
	case LikeTrack:
		return "like_track"
	case SkipTrack:
		return "skip_track"
	case SaveState:
		return "save_state"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func fetchSnapshotUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSnapshot,
		Message: "Fetching current likes from Yandex Music...",
	}
}

func snapshotSizeUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSnapshot,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Yandex Music library has %d likes", count),
	}
}

func snapshotFailedUpdate(err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSnapshot,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Could not fetch Yandex Music likes (continuing without): %v", err),
	}
}

func fetchSourceUpdate(since time.Time) ProgressUpdate {
	msg := "Fetching ALL liked tracks from Spotify (first import)..."
	if !since.IsZero() {
		msg = fmt.Sprintf("Fetching NEW liked tracks from Spotify (after %s)...", models.FormatTimestamp(since))
	}
	return ProgressUpdate{Phase: FetchSource, Message: msg}
}

func foundNewTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("New tracks to process: %d", count),
	}
}

func searchTrackUpdate(step, total int, track models.SourceTrack) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching: %s", step, total, track.Label()),
		Data:    track,
	}
}

func skipTrackUpdate(step, total int, track models.SourceTrack) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SkipTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Already processed: %s", step, total, track.Label()),
	}
}

func outcomeUpdate(step, total int, result TrackSyncResult) ProgressUpdate {
	var msg string
	switch result.Outcome {
	case OutcomeLiked:
		label := result.Track.Label()
		if result.Candidate != nil {
			label = result.Candidate.Label()
		}
		msg = fmt.Sprintf("[%d/%d] ✓ Liked: %s", step, total, label)
	case OutcomeNotFound:
		msg = fmt.Sprintf("[%d/%d] ✗ No match on Yandex Music: %s", step, total, result.Track.Label())
	case OutcomeFailed:
		msg = fmt.Sprintf("[%d/%d] ✗ Like failed: %s", step, total, result.Track.Label())
	default:
		msg = fmt.Sprintf("[%d/%d] %s", step, total, result.Track.Label())
	}

	return ProgressUpdate{
		Phase:   LikeTrack,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    result,
	}
}

func completeUpdate(result *SyncRunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    result.Total,
		Total:   result.Total,
		Message: fmt.Sprintf("Done: %d liked, %d skipped, %d not found, %d failed", result.Liked, result.Skipped, result.NotFound, result.Failed),
		Data:    result,
	}
}
