package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/likesync/internal/models"
	"github.com/desertthunder/likesync/internal/shared"
)

// fetchNewTracks pulls only the Spotify liked tracks newer than since,
// returning them oldest-first.
//
// The listing is newest-added-first, so paging stops as soon as one entry's
// added_at falls at or below the watermark: everything past that point was
// considered in an earlier run. The collected buffer is reversed before
// returning so downstream processing preserves the user's like chronology
// and an advanced watermark is a true high-water mark. Cost is proportional
// to the number of new likes, not library size.
func (e *LikesEngine) fetchNewTracks(ctx context.Context, since time.Time, progress chan<- ProgressUpdate) ([]models.SourceTrack, error) {
	e.sendProgress(progress, fetchSourceUpdate(since))

	var collected []models.SourceTrack
	offset := 0

	for {
		page, err := e.source.LikedTracks(ctx, e.pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to list spotify liked tracks: %v", shared.ErrAPIRequest, err)
		}
		if page.RawCount == 0 {
			break
		}

		crossed := false
		for _, track := range page.Tracks {
			if !since.IsZero() && !track.AddedAt.IsZero() && !track.AddedAt.After(since) {
				crossed = true
				break
			}
			collected = append(collected, track)
		}

		if crossed || page.RawCount < e.pageSize {
			break
		}
		offset += page.RawCount
	}

	// Newest-first on the wire, oldest-first for processing.
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}

	e.sendProgress(progress, foundNewTracksUpdate(len(collected)))
	return collected, nil
}
