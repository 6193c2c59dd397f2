package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/likesync/internal/models"
	"github.com/desertthunder/likesync/internal/services"
	"github.com/desertthunder/likesync/internal/shared"
	"github.com/desertthunder/likesync/internal/state"
)

// Outcome is the terminal state a source track reaches within one run.
type Outcome int

const (
	OutcomeLiked    Outcome = iota // Liked on Yandex Music (or already present there)
	OutcomeSkipped                 // Already processed in a previous run
	OutcomeNotFound                // Search produced no usable candidate
	OutcomeFailed                  // Candidate found but the like could not be added
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLiked:
		return "liked"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeFailed:
		return "failed"
	default:
		return ""
	}
}

// TrackSyncResult records what happened to a single source track.
type TrackSyncResult struct {
	Track     models.SourceTrack     // Original liked track from Spotify
	Candidate *models.MatchCandidate // Matched Yandex track (nil if none)
	Outcome   Outcome                // Terminal state
	Err       error                  // Soft failure detail, if any
}

// SyncRunResult contains counters and per-track results for one run.
//
// Counters are reporting only; none of this is persisted.
type SyncRunResult struct {
	Total     int               // Tracks considered this run
	Liked     int               // Newly liked (including duplicate-suppressed no-ops)
	Skipped   int               // Skipped as already processed
	NotFound  int               // No match on Yandex Music
	Failed    int               // Match found but like failed
	Results   []TrackSyncResult // Individual outcomes in processing order
	Watermark time.Time         // High watermark after the run
	DryRun    bool              // True when no likes or state writes happened
}

// SyncEngine defines the engine operation the CLI and TUI layers drive.
type SyncEngine interface {
	// Run performs one full incremental sync pass and returns its results.
	Run(ctx context.Context, progress chan<- ProgressUpdate) (*SyncRunResult, error)
}

// MatchCacher records resolved source-to-target matches. Implementations
// must treat every call as best-effort; the engine ignores failures.
type MatchCacher interface {
	CacheMatch(match models.CachedMatch) error
}

// LikesEngine implements [SyncEngine] for Spotify → Yandex Music likes.
type LikesEngine struct {
	source services.SourceService
	target services.TargetService
	store  *state.Store
	cache  MatchCacher // optional

	pageSize      int
	retryAttempts int
	retryDelay    time.Duration
	dryRun        bool
}

// EngineOpts contains construction options for a LikesEngine.
type EngineOpts struct {
	Source services.SourceService
	Target services.TargetService
	Store  *state.Store
	Cache  MatchCacher // optional match cache, nil disables caching
	DryRun bool        // detect and match but never like or persist

	PageSize      int           // source page size, default 50
	RetryAttempts int           // attempts per remote call, default 3
	RetryDelay    time.Duration // pause between attempts, default 3s
}

// NewLikesEngine creates a LikesEngine with the provided dependencies.
func NewLikesEngine(opts EngineOpts) *LikesEngine {
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = defaultRetryAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}

	return &LikesEngine{
		source:        opts.Source,
		target:        opts.Target,
		store:         opts.Store,
		cache:         opts.Cache,
		pageSize:      opts.PageSize,
		retryAttempts: opts.RetryAttempts,
		retryDelay:    opts.RetryDelay,
		dryRun:        opts.DryRun,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *LikesEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs one incremental sync pass.
//
// Tracks are reconciled strictly one at a time, oldest first. The complete
// sync state is persisted after every track, so interrupting the run at any
// point loses at most the in-progress track's outcome.
func (e *LikesEngine) Run(ctx context.Context, progress chan<- ProgressUpdate) (*SyncRunResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if e.target == nil {
		return nil, fmt.Errorf("%w: Yandex Music service not initialized", shared.ErrServiceUnavailable)
	}
	if e.store == nil {
		return nil, fmt.Errorf("%w: state store not initialized", shared.ErrServiceUnavailable)
	}

	st := e.store.Load()

	snapshot := e.fetchSnapshot(ctx, progress)

	tracks, err := e.fetchNewTracks(ctx, st.Watermark, progress)
	if err != nil {
		return nil, err
	}

	result := &SyncRunResult{Watermark: st.Watermark, DryRun: e.dryRun}
	if len(tracks) == 0 {
		e.sendProgress(progress, completeUpdate(result))
		return result, nil
	}

	result.Total = len(tracks)
	total := len(tracks)

	// Watermark candidate: the newest added_at seen so far, matched or not.
	maxSeen := st.Watermark

	for idx, track := range tracks {
		step := idx + 1

		if track.AddedAt.After(maxSeen) {
			maxSeen = track.AddedAt
		}

		if st.Processed(track.ID) {
			result.Skipped++
			result.Results = append(result.Results, TrackSyncResult{Track: track, Outcome: OutcomeSkipped})
			e.sendProgress(progress, skipTrackUpdate(step, total, track))

			// The watermark may still have advanced past this track.
			if maxSeen.After(st.Watermark) {
				if err := e.persist(st, maxSeen); err != nil {
					return result, err
				}
			}
			continue
		}

		e.sendProgress(progress, searchTrackUpdate(step, total, track))

		trackResult := e.reconcile(ctx, track, snapshot)
		switch trackResult.Outcome {
		case OutcomeLiked:
			result.Liked++
		case OutcomeNotFound:
			result.NotFound++
		case OutcomeFailed:
			result.Failed++
		}

		result.Results = append(result.Results, trackResult)
		e.sendProgress(progress, outcomeUpdate(step, total, trackResult))

		st.MarkProcessed(track.ID)
		if err := e.persist(st, maxSeen); err != nil {
			return result, err
		}
	}

	result.Watermark = st.Watermark
	if e.dryRun {
		result.Watermark = maxSeen
	}

	e.sendProgress(progress, completeUpdate(result))
	return result, nil
}

// reconcile takes one unprocessed track to its terminal outcome: match,
// duplicate-suppress, like.
func (e *LikesEngine) reconcile(ctx context.Context, track models.SourceTrack, snapshot map[models.LikeKey]struct{}) TrackSyncResult {
	candidate, err := e.match(ctx, track)
	if err != nil || candidate == nil {
		return TrackSyncResult{Track: track, Outcome: OutcomeNotFound, Err: err}
	}

	result := TrackSyncResult{Track: track, Candidate: candidate}

	key := candidate.Key()
	if !key.Valid() {
		// Data-shape failure: no fallback to another candidate.
		result.Outcome = OutcomeFailed
		result.Err = fmt.Errorf("%w: candidate %q has no usable like key", shared.ErrInvalidInput, candidate.Label())
		return result
	}

	if _, liked := snapshot[key]; liked {
		result.Outcome = OutcomeLiked
		e.cacheMatch(track, *candidate)
		return result
	}

	if e.dryRun {
		result.Outcome = OutcomeLiked
		snapshot[key] = struct{}{}
		return result
	}

	err = withRetries(ctx, e.retryAttempts, e.retryDelay, func() error {
		return e.target.LikeTrack(ctx, key)
	})
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}

	// Later tracks resolving to the same key short-circuit within this run.
	snapshot[key] = struct{}{}
	result.Outcome = OutcomeLiked
	e.cacheMatch(track, *candidate)
	return result
}

// match builds the free-text query and returns the first search result.
//
// First result wins: no scoring and no query reformulation. Exhausted
// retries, zero results, and malformed responses all come back as a nil
// candidate; the error (if any) is advisory.
func (e *LikesEngine) match(ctx context.Context, track models.SourceTrack) (*models.MatchCandidate, error) {
	query := track.Label()

	var candidates []models.MatchCandidate
	err := withRetries(ctx, e.retryAttempts, e.retryDelay, func() error {
		var searchErr error
		candidates, searchErr = e.target.SearchTracks(ctx, query)
		return searchErr
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	return &candidates[0], nil
}

// fetchSnapshot pulls the target's current like set once, up front.
//
// Best-effort: a failure degrades to an empty set and the run continues,
// trading a possible duplicate like call (idempotent on the service side)
// for availability.
func (e *LikesEngine) fetchSnapshot(ctx context.Context, progress chan<- ProgressUpdate) map[models.LikeKey]struct{} {
	e.sendProgress(progress, fetchSnapshotUpdate())

	snapshot := map[models.LikeKey]struct{}{}

	keys, err := e.target.LikedTracks(ctx)
	if err != nil {
		e.sendProgress(progress, snapshotFailedUpdate(err))
		return snapshot
	}

	for _, key := range keys {
		snapshot[key] = struct{}{}
	}

	e.sendProgress(progress, snapshotSizeUpdate(len(snapshot)))
	return snapshot
}

// persist advances the watermark and writes the full state durably.
//
// The watermark is only committed together with the processed set, never
// ahead of it. Dry runs never touch the state file.
func (e *LikesEngine) persist(st *state.SyncState, maxSeen time.Time) error {
	if e.dryRun {
		return nil
	}

	st.Advance(maxSeen)
	if err := e.store.Save(st); err != nil {
		return fmt.Errorf("failed to persist sync state: %w", err)
	}
	return nil
}

// cacheMatch records the resolved pairing in the match cache, if one is wired.
func (e *LikesEngine) cacheMatch(track models.SourceTrack, candidate models.MatchCandidate) {
	if e.cache == nil || e.dryRun {
		return
	}

	key := candidate.Key()
	// Best-effort by contract; a cache failure never affects the sync.
	_ = e.cache.CacheMatch(models.CachedMatch{
		SpotifyID:    track.ID,
		YandexTrack:  key.TrackID,
		YandexAlbum:  key.AlbumID,
		SourceLabel:  track.Label(),
		MatchedLabel: candidate.Label(),
		MatchedAt:    time.Now().UTC(),
	})
}
