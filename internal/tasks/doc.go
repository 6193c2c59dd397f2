// Package tasks implements the incremental likes synchronization engine.
//
// The core abstraction is [SyncEngine]: one Run pulls every Spotify liked
// track newer than the persisted watermark, reconciles each track against
// Yandex Music in chronological order (search, duplicate-suppressed like,
// outcome recording), and persists the full sync state after every single
// track so an interrupted run never loses completed work.
//
// Execution is strictly sequential. Operations emit progress updates via
// channels for non-blocking status reporting to CLI/UI layers.
package tasks
