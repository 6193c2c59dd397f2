// Package services contains the HTTP clients for the two catalogs the sync
// engine talks to: Spotify (source of liked tracks) and Yandex Music (target
// of likes).
//
// The engine depends only on the [SourceService] and [TargetService]
// interfaces; the concrete clients translate wire shapes into
// internal/models values and classify transport timeouts as
// [shared.ErrTimeout] so the retry policy can tell transient failures from
// structural ones.
package services
