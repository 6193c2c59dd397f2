// Package models defines the domain value types flowing through the sync
// engine: liked tracks pulled from Spotify, match candidates returned by
// Yandex Music search, and the composite like key identifying a like in the
// Yandex library.
//
// External API responses are parsed into these explicit structures at the
// service boundary; absence of a field is a typed zero value, never a runtime
// lookup failure.
package models
