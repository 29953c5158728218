// Package textutil provides filename-safe reductions of user-supplied text.
//
// Labels (asset cache filenames) keep only letters and digits; folder names
// additionally keep underscores and hyphens. Both normalize to NFC and cap the
// result by rune count so multi-byte usernames are never split mid-character.
package textutil
