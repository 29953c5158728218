// Package assetcache deduplicates binary side-assets (avatars, covers, videos)
// on disk, keyed by a short digest of their source locator.
//
// Files are named <label>_<key>.<ext>, where label is the sanitized human
// label (letters and digits, at most 20) and key is the first eight hex digits
// of the MD5 of the locator string. Any existing file with that prefix is a
// cache hit whatever its extension, and a hit never touches the network. On a
// miss the asset is streamed into a .part file under a size cap and renamed
// into place, so a destination directory never holds a truncated asset under
// its final name.
package assetcache
