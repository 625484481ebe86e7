// Package extract determines when a media file was captured, reading EXIF
// tags for images and container metadata for videos, with results memoized in
// a bounded cache keyed by path, size, and modification time.
package extract
