// Package merge combines MPG videos with their THM companion thumbnails via
// ffmpeg so both land in the target tree as one file.
package merge
