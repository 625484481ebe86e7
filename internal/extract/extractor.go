package extract

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"shuttersort/internal/config"
	"shuttersort/internal/logging"
	"shuttersort/internal/stats"
)

// Extractor returns the embedded creation date of a media file. It reports
// false instead of failing: extraction problems are recoverable and push the
// file toward the mtime fallback or the no-date bucket.
type Extractor interface {
	Extract(ctx context.Context, path string) (time.Time, bool)
}

// Dates outside this window are treated as corrupt metadata and rejected.
var earliestPlausible = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)

func plausible(when time.Time) bool {
	return when.After(earliestPlausible) && when.Before(time.Now().Add(24*time.Hour))
}

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".tiff": {}, ".heic": {}, ".thm": {},
}

// mediaExtractor routes image files to EXIF parsing and video files to
// container probing.
type mediaExtractor struct {
	exif   *exifExtractor
	video  *videoExtractor
	logger *slog.Logger
}

// NewExtractor builds the full extraction chain: media-type routing wrapped in
// a bounded result cache.
func NewExtractor(cfg *config.Config, logger *slog.Logger, collector *stats.Collector) (Extractor, error) {
	media := &mediaExtractor{
		exif:   newExifExtractor(logger),
		video:  newVideoExtractor(logger),
		logger: logging.NewComponentLogger(logger, "extract"),
	}
	return newCachedExtractor(media, cfg.Performance.ExtractCacheSize, collector)
}

func (m *mediaExtractor) Extract(ctx context.Context, path string) (time.Time, bool) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false
	}

	ext := strings.ToLower(filepath.Ext(path))
	var when time.Time
	var ok bool
	if _, isImage := imageExtensions[ext]; isImage {
		when, ok = m.exif.extract(path)
	} else {
		when, ok = m.video.extract(ctx, path)
	}
	if !ok {
		return time.Time{}, false
	}
	if !plausible(when) {
		m.logger.Debug("rejecting implausible date",
			logging.String("path", path),
			logging.String("date", when.Format(time.RFC3339)),
		)
		return time.Time{}, false
	}
	return when, true
}
