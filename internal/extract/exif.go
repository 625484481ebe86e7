package extract

import (
	"log/slog"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"shuttersort/internal/logging"
)

const exifDateTimeLayout = "2006:01:02 15:04:05"

// Tag precedence mirrors camera behavior: the capture time beats the
// digitization time beats the file-level timestamp.
var exifDateTags = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

type exifExtractor struct {
	logger *slog.Logger
}

func newExifExtractor(logger *slog.Logger) *exifExtractor {
	return &exifExtractor{logger: logging.NewComponentLogger(logger, "exif")}
}

func (e *exifExtractor) extract(path string) (time.Time, bool) {
	file, err := os.Open(path)
	if err != nil {
		e.logger.Debug("open for exif failed", logging.String("path", path), logging.Error(err))
		return time.Time{}, false
	}
	defer file.Close()

	meta, err := exif.Decode(file)
	if err != nil {
		e.logger.Debug("no exif metadata", logging.String("path", path), logging.Error(err))
		return time.Time{}, false
	}

	for _, tagName := range exifDateTags {
		tag, err := meta.Get(tagName)
		if err != nil {
			continue
		}
		value, err := tag.StringVal()
		if err != nil {
			continue
		}
		when, err := time.ParseInLocation(exifDateTimeLayout, value, time.Local)
		if err != nil {
			e.logger.Debug("unparseable exif date",
				logging.String("path", path),
				logging.String("tag", string(tagName)),
				logging.String("value", value),
			)
			continue
		}
		return when, true
	}
	return time.Time{}, false
}
