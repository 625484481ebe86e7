package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"shuttersort/internal/logging"
)

const ffprobeTimeout = 30 * time.Second

var videoDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02 15:04:05",
}

// videoExtractor reads the container creation_time via ffprobe. When ffprobe
// is not installed, every extraction reports no date.
type videoExtractor struct {
	binary string
	logger *slog.Logger
}

func newVideoExtractor(logger *slog.Logger) *videoExtractor {
	v := &videoExtractor{logger: logging.NewComponentLogger(logger, "ffprobe")}
	if path, err := exec.LookPath("ffprobe"); err == nil {
		v.binary = path
	} else {
		v.logger.Warn("ffprobe not found; video dates fall back to file times")
	}
	return v
}

type ffprobeOutput struct {
	Format struct {
		Tags map[string]string `json:"tags"`
	} `json:"format"`
}

func (v *videoExtractor) extract(ctx context.Context, path string) (time.Time, bool) {
	if v.binary == "" {
		return time.Time{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, ffprobeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, v.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		v.logger.Debug("ffprobe failed", logging.String("path", path), logging.Error(err))
		return time.Time{}, false
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		v.logger.Debug("ffprobe output unparseable", logging.String("path", path), logging.Error(err))
		return time.Time{}, false
	}

	raw, ok := probe.Format.Tags["creation_time"]
	if !ok {
		for key, value := range probe.Format.Tags {
			if strings.EqualFold(key, "creation_time") {
				raw = value
				ok = true
				break
			}
		}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return time.Time{}, false
	}

	for _, layout := range videoDateLayouts {
		if when, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return when.Local(), true
		}
	}
	v.logger.Debug("unparseable creation_time",
		logging.String("path", path),
		logging.String("value", raw),
	)
	return time.Time{}, false
}
