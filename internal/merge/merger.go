package merge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"shuttersort/internal/config"
	"shuttersort/internal/logging"
	"shuttersort/internal/services"
)

const ffmpegTimeout = 5 * time.Minute

// Merger embeds a video's companion thumbnail into the video container so the
// pair travels as a single file.
type Merger interface {
	// CanMerge reports whether the video/thumbnail pair is mergeable.
	CanMerge(video, thumbnail string) bool
	// Merge writes the merged video into targetPath and removes the
	// thumbnail on success.
	Merge(ctx context.Context, video, thumbnail, targetPath string) error
}

// FFmpegMerger attaches THM thumbnails to MPG containers by remuxing with an
// extra attached_pic stream. Construction succeeds even without ffmpeg on the
// path; CanMerge simply reports false so callers fall back to plain moves.
type FFmpegMerger struct {
	binary  string
	enabled bool
	logger  *slog.Logger
}

func NewFFmpegMerger(cfg *config.Config, logger *slog.Logger) *FFmpegMerger {
	m := &FFmpegMerger{
		enabled: cfg.Video.Enabled && cfg.Video.MergeMpgThm,
		logger:  logging.NewComponentLogger(logger, "merge"),
	}
	if !m.enabled {
		return m
	}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		m.binary = path
	} else {
		m.logger.Warn("ffmpeg not found; mpg+thm merging disabled")
	}
	return m
}

func (m *FFmpegMerger) CanMerge(video, thumbnail string) bool {
	if !m.enabled || m.binary == "" || thumbnail == "" {
		return false
	}
	if !strings.EqualFold(filepath.Ext(video), ".mpg") {
		return false
	}
	return strings.EqualFold(filepath.Ext(thumbnail), ".thm")
}

func (m *FFmpegMerger) Merge(ctx context.Context, video, thumbnail, targetPath string) error {
	ctx, cancel := context.WithTimeout(ctx, ffmpegTimeout)
	defer cancel()

	// Remux into a sibling temp file so a failed merge never leaves a
	// truncated file at the target path.
	tmp, err := os.CreateTemp(filepath.Dir(targetPath), ".merge-*"+filepath.Ext(targetPath))
	if err != nil {
		return services.Wrap(services.ErrTransient, "merge", "merge", "create staging file", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(ctx, m.binary,
		"-y",
		"-i", video,
		"-i", thumbnail,
		"-map", "0",
		"-map", "1",
		"-c", "copy",
		"-disposition:v:1", "attached_pic",
		"-f", "mpeg",
		tmpPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		m.logger.Debug("ffmpeg merge failed",
			logging.String("video", video),
			logging.String("output", truncateOutput(output)),
			logging.Error(err),
		)
		return services.Wrap(services.ErrExternalTool, "merge", "merge",
			fmt.Sprintf("ffmpeg remux of %s", filepath.Base(video)), err)
	}

	if err := os.Rename(tmpPath, targetPath); err != nil {
		return services.Wrap(services.ErrTransient, "merge", "merge", "finalize merged file", err)
	}
	if err := os.Remove(thumbnail); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("merged thumbnail left behind",
			logging.String("thumbnail", thumbnail),
			logging.Error(err),
		)
	}
	return nil
}

func truncateOutput(output []byte) string {
	const limit = 512
	text := strings.TrimSpace(string(output))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
