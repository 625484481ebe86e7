package scan

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"shuttersort/internal/config"
	"shuttersort/internal/logging"
)

// Directory names produced by previous runs. Recursion stops at these so an
// already organized tree discovers zero files.
var organizedDirPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}$`),
	regexp.MustCompile(`^\d{4}-\d{2}$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{2}$`),
	regexp.MustCompile(`^\d{2}-\d{2}$`),
}

var videoExtensions = map[string]struct{}{
	".mpg": {}, ".mpeg": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".mkv": {}, ".wmv": {},
}

// Entry is one unit of discovered work: a file plus any thumbnail companions
// that must travel with it.
type Entry struct {
	Path       string
	Companions []string
}

// IsVideo reports whether the entry's primary file is a video.
func (e Entry) IsVideo() bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(e.Path))]
	return ok
}

// Scanner discovers candidate media files under a root directory.
type Scanner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewScanner constructs a scanner from configuration.
func NewScanner(cfg *config.Config, logger *slog.Logger) *Scanner {
	return &Scanner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "scanner"),
	}
}

// Discover walks root and returns entries sorted by path. Unreadable
// subdirectories are skipped with a warning. Directories whose name matches an
// organized-date pattern are not descended into when skip_organized is set.
// An empty result is not an error.
func (s *Scanner) Discover(ctx context.Context, root string) ([]Entry, error) {
	var files []string
	if err := s.walk(ctx, root, &files); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return s.group(files), nil
}

func (s *Scanner) walk(ctx context.Context, dir string, files *[]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Warn("skipping unreadable directory",
			logging.String("dir", dir),
			logging.Error(err),
		)
		return nil
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if s.cfg.Processing.SkipOrganized && isOrganizedDirName(entry.Name()) {
				s.logger.Debug("skipping organized directory", logging.String("dir", path))
				continue
			}
			if err := s.walk(ctx, path, files); err != nil {
				return err
			}
			continue
		}
		if s.cfg.ExtensionAllowed(filepath.Ext(entry.Name())) {
			*files = append(*files, path)
		}
	}
	return nil
}

// group attaches thumbnail files to the video they belong to (same directory,
// same stem). Thumbnails without a matching video remain standalone entries.
func (s *Scanner) group(files []string) []Entry {
	if !s.cfg.Video.Enabled {
		entries := make([]Entry, 0, len(files))
		for _, f := range files {
			entries = append(entries, Entry{Path: f})
		}
		return entries
	}

	thumbExts := make(map[string]struct{}, len(s.cfg.Video.ThumbnailExtensions))
	for _, ext := range s.cfg.Video.ThumbnailExtensions {
		thumbExts[ext] = struct{}{}
	}

	videoByStem := make(map[string]int)
	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f))
		if _, ok := videoExtensions[ext]; ok {
			videoByStem[stemKey(f)] = len(entries)
		}
		entries = append(entries, Entry{Path: f})
	}

	grouped := entries[:0]
	claimed := make(map[int]struct{})
	for i, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Path))
		if _, isThumb := thumbExts[ext]; isThumb {
			if videoIdx, ok := videoByStem[stemKey(entry.Path)]; ok && videoIdx != i {
				entries[videoIdx].Companions = append(entries[videoIdx].Companions, entry.Path)
				claimed[i] = struct{}{}
			}
		}
	}
	for i, entry := range entries {
		if _, ok := claimed[i]; ok {
			continue
		}
		sort.Strings(entry.Companions)
		grouped = append(grouped, entry)
	}
	return grouped
}

func stemKey(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(path), strings.ToLower(stem))
}

func isOrganizedDirName(name string) bool {
	for _, pattern := range organizedDirPatterns {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}
