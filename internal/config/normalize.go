package config

import "strings"

func (c *Config) normalize() error {
	for _, field := range []*string{&c.Paths.SourceDir, &c.Paths.TargetDir, &c.Paths.LogDir} {
		trimmed := strings.TrimSpace(*field)
		if trimmed == "" {
			*field = ""
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.DateFormat = strings.TrimSpace(c.DateFormat)
	c.Processing.DuplicateHandling = strings.ToLower(strings.TrimSpace(c.Processing.DuplicateHandling))
	c.Fallback.NoDateFolder = strings.TrimSpace(c.Fallback.NoDateFolder)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	c.SupportedExtensions = normalizeExtensions(c.SupportedExtensions)
	c.Video.ThumbnailExtensions = normalizeExtensions(c.Video.ThumbnailExtensions)

	return nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := map[string]struct{}{}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}
