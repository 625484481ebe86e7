package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SourceDir string `toml:"source_dir"`
	TargetDir string `toml:"target_dir"`
	LogDir    string `toml:"log_dir"`
}

// Processing controls how files are relocated.
type Processing struct {
	MoveFiles         bool   `toml:"move_files"`
	DuplicateHandling string `toml:"duplicate_handling"`
	SkipOrganized     bool   `toml:"skip_organized"`
}

// Performance controls pipeline concurrency and batching.
type Performance struct {
	BatchSize         int `toml:"batch_size"`
	RetryAttempts     int `toml:"retry_attempts"`
	RetryBaseDelayMS  int `toml:"retry_base_delay_ms"`
	MaxWorkers        int `toml:"max_workers"`
	MaxConcurrentIO   int `toml:"max_concurrent_io"`
	BatchTimeout      int `toml:"batch_timeout"`
	QueuePollInterval int `toml:"queue_poll_interval"`
	ExtractCacheSize  int `toml:"extract_cache_size"`
}

// Safety contains guard rails for a run.
type Safety struct {
	DryRun         bool  `toml:"dry_run"`
	MaxFilesPerRun int   `toml:"max_files_per_run"`
	MinFreeSpaceMB int64 `toml:"min_free_space_mb"`
}

// Fallback controls behavior for files without an extractable date.
type Fallback struct {
	NoDateFolder string `toml:"no_date_folder"`
	UseFileDate  bool   `toml:"use_file_date"`
}

// Video controls video and thumbnail handling.
type Video struct {
	Enabled                bool     `toml:"enabled"`
	ThumbnailExtensions    []string `toml:"thumbnail_extensions"`
	MergeMpgThm            bool     `toml:"merge_mpg_thm"`
	KeepThumbnailsTogether bool     `toml:"keep_thumbnails_together"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for shuttersort.
type Config struct {
	DateFormat          string   `toml:"date_format"`
	SupportedExtensions []string `toml:"supported_extensions"`

	Paths       Paths       `toml:"paths"`
	Processing  Processing  `toml:"processing"`
	Performance Performance `toml:"performance"`
	Safety      Safety      `toml:"safety"`
	Fallback    Fallback    `toml:"fallback"`
	Video       Video       `toml:"video"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shuttersort/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. A missing file is not an
// error; defaults apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shuttersort.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// BatchTimeoutDuration returns the per-batch completion timeout.
func (c *Config) BatchTimeoutDuration() time.Duration {
	return time.Duration(c.Performance.BatchTimeout) * time.Second
}

// QueuePollDuration returns the queue fetch poll timeout.
func (c *Config) QueuePollDuration() time.Duration {
	return time.Duration(c.Performance.QueuePollInterval) * time.Second
}

// RetryBaseDelay returns the base delay for the retry backoff schedule.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Performance.RetryBaseDelayMS) * time.Millisecond
}

// ExtensionAllowed reports whether a file extension is in the configured allow-list.
func (c *Config) ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range c.SupportedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
