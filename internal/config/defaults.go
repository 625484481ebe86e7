package config

const (
	defaultLogDir            = "~/.local/share/shuttersort/logs"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultDateFormat        = "YYYY/MM/DD"
	defaultNoDateFolder      = "Unknown_Date"
	defaultDuplicateHandling = "rename"
	defaultBatchSize         = 100
	defaultRetryAttempts     = 3
	defaultRetryBaseDelayMS  = 100
	defaultMaxWorkers        = 4
	defaultMaxConcurrentIO   = 10
	defaultBatchTimeout      = 30
	defaultQueuePollInterval = 1
	defaultExtractCacheSize  = 1000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		DateFormat: defaultDateFormat,
		SupportedExtensions: []string{
			".jpg", ".jpeg", ".png", ".tiff", ".heic",
			".mpg", ".mpeg", ".mp4", ".avi", ".mov",
			".thm",
		},
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Processing: Processing{
			MoveFiles:         false,
			DuplicateHandling: defaultDuplicateHandling,
			SkipOrganized:     true,
		},
		Performance: Performance{
			BatchSize:         defaultBatchSize,
			RetryAttempts:     defaultRetryAttempts,
			RetryBaseDelayMS:  defaultRetryBaseDelayMS,
			MaxWorkers:        defaultMaxWorkers,
			MaxConcurrentIO:   defaultMaxConcurrentIO,
			BatchTimeout:      defaultBatchTimeout,
			QueuePollInterval: defaultQueuePollInterval,
			ExtractCacheSize:  defaultExtractCacheSize,
		},
		Safety: Safety{
			DryRun:         false,
			MaxFilesPerRun: 0,
			MinFreeSpaceMB: 0,
		},
		Fallback: Fallback{
			NoDateFolder: defaultNoDateFolder,
			UseFileDate:  true,
		},
		Video: Video{
			Enabled:                true,
			ThumbnailExtensions:    []string{".thm"},
			MergeMpgThm:            false,
			KeepThumbnailsTogether: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
