package preflight

import (
	"fmt"
	"os"

	"shuttersort/internal/config"
	"shuttersort/internal/deps"
	"shuttersort/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Run validates that a run can start: the source tree must be readable, the
// target must be creatable, and the target filesystem must have enough free
// space. Failures are fatal; the pipeline never starts on a doomed run.
func Run(cfg *config.Config, source, target string) error {
	info, err := os.Stat(source)
	if err != nil {
		return services.Wrap(services.ErrValidation, "preflight", "preflight",
			fmt.Sprintf("source directory %s is not accessible", source), err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrValidation, "preflight", "preflight",
			fmt.Sprintf("source %s is not a directory", source), nil)
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "preflight",
			fmt.Sprintf("cannot create target directory %s", target), err)
	}

	if cfg.Safety.MinFreeSpaceMB > 0 {
		free, err := freeSpaceMB(target)
		if err != nil {
			return services.Wrap(services.ErrValidation, "preflight", "preflight",
				fmt.Sprintf("cannot determine free space under %s", target), err)
		}
		if free < cfg.Safety.MinFreeSpaceMB {
			return services.Wrap(services.ErrValidation, "preflight", "preflight",
				fmt.Sprintf("target has %d MB free, need at least %d MB", free, cfg.Safety.MinFreeSpaceMB), nil)
		}
	}

	return nil
}

// RunAll executes every check that applies to the given config and reports
// each outcome. The status command renders these; nothing here is fatal.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if cfg.Paths.SourceDir != "" {
		results = append(results, CheckDirectoryAccess("Source directory", cfg.Paths.SourceDir))
	}
	if cfg.Paths.TargetDir != "" {
		results = append(results, CheckDirectoryAccess("Target directory", cfg.Paths.TargetDir))
		if cfg.Safety.MinFreeSpaceMB > 0 {
			results = append(results, CheckFreeSpace(cfg.Paths.TargetDir, cfg.Safety.MinFreeSpaceMB))
		}
	}

	for _, status := range deps.CheckBinaries(deps.Defaults()) {
		result := Result{Name: status.Name, Passed: status.Available}
		if status.Available {
			result.Detail = status.Command
		} else {
			result.Detail = status.Detail
			if status.Optional {
				result.Detail += " (optional)"
			}
		}
		results = append(results, result)
	}
	return results
}
