package organize

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"shuttersort/internal/services"
)

const maxRenameAttempts = 999

// renameSuffixPattern matches a previously applied collision suffix so that
// re-running over renamed files does not stack suffixes.
var renameSuffixPattern = regexp.MustCompile(`_(\d{3})$`)

// DuplicatePolicy selects how target-path collisions are handled.
type DuplicatePolicy string

const (
	PolicyRename    DuplicatePolicy = "rename"
	PolicySkip      DuplicatePolicy = "skip"
	PolicyOverwrite DuplicatePolicy = "overwrite"
)

// DuplicateResolver computes collision-free target paths. It remembers paths
// it has handed out during the run, so two tasks racing toward the same
// target name get distinct results even before either file exists on disk.
type DuplicateResolver struct {
	policy DuplicatePolicy

	mu       sync.Mutex
	reserved map[string]struct{}
}

func NewDuplicateResolver(policy DuplicatePolicy) *DuplicateResolver {
	return &DuplicateResolver{
		policy:   policy,
		reserved: make(map[string]struct{}),
	}
}

// Resolve returns the path the task should write to. skip reports that the
// file should not be written at all under the skip policy. An error means the
// rename counter was exhausted; callers treat it as a per-file failure.
func (r *DuplicateResolver) Resolve(candidate string) (target string, skip bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.taken(candidate) {
		r.reserved[candidate] = struct{}{}
		return candidate, false, nil
	}

	switch r.policy {
	case PolicySkip:
		return candidate, true, nil
	case PolicyOverwrite:
		r.reserved[candidate] = struct{}{}
		return candidate, false, nil
	}

	ext := filepath.Ext(candidate)
	stem := strings.TrimSuffix(candidate, ext)
	stem = renameSuffixPattern.ReplaceAllString(stem, "")

	for counter := 1; counter <= maxRenameAttempts; counter++ {
		renamed := fmt.Sprintf("%s_%03d%s", stem, counter, ext)
		if !r.taken(renamed) {
			r.reserved[renamed] = struct{}{}
			return renamed, false, nil
		}
	}

	return "", false, services.Wrap(services.ErrValidation, "organize", "resolve duplicate",
		fmt.Sprintf("no free name for %s after %d attempts", filepath.Base(candidate), maxRenameAttempts), nil)
}

func (r *DuplicateResolver) taken(path string) bool {
	if _, ok := r.reserved[path]; ok {
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}
