package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary the organizer can use.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Defaults lists the external tools shuttersort can take advantage of. Both
// are optional: without them video files fall back to file timestamps and
// plain transfers.
func Defaults() []Requirement {
	return []Requirement{
		{
			Name:        "FFprobe",
			Command:     "ffprobe",
			Description: "Reads creation dates from video containers",
			Optional:    true,
		},
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Merges MPG videos with THM thumbnails",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
