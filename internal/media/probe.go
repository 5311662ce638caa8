// Package media wraps ffprobe for artifact inspection.
package media

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// DurationSeconds reads the container duration of a media file with ffprobe.
// It returns 0 when the file is missing or ffprobe is unavailable; callers
// fall back to scene-declared durations.
func DurationSeconds(ctx context.Context, path string) float64 {
	if _, err := os.Stat(path); err != nil {
		return 0
	}
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil || duration < 0 {
		return 0
	}
	return duration
}
