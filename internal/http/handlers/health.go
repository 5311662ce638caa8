package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Health reports liveness plus dependency checks: database reachability and
// write access to the output and temp directories.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	healthy := true

	if a.Pool != nil {
		if err := a.Pool.Ping(r.Context()); err != nil {
			checks["database"] = "unreachable: " + err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "in-memory"
	}

	for name, dir := range map[string]string{
		"output_dir": a.Config.OutputDir,
		"temp_dir":   a.Config.TempDir,
	} {
		if err := checkWritable(dir); err != nil {
			checks[name] = "not_writable: " + err.Error()
			healthy = false
		} else {
			checks[name] = "writable"
		}
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	a.json(w, code, map[string]any{
		"success":   healthy,
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"mock_mode": a.Config.MockMode,
		"checks":    checks,
	})
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".healthcheck")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}
