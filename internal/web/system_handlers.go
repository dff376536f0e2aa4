package web

import (
	"net/http"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
)

// handleHealthz probes the store read-only. No retries here; a transient
// storage failure is the caller's problem to retry.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "error", "db": "disconnected",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok", "db": "connected",
	})
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	hostname := "unknown"
	osName := runtime.GOOS
	arch := runtime.GOARCH
	if info, err := host.Info(); err == nil {
		hostname = info.Hostname
		osName = info.OS + " " + info.KernelVersion
		arch = info.KernelArch
	}

	cpuCount := runtime.NumCPU()
	if n, err := cpu.Counts(true); err == nil {
		cpuCount = n
	}

	var sqliteVersion string
	if err := s.db.Conn().QueryRow("SELECT sqlite_version()").Scan(&sqliteVersion); err != nil {
		sqliteVersion = "unknown"
	}

	var dbSizeMB float64
	if info, err := os.Stat(s.cfg.Store.DBPath); err == nil {
		dbSizeMB = float64(info.Size()) / (1024 * 1024)
	}

	docCount, _ := s.db.CountDocuments()

	writeJSON(w, http.StatusOK, map[string]any{
		"hostname":   hostname,
		"os":         osName,
		"arch":       arch,
		"go":         runtime.Version(),
		"sqlite":     sqliteVersion,
		"cpu_count":  cpuCount,
		"db_size_mb": float64(int(dbSizeMB*100+0.5)) / 100,
		"doc_count":  docCount,
	})
}
