package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// FindLatestMovie returns the most recently modified .yaml/.yml file in dir.
func FindLatestMovie(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(f.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if latestFile == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no movie files found in %s", dir)
	}

	return latestFile, nil
}

// ProcessStats is a snapshot of this process's resource usage.
type ProcessStats struct {
	RSS        uint64
	CPUPercent float64
	Threads    int32
}

// CurrentProcessStats reads resource usage of the running process.
func CurrentProcessStats() (ProcessStats, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return ProcessStats{}, err
	}

	mem, err := p.MemoryInfo()
	if err != nil {
		return ProcessStats{}, err
	}

	stats := ProcessStats{RSS: mem.RSS}
	if cpu, err := p.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	if n, err := p.NumThreads(); err == nil {
		stats.Threads = n
	}
	return stats, nil
}
