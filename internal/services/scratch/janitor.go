package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/inkwell/internal/common"
)

// Janitor periodically deletes scratch files that outlived their request, for example
// after a crash between staging and cleanup.
type Janitor struct {
	dirs   []string
	maxAge time.Duration
	cron   *cron.Cron
	logger arbor.ILogger
}

// NewJanitor creates a janitor sweeping the store's directories
func NewJanitor(store *Service, maxAge time.Duration, logger arbor.ILogger) *Janitor {
	return &Janitor{
		dirs:   store.Dirs(),
		maxAge: maxAge,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start schedules sweeps. An empty schedule or zero max age leaves the janitor idle.
func (j *Janitor) Start(schedule string) error {
	if schedule == "" || j.maxAge <= 0 {
		j.logger.Info().Msg("Scratch janitor disabled")
		return nil
	}

	_, err := j.cron.AddFunc(schedule, func() {
		common.SafeRun(j.logger, "scratch-janitor", func() {
			j.Sweep(time.Now())
		})
	})
	if err != nil {
		return fmt.Errorf("failed to schedule scratch janitor: %w", err)
	}

	j.cron.Start()
	j.logger.Info().
		Str("schedule", schedule).
		Dur("max_age", j.maxAge).
		Msg("Scratch janitor started")
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// Sweep removes regular files older than maxAge relative to now. Returns the number removed.
func (j *Janitor) Sweep(now time.Time) int {
	cutoff := now.Add(-j.maxAge)
	removed := 0

	for _, dir := range j.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			j.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to list scratch directory")
			continue
		}

		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			info, err := entry.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				j.logger.Warn().Err(err).Str("path", path).Msg("Failed to sweep scratch file")
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		j.logger.Info().Int("removed", removed).Msg("Swept stale scratch files")
	}
	return removed
}
