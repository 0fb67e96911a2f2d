package export

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shrimpsizemoose/trekker/logger"
)

// SnapshotScheduler runs a result snapshot on a cron schedule.
type SnapshotScheduler struct {
	scheduler *gocron.Scheduler
}

func NewSnapshotScheduler(schedule string, snapshot func() (string, error)) (*SnapshotScheduler, error) {
	scheduler := gocron.NewScheduler(time.UTC)

	_, err := scheduler.Cron(schedule).Do(func() {
		name, err := snapshot()
		if err != nil {
			logger.Error.Printf("Scheduled snapshot failed: %v", err)
			return
		}
		logger.Info.Printf("Wrote scheduled snapshot %s", name)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule snapshot: %w", err)
	}

	scheduler.StartAsync()
	return &SnapshotScheduler{scheduler: scheduler}, nil
}

func (s *SnapshotScheduler) Stop() {
	s.scheduler.Stop()
}
