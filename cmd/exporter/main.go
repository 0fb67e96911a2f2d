package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ahmedhadihasan/iqraaexam/internal/app"
	"github.com/ahmedhadihasan/iqraaexam/internal/export"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	schedule := service.Config.Backup.Schedule
	if schedule == "" {
		schedule = "0 * * * *"
	}

	scheduler, err := export.NewSnapshotScheduler(schedule, service.SnapshotResults)
	if err != nil {
		logger.Error.Fatalf("Failed to initialize snapshot scheduler: %v", err)
	}
	defer scheduler.Stop()

	logger.Info.Printf("Snapshot scheduler running with schedule %q", schedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info.Println("Snapshot scheduler stopped")
}
