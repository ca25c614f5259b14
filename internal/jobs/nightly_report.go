// Package jobs runs the background schedules: currently just the nightly
// report over the previous day's writing.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"inkmemory/internal/services"
)

// NightlyReport generates the daily echoes report for sessions touched in
// the last day.
type NightlyReport struct {
	scheduler gocron.Scheduler
	reports   *services.ReportService
	hour      int
}

// NewNightlyReport creates the job. hour is the UTC hour of day to run at.
func NewNightlyReport(reports *services.ReportService, hour int) (*NightlyReport, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("invalid report hour: %d", hour)
	}

	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &NightlyReport{
		scheduler: scheduler,
		reports:   reports,
		hour:      hour,
	}, nil
}

// Start registers and starts the daily job.
func (j *NightlyReport) Start() error {
	_, err := j.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(
			gocron.NewAtTime(uint(j.hour), 0, 0),
		)),
		gocron.NewTask(j.run),
		gocron.WithName("nightly-report"),
	)
	if err != nil {
		return fmt.Errorf("failed to register nightly report job: %w", err)
	}

	j.scheduler.Start()
	log.Printf("⏰ [JOBS] Nightly report scheduled at %02d:00 UTC", j.hour)
	return nil
}

// Stop shuts the scheduler down.
func (j *NightlyReport) Stop() error {
	return j.scheduler.Shutdown()
}

// RunNow triggers the job immediately.
func (j *NightlyReport) RunNow(ctx context.Context) error {
	return j.reports.GenerateDaily(ctx, time.Now().Add(-24*time.Hour))
}

func (j *NightlyReport) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Println("▶️ [JOBS] Running nightly report")
	if err := j.reports.GenerateDaily(ctx, time.Now().Add(-24*time.Hour)); err != nil {
		log.Printf("❌ [JOBS] Nightly report failed: %v", err)
		return
	}
	log.Println("✅ [JOBS] Nightly report completed")
}
