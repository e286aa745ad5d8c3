package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/akovacs/vizsgadrill/internal/clock"
	"github.com/akovacs/vizsgadrill/internal/db"
	"github.com/akovacs/vizsgadrill/internal/logger"
	"github.com/akovacs/vizsgadrill/internal/srs"
)

// Reminder logs the number of cards due for review once a day, so a learner
// tailing the server log (or a future notifier) sees the day's workload.
type Reminder struct {
	scheduler *gocron.Scheduler
	db        *db.DB
	clock     clock.Clock
	log       *logger.Logger
}

func NewReminder(database *db.DB, clk clock.Clock) *Reminder {
	return &Reminder{
		scheduler: gocron.NewScheduler(time.Local),
		db:        database,
		clock:     clk,
		log:       logger.Default().WithPrefix("reminder"),
	}
}

// Start schedules the daily due-count check and runs the scheduler in the
// background.
func (r *Reminder) Start(hour int) error {
	_, err := r.scheduler.Every(1).Day().At(fmt.Sprintf("%02d:00", hour)).Do(r.remind)
	if err != nil {
		return err
	}
	r.scheduler.StartAsync()
	r.log.Info("daily due-count reminder scheduled for %02d:00", hour)
	return nil
}

func (r *Reminder) Stop() {
	r.scheduler.Stop()
}

func (r *Reminder) remind() {
	ctx := context.Background()
	records, err := r.db.AllSchedules(ctx)
	if err != nil {
		r.log.Error("failed to load schedules for reminder: %v", err)
		return
	}
	due := srs.DueIDs(records, r.clock.Today())
	if len(due) == 0 {
		r.log.Info("all caught up, no cards due today")
		return
	}
	r.log.Info("%d card(s) due for review today", len(due))
}
