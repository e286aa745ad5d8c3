package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/akovacs/vizsgadrill/internal/logger"
	"github.com/akovacs/vizsgadrill/internal/models"
)

// Due dates are stored as plain calendar dates; hours never matter to the
// scheduler.
const dueDateFormat = "2006-01-02"

func (db *DB) GetSchedule(ctx context.Context, itemID string) (*models.ScheduleRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("schedule")

	var rec models.ScheduleRecord
	var due string
	err := db.QueryRowContext(ctx, `
SELECT item_id, interval_days, ease_factor, due_at
FROM schedule
WHERE item_id = ?
`, itemID).Scan(&rec.ItemID, &rec.IntervalDays, &rec.EaseFactor, &due)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get schedule record: %v", err)
		return nil, err
	}
	if rec.DueAt, err = time.ParseInLocation(dueDateFormat, due, time.UTC); err != nil {
		log.Error("corrupt due date %q for item %s: %v", due, itemID, err)
		return nil, err
	}
	return &rec, nil
}

func (db *DB) PutSchedule(ctx context.Context, rec models.ScheduleRecord) error {
	log := logger.FromContext(ctx).WithPrefix("schedule")
	log.Debug("upserting schedule: item_id=%s, interval=%d, ease=%.3f", rec.ItemID, rec.IntervalDays, rec.EaseFactor)

	_, err := db.ExecContext(ctx, `
INSERT INTO schedule (item_id, interval_days, ease_factor, due_at, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(item_id) DO UPDATE SET
    interval_days = excluded.interval_days,
    ease_factor = excluded.ease_factor,
    due_at = excluded.due_at,
    updated_at = CURRENT_TIMESTAMP
`, rec.ItemID, rec.IntervalDays, rec.EaseFactor, rec.DueAt.Format(dueDateFormat))
	if err != nil {
		log.Error("failed to upsert schedule record: %v", err)
	}
	return err
}

func (db *DB) AllSchedules(ctx context.Context) (map[string]models.ScheduleRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("schedule")

	rows, err := db.QueryContext(ctx, `SELECT item_id, interval_days, ease_factor, due_at FROM schedule`)
	if err != nil {
		log.Error("failed to query schedule records: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]models.ScheduleRecord)
	for rows.Next() {
		var rec models.ScheduleRecord
		var due string
		if err := rows.Scan(&rec.ItemID, &rec.IntervalDays, &rec.EaseFactor, &due); err != nil {
			log.Error("failed to scan schedule row: %v", err)
			return nil, err
		}
		if rec.DueAt, err = time.ParseInLocation(dueDateFormat, due, time.UTC); err != nil {
			log.Error("corrupt due date %q for item %s: %v", due, rec.ItemID, err)
			return nil, err
		}
		out[rec.ItemID] = rec
	}
	return out, rows.Err()
}
