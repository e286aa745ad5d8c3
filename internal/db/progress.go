package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/akovacs/vizsgadrill/internal/logger"
	"github.com/akovacs/vizsgadrill/internal/models"
)

func (db *DB) GetProgress(ctx context.Context, itemID string) (*models.ProgressRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("progress")

	var rec models.ProgressRecord
	err := db.QueryRowContext(ctx, `
SELECT item_id, topic, question_hu, attempts, correct, last_seen
FROM progress
WHERE item_id = ?
`, itemID).Scan(&rec.ItemID, &rec.Topic, &rec.QuestionHU, &rec.Attempts, &rec.Correct, &rec.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get progress record: %v", err)
		return nil, err
	}
	return &rec, nil
}

func (db *DB) PutProgress(ctx context.Context, rec models.ProgressRecord) error {
	log := logger.FromContext(ctx).WithPrefix("progress")
	log.Debug("upserting progress: item_id=%s, attempts=%d, correct=%d", rec.ItemID, rec.Attempts, rec.Correct)

	_, err := db.ExecContext(ctx, `
INSERT INTO progress (item_id, topic, question_hu, attempts, correct, last_seen)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(item_id) DO UPDATE SET
    attempts = excluded.attempts,
    correct = excluded.correct,
    last_seen = excluded.last_seen
`, rec.ItemID, rec.Topic, rec.QuestionHU, rec.Attempts, rec.Correct, rec.LastSeen)
	if err != nil {
		log.Error("failed to upsert progress record: %v", err)
	}
	return err
}

func (db *DB) AllProgress(ctx context.Context) (map[string]models.ProgressRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("progress")

	rows, err := db.QueryContext(ctx, `SELECT item_id, topic, question_hu, attempts, correct, last_seen FROM progress`)
	if err != nil {
		log.Error("failed to query progress records: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]models.ProgressRecord)
	for rows.Next() {
		var rec models.ProgressRecord
		if err := rows.Scan(&rec.ItemID, &rec.Topic, &rec.QuestionHU, &rec.Attempts, &rec.Correct, &rec.LastSeen); err != nil {
			log.Error("failed to scan progress row: %v", err)
			return nil, err
		}
		out[rec.ItemID] = rec
	}
	return out, rows.Err()
}

// ResetAll wipes every schedule, progress, and session-history row. Used by
// the explicit full-reset operation only.
func (db *DB) ResetAll(ctx context.Context) error {
	log := logger.FromContext(ctx).WithPrefix("progress")
	log.Warn("resetting all progress, schedule and session history")

	for _, table := range []string{"schedule", "progress", "session_history"} {
		if _, err := db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			log.Error("failed to reset %s: %v", table, err)
			return err
		}
	}
	return nil
}
