package db

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/akovacs/vizsgadrill/internal/logger"
	"github.com/akovacs/vizsgadrill/internal/models"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

func (db *DB) InsertSessionSummary(ctx context.Context, s models.SessionSummary) error {
	log := logger.FromContext(ctx).WithPrefix("sessions")
	log.Debug("inserting session summary: id=%s, mode=%s, score=%.2f/%d", s.ID, s.Mode, s.Score, s.Total)

	_, err := db.ExecContext(ctx, `
INSERT INTO session_history (id, mode, topic, score, total, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, s.ID, string(s.Mode), s.Topic, s.Score, s.Total, s.StartedAt, s.FinishedAt)
	if err != nil {
		log.Error("failed to insert session summary: %v", err)
	}
	return err
}

func (db *DB) ListSessionSummaries(ctx context.Context, filter models.SummaryFilter) ([]models.SessionSummary, error) {
	log := logger.FromContext(ctx).WithPrefix("sessions")

	query := sqlBuilder.
		Select("id", "mode", "topic", "score", "total", "started_at", "finished_at").
		From("session_history").
		OrderBy("finished_at DESC")
	if filter.Mode != "" {
		query = query.Where(squirrel.Eq{"mode": string(filter.Mode)})
	}
	if filter.Topic != nil {
		query = query.Where(squirrel.Eq{"topic": *filter.Topic})
	}
	if filter.Since != nil {
		query = query.Where(squirrel.GtOrEq{"finished_at": *filter.Since})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build session history query: %v", err)
		return nil, err
	}

	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query session history: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.SessionSummary
	for rows.Next() {
		var s models.SessionSummary
		if err := rows.Scan(&s.ID, &s.Mode, &s.Topic, &s.Score, &s.Total, &s.StartedAt, &s.FinishedAt); err != nil {
			log.Error("failed to scan session summary row: %v", err)
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (db *DB) CountSessionSummaries(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM session_history`).Scan(&count)
	return count, err
}

// SessionDays returns the distinct calendar dates on which sessions
// finished, newest first. Feeds the study-streak computation.
func (db *DB) SessionDays(ctx context.Context) ([]time.Time, error) {
	log := logger.FromContext(ctx).WithPrefix("sessions")

	rows, err := db.QueryContext(ctx, `SELECT DISTINCT date(finished_at) FROM session_history ORDER BY 1 DESC`)
	if err != nil {
		log.Error("failed to query session days: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		t, err := time.ParseInLocation("2006-01-02", day, time.UTC)
		if err != nil {
			log.Error("corrupt session day %q: %v", day, err)
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
