package db

import (
	"context"

	"github.com/akovacs/vizsgadrill/internal/logger"
	"github.com/akovacs/vizsgadrill/internal/models"
)

func (db *DB) TopicStats(ctx context.Context) ([]models.TopicStat, error) {
	log := logger.FromContext(ctx).WithPrefix("stats")

	rows, err := db.QueryContext(ctx, `
SELECT topic, SUM(attempts), SUM(correct)
FROM progress
GROUP BY topic
ORDER BY topic
`)
	if err != nil {
		log.Error("failed to query topic stats: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.TopicStat
	for rows.Next() {
		var s models.TopicStat
		if err := rows.Scan(&s.Topic, &s.Attempts, &s.Correct); err != nil {
			log.Error("failed to scan topic stat row: %v", err)
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MostMissed returns the attempted items with the worst accuracy below the
// weak-spot cutoff, worst first.
func (db *DB) MostMissed(ctx context.Context, cutoff float64, limit int) ([]models.ProgressRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("stats")

	rows, err := db.QueryContext(ctx, `
SELECT item_id, topic, question_hu, attempts, correct, last_seen
FROM progress
WHERE attempts > 0 AND CAST(correct AS REAL) / attempts < ?
ORDER BY CAST(correct AS REAL) / attempts ASC, attempts DESC
LIMIT ?
`, cutoff, limit)
	if err != nil {
		log.Error("failed to query most missed: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.ProgressRecord
	for rows.Next() {
		var rec models.ProgressRecord
		if err := rows.Scan(&rec.ItemID, &rec.Topic, &rec.QuestionHU, &rec.Attempts, &rec.Correct, &rec.LastSeen); err != nil {
			log.Error("failed to scan missed row: %v", err)
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
