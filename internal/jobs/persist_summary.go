package jobs

import (
	"context"

	"github.com/akovacs/vizsgadrill/internal/db"
	"github.com/akovacs/vizsgadrill/internal/models"
)

// PersistSummary writes one finished session's summary to the store.
// Summaries are advisory history; running them on the pool keeps the last
// answer of a session as fast as every other one.
type PersistSummary struct {
	DB      *db.DB
	Summary models.SessionSummary
}

func (j PersistSummary) Name() string { return "persist-summary" }

func (j PersistSummary) Run(ctx context.Context) error {
	return j.DB.InsertSessionSummary(ctx, j.Summary)
}
