package srs

import (
	"math"
	"sort"
	"time"

	"github.com/akovacs/vizsgadrill/internal/clock"
	"github.com/akovacs/vizsgadrill/internal/models"
)

// Quality signals fed to the scheduler. Other values are tolerated and used
// as-is in the ease formula, but the orchestrator only produces these three.
const (
	QualityForgotten = 1
	QualityHesitant  = 3
	QualityConfident = 5
)

const (
	// DefaultEase is the ease factor assigned on first exposure.
	DefaultEase = 2.5
	// MinEase clamps the ease factor so intervals never stop growing.
	MinEase = 1.3
)

// Update applies one review to a schedule record using an SM-2 variant and
// returns the updated record. prev is nil on first exposure.
//
// A forgotten rating (quality < 3) collapses the interval to 1 but leaves
// the ease factor untouched, so a quickly relearned item still grows fast
// afterward. On a remembered rating the interval follows the classic
// 1 -> 4 -> round(interval*ease) curve, and only then is the ease adjusted.
func Update(prev *models.ScheduleRecord, quality int, today time.Time) models.ScheduleRecord {
	rec := models.ScheduleRecord{IntervalDays: 1, EaseFactor: DefaultEase}
	if prev != nil {
		rec = *prev
	}

	if quality < QualityHesitant {
		rec.IntervalDays = 1
	} else {
		switch {
		case prev == nil:
			rec.IntervalDays = 1
		case prev.IntervalDays == 1:
			rec.IntervalDays = 4
		default:
			rec.IntervalDays = int(math.Round(float64(prev.IntervalDays) * rec.EaseFactor))
		}

		miss := float64(QualityConfident - quality)
		ef := rec.EaseFactor + 0.1 - miss*(0.08+miss*0.02)
		if ef < MinEase {
			ef = MinEase
		}
		rec.EaseFactor = ef
	}

	if rec.IntervalDays < 1 {
		rec.IntervalDays = 1
	}
	rec.DueAt = clock.DateOf(today).AddDate(0, 0, rec.IntervalDays)
	return rec
}

// DueIDs returns the IDs of every record whose due date is on or before
// today, sorted for deterministic output. Items without a record are new,
// not due, and never appear here.
func DueIDs(records map[string]models.ScheduleRecord, today time.Time) []string {
	day := clock.DateOf(today)
	var ids []string
	for id, rec := range records {
		if !clock.DateOf(rec.DueAt).After(day) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// DayForecast is the number of records due on one calendar date.
type DayForecast struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// Forecast counts, for each of the next days offsets starting at today, how
// many records come due exactly on that date. Read-only; overdue records
// (due before today) are not folded into day zero.
func Forecast(records map[string]models.ScheduleRecord, today time.Time, days int) []DayForecast {
	day := clock.DateOf(today)
	out := make([]DayForecast, days)
	for i := range out {
		out[i].Date = day.AddDate(0, 0, i)
	}
	for _, rec := range records {
		offset := int(clock.DateOf(rec.DueAt).Sub(day).Hours() / 24)
		if offset >= 0 && offset < days {
			out[offset].Count++
		}
	}
	return out
}
