package models

import "time"

// ScheduleRecord is the per-item spaced-repetition state. One exists per
// item ID once the item has been rated at least once; an item with no
// record is "new", not "due".
type ScheduleRecord struct {
	ItemID       string    `json:"item_id"`
	IntervalDays int       `json:"interval_days"`
	EaseFactor   float64   `json:"ease_factor"`
	DueAt        time.Time `json:"due_at"` // calendar date, UTC midnight
}
