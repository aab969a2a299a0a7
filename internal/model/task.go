package model

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Task represents a single to-do item.
type Task struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"index" json:"title"`
	Description string    `json:"description"`
	Property1   string    `json:"property1"`
	Property2   string    `json:"property2"`
	Date        time.Time `gorm:"index;not null" json:"date"`
	Status      Status    `gorm:"not null;default:0" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName keeps the table name stable regardless of naming strategy.
func (Task) TableName() string {
	return "tasks"
}

// BeforeSave stores the date as a floating wall-clock value.
func (t *Task) BeforeSave(_ *gorm.DB) error {
	t.Date = Floating(t.Date)
	return nil
}

// Floating keeps the wall-clock reading of ts and drops its zone offset.
// Two values that read the same on a calendar compare equal afterwards.
func Floating(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Time{}
	}
	y, m, d := ts.Date()
	hh, mm, ss := ts.Clock()
	return time.Date(y, m, d, hh, mm, ss, ts.Nanosecond(), time.UTC)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// ParseDate accepts RFC 3339, a zone-less date-time or a bare date.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

// DayRange returns the half-open range [start, end) covering the calendar day of ts.
func DayRange(ts time.Time) (time.Time, time.Time) {
	y, m, d := ts.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
