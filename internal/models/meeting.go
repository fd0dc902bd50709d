package models

import "time"

// MeetingStatus is the lifecycle of one scheduled occurrence.
type MeetingStatus string

const (
	MeetingScheduled MeetingStatus = "scheduled"
	MeetingCompleted MeetingStatus = "completed"
	MeetingArchived  MeetingStatus = "archived"
)

// Meeting is one scheduled occurrence of a circle.
// Meetings that already started are immutable history for lifecycle operations.
type Meeting struct {
	ID       string
	CircleID string

	StartTime time.Time
	EndTime   time.Time

	// Price and Currency are copied from the circle when the meeting is scheduled.
	Price    int64
	Currency string

	Status MeetingStatus
}

// StartsAtOrAfter reports whether the meeting has not started before now.
func (m *Meeting) StartsAtOrAfter(now time.Time) bool {
	return !m.StartTime.Before(now)
}
