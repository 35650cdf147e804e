package models

import (
	"fmt"
	"time"
)

// ActivityKind classifies an activity feed entry.
type ActivityKind string

// Activity kinds.
const (
	ActivitySuccess ActivityKind = "success"
	ActivityError   ActivityKind = "error"
	ActivityInfo    ActivityKind = "info"
)

// MaxActivities caps how many entries the activity feed shows.
const MaxActivities = 5

// Activity is one entry in the dashboard activity feed.
type Activity struct {
	At          time.Time
	Kind        ActivityKind
	Title       string
	Description string
}

// TimeAgo renders the elapsed time between at and now.
func TimeAgo(at, now time.Time) string {
	d := now.Sub(at)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dmin ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}
