package domain

import (
	"fmt"
	"time"
)

// ComputeDuration renders the time elapsed between createdAt and now as "2h 15m" or "45m".
// A missing or future createdAt yields "0m".
func ComputeDuration(createdAt *time.Time, now time.Time) string {
	if createdAt == nil || createdAt.IsZero() {
		return "0m"
	}
	elapsed := now.Sub(*createdAt)
	if elapsed < 0 {
		return "0m"
	}

	hours := int64(elapsed / time.Hour)
	minutes := int64((elapsed % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
