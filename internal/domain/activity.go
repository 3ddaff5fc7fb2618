package domain

import "time"

// ActivityStatus is the lifecycle state of an activity.
type ActivityStatus string

const (
	StatusOpen     ActivityStatus = "open"
	StatusFinished ActivityStatus = "finished"
)

// Valid reports whether s is a known status.
func (s ActivityStatus) Valid() bool {
	return s == StatusOpen || s == StatusFinished
}

// CategoryRocada is the category whose titles are synthesized from subcategory and sector.
const CategoryRocada = "Roçada"

// DefaultActivityTitle is used when a non-Roçada activity is submitted without a title.
const DefaultActivityTitle = "Sem título"

// Activity is a unit of field work tracked from submission until it is finished.
type Activity struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Category      string         `json:"category"`
	Subcategory   string         `json:"subcategory"`
	Sector        string         `json:"sector"`
	ScheduledDate string         `json:"scheduledDate"`
	CreatedAt     *time.Time     `json:"createdAt,omitempty"`
	Duration      string         `json:"duration"`
	Description   string         `json:"description"`
	Status        ActivityStatus `json:"status"`
	Photos        []string       `json:"photos"`
	OwnerID       string         `json:"ownerId"`
	OwnerName     string         `json:"ownerName"`
}

// IsOpen reports whether the activity is still being tracked.
func (a Activity) IsOpen() bool {
	return a.Status == StatusOpen
}

// rocadaTitle builds the synthetic title used for the Roçada category.
func rocadaTitle(subcategory, sector string) string {
	if subcategory == "" {
		subcategory = "Geral"
	}
	if sector == "" {
		sector = "N/A"
	}
	return CategoryRocada + " - " + subcategory + " - " + sector
}
