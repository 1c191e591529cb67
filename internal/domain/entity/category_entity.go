package entity

import "time"

type Category struct {
	ID          int64
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CategoryReportCount pairs a category with the number of reports filed under it.
type CategoryReportCount struct {
	Category
	ReportsCount int
}
