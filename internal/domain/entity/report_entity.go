package entity

import (
	"fmt"
	"time"
)

// ReportStatus is the triage state of a report. Admins may move a report
// between any two states; new reports always start as PENDING.
type ReportStatus string

const (
	StatusPending   ReportStatus = "PENDING"
	StatusInProcess ReportStatus = "IN_PROCESS"
	StatusResolved  ReportStatus = "RESOLVED"
	StatusRejected  ReportStatus = "REJECTED"
)

// Statuses lists every status in display order.
var Statuses = []ReportStatus{StatusPending, StatusInProcess, StatusResolved, StatusRejected}

func (s ReportStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProcess, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// StatusChangeMessage is the body of the response appended when an admin
// moves a report from one status to another.
func StatusChangeMessage(from, to ReportStatus) string {
	return fmt.Sprintf("Status changed from %s to %s.", from, to)
}

// Report is a citizen complaint. UserID never changes after creation.
type Report struct {
	ID          int64
	UserID      string
	CategoryID  int64
	Title       string
	Description string
	Image       string // object key in evidence storage
	Status      ReportStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReportView is a report joined with its live category and owner.
type ReportView struct {
	Report
	Category       Category
	Owner          UserRef
	ResponsesCount int
}

// UserRef is the public projection of a user attached to reports and responses.
type UserRef struct {
	ID    string
	Name  string
	Email string
	Role  Role
}
