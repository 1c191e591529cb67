package entity

import "time"

// Response is an immutable message in a report's thread.
type Response struct {
	ID        int64
	ReportID  int64
	UserID    string
	Message   string
	CreatedAt time.Time
}

type ResponseView struct {
	Response
	Author UserRef
}
