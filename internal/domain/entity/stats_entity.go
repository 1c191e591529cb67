package entity

// ReportStats counts reports by status.
type ReportStats struct {
	Total     int
	Pending   int
	InProcess int
	Resolved  int
	Rejected  int
}

// Add increments the bucket for status s and the total.
func (s *ReportStats) Add(status ReportStatus, n int) {
	s.Total += n
	switch status {
	case StatusPending:
		s.Pending += n
	case StatusInProcess:
		s.InProcess += n
	case StatusResolved:
		s.Resolved += n
	case StatusRejected:
		s.Rejected += n
	}
}

type UserStats struct {
	Total    int
	Admins   int
	Verified int
}

// DailyCount is the number of reports created on Date (YYYY-MM-DD).
type DailyCount struct {
	Date  string
	Count int
}
