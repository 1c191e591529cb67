package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/civic-report/internal/application"
	"github.com/oksasatya/civic-report/internal/application/apptest"
	"github.com/oksasatya/civic-report/internal/domain/entity"
)

func newAdminService(store *apptest.Store, loc *time.Location, now time.Time) *application.AdminService {
	svc := application.NewAdminService(store.Reports(), store.Responses(), store.Categories(), store.Users(), loc)
	svc.Now = func() time.Time { return now }
	return svc
}

func TestAdminService_ReportStats(t *testing.T) {
	store := apptest.NewStore()
	u := store.AddUser("Citizen", entity.RoleUser)
	c := store.AddCategory("Health")
	statuses := []entity.ReportStatus{
		entity.StatusPending, entity.StatusPending, entity.StatusInProcess, entity.StatusResolved, entity.StatusRejected,
	}
	for _, s := range statuses {
		store.Reports().Put(entity.Report{UserID: u.ID, CategoryID: c.ID, Title: "t", Status: s})
	}

	svc := newAdminService(store, time.UTC, time.Now())
	st, err := svc.ReportStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.ReportStats{Total: 5, Pending: 2, InProcess: 1, Resolved: 1, Rejected: 1}, st)
}

func TestAdminService_UserStats(t *testing.T) {
	store := apptest.NewStore()
	store.AddUser("Root", entity.RoleAdmin)
	u := store.AddUser("Verified Citizen", entity.RoleUser)
	store.AddUser("Pending Citizen", entity.RoleUser)
	require.NoError(t, store.Users().SetVerified(context.Background(), u.ID, time.Now()))

	svc := newAdminService(store, time.UTC, time.Now())
	st, err := svc.UserStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.UserStats{Total: 3, Admins: 1, Verified: 1}, st)
}

func TestAdminService_CategoryBreakdown(t *testing.T) {
	store := apptest.NewStore()
	u := store.AddUser("Citizen", entity.RoleUser)
	sanitation := store.AddCategory("Sanitation")
	roads := store.AddCategory("Roads")
	parks := store.AddCategory("Parks")
	store.AddCategory("Zoning")

	for i := 0; i < 3; i++ {
		store.AddReport(u.ID, sanitation.ID, "trash")
	}
	for i := 0; i < 5; i++ {
		store.AddReport(u.ID, roads.ID, "pothole")
	}
	store.AddReport(u.ID, parks.ID, "bench")

	svc := newAdminService(store, time.UTC, time.Now())
	got, err := svc.CategoryBreakdown(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 4)

	names := make([]string, len(got))
	for i, c := range got {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"Roads", "Sanitation", "Parks", "Zoning"}, names)
	assert.Equal(t, 3, got[1].ReportsCount)
	assert.Equal(t, 0, got[3].ReportsCount)
}

func TestAdminService_RecentReports(t *testing.T) {
	store := apptest.NewStore()
	store.Clock = apptest.StepClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	admin := store.AddUser("Root", entity.RoleAdmin)
	u := store.AddUser("Citizen", entity.RoleUser)
	c := store.AddCategory("Environment")
	var ids []int64
	for i := 0; i < 8; i++ {
		ids = append(ids, store.AddReport(u.ID, c.ID, "r").ID)
	}
	newest := ids[len(ids)-1]
	require.NoError(t, store.Responses().Create(context.Background(), &entity.Response{ReportID: newest, UserID: admin.ID, Message: "ok"}))

	svc := newAdminService(store, time.UTC, time.Now())

	cases := []struct {
		limit int
		want  int
	}{
		{0, 5},
		{-1, 5},
		{3, 3},
		{50, 8},
	}
	for _, tc := range cases {
		got, err := svc.RecentReports(context.Background(), tc.limit)
		require.NoError(t, err)
		assert.Len(t, got, tc.want, "limit %d", tc.limit)
	}

	got, err := svc.RecentReports(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, newest, got[0].ID)
	assert.Equal(t, 1, got[0].ResponsesCount)
	assert.Equal(t, "Citizen", got[0].Owner.Name)
	assert.Equal(t, "Environment", got[0].Category.Name)
}

func TestAdminService_DailyReportCounts(t *testing.T) {
	store := apptest.NewStore()
	u := store.AddUser("Citizen", entity.RoleUser)
	c := store.AddCategory("Administration")
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	at := func(ts time.Time) {
		store.Reports().Put(entity.Report{UserID: u.ID, CategoryID: c.ID, Title: "t", CreatedAt: ts})
	}
	at(now)                                           // today
	at(now.Add(-2 * time.Hour))                       // today
	at(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))   // first day of window
	at(time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)) // just outside
	at(now.AddDate(0, 0, -20))                        // outside

	svc := newAdminService(store, time.UTC, now)
	got, err := svc.DailyReportCounts(context.Background(), 14)
	require.NoError(t, err)
	require.Len(t, got, 14)

	assert.Equal(t, "2026-03-02", got[0].Date)
	assert.Equal(t, 1, got[0].Count)
	assert.Equal(t, "2026-03-15", got[13].Date)
	assert.Equal(t, 2, got[13].Count)

	sum := 0
	for i, d := range got {
		sum += d.Count
		if i > 0 {
			assert.Less(t, got[i-1].Date, d.Date)
		}
	}
	assert.Equal(t, 3, sum)

	t.Run("defaults to 14 days", func(t *testing.T) {
		got, err := svc.DailyReportCounts(context.Background(), 0)
		require.NoError(t, err)
		assert.Len(t, got, 14)
	})
	t.Run("empty window is zero filled", func(t *testing.T) {
		empty := newAdminService(apptest.NewStore(), time.UTC, now)
		got, err := empty.DailyReportCounts(context.Background(), 7)
		require.NoError(t, err)
		require.Len(t, got, 7)
		for _, d := range got {
			assert.Zero(t, d.Count)
		}
	})
}

func TestAdminService_DailyReportCounts_TimeZone(t *testing.T) {
	store := apptest.NewStore()
	u := store.AddUser("Citizen", entity.RoleUser)
	c := store.AddCategory("Health")
	wib := time.FixedZone("WIB", 7*3600)

	// 18:00 UTC on the 14th is already the 15th in UTC+7.
	store.Reports().Put(entity.Report{UserID: u.ID, CategoryID: c.ID, Title: "late",
		CreatedAt: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)})

	svc := newAdminService(store, wib, time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC))
	got, err := svc.DailyReportCounts(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entity.DailyCount{Date: "2026-03-14", Count: 0}, got[0])
	assert.Equal(t, entity.DailyCount{Date: "2026-03-15", Count: 1}, got[1])
}

func TestAdminService_Dashboard(t *testing.T) {
	store := apptest.NewStore()
	admin := store.AddUser("Root", entity.RoleAdmin)
	u := store.AddUser("Citizen", entity.RoleUser)
	c := store.AddCategory("Public Safety")
	store.AddCategory("Health")
	rp := store.AddReport(u.ID, c.ID, "dark alley")
	require.NoError(t, store.Responses().Create(context.Background(), &entity.Response{ReportID: rp.ID, UserID: admin.ID, Message: "seen"}))

	svc := newAdminService(store, time.UTC, time.Now())
	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, d.Reports.Total)
	assert.Equal(t, 2, d.Users.Total)
	assert.Equal(t, 2, d.CategoryCount)
	assert.Equal(t, 1, d.ResponseCount)
	assert.Len(t, d.Recent, 1)
	assert.Len(t, d.Categories, 2)
	assert.Len(t, d.Daily, 14)
	assert.Equal(t, 1, d.Daily[13].Count)
}
