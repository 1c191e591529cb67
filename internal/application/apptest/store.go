// Package apptest provides in-memory implementations of the repository
// interfaces and service collaborators for tests.
package apptest

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/civic-report/internal/domain/entity"
	repo "github.com/oksasatya/civic-report/internal/domain/repository"
)

// Store holds every table in memory. Repositories returned by its accessors
// share the same data.
type Store struct {
	mu sync.Mutex

	users      map[string]entity.User
	categories map[int64]entity.Category
	reports    map[int64]entity.Report
	responses  map[int64]entity.Response
	seq        int64
	rowLocks   map[int64]*sync.Mutex

	// Clock stamps created_at/updated_at. Defaults to time.Now.
	Clock func() time.Time

	// FailResponseCreate makes ResponseRepository.Create return this error.
	FailResponseCreate error
	// FailReportCreate makes ReportRepository.Create return this error.
	FailReportCreate error
	// ReadDelay is slept after every report read to widen read-then-write races.
	ReadDelay time.Duration
}

func NewStore() *Store {
	return &Store{
		users:      map[string]entity.User{},
		categories: map[int64]entity.Category{},
		reports:    map[int64]entity.Report{},
		responses:  map[int64]entity.Response{},
		rowLocks:   map[int64]*sync.Mutex{},
	}
}

func (s *Store) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// StepClock returns a clock starting at start that advances by step on every call.
func StepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur := t
		t = t.Add(step)
		return cur
	}
}

func (s *Store) Users() *UserRepo          { return &UserRepo{s} }
func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{s} }
func (s *Store) Reports() *ReportRepo      { return &ReportRepo{s: s} }
func (s *Store) Responses() *ResponseRepo  { return &ResponseRepo{s} }
func (s *Store) Transactor() *Transactor   { return &Transactor{s} }

// ---- users ----

type UserRepo struct{ s *Store }

func (r *UserRepo) emailTaken(email, exceptID string) bool {
	for id, u := range r.s.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.emailTaken(u.Email, "") {
		return repo.ErrDuplicate
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := r.s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *UserRepo) ListWithReportCounts(_ context.Context) ([]entity.UserWithReportCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := map[string]int{}
	for _, rp := range r.s.reports {
		counts[rp.UserID]++
	}
	out := make([]entity.UserWithReportCount, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, entity.UserWithReportCount{User: u, ReportsCount: counts[u.ID]})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *UserRepo) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return repo.ErrDuplicate
	}
	u.UpdatedAt = r.s.now()
	cur.Name, cur.Email, cur.Role, cur.EmailVerifiedAt, cur.UpdatedAt = u.Name, u.Email, u.Role, u.EmailVerifiedAt, u.UpdatedAt
	r.s.users[u.ID] = cur
	return nil
}

func (r *UserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Password = hash
	r.s.users[id] = u
	return nil
}

func (r *UserRepo) SetVerified(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	if u.EmailVerifiedAt == nil {
		u.EmailVerifiedAt = &at
		r.s.users[id] = u
	}
	return nil
}

// Delete cascades to the user's reports and the responses on them. It
// returns ErrReferenced while the user authored a response on someone
// else's report.
func (r *UserRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repo.ErrNotFound
	}
	for _, rs := range r.s.responses {
		if rs.UserID == id && r.s.reports[rs.ReportID].UserID != id {
			return repo.ErrReferenced
		}
	}
	delete(r.s.users, id)
	for rid, rp := range r.s.reports {
		if rp.UserID == id {
			delete(r.s.reports, rid)
		}
	}
	for sid, rs := range r.s.responses {
		if _, ok := r.s.reports[rs.ReportID]; !ok {
			delete(r.s.responses, sid)
		}
	}
	return nil
}

func (r *UserRepo) Stats(_ context.Context) (entity.UserStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var st entity.UserStats
	for _, u := range r.s.users {
		st.Total++
		if u.Role == entity.RoleAdmin {
			st.Admins++
		}
		if u.EmailVerifiedAt != nil {
			st.Verified++
		}
	}
	return st, nil
}

// ---- categories ----

type CategoryRepo struct{ s *Store }

func (r *CategoryRepo) nameTaken(name string, except int64) bool {
	for id, c := range r.s.categories {
		if id != except && c.Name == name {
			return true
		}
	}
	return false
}

func (r *CategoryRepo) Create(_ context.Context, c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(c.Name, 0) {
		return repo.ErrDuplicate
	}
	c.ID = r.s.nextID()
	now := r.s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.categories[c.ID] = *c
	return nil
}

func (r *CategoryRepo) GetByID(_ context.Context, id int64) (*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &c, nil
}

func (r *CategoryRepo) List(_ context.Context) ([]entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entity.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CategoryRepo) Update(_ context.Context, c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.categories[c.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if r.nameTaken(c.Name, c.ID) {
		return repo.ErrDuplicate
	}
	c.UpdatedAt = r.s.now()
	cur.Name, cur.Description, cur.UpdatedAt = c.Name, c.Description, c.UpdatedAt
	r.s.categories[c.ID] = cur
	return nil
}

func (r *CategoryRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return repo.ErrNotFound
	}
	for _, rp := range r.s.reports {
		if rp.CategoryID == id {
			return repo.ErrReferenced
		}
	}
	delete(r.s.categories, id)
	return nil
}

func (r *CategoryRepo) CountReports(_ context.Context, id int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, rp := range r.s.reports {
		if rp.CategoryID == id {
			n++
		}
	}
	return n, nil
}

func (r *CategoryRepo) ListWithReportCounts(_ context.Context) ([]entity.CategoryReportCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := map[int64]int{}
	for _, rp := range r.s.reports {
		counts[rp.CategoryID]++
	}
	out := make([]entity.CategoryReportCount, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, entity.CategoryReportCount{Category: c, ReportsCount: counts[c.ID]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReportsCount != out[j].ReportsCount {
			return out[i].ReportsCount > out[j].ReportsCount
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *CategoryRepo) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.categories), nil
}

// ---- reports ----

// ReportRepo is bound to a transaction when held is set; row locks taken
// through it are then released when the transaction ends.
type ReportRepo struct {
	s    *Store
	held *[]*sync.Mutex
}

// view must be called with the lock held.
func (r *ReportRepo) view(rp entity.Report) entity.ReportView {
	v := entity.ReportView{Report: rp, Category: r.s.categories[rp.CategoryID]}
	if u, ok := r.s.users[rp.UserID]; ok {
		v.Owner = entity.UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
	}
	for _, rs := range r.s.responses {
		if rs.ReportID == rp.ID {
			v.ResponsesCount++
		}
	}
	return v
}

func (r *ReportRepo) Create(_ context.Context, rp *entity.Report) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailReportCreate != nil {
		return r.s.FailReportCreate
	}
	if _, ok := r.s.users[rp.UserID]; !ok {
		return repo.ErrReferenced
	}
	if _, ok := r.s.categories[rp.CategoryID]; !ok {
		return repo.ErrReferenced
	}
	rp.ID = r.s.nextID()
	now := r.s.now()
	rp.CreatedAt, rp.UpdatedAt = now, now
	r.s.reports[rp.ID] = *rp
	return nil
}

// Put stores a report as-is, keeping its CreatedAt. Useful for seeding history.
func (r *ReportRepo) Put(rp entity.Report) entity.Report {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rp.ID == 0 {
		rp.ID = r.s.nextID()
	} else if rp.ID > r.s.seq {
		r.s.seq = rp.ID
	}
	if rp.CreatedAt.IsZero() {
		rp.CreatedAt = r.s.now()
	}
	if rp.UpdatedAt.IsZero() {
		rp.UpdatedAt = rp.CreatedAt
	}
	if rp.Status == "" {
		rp.Status = entity.StatusPending
	}
	r.s.reports[rp.ID] = rp
	return rp
}

func (r *ReportRepo) GetByID(_ context.Context, id int64) (*entity.ReportView, error) {
	r.s.mu.Lock()
	rp, ok := r.s.reports[id]
	var v entity.ReportView
	if ok {
		v = r.view(rp)
	}
	r.s.mu.Unlock()
	if !ok {
		return nil, repo.ErrNotFound
	}
	if r.s.ReadDelay > 0 {
		time.Sleep(r.s.ReadDelay)
	}
	return &v, nil
}

// GetByIDForUpdate holds the report's row lock until the enclosing
// WithinTx returns. Outside a transaction it behaves like GetByID.
func (r *ReportRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entity.ReportView, error) {
	if r.held != nil {
		r.s.mu.Lock()
		l, ok := r.s.rowLocks[id]
		if !ok {
			l = &sync.Mutex{}
			r.s.rowLocks[id] = l
		}
		r.s.mu.Unlock()
		l.Lock()
		*r.held = append(*r.held, l)
	}
	return r.GetByID(ctx, id)
}

func (r *ReportRepo) List(_ context.Context, f repo.ReportFilter) ([]entity.ReportView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids map[int64]bool
	if f.IDs != nil {
		ids = make(map[int64]bool, len(f.IDs))
		for _, id := range f.IDs {
			ids[id] = true
		}
	}
	out := make([]entity.ReportView, 0)
	for _, rp := range r.s.reports {
		if f.OwnerID != "" && rp.UserID != f.OwnerID {
			continue
		}
		if ids != nil && !ids[rp.ID] {
			continue
		}
		out = append(out, r.view(rp))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *ReportRepo) UpdateStatus(_ context.Context, id int64, status entity.ReportStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rp, ok := r.s.reports[id]
	if !ok {
		return repo.ErrNotFound
	}
	rp.Status = status
	rp.UpdatedAt = r.s.now()
	r.s.reports[id] = rp
	return nil
}

func (r *ReportRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reports[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.reports, id)
	for sid, rs := range r.s.responses {
		if rs.ReportID == id {
			delete(r.s.responses, sid)
		}
	}
	return nil
}

func (r *ReportRepo) ImagesByOwner(_ context.Context, userID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []string
	for _, rp := range r.s.reports {
		if rp.UserID == userID {
			out = append(out, rp.Image)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *ReportRepo) CountByStatus(_ context.Context, ownerID string) (entity.ReportStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var st entity.ReportStats
	for _, rp := range r.s.reports {
		if ownerID != "" && rp.UserID != ownerID {
			continue
		}
		st.Add(rp.Status, 1)
	}
	return st, nil
}

func (r *ReportRepo) CountByDay(_ context.Context, since time.Time, loc *time.Location) (map[string]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if loc == nil {
		loc = time.UTC
	}
	out := map[string]int{}
	for _, rp := range r.s.reports {
		if rp.CreatedAt.Before(since) {
			continue
		}
		out[rp.CreatedAt.In(loc).Format("2006-01-02")]++
	}
	return out, nil
}

// ---- responses ----

type ResponseRepo struct{ s *Store }

func (r *ResponseRepo) Create(_ context.Context, rs *entity.Response) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailResponseCreate != nil {
		return r.s.FailResponseCreate
	}
	if _, ok := r.s.reports[rs.ReportID]; !ok {
		return repo.ErrReferenced
	}
	if _, ok := r.s.users[rs.UserID]; !ok {
		return repo.ErrReferenced
	}
	rs.ID = r.s.nextID()
	rs.CreatedAt = r.s.now()
	r.s.responses[rs.ID] = *rs
	return nil
}

func (r *ResponseRepo) ListByReport(_ context.Context, reportID int64) ([]entity.ResponseView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entity.ResponseView, 0)
	for _, rs := range r.s.responses {
		if rs.ReportID != reportID {
			continue
		}
		v := entity.ResponseView{Response: rs}
		if u, ok := r.s.users[rs.UserID]; ok {
			v.Author = entity.UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ResponseRepo) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.responses), nil
}

// ---- transactions ----

// Transactor snapshots the store before fn and restores it when fn fails.
type Transactor struct{ s *Store }

type txRepos struct {
	s    *Store
	held *[]*sync.Mutex
}

func (t txRepos) Reports() repo.ReportRepository     { return &ReportRepo{s: t.s, held: t.held} }
func (t txRepos) Responses() repo.ResponseRepository { return &ResponseRepo{t.s} }

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repo.TxRepos) error) error {
	var held []*sync.Mutex
	defer func() {
		for _, l := range held {
			l.Unlock()
		}
	}()
	snap := t.s.snapshot()
	if err := fn(ctx, txRepos{s: t.s, held: &held}); err != nil {
		t.s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	reports   map[int64]entity.Report
	responses map[int64]entity.Response
	seq       int64
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		reports:   make(map[int64]entity.Report, len(s.reports)),
		responses: make(map[int64]entity.Response, len(s.responses)),
		seq:       s.seq,
	}
	for k, v := range s.reports {
		snap.reports[k] = v
	}
	for k, v := range s.responses {
		snap.responses[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = snap.reports
	s.responses = snap.responses
	s.seq = snap.seq
}

// ---- seeding helpers ----

// AddUser inserts a user with the given role and returns it.
func (s *Store) AddUser(name string, role entity.Role) entity.User {
	u := entity.User{
		Name:     name,
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.test",
		Password: "x",
		Role:     role,
	}
	_ = s.Users().Create(context.Background(), &u)
	return u
}

// AddCategory inserts a category and returns it.
func (s *Store) AddCategory(name string) entity.Category {
	c := entity.Category{Name: name}
	_ = s.Categories().Create(context.Background(), &c)
	return c
}

// AddReport inserts a PENDING report owned by userID.
func (s *Store) AddReport(userID string, categoryID int64, title string) entity.Report {
	rp := entity.Report{
		UserID:      userID,
		CategoryID:  categoryID,
		Title:       title,
		Description: "description of " + title,
		Image:       "reports/" + strconv.FormatInt(s.seq+1, 10) + ".jpg",
		Status:      entity.StatusPending,
	}
	_ = s.Reports().Create(context.Background(), &rp)
	return rp
}

var (
	_ repo.UserRepository     = (*UserRepo)(nil)
	_ repo.CategoryRepository = (*CategoryRepo)(nil)
	_ repo.ReportRepository   = (*ReportRepo)(nil)
	_ repo.ResponseRepository = (*ResponseRepo)(nil)
	_ repo.Transactor         = (*Transactor)(nil)
)
