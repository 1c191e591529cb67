package apptest

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/civic-report/internal/domain/entity"
	repo "github.com/oksasatya/civic-report/internal/domain/repository"
)

// Sessions is an in-memory SessionRepository. TTLs are recorded, not enforced.
type Sessions struct {
	mu   sync.Mutex
	data map[string]repo.Session
	TTLs map[string]time.Duration
}

func NewSessions() *Sessions {
	return &Sessions{data: map[string]repo.Session{}, TTLs: map[string]time.Duration{}}
}

func (s *Sessions) Save(_ context.Context, sess repo.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sess.UserID] = sess
	s.TTLs[sess.UserID] = ttl
	return nil
}

func (s *Sessions) Get(_ context.Context, userID string) (*repo.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.data[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &sess, nil
}

func (s *Sessions) Patch(_ context.Context, userID string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.data[userID]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "name":
			sess.Name = v
		case "email":
			sess.Email = v
		case "role":
			sess.Role = v
		case "sid":
			sess.SessionID = v
		}
	}
	s.data[userID] = sess
	return nil
}

func (s *Sessions) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
	return nil
}

// Tokens is an in-memory TokenRepository.
type Tokens struct {
	mu   sync.Mutex
	data map[string]string
}

func NewTokens() *Tokens { return &Tokens{data: map[string]string{}} }

func (t *Tokens) Put(_ context.Context, kind repo.TokenKind, token, userID string, _ time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data[string(kind)+":"+token] = userID
	return nil
}

func (t *Tokens) Take(_ context.Context, kind repo.TokenKind, token string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := string(kind) + ":" + token
	uid, ok := t.data[key]
	if !ok {
		return "", repo.ErrNotFound
	}
	delete(t.data, key)
	return uid, nil
}

// Len reports how many live tokens of kind exist.
func (t *Tokens) Len(kind repo.TokenKind) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for k := range t.data {
		if strings.HasPrefix(k, string(kind)+":") {
			n++
		}
	}
	return n
}

// Blobs is an in-memory evidence store.
type Blobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	Deleted []string

	// PutErr makes every Put fail.
	PutErr error
}

func NewBlobs() *Blobs {
	return &Blobs{objects: map[string][]byte{}, types: map[string]string{}}
}

func (b *Blobs) Put(_ context.Context, key, contentType string, r io.Reader) error {
	if b.PutErr != nil {
		return b.PutErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	b.types[key] = contentType
	return nil
}

func (b *Blobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	delete(b.types, key)
	b.Deleted = append(b.Deleted, key)
	return nil
}

func (b *Blobs) URL(key string) string { return "/storage/" + key }

func (b *Blobs) Has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

func (b *Blobs) ContentType(key string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.types[key]
}

func (b *Blobs) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

// Index is an in-memory full-text index matching on lowercase substrings.
type Index struct {
	mu   sync.Mutex
	Docs map[int64]entity.ReportView
}

func NewIndex() *Index { return &Index{Docs: map[int64]entity.ReportView{}} }

func (x *Index) IndexReport(_ context.Context, v entity.ReportView) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.Docs[v.ID] = v
	return nil
}

func (x *Index) DeleteReport(_ context.Context, id int64) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.Docs, id)
	return nil
}

func (x *Index) SearchReports(_ context.Context, q string, size int) ([]int64, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	q = strings.ToLower(q)
	var ids []int64
	for id, v := range x.Docs {
		text := strings.ToLower(v.Title + " " + v.Description + " " + v.Category.Name)
		if strings.Contains(text, q) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	if size > 0 && len(ids) > size {
		ids = ids[:size]
	}
	return ids, nil
}

// Publisher records published jobs.
type Publisher struct {
	mu   sync.Mutex
	Jobs []any
	Err  error
}

func (p *Publisher) PublishJSON(_ context.Context, body any) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Jobs = append(p.Jobs, body)
	return nil
}

func (p *Publisher) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Jobs)
}

// Audit records audit entries in insertion order.
type Audit struct {
	mu      sync.Mutex
	Entries []repo.AuditEntry
}

func (a *Audit) Insert(_ context.Context, e repo.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Entries = append(a.Entries, e)
	return nil
}

// Actions returns the recorded action names.
func (a *Audit) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.Entries))
	for i, e := range a.Entries {
		out[i] = e.Action
	}
	return out
}

var (
	_ repo.SessionRepository = (*Sessions)(nil)
	_ repo.TokenRepository   = (*Tokens)(nil)
	_ repo.AuditRepository   = (*Audit)(nil)
)
