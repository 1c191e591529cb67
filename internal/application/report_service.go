package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/civic-report/internal/domain/entity"
	repo "github.com/oksasatya/civic-report/internal/domain/repository"
)

const (
	// DefaultMaxImageBytes is the evidence upload limit (2048 KiB).
	DefaultMaxImageBytes = 2 << 20

	maxTitleLen    = 255
	maxResponseLen = 1000
	evidencePrefix = "reports"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

var allowedImageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// ReportService implements the report lifecycle: submission, ownership
// checked viewing, admin status transitions and threaded responses.
type ReportService struct {
	Reports    repo.ReportRepository
	Responses  repo.ResponseRepository
	Categories repo.CategoryRepository
	Users      repo.UserRepository
	Tx         repo.Transactor
	Storage    EvidenceStore
	Logger     *logrus.Logger

	// optional collaborators
	Index    ReportIndexer
	Notifier *Notifier

	MaxImageBytes int64
}

func NewReportService(
	reports repo.ReportRepository,
	responses repo.ResponseRepository,
	categories repo.CategoryRepository,
	users repo.UserRepository,
	tx repo.Transactor,
	storage EvidenceStore,
	logger *logrus.Logger,
) *ReportService {
	return &ReportService{
		Reports:       reports,
		Responses:     responses,
		Categories:    categories,
		Users:         users,
		Tx:            tx,
		Storage:       storage,
		Logger:        logger,
		MaxImageBytes: DefaultMaxImageBytes,
	}
}

// EvidenceFile is an uploaded image as received from the transport layer.
type EvidenceFile struct {
	Filename string
	Content  io.Reader
}

type SubmitReportInput struct {
	Title       string
	Description string
	CategoryID  int64
	Image       *EvidenceFile
}

// ReportDetail is a report with its response thread.
type ReportDetail struct {
	entity.ReportView
	Responses []entity.ResponseView
}

// StatusChange describes the outcome of UpdateStatus.
type StatusChange struct {
	Report   *entity.ReportView
	From     entity.ReportStatus
	To       entity.ReportStatus
	Changed  bool
	Response *entity.Response
}

type UserDashboard struct {
	Stats  entity.ReportStats
	Recent []entity.ReportView
}

type AdminReportIndex struct {
	Stats      entity.ReportStats
	Reports    []entity.ReportView
	Categories []entity.Category
}

func (s *ReportService) warn(err error, msg string, fields logrus.Fields) {
	if s.Logger == nil || err == nil {
		return
	}
	s.Logger.WithError(err).WithFields(fields).Warn(msg)
}

// readEvidence loads the upload, enforcing the size cap and image type.
// It returns the bytes and the detected MIME type.
func (s *ReportService) readEvidence(f *EvidenceFile) ([]byte, string, error) {
	limit := s.MaxImageBytes
	if limit <= 0 {
		limit = DefaultMaxImageBytes
	}
	if ext := strings.ToLower(path.Ext(f.Filename)); !allowedImageExts[ext] {
		return nil, "", invalid("image", "must be a file of type: jpeg, png, jpg")
	}
	data, err := io.ReadAll(io.LimitReader(f.Content, limit+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > limit {
		return nil, "", invalid("image", "must not be greater than 2048 kilobytes")
	}
	mt := mimetype.Detect(data)
	if _, ok := allowedImageTypes[mt.String()]; !ok {
		return nil, "", invalid("image", "must be an image of type: jpeg, png, jpg")
	}
	return data, mt.String(), nil
}

// SubmitReport validates input, uploads the evidence and creates a PENDING
// report owned by ownerID. No row is written when the upload fails.
func (s *ReportService) SubmitReport(ctx context.Context, ownerID string, in SubmitReportInput) (*entity.ReportView, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	verr := &ValidationError{}
	if in.Title == "" {
		verr.add("title", "is required")
	} else if utf8.RuneCountInString(in.Title) > maxTitleLen {
		verr.add("title", "must be at most 255 characters long")
	}
	if in.Description == "" {
		verr.add("description", "is required")
	}
	switch {
	case in.CategoryID == 0:
		verr.add("category_id", "is required")
	case in.CategoryID < 0:
		verr.add("category_id", "is invalid")
	default:
		if _, err := s.Categories.GetByID(ctx, in.CategoryID); err != nil {
			if !errors.Is(err, repo.ErrNotFound) {
				return nil, err
			}
			verr.add("category_id", "is invalid")
		}
	}

	var (
		data        []byte
		contentType string
	)
	if in.Image == nil || in.Image.Content == nil {
		verr.add("image", "is required")
	} else {
		var err error
		data, contentType, err = s.readEvidence(in.Image)
		var ve *ValidationError
		if errors.As(err, &ve) {
			for k, v := range ve.Fields {
				verr.add(k, v)
			}
		} else if err != nil {
			return nil, err
		}
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	key := path.Join(evidencePrefix, uuid.NewString()+allowedImageTypes[contentType])
	if err := s.Storage.Put(ctx, key, contentType, bytes.NewReader(data)); err != nil {
		return nil, err
	}

	r := &entity.Report{
		UserID:      ownerID,
		CategoryID:  in.CategoryID,
		Title:       in.Title,
		Description: in.Description,
		Image:       key,
		Status:      entity.StatusPending,
	}
	if err := s.Reports.Create(ctx, r); err != nil {
		s.warn(s.Storage.Delete(context.WithoutCancel(ctx), key), "evidence cleanup failed", logrus.Fields{"key": key})
		if errors.Is(err, repo.ErrReferenced) {
			return nil, invalid("category_id", "is invalid")
		}
		return nil, err
	}

	v, err := s.Reports.GetByID(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, v)
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"report_id": r.ID, "user_id": ownerID}).Info("report submitted")
	}
	return v, nil
}

// ListOwnedReports returns every report owned by userID, newest first.
func (s *ReportService) ListOwnedReports(ctx context.Context, userID string) ([]entity.ReportView, error) {
	return s.Reports.List(ctx, repo.ReportFilter{OwnerID: userID})
}

// ViewReport loads a report with its thread. Non-admins may only see their own reports.
func (s *ReportService) ViewReport(ctx context.Context, reportID int64, actor Actor) (*ReportDetail, error) {
	v, err := s.Reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, notFoundOr(err, "report", reportID)
	}
	if !actor.IsAdmin() && v.UserID != actor.ID {
		return nil, &ForbiddenError{Reason: "you do not have access to this report"}
	}
	responses, err := s.Responses.ListByReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return &ReportDetail{ReportView: *v, Responses: responses}, nil
}

// UpdateStatus moves a report to newStatus and records an automatic response
// in the same transaction. Setting the current status again is a no-op.
func (s *ReportService) UpdateStatus(ctx context.Context, reportID int64, newStatus entity.ReportStatus, admin Actor) (*StatusChange, error) {
	if !admin.IsAdmin() {
		return nil, &ForbiddenError{Reason: "only admins can change report status"}
	}
	if !newStatus.IsValid() {
		return nil, invalid("status", "must be one of: PENDING, IN_PROCESS, RESOLVED, REJECTED")
	}

	out := &StatusChange{To: newStatus}
	err := s.Tx.WithinTx(ctx, func(ctx context.Context, tx repo.TxRepos) error {
		v, err := tx.Reports().GetByIDForUpdate(ctx, reportID)
		if err != nil {
			return notFoundOr(err, "report", reportID)
		}
		out.From = v.Status
		if v.Status == newStatus {
			out.Report = v
			return nil
		}
		if err := tx.Reports().UpdateStatus(ctx, reportID, newStatus); err != nil {
			return notFoundOr(err, "report", reportID)
		}
		resp := &entity.Response{
			ReportID: reportID,
			UserID:   admin.ID,
			Message:  entity.StatusChangeMessage(v.Status, newStatus),
		}
		if err := tx.Responses().Create(ctx, resp); err != nil {
			return err
		}
		v.Status = newStatus
		v.ResponsesCount++
		out.Report = v
		out.Changed = true
		out.Response = resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Changed {
		s.reindex(ctx, out.Report)
		s.Notifier.StatusChanged(ctx, out.Report, out.From, out.To)
		if s.Logger != nil {
			s.Logger.WithFields(logrus.Fields{
				"report_id": reportID, "from": out.From, "to": out.To, "admin_id": admin.ID,
			}).Info("report status changed")
		}
	}
	return out, nil
}

// AddResponse appends a message to the report thread. Admins may respond to
// any report; other users only to their own.
func (s *ReportService) AddResponse(ctx context.Context, reportID int64, author Actor, message string) (*entity.Response, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, invalid("message", "is required")
	}
	if utf8.RuneCountInString(message) > maxResponseLen {
		return nil, invalid("message", "must be at most 1000 characters long")
	}

	v, err := s.Reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, notFoundOr(err, "report", reportID)
	}
	if !author.IsAdmin() && v.UserID != author.ID {
		return nil, &ForbiddenError{Reason: "you do not have access to this report"}
	}

	resp := &entity.Response{ReportID: reportID, UserID: author.ID, Message: message}
	if err := s.Responses.Create(ctx, resp); err != nil {
		return nil, notFoundOr(err, "report", reportID)
	}

	if author.IsAdmin() && v.UserID != author.ID {
		name := ""
		if s.Users != nil {
			if u, err := s.Users.GetByID(ctx, author.ID); err == nil {
				name = u.Name
			}
		}
		s.Notifier.Responded(ctx, v, name, message)
	}
	return resp, nil
}

// DeleteReport removes a report, its thread and its evidence. Admin only.
func (s *ReportService) DeleteReport(ctx context.Context, reportID int64, admin Actor) error {
	if !admin.IsAdmin() {
		return &ForbiddenError{Reason: "only admins can delete reports"}
	}
	v, err := s.Reports.GetByID(ctx, reportID)
	if err != nil {
		return notFoundOr(err, "report", reportID)
	}
	if err := s.Reports.Delete(ctx, reportID); err != nil {
		return notFoundOr(err, "report", reportID)
	}

	bg := context.WithoutCancel(ctx)
	s.warn(s.Storage.Delete(bg, v.Image), "evidence cleanup failed", logrus.Fields{"key": v.Image})
	if s.Index != nil {
		s.warn(s.Index.DeleteReport(bg, reportID), "es delete failed", logrus.Fields{"report_id": reportID})
	}
	return nil
}

// UserDashboard returns the owner's status counts and five most recent reports.
func (s *ReportService) UserDashboard(ctx context.Context, userID string) (*UserDashboard, error) {
	stats, err := s.Reports.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.Reports.List(ctx, repo.ReportFilter{OwnerID: userID, Limit: 5})
	if err != nil {
		return nil, err
	}
	return &UserDashboard{Stats: stats, Recent: recent}, nil
}

// AdminIndex lists all reports with global stats and the category list.
func (s *ReportService) AdminIndex(ctx context.Context) (*AdminReportIndex, error) {
	stats, err := s.Reports.CountByStatus(ctx, "")
	if err != nil {
		return nil, err
	}
	reports, err := s.Reports.List(ctx, repo.ReportFilter{})
	if err != nil {
		return nil, err
	}
	cats, err := s.Categories.List(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminReportIndex{Stats: stats, Reports: reports, Categories: cats}, nil
}

// Search runs a full-text query and returns matching reports in relevance order.
func (s *ReportService) Search(ctx context.Context, q string, size int) ([]entity.ReportView, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, invalid("q", "is required")
	}
	if s.Index == nil {
		return nil, ErrSearchUnavailable
	}
	if size <= 0 || size > 50 {
		size = 20
	}
	ids, err := s.Index.SearchReports(ctx, q, size)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []entity.ReportView{}, nil
	}
	found, err := s.Reports.List(ctx, repo.ReportFilter{IDs: ids})
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]entity.ReportView, len(found))
	for _, v := range found {
		byID[v.ID] = v
	}
	out := make([]entity.ReportView, 0, len(found))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// ImageURL resolves an evidence key to its public URL.
func (s *ReportService) ImageURL(key string) string {
	if key == "" {
		return ""
	}
	return s.Storage.URL(key)
}

func (s *ReportService) reindex(ctx context.Context, v *entity.ReportView) {
	if s.Index == nil || v == nil {
		return
	}
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	s.warn(s.Index.IndexReport(c, *v), "es index failed", logrus.Fields{"report_id": v.ID})
}
