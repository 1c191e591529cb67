package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/civic-report/internal/domain/entity"
	repo "github.com/oksasatya/civic-report/internal/domain/repository"
)

const (
	maxCategoryName = 255
	maxCategoryDesc = 1000
)

type CategoryService struct {
	Categories repo.CategoryRepository
	Logger     *logrus.Logger
}

func NewCategoryService(categories repo.CategoryRepository, logger *logrus.Logger) *CategoryService {
	return &CategoryService{Categories: categories, Logger: logger}
}

type CategoryInput struct {
	Name        string
	Description *string
}

func (in *CategoryInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" {
			in.Description = nil
		} else {
			in.Description = &d
		}
	}

	verr := &ValidationError{}
	if in.Name == "" {
		verr.add("name", "is required")
	} else if utf8.RuneCountInString(in.Name) > maxCategoryName {
		verr.add("name", "must be at most 255 characters long")
	}
	if in.Description != nil && utf8.RuneCountInString(*in.Description) > maxCategoryDesc {
		verr.add("description", "must be at most 1000 characters long")
	}
	return verr.errOrNil()
}

func duplicateName(err error) error {
	if errors.Is(err, repo.ErrDuplicate) {
		return &ConflictError{Field: "name", Reason: "category name has already been taken"}
	}
	return err
}

func (s *CategoryService) List(ctx context.Context) ([]entity.Category, error) {
	return s.Categories.List(ctx)
}

// ListWithCounts is the admin listing: every category with its report count.
func (s *CategoryService) ListWithCounts(ctx context.Context) ([]entity.CategoryReportCount, error) {
	return s.Categories.ListWithReportCounts(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id int64) (*entity.Category, error) {
	c, err := s.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "category", id)
	}
	return c, nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*entity.Category, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	c := &entity.Category{Name: in.Name, Description: in.Description}
	if err := s.Categories.Create(ctx, c); err != nil {
		return nil, duplicateName(err)
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id int64, in CategoryInput) (*entity.Category, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	c, err := s.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "category", id)
	}
	c.Name = in.Name
	c.Description = in.Description
	if err := s.Categories.Update(ctx, c); err != nil {
		return nil, duplicateName(notFoundOr(err, "category", id))
	}
	return c, nil
}

// Delete removes a category. Categories still referenced by reports are
// kept and a ConflictError reports how many reports use them.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Categories.GetByID(ctx, id); err != nil {
		return notFoundOr(err, "category", id)
	}
	n, err := s.Categories.CountReports(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return &ConflictError{Field: "category", Reason: fmt.Sprintf("category is used by %d report(s)", n)}
	}
	if err := s.Categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrReferenced) {
			return &ConflictError{Field: "category", Reason: "category is used by existing reports"}
		}
		return notFoundOr(err, "category", id)
	}
	return nil
}
