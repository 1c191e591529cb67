package application

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/civic-report/internal/domain/entity"
	repo "github.com/oksasatya/civic-report/internal/domain/repository"
	"github.com/oksasatya/civic-report/pkg/helpers"
)

const (
	minPasswordLen = 8
	maxNameLen     = 255

	defaultSessionTTL = 24 * time.Hour
	defaultVerifyTTL  = 24 * time.Hour
	defaultResetTTL   = 30 * time.Minute
)

// UserService covers authentication, the caller's own profile and the
// admin user directory.
type UserService struct {
	Users    repo.UserRepository
	Reports  repo.ReportRepository
	Sessions repo.SessionRepository
	Tokens   repo.TokenRepository
	JWT      *helpers.JWTManager
	Logger   *logrus.Logger

	// optional collaborators
	Storage  EvidenceStore
	Notifier *Notifier

	SessionTTL     time.Duration
	VerifyTTL      time.Duration
	ResetTTL       time.Duration
	VerifyEmailURL string
	ResetURL       string

	Now func() time.Time
}

func NewUserService(
	users repo.UserRepository,
	reports repo.ReportRepository,
	sessions repo.SessionRepository,
	tokens repo.TokenRepository,
	jwt *helpers.JWTManager,
	logger *logrus.Logger,
) *UserService {
	return &UserService{
		Users:      users,
		Reports:    reports,
		Sessions:   sessions,
		Tokens:     tokens,
		JWT:        jwt,
		Logger:     logger,
		SessionTTL: defaultSessionTTL,
		VerifyTTL:  defaultVerifyTTL,
		ResetTTL:   defaultResetTTL,
		Now:        time.Now,
	}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *UserService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return defaultSessionTTL
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	a, err := mail.ParseAddress(email)
	return err == nil && a.Address == email
}

func checkName(verr *ValidationError, name string) {
	if name == "" {
		verr.add("name", "is required")
	} else if utf8.RuneCountInString(name) > maxNameLen {
		verr.add("name", "must be at most 255 characters long")
	}
}

func checkEmail(verr *ValidationError, email string) {
	if email == "" {
		verr.add("email", "is required")
	} else if !validEmail(email) || utf8.RuneCountInString(email) > maxNameLen {
		verr.add("email", "must be a valid email address")
	}
}

func checkPassword(verr *ValidationError, password, confirmation string) {
	if utf8.RuneCountInString(password) < minPasswordLen {
		verr.add("password", "must be at least 8 characters")
	} else if len(password) > helpers.MaxPasswordBytes {
		verr.add("password", "must be at most 72 bytes")
	} else if password != confirmation {
		verr.add("password", "confirmation does not match")
	}
}

func emailTaken(err error) error {
	if errors.Is(err, repo.ErrDuplicate) {
		return &ConflictError{Field: "email", Reason: "email has already been taken"}
	}
	return err
}

type RegisterInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// Register creates an unverified USER account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	return s.CreateUser(ctx, CreateUserInput{
		Name:                 in.Name,
		Email:                in.Email,
		Password:             in.Password,
		PasswordConfirmation: in.PasswordConfirmation,
		Role:                 entity.RoleUser,
	})
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !helpers.CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records the session.
func (s *UserService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.signPair(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate tokens failed")
		}
		return TokenPair{}, err
	}
	err = s.Sessions.Save(ctx, repo.Session{
		UserID:    u.ID,
		SessionID: sid,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: s.now(),
	}, s.sessionTTL())
	if err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

func (s *UserService) signPair(userID, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh rotates the token pair. The refresh token must belong to the
// user's current session; older sessions are rejected.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	sess, err := s.Sessions.Get(ctx, u.ID)
	if err != nil || sess.SessionID != claims.SessionID {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return TokenPair{}, "", err
	}
	return pair, u.ID, nil
}

func (s *UserService) Logout(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return s.Sessions.Delete(ctx, userID)
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user", userID)
	}
	return u, nil
}

type UpdateProfileInput struct {
	Name  string
	Email string
}

// UpdateProfile changes the caller's own name and email. A new email
// address must be verified again.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user", userID)
	}
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" {
		name = u.Name
	}
	if email == "" {
		email = u.Email
	}

	verr := &ValidationError{}
	checkName(verr, name)
	checkEmail(verr, email)
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	if !strings.EqualFold(email, u.Email) {
		u.EmailVerifiedAt = nil
	}
	u.Name = name
	u.Email = email
	if err := s.Users.Update(ctx, u); err != nil {
		return nil, emailTaken(notFoundOr(err, "user", userID))
	}
	s.patchSession(ctx, u)
	return u, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID, current, password, confirmation string) error {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, "user", userID)
	}
	if !helpers.CheckPassword(u.Password, current) {
		return invalid("current_password", "is incorrect")
	}
	verr := &ValidationError{}
	checkPassword(verr, password, confirmation)
	if err := verr.errOrNil(); err != nil {
		return err
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return err
	}
	return notFoundOr(s.Users.UpdatePassword(ctx, userID, hash), "user", userID)
}

// VerifyInit issues a verification link for the caller. It returns an empty
// link when the address is already verified.
func (s *UserService) VerifyInit(ctx context.Context, userID string) (string, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return "", notFoundOr(err, "user", userID)
	}
	if u.IsVerified() {
		return "", nil
	}
	tok, err := helpers.RandomToken(32)
	if err != nil {
		return "", err
	}
	if err := s.Tokens.Put(ctx, repo.TokenVerifyEmail, tok, u.ID, s.VerifyTTL); err != nil {
		return "", err
	}
	link := s.VerifyEmailURL + "?token=" + tok
	s.Notifier.VerifyEmail(ctx, u, link, s.VerifyTTL)
	return link, nil
}

// VerifyConfirm consumes a verification token and marks the user verified.
func (s *UserService) VerifyConfirm(ctx context.Context, token string) (string, error) {
	uid, err := s.Tokens.Take(ctx, repo.TokenVerifyEmail, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if err := s.Users.SetVerified(ctx, uid, s.now()); err != nil {
		return "", notFoundOr(err, "user", uid)
	}
	return uid, nil
}

// ResetInit issues a reset link when email belongs to an account. Unknown
// addresses return an empty link and no error.
func (s *UserService) ResetInit(ctx context.Context, email string) (*entity.User, string, error) {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", nil
		}
		return nil, "", err
	}
	tok, err := helpers.RandomToken(32)
	if err != nil {
		return nil, "", err
	}
	if err := s.Tokens.Put(ctx, repo.TokenResetPassword, tok, u.ID, s.ResetTTL); err != nil {
		return nil, "", err
	}
	link := s.ResetURL + "?token=" + tok
	s.Notifier.ResetPassword(ctx, u, link, s.ResetTTL)
	return u, link, nil
}

// ResetConfirm consumes a reset token, sets the new password and ends any
// live session of the user.
func (s *UserService) ResetConfirm(ctx context.Context, token, password, confirmation string) (string, error) {
	verr := &ValidationError{}
	checkPassword(verr, password, confirmation)
	if err := verr.errOrNil(); err != nil {
		return "", err
	}
	uid, err := s.Tokens.Take(ctx, repo.TokenResetPassword, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return "", err
	}
	if err := s.Users.UpdatePassword(ctx, uid, hash); err != nil {
		return "", notFoundOr(err, "user", uid)
	}
	if err := s.Sessions.Delete(ctx, uid); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", uid).Warn("session delete failed")
	}
	return uid, nil
}

// UserDirectory is the admin user listing.
type UserDirectory struct {
	Stats entity.UserStats
	Users []entity.UserWithReportCount
}

func (s *UserService) ListUsers(ctx context.Context) (*UserDirectory, error) {
	stats, err := s.Users.Stats(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.Users.ListWithReportCounts(ctx)
	if err != nil {
		return nil, err
	}
	return &UserDirectory{Stats: stats, Users: users}, nil
}

type CreateUserInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
	Role                 entity.Role
	Verified             bool
}

func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	verr := &ValidationError{}
	checkName(verr, name)
	checkEmail(verr, email)
	checkPassword(verr, in.Password, in.PasswordConfirmation)
	if !in.Role.IsValid() {
		verr.add("role", "must be one of: ADMIN, USER")
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{Name: name, Email: email, Password: hash, Role: in.Role}
	if in.Verified {
		at := s.now()
		u.EmailVerifiedAt = &at
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, emailTaken(err)
	}
	return u, nil
}

type UpdateUserInput struct {
	Name  string
	Email string
	Role  entity.Role
	// Verified toggles the verification mark when set.
	Verified *bool
	// Password is changed only when non-empty.
	Password             string
	PasswordConfirmation string
}

// UpdateUser edits another account. Changing the email clears verification
// unless Verified is explicitly true.
func (s *UserService) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	verr := &ValidationError{}
	checkName(verr, name)
	checkEmail(verr, email)
	if !in.Role.IsValid() {
		verr.add("role", "must be one of: ADMIN, USER")
	}
	if in.Password != "" {
		checkPassword(verr, in.Password, in.PasswordConfirmation)
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	emailChanged := !strings.EqualFold(email, u.Email)
	u.Name = name
	u.Email = email
	u.Role = in.Role
	switch {
	case in.Verified != nil && *in.Verified:
		if u.EmailVerifiedAt == nil || emailChanged {
			at := s.now()
			u.EmailVerifiedAt = &at
		}
	case in.Verified != nil && !*in.Verified:
		u.EmailVerifiedAt = nil
	case emailChanged:
		u.EmailVerifiedAt = nil
	}

	if err := s.Users.Update(ctx, u); err != nil {
		return nil, emailTaken(notFoundOr(err, "user", id))
	}
	if in.Password != "" {
		hash, err := helpers.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		if err := s.Users.UpdatePassword(ctx, id, hash); err != nil {
			return nil, notFoundOr(err, "user", id)
		}
	}
	s.patchSession(ctx, u)
	return u, nil
}

// DeleteUser removes an account with its reports and their evidence.
// Admins cannot delete themselves, and a user who responded on another
// user's report is kept so that thread stays intact.
func (s *UserService) DeleteUser(ctx context.Context, id string, admin Actor) error {
	if !admin.IsAdmin() {
		return &ForbiddenError{Reason: "only admins can delete users"}
	}
	if id == admin.ID {
		return &ForbiddenError{Reason: "you cannot delete your own account"}
	}
	if _, err := s.Users.GetByID(ctx, id); err != nil {
		return notFoundOr(err, "user", id)
	}

	var images []string
	if s.Reports != nil && s.Storage != nil {
		imgs, err := s.Reports.ImagesByOwner(ctx, id)
		if err != nil {
			return err
		}
		images = imgs
	}
	if err := s.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrReferenced) {
			return &ConflictError{Field: "user", Reason: "user has responses on reports they do not own"}
		}
		return notFoundOr(err, "user", id)
	}

	bg := context.WithoutCancel(ctx)
	if err := s.Sessions.Delete(bg, id); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", id).Warn("session delete failed")
	}
	for _, key := range images {
		if err := s.Storage.Delete(bg, key); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("key", key).Warn("evidence cleanup failed")
		}
	}
	return nil
}

func (s *UserService) patchSession(ctx context.Context, u *entity.User) {
	err := s.Sessions.Patch(ctx, u.ID, map[string]string{
		"name":  u.Name,
		"email": u.Email,
		"role":  string(u.Role),
	})
	if err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("session patch failed")
	}
}
