package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymtrack/internal/apperr"
	"gymtrack/internal/audit"
	"gymtrack/internal/auth"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest, ip string) (*User, string, string, error)
	CreateStaff(ctx context.Context, actorID int, req RegisterRequest, ip string) (*User, error)
	Login(ctx context.Context, req LoginRequest, ip string) (*User, string, string, error)
	Logout(ctx context.Context, userID int, ip string)
	GetByID(ctx context.Context, userID int) (*User, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)
	ListMembers(ctx context.Context, search string) ([]User, error)
}

type RegisterRequest struct {
	Name      string  `json:"name" binding:"required"`
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,min=8"`
	MobileNo  *string `json:"mobile_no,omitempty"`
	Address   *string `json:"address,omitempty"`
	Birthdate *string `json:"birthdate,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type service struct {
	repo      Repository
	auditSink *audit.Service
	jwtSecret string
}

func NewService(repo Repository, auditSink *audit.Service, jwtSecret string) Service {
	return &service{
		repo:      repo,
		auditSink: auditSink,
		jwtSecret: jwtSecret,
	}
}

func parseBirthdate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, apperr.Validation("invalid birthdate format %q, want YYYY-MM-DD", *s)
	}
	return &t, nil
}

func (s *service) create(ctx context.Context, req RegisterRequest, role auth.Role) (*User, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("email %s already registered", req.Email)
	}

	birthdate, err := parseBirthdate(req.Birthdate)
	if err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, req.Name, req.Email, passwordHash, role, req.MobileNo, req.Address, birthdate)
}

func (s *service) Register(ctx context.Context, req RegisterRequest, ip string) (*User, string, string, error) {
	u, err := s.create(ctx, req, auth.RoleMember)
	if err != nil {
		return nil, "", "", err
	}

	accessToken, refreshToken, err := auth.GenerateTokens(u.ID, u.Email, u.Role, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	s.auditSink.Emit(ctx, audit.Event{
		Action:      audit.ActionRegister,
		ActorID:     &u.ID,
		Description: fmt.Sprintf("New member registered: %s (%s)", u.Name, u.Email),
		IPAddress:   ip,
	})

	return u, accessToken, refreshToken, nil
}

func (s *service) CreateStaff(ctx context.Context, actorID int, req RegisterRequest, ip string) (*User, error) {
	u, err := s.create(ctx, req, auth.RoleStaff)
	if err != nil {
		return nil, err
	}

	s.auditSink.Emit(ctx, audit.Event{
		Action:      audit.ActionUserCreated,
		ActorID:     &actorID,
		Description: fmt.Sprintf("Created staff user: %s (%s)", u.Name, u.Email),
		IPAddress:   ip,
		EntityType:  strPtr("user"),
		EntityID:    &u.ID,
	})

	return u, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest, ip string) (*User, string, string, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if apperr.IsNotFound(err) {
		s.auditSink.Emit(ctx, audit.Event{
			Action:      audit.ActionLoginFailed,
			Description: fmt.Sprintf("Failed login attempt for email: %s", req.Email),
			Severity:    audit.SeverityWarning,
			IPAddress:   ip,
		})
		return nil, "", "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", "", err
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		s.auditSink.Emit(ctx, audit.Event{
			Action:      audit.ActionLoginFailed,
			ActorID:     &u.ID,
			Description: fmt.Sprintf("Failed login attempt for email: %s", req.Email),
			Severity:    audit.SeverityWarning,
			IPAddress:   ip,
		})
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := auth.GenerateTokens(u.ID, u.Email, u.Role, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	s.auditSink.Emit(ctx, audit.Event{
		Action:      audit.ActionLogin,
		ActorID:     &u.ID,
		Description: fmt.Sprintf("User %s logged in", u.Email),
		IPAddress:   ip,
	})

	return u, accessToken, refreshToken, nil
}

func (s *service) Logout(ctx context.Context, userID int, ip string) {
	s.auditSink.Emit(ctx, audit.Event{
		Action:      audit.ActionLogout,
		ActorID:     &userID,
		Description: fmt.Sprintf("User %d logged out", userID),
		IPAddress:   ip,
	})
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	newAccessToken, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	// The lookup rejects tokens for users that no longer exist.
	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, u, nil
}

func (s *service) ListMembers(ctx context.Context, search string) ([]User, error) {
	return s.repo.ListMembers(ctx, search)
}

func strPtr(s string) *string {
	return &s
}
