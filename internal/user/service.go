package user

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"

	"tokenbook/internal/apperr"
	"tokenbook/internal/auth"
	"tokenbook/internal/db"
	"tokenbook/internal/logger"
	"tokenbook/internal/wallet"
)

var (
	ErrEmailExists        = apperr.New(apperr.KindConflict, "EMAIL_EXISTS", "Email already registered")
	ErrInvalidCredentials = apperr.New(apperr.KindAuthentication, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrInvalidRefresh     = apperr.New(apperr.KindAuthentication, "INVALID_REFRESH_TOKEN", "Invalid or expired refresh token")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*User, string, string, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)
}

type service struct {
	repo      Repository
	wallets   wallet.Repository
	tx        db.Transactor
	jwtSecret string
}

func NewService(repo Repository, wallets wallet.Repository, tx db.Transactor, jwtSecret string) Service {
	return &service{
		repo:      repo,
		wallets:   wallets,
		tx:        tx,
		jwtSecret: jwtSecret,
	}
}

// Register creates the user and its empty wallet in one transaction.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, string, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, "", "", err
	}
	if exists {
		return nil, "", "", ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, "", "", apperr.Validation(map[string]string{"password": "must be at most 72 bytes"})
	}
	if err != nil {
		return nil, "", "", err
	}

	var created *User
	err = s.tx.WithinTx(ctx, func(q db.Queryer) error {
		u, err := s.repo.Create(ctx, q, strings.TrimSpace(req.Name), email, passwordHash, req.Role, req.AgeVerified)
		if err != nil {
			return err
		}
		if _, err := s.wallets.Create(ctx, q, u.ID); err != nil {
			return err
		}
		created = u
		return nil
	})
	if isUniqueViolation(err) {
		return nil, "", "", ErrEmailExists
	}
	if err != nil {
		return nil, "", "", err
	}

	access, refresh, err := auth.GenerateTokens(created.ID, created.Email, created.Role, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	logger.Info("user registered", "user_id", created.ID, "role", created.Role)
	return created, access, refresh, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	u, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, "", "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", "", err
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, "", "", ErrInvalidCredentials
	}

	access, refresh, err := auth.GenerateTokens(u.ID, u.Email, u.Role, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return u, access, refresh, nil
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return "", nil, ErrInvalidRefresh
	}

	// Re-read the user so a stale role in the refresh token is never reissued.
	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, err
	}

	access, err := auth.GenerateAccessToken(u.ID, u.Email, u.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return access, u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
