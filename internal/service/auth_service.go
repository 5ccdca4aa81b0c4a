package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/repository"
	"github.com/noah-isme/exdb-api/pkg/directory"
)

// Authenticator verifies a username and password against an external source.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) error
}

// AuthService issues tokens for users and reads their profile.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	Me(ctx context.Context, userID uint) (dto.UserResponse, error)
	Principal(ctx context.Context, userID uint) (Principal, error)
}

// Principal is the stored role state of a user, read on every protected request.
type Principal struct {
	UserID    uint
	Role      string
	Superuser bool
}

type authService struct {
	users         repository.UserRepository
	authenticator Authenticator
	secret        []byte
	ttl           time.Duration
	logger        zerolog.Logger
	now           func() time.Time
}

// NewAuthService constructs the auth service. With a nil authenticator
// passwords are checked against the stored bcrypt hash.
func NewAuthService(users repository.UserRepository, authenticator Authenticator, secret string, ttl time.Duration, logger zerolog.Logger) AuthService {
	return &authService{
		users:         users,
		authenticator: authenticator,
		secret:        []byte(secret),
		ttl:           ttl,
		logger:        logger.With().Str("component", "auth_service").Logger(),
		now:           time.Now,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}
	if !user.IsActive {
		return dto.LoginResponse{}, ErrInactiveUser
	}

	if err := s.verify(ctx, req.Username, req.Password, user.PasswordHash); err != nil {
		return dto.LoginResponse{}, err
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       strconv.FormatUint(uint64(user.ID), 10),
		"role":      user.Role,
		"superuser": user.IsSuperuser,
		"iat":       issuedAt.Unix(),
		"exp":       expiresAt.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user logged in")

	profile, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	return dto.LoginResponse{
		Token:     signed,
		ExpiresAt: expiresAt.UTC(),
		User:      dto.NewUserResponse(profile),
	}, nil
}

func (s *authService) verify(ctx context.Context, username, password, hash string) error {
	if s.authenticator != nil {
		err := s.authenticator.Authenticate(ctx, username, password)
		if errors.Is(err, directory.ErrInvalidCredentials) {
			return ErrInvalidCredentials
		}
		return err
	}

	if hash == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

// Principal returns ErrUserNotFound for unknown users and ErrInactiveUser for
// users the directory sync has deactivated.
func (s *authService) Principal(ctx context.Context, userID uint) (Principal, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Principal{}, ErrUserNotFound
		}
		return Principal{}, err
	}
	if !user.IsActive {
		return Principal{}, ErrInactiveUser
	}
	return Principal{UserID: user.ID, Role: user.Role, Superuser: user.IsSuperuser}, nil
}

// HashPassword derives the bcrypt hash stored for local logins.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
