package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/middleware"
	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/service"
)

type stubAuthService struct {
	principal service.Principal
	err       error
}

func (s stubAuthService) Login(context.Context, dto.LoginRequest) (dto.LoginResponse, error) {
	return dto.LoginResponse{}, nil
}

func (s stubAuthService) Me(context.Context, uint) (dto.UserResponse, error) {
	return dto.UserResponse{}, nil
}

func (s stubAuthService) Principal(context.Context, uint) (service.Principal, error) {
	return s.principal, s.err
}

func TestPrincipalLookup(t *testing.T) {
	failure := errors.New("db down")
	cases := []struct {
		name    string
		auth    stubAuthService
		want    middleware.Principal
		wantErr error
	}{
		{"active", stubAuthService{principal: service.Principal{UserID: 1, Role: models.UserRoleHallstaff, Superuser: true}}, middleware.Principal{Role: models.UserRoleHallstaff, Superuser: true, Active: true}, nil},
		{"deactivated", stubAuthService{err: service.ErrInactiveUser}, middleware.Principal{}, nil},
		{"unknown", stubAuthService{err: service.ErrUserNotFound}, middleware.Principal{}, nil},
		{"failure", stubAuthService{err: failure}, middleware.Principal{}, failure},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PrincipalLookup(tc.auth)(context.Background(), 1)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
