package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/repository"
	"github.com/noah-isme/exdb-api/pkg/directory"
)

const testSecret = "test-secret"

type stubAuthenticator struct {
	password string
	calls    int
}

func (a *stubAuthenticator) Authenticate(ctx context.Context, username, password string) error {
	a.calls++
	if password != a.password {
		return directory.ErrInvalidCredentials
	}
	return nil
}

func TestAuthServiceLoginWithPasswordHash(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "admin", models.UserRoleHallstaff)
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{"password_hash": hash, "is_superuser": true}).Error)

	svc := NewAuthService(repository.NewUserRepository(db), nil, testSecret, time.Hour, testLogger()).(*authService)
	issued := time.Now().Truncate(time.Second)
	svc.now = func() time.Time { return issued }

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "admin", Password: "s3cret!"})
	require.NoError(t, err)
	require.Equal(t, user.ID, resp.User.ID)
	require.True(t, resp.User.IsSuperuser)
	require.Equal(t, issued.Add(time.Hour).UTC(), resp.ExpiresAt)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(resp.Token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	require.Equal(t, strconv.FormatUint(uint64(user.ID), 10), claims["sub"])
	require.Equal(t, models.UserRoleHallstaff, claims["role"])
	require.Equal(t, true, claims["superuser"])

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "admin", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "nobody", Password: "s3cret!"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceLoginWithoutHashFails(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "requester", models.UserRoleRequester)

	svc := NewAuthService(repository.NewUserRepository(db), nil, testSecret, time.Hour, testLogger())
	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "requester", Password: "anything"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceLoginWithAuthenticator(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "alice", models.UserRoleRequester)
	inactive := seedUser(t, db, "gone", models.UserRoleRequester)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)

	authenticator := &stubAuthenticator{password: "directory-pass"}
	svc := NewAuthService(repository.NewUserRepository(db), authenticator, testSecret, time.Hour, testLogger())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "alice", Password: "directory-pass"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "alice", Password: "nope"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "gone", Password: "directory-pass"})
	require.ErrorIs(t, err, ErrInactiveUser)
	require.Equal(t, 2, authenticator.calls)
}

func TestAuthServiceMe(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice", models.UserRoleRequester)
	svc := NewAuthService(repository.NewUserRepository(db), nil, testSecret, time.Hour, testLogger())

	profile, err := svc.Me(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", profile.Username)
	require.Equal(t, "Alice", profile.FirstName)

	_, err = svc.Me(context.Background(), 9999)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthServicePrincipalFollowsStoredUser(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "alice", models.UserRoleHallstaff)
	svc := NewAuthService(repository.NewUserRepository(db), nil, testSecret, time.Hour, testLogger())
	ctx := context.Background()

	principal, err := svc.Principal(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, models.UserRoleHallstaff, principal.Role)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("role", models.UserRoleRequester).Error)
	principal, err = svc.Principal(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, models.UserRoleRequester, principal.Role)
	require.False(t, principal.Superuser)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)
	_, err = svc.Principal(ctx, user.ID)
	require.ErrorIs(t, err, ErrInactiveUser)

	_, err = svc.Principal(ctx, 9999)
	require.ErrorIs(t, err, ErrUserNotFound)
}
