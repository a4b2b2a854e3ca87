package service

import (
	"context"
	"testing"
	"time"

	"feedesk/internal/access"
	"feedesk/internal/config"
	"feedesk/internal/dto"
	"feedesk/internal/infra"
	"feedesk/internal/model"
	"feedesk/internal/repository"
	"feedesk/internal/repository/memory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func newAuthFixture(t *testing.T) (AuthService, *memory.Store, *model.User) {
	t.Helper()
	store := memory.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("cashier123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{
		ID:           uuid.New(),
		Username:     "cashier",
		Name:         "Priya Sharma",
		PasswordHash: string(hash),
		Role:         string(access.Cashier),
		Active:       true,
	}
	require.NoError(t, store.Users().Create(context.Background(), user))

	cfg := &config.Config{JWTSecret: testSecret, JWTExpirationHours: 8, JWTRefreshHours: 24}
	svc := NewAuthService(store.Users(), infra.NewMemoryRevocationStore(), NewAuditService(store.Audit(), time.UTC), cfg)
	return svc, store, user
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	return claims
}

func TestAuth_LoginIssuesTypedTokens(t *testing.T) {
	svc, store, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "cashier", Password: "cashier123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, "/", resp.DefaultRoute)
	assert.Equal(t, "Priya Sharma", resp.User.Name)

	claims := parseClaims(t, resp.AccessToken)
	assert.Equal(t, TokenAccess, claims["typ"])
	assert.Equal(t, "cashier", claims["role"])
	assert.NotEmpty(t, claims["jti"])
	assert.Equal(t, TokenRefresh, parseClaims(t, resp.RefreshToken)["typ"])

	entries, _, err := store.Audit().List(context.Background(), repository.AuditFilter{Action: model.ActionLogin})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cashier", entries[0].Username)
}

func TestAuth_LoginRejectsBadCredentials(t *testing.T) {
	svc, store, user := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, dto.LoginRequest{Username: "cashier", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "nobody", Password: "cashier123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, store.Users().SetActive(ctx, user.ID, false))
	_, err = svc.Login(ctx, dto.LoginRequest{Username: "cashier", Password: "cashier123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_RefreshRotatesToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, dto.LoginRequest{Username: "cashier", Password: "cashier123"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, login.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "an access token is not a refresh token")

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "a used refresh token is revoked")
}

func TestAuth_LogoutRevokesRefreshToken(t *testing.T) {
	svc, store, user := newAuthFixture(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, dto.LoginRequest{Username: "cashier", Password: "cashier123"})
	require.NoError(t, err)
	claims := parseClaims(t, login.AccessToken)
	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)

	actor := Actor{UserID: user.ID, Username: user.Username, Name: user.Name, Role: access.Cashier}
	require.NoError(t, svc.Logout(ctx, actor, claims["jti"].(string), exp.Time, login.RefreshToken))

	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	entries, _, err := store.Audit().List(ctx, repository.AuditFilter{Action: model.ActionLogout})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAuth_UserManagement(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()
	admin := Actor{UserID: uuid.New(), Username: "admin", Name: "Administrator", Role: access.Admin}

	created, err := svc.CreateUser(ctx, admin, dto.CreateUserRequest{
		Username: "principal2", Name: "Dr. Meera Iyer", Password: "principal123", Role: "principal",
	})
	require.NoError(t, err)
	assert.True(t, created.Active)

	_, err = svc.CreateUser(ctx, admin, dto.CreateUserRequest{
		Username: "principal2", Name: "Someone Else", Password: "principal123", Role: "principal",
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = svc.CreateUser(ctx, admin, dto.CreateUserRequest{
		Username: "root", Name: "Root", Password: "password123", Role: "superuser",
	})
	assert.ErrorIs(t, err, ErrInvalidRole)

	id := uuid.MustParse(created.ID)
	require.NoError(t, svc.Deactivate(ctx, admin, id))
	active, err := svc.ListUsers(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	all, err := svc.ListUsers(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.Reactivate(ctx, admin, id))
	_, err = svc.Login(ctx, dto.LoginRequest{Username: "principal2", Password: "principal123"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Deactivate(ctx, admin, uuid.New()), ErrNotFound)
}

func TestAuth_ChangePassword(t *testing.T) {
	svc, store, user := newAuthFixture(t)
	ctx := context.Background()
	self := Actor{UserID: user.ID, Username: user.Username, Name: user.Name, Role: access.Cashier}

	err := svc.ChangePassword(ctx, self, dto.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "n3w-secret-pass"})
	assert.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, svc.ChangePassword(ctx, self, dto.ChangePasswordRequest{
		CurrentPassword: "cashier123", NewPassword: "n3w-secret-pass",
	}))

	stored, err := store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, BcryptCost, cost)

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "cashier", Password: "cashier123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, dto.LoginRequest{Username: "cashier", Password: "n3w-secret-pass"})
	require.NoError(t, err)

	entries, _, err := store.Audit().List(ctx, repository.AuditFilter{Action: model.ActionPasswordChange})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, user.ID.String(), entries[0].RecordID)

	ghost := Actor{UserID: uuid.New(), Username: "ghost", Role: access.Cashier}
	err = svc.ChangePassword(ctx, ghost, dto.ChangePasswordRequest{CurrentPassword: "x", NewPassword: "whatever123"})
	assert.ErrorIs(t, err, ErrNotFound)
}
