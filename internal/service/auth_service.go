package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"feedesk/internal/access"
	"feedesk/internal/config"
	"feedesk/internal/dto"
	"feedesk/internal/infra"
	"feedesk/internal/model"
	"feedesk/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Token types carried in the "typ" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// BcryptCost is used for every stored password hash.
const BcryptCost = 12

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	// Logout revokes the access token id until it expires, and the refresh
	// token when one is given.
	Logout(ctx context.Context, actor Actor, accessID string, accessExp time.Time, refreshToken string) error
	CreateUser(ctx context.Context, actor Actor, req dto.CreateUserRequest) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, includeInactive bool) ([]dto.UserResponse, error)
	Deactivate(ctx context.Context, actor Actor, id uuid.UUID) error
	Reactivate(ctx context.Context, actor Actor, id uuid.UUID) error
	// ChangePassword replaces the actor's password after checking the current one.
	ChangePassword(ctx context.Context, actor Actor, req dto.ChangePasswordRequest) error
}

type authService struct {
	repo    repository.UserRepository
	revoked infra.RevocationStore
	audit   AuditService
	cfg     *config.Config
}

func NewAuthService(repo repository.UserRepository, revoked infra.RevocationStore, audit AuditService, cfg *config.Config) AuthService {
	return &authService{repo: repo, revoked: revoked, audit: audit, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		// Compare anyway so unknown usernames cost the same as bad passwords.
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(req.Password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn().Str("username", user.Username).Msg("login rejected: bad password")
		return nil, ErrInvalidCredentials
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actorOf(user), model.ActionLogin, user.ID.String(), "")
	return resp, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := s.parse(refreshToken)
	if err != nil || claims["typ"] != TokenRefresh {
		return nil, fmt.Errorf("refresh token: %w", ErrInvalidCredentials)
	}
	jti, _ := claims["jti"].(string)
	if revoked, err := s.revoked.IsRevoked(ctx, jti); err != nil {
		return nil, err
	} else if revoked {
		return nil, fmt.Errorf("refresh token revoked: %w", ErrInvalidCredentials)
	}

	userID, _ := claims["user_id"].(string)
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", ErrInvalidCredentials)
	}
	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Active {
		return nil, fmt.Errorf("user inactive or missing: %w", ErrInvalidCredentials)
	}

	// rotate: the presented refresh token is single-use
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		if err := s.revoked.Revoke(ctx, jti, exp.Time); err != nil {
			return nil, err
		}
	}
	return s.issue(user)
}

func (s *authService) Logout(ctx context.Context, actor Actor, accessID string, accessExp time.Time, refreshToken string) error {
	if accessID != "" {
		if err := s.revoked.Revoke(ctx, accessID, accessExp); err != nil {
			return err
		}
	}
	if refreshToken != "" {
		if claims, err := s.parse(refreshToken); err == nil {
			jti, _ := claims["jti"].(string)
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && jti != "" {
				if err := s.revoked.Revoke(ctx, jti, exp.Time); err != nil {
					return err
				}
			}
		}
	}
	s.audit.Record(ctx, actor, model.ActionLogout, actor.UserID.String(), "")
	return nil
}

func (s *authService) CreateUser(ctx context.Context, actor Actor, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if _, ok := access.ParseRole(req.Role); !ok {
		return nil, fmt.Errorf("%q: %w", req.Role, ErrInvalidRole)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), BcryptCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(req.Username),
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("username %s: %w", user.Username, ErrDuplicate)
		}
		return nil, err
	}
	s.audit.Record(ctx, actor, model.ActionUserCreate, user.ID.String(), user.Username+" ("+user.Role+")")

	resp := toUserResponse(*user)
	return &resp, nil
}

func (s *authService) ListUsers(ctx context.Context, includeInactive bool) ([]dto.UserResponse, error) {
	users, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UserResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	return resp, nil
}

func (s *authService) Deactivate(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.setActive(ctx, actor, id, false)
}

func (s *authService) Reactivate(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.setActive(ctx, actor, id, true)
}

func (s *authService) setActive(ctx context.Context, actor Actor, id uuid.UUID, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return err
	}
	// tokens already issued stop working at once; the mark outlives the longest token
	if active {
		if err := s.revoked.RestoreUser(ctx, id.String()); err != nil {
			return fmt.Errorf("restore tokens of %s: %w", id, err)
		}
	} else {
		ttl := time.Duration(max(s.cfg.JWTExpirationHours, s.cfg.JWTRefreshHours)) * time.Hour
		if err := s.revoked.RevokeUser(ctx, id.String(), time.Now().Add(ttl)); err != nil {
			return fmt.Errorf("revoke tokens of %s: %w", id, err)
		}
	}
	action := model.ActionUserDeactivate
	if active {
		action = model.ActionUserReactivate
	}
	s.audit.Record(ctx, actor, action, id.String(), "")
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, actor Actor, req dto.ChangePasswordRequest) error {
	user, err := s.repo.FindByID(ctx, actor.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("user %s: %w", actor.UserID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		log.Warn().Str("username", user.Username).Msg("password change rejected: bad current password")
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), BcryptCost)
	if err != nil {
		return err
	}
	if err := s.repo.SetPassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, model.ActionPasswordChange, user.ID.String(), user.Username)
	return nil
}

// ── Tokens ────────────────────────────────────────────────────────────────────

func (s *authService) issue(user *model.User) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, TokenAccess, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, TokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	role, _ := access.ParseRole(user.Role)
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		DefaultRoute: access.CapabilitiesFor(role).DefaultRoute,
		User:         toUserResponse(*user),
	}, nil
}

func (s *authService) generateToken(user *model.User, typ string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"name":     user.Name,
		"role":     user.Role,
		"typ":      typ,
		"jti":      uuid.NewString(),
		"exp":      now.Add(duration).Unix(),
		"iat":      now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *authService) parse(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("token invalid or expired")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}
	return claims, nil
}

func actorOf(u *model.User) Actor {
	role, _ := access.ParseRole(u.Role)
	return Actor{UserID: u.ID, Username: u.Username, Name: u.Name, Role: role}
}

// dummyHash is compared against when the username does not exist.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), BcryptCost)
	return h
})
