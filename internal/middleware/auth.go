package middleware

import (
	"net/http"
	"strings"

	"feedesk/internal/access"
	"feedesk/internal/apierror"
	"feedesk/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const (
	ClaimsKey = "claims"
)

// JWTClaims are the custom claims embedded in every token.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

// JWTAuth validates the Bearer access token on every protected route.
// Refresh tokens, revoked token ids and tokens of deactivated users are rejected.
func JWTAuth(secret string, revoked infra.RevocationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.Unauthenticated("authentication required", access.LoginRoute))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.Type != "access" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.Unauthenticated("invalid or expired token", access.LoginRoute))
			return
		}

		for _, key := range []string{claims.ID, infra.UserKey(claims.UserID)} {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), key)
			if err != nil {
				log.Error().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("revocation lookup failed")
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, apierror.WithCode("unavailable", "authentication temporarily unavailable"))
				return
			}
			if isRevoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.Unauthenticated("session ended, please sign in again", access.LoginRoute))
				return
			}
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireAction rejects requests whose role may not perform action.
// It must run after JWTAuth.
func RequireAction(action access.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.Unauthenticated("authentication required", access.LoginRoute))
			return
		}
		role, _ := access.ParseRole(claims.Role)
		if !access.CapabilitiesFor(role).Can(action) {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.WithCode("forbidden", "insufficient permissions"))
			return
		}
		c.Next()
	}
}

// GetClaims returns the typed claims set by JWTAuth, or nil.
func GetClaims(c *gin.Context) *JWTClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*JWTClaims)
	return claims
}
