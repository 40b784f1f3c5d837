package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"phishguard/internal/authz"
	"phishguard/internal/config"
	apperrors "phishguard/internal/errors"
	"phishguard/internal/models"
)

const claimsContextKey = "claims"

// getJWTKey returns the JWT key from configuration
func getJWTKey() []byte {
	return []byte(config.Get().JWTSecret)
}

// JWTClaims represents the claims in the JWT. Role and CanDeleteOwnLogs are
// a snapshot of the user's permissions at issuance time; they stay valid
// until the token expires even if an admin changes the user record in the
// meantime. Expiry is the only invalidation path (no revocation list).
type JWTClaims struct {
	UserID           uint   `json:"user_id"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	CanDeleteOwnLogs bool   `json:"can_delete_own_logs"`
	jwt.RegisteredClaims
}

// Authz converts the token claims into the evaluator's claim type.
func (c *JWTClaims) Authz() authz.Claims {
	return authz.Claims{
		UserID:           c.UserID,
		Role:             c.Role,
		CanDeleteOwnLogs: c.CanDeleteOwnLogs,
	}
}

// GenerateToken signs a bearer token for the user with the configured TTL.
func GenerateToken(user *models.User) (string, error) {
	return generateToken(user, config.Get().JWTExpirationDur)
}

func generateToken(user *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID:           user.ID,
		Email:            user.Email,
		Role:             user.Role,
		CanDeleteOwnLogs: user.CanDeleteOwnLogs,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "phishguard-api",
			Subject:   fmt.Sprintf("%d", user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getJWTKey())
}

// ParseAccessToken verifies a bearer token string and returns its claims.
// Signature comparison is constant-time inside the HMAC verification. The
// error carries no detail on which check failed; callers must respond with
// the uniform unauthenticated error either way.
func ParseAccessToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getJWTKey(), nil
	})
	if err != nil || !token.Valid || claims.UserID == 0 {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}

// AuthMiddleware verifies the bearer token and stores the claims in the
// context. Missing, malformed, expired, and badly signed tokens all produce
// the same 401 body.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if authHeader == "" || len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c)
			return
		}

		claims, err := ParseAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the verified claims set by AuthMiddleware.
func ClaimsFromContext(c *gin.Context) (*JWTClaims, bool) {
	v, exists := c.Get(claimsContextKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*JWTClaims)
	return claims, ok
}

// SetClaims stores claims in the context. Used by tests and by the training
// endpoint's operator-token path.
func SetClaims(c *gin.Context, claims *JWTClaims) {
	c.Set(claimsContextKey, claims)
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(apperrors.ErrUnauthorized.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrUnauthorized.Code,
			"message": apperrors.ErrUnauthorized.Message,
		},
	})
}
