// Package middleware provides the gin middleware for authentication, request
// identification and HTTP metrics.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ContextAccountID holds the authenticated account identifier.
	ContextAccountID = "account_id"
	// ContextBrandScope holds the brand IDs the token may query. Empty means all brands.
	ContextBrandScope = "brand_scope"
)

// JWTClaims represents the JWT token claims.
type JWTClaims struct {
	// AccountID identifies the dashboard account that requested the analysis.
	AccountID string `json:"account_id"`
	// Brands restricts the token to these brand IDs when non-empty.
	Brands []string `json:"brands,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware provides JWT authentication middleware.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(secretKey string) *AuthMiddleware {
	return &AuthMiddleware{
		secretKey: []byte(secretKey),
	}
}

// RequireAuth validates the Bearer token in the Authorization header.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			if c.GetHeader("Authorization") == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims, err := am.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(ContextAccountID, claims.AccountID)
		c.Set(ContextBrandScope, claims.Brands)
		c.Next()
	}
}

// GenerateToken creates a signed HS256 token for an account.
func (am *AuthMiddleware) GenerateToken(accountID string, brands []string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		AccountID: accountID,
		Brands:    brands,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(am.secretKey)
}

// ValidateToken validates a JWT token and returns claims.
func (am *AuthMiddleware) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return am.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// BrandAllowed reports whether the authenticated caller may query brandID.
// Requests without a brand scope (including unauthenticated ones) are allowed.
func BrandAllowed(c *gin.Context, brandID string) bool {
	value, ok := c.Get(ContextBrandScope)
	if !ok {
		return true
	}
	brands, _ := value.([]string)
	if len(brands) == 0 {
		return true
	}
	for _, b := range brands {
		if b == brandID {
			return true
		}
	}
	return false
}

// bearerToken extracts the token from a "Bearer <token>" header. The scheme is
// case-insensitive as per RFC 6750.
func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
