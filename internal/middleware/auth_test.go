package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func setupAuthRouter(am *AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(am.RequireAuth())
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"account_id": c.GetString(ContextAccountID),
			"allowed":    BrandAllowed(c, "brand-1"),
		})
	})
	return router
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	am := NewAuthMiddleware(testSecret)

	validToken, err := am.GenerateToken("acct-1", nil, time.Hour)
	require.NoError(t, err)

	expiredToken, err := am.GenerateToken("acct-1", nil, -time.Hour)
	require.NoError(t, err)

	otherToken, err := NewAuthMiddleware("another-secret").GenerateToken("acct-1", nil, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedBody   string
	}{
		{name: "valid token", header: "Bearer " + validToken, expectedStatus: http.StatusOK, expectedBody: `"account_id":"acct-1"`},
		{name: "lowercase scheme", header: "bearer " + validToken, expectedStatus: http.StatusOK},
		{name: "missing header", header: "", expectedStatus: http.StatusUnauthorized, expectedBody: "Authorization header required"},
		{name: "wrong scheme", header: "Basic abc", expectedStatus: http.StatusUnauthorized, expectedBody: "Invalid authorization header format"},
		{name: "empty token", header: "Bearer ", expectedStatus: http.StatusUnauthorized, expectedBody: "Invalid authorization header format"},
		{name: "expired token", header: "Bearer " + expiredToken, expectedStatus: http.StatusUnauthorized, expectedBody: "Token expired"},
		{name: "wrong secret", header: "Bearer " + otherToken, expectedStatus: http.StatusUnauthorized, expectedBody: "Invalid token"},
		{name: "garbage", header: "Bearer not.a.token", expectedStatus: http.StatusUnauthorized, expectedBody: "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupAuthRouter(am)
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, w.Body.String(), tt.expectedBody)
			}
		})
	}
}

func TestAuthMiddleware_RejectsNonHMAC(t *testing.T) {
	am := NewAuthMiddleware(testSecret)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &JWTClaims{AccountID: "acct-1"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = am.ValidateToken(signed)
	assert.Error(t, err)
}

func TestAuthMiddleware_BrandScope(t *testing.T) {
	am := NewAuthMiddleware(testSecret)
	router := setupAuthRouter(am)

	tests := []struct {
		name     string
		brands   []string
		expected string
	}{
		{name: "unscoped token", brands: nil, expected: `"allowed":true`},
		{name: "scoped to brand", brands: []string{"brand-1", "brand-9"}, expected: `"allowed":true`},
		{name: "scoped elsewhere", brands: []string{"brand-2"}, expected: `"allowed":false`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := am.GenerateToken("acct-1", tt.brands, time.Hour)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tt.expected)
		})
	}
}

func TestValidateToken_Claims(t *testing.T) {
	am := NewAuthMiddleware(testSecret)
	token, err := am.GenerateToken("acct-7", []string{"brand-3"}, time.Hour)
	require.NoError(t, err)

	claims, err := am.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acct-7", claims.AccountID)
	assert.Equal(t, "acct-7", claims.Subject)
	assert.Equal(t, []string{"brand-3"}, claims.Brands)
}

func TestBrandAllowed_Unauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.True(t, BrandAllowed(c, "any"))
}
