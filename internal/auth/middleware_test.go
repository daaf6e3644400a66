package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddlewareHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		authHeader string
		wantBody   string
	}{
		{"Empty header", "", `{"error":"Authorization header required"}`},
		{"Invalid format", "Token abc", `{"error":"Invalid authorization header format"}`},
		{"Empty token", "Bearer ", `{"error":"Token is empty"}`},
		{"Garbage token", "Bearer abc.def", `{"error":"Invalid or malformed token"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			req := httptest.NewRequest("GET", "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			c.Request = req

			AuthMiddleware("secret")(c)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			assert.True(t, c.IsAborted())
		})
	}
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	token, err := GenerateAccessToken(7, "asha@example.com", RoleCustomer, "secret")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", AuthMiddleware("secret"), func(c *gin.Context) {
		id, ok := GetIdentity(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": id.UserID, "role": id.Role, "admin": id.IsAdmin()})
	})

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"role":"customer","admin":false}`, w.Body.String())

	router2 := gin.New()
	router2.GET("/me", AuthMiddleware("other-secret"), func(c *gin.Context) { c.Status(http.StatusOK) })
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router2.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsUnknownIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/me", AuthMiddleware("secret"), func(c *gin.Context) { c.Status(http.StatusOK) })

	for name, token := range map[string]func() (string, error){
		"unknown role": func() (string, error) { return GenerateAccessToken(7, "a@example.com", "superuser", "secret") },
		"no user":      func() (string, error) { return GenerateAccessToken(0, "a@example.com", RoleCustomer, "secret") },
	} {
		t.Run(name, func(t *testing.T) {
			tok, err := token()
			require.NoError(t, err)

			req := httptest.NewRequest("GET", "/me", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"Token carries no valid identity"}`, w.Body.String())
		})
	}
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		identity       any
		requiredRole   string
		expectedStatus int
	}{
		{"Correct role", Identity{UserID: 1, Role: RoleAdmin}, RoleAdmin, http.StatusOK},
		{"Missing identity", nil, RoleAdmin, http.StatusUnauthorized},
		{"Foreign value under key", "admin", RoleAdmin, http.StatusUnauthorized},
		{"Insufficient role", Identity{UserID: 1, Role: RoleCustomer}, RoleAdmin, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			if tt.identity != nil {
				c.Set(identityKey, tt.identity)
			}
			c.Request = httptest.NewRequest("GET", "/", nil)

			RequireRole(tt.requiredRole)(c)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		value    any
		expected int
		ok       bool
	}{
		{"Identity present", Identity{UserID: 42, Role: RoleCustomer}, 42, true},
		{"Missing", nil, 0, false},
		{"Wrong type", 42, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			if tt.value != nil {
				c.Set(identityKey, tt.value)
			}
			c.Request = httptest.NewRequest("GET", "/", nil)

			id, ok := GetUserID(c)
			assert.Equal(t, tt.expected, id)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
