package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/chachabrian/mooveit-ledger/pkg/utils"
	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret"

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", AuthMiddleware(testSecret), RequireRole(models.UserTypeAdmin), func(c *gin.Context) {
		c.JSON(200, gin.H{"userId": c.GetString("userId")})
	})
	return r
}

func token(t *testing.T, id string, userType models.UserType) string {
	t.Helper()
	tok, err := utils.GenerateToken(&models.User{ID: id, UserType: userType}, testSecret)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing token", "", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", "", http.StatusUnauthorized},
		{"invalid token", "Bearer not-a-jwt", "", http.StatusUnauthorized},
		{"wrong role", "Bearer " + token(t, "driver-1", models.UserTypeDriver), "", http.StatusForbidden},
		{"admin header", "Bearer " + token(t, "admin-1", models.UserTypeAdmin), "", http.StatusOK},
		{"admin query param", "", token(t, "admin-1", models.UserTypeAdmin), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/admin"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}
