package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/eshop/internal/models"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	statusOK(t, env.do(http.MethodGet, "/health/live", nil, ""), http.StatusOK)
	statusOK(t, env.do(http.MethodGet, "/health/ready", nil, ""), http.StatusOK)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/nope", nil, "")
	statusOK(t, rec, http.StatusNotFound)
	body := decode(t, rec)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "Can't find /api/v1/nope on this server!", body["message"])
}

func TestAccessControl(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.seedUser("user@example.com", models.RoleUser)
	_, adminToken := env.seedUser("admin@example.com", models.RoleAdmin)
	_, managerToken := env.seedUser("manager@example.com", models.RoleManager)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"cart needs login", http.MethodGet, "/api/v1/cart", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/v1/cart", "not-a-jwt", http.StatusUnauthorized},
		{"coupons are staff only", http.MethodGet, "/api/v1/coupons", userToken, http.StatusForbidden},
		{"manager lists coupons", http.MethodGet, "/api/v1/coupons", managerToken, http.StatusOK},
		{"admin cannot use a cart", http.MethodGet, "/api/v1/cart", adminToken, http.StatusForbidden},
		{"user lists own orders", http.MethodGet, "/api/v1/orders", userToken, http.StatusOK},
		{"users list is staff only", http.MethodGet, "/api/v1/users", userToken, http.StatusForbidden},
		{"anyone reads products", http.MethodGet, "/api/v1/products", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.method, tt.path, nil, tt.token)
			statusOK(t, rec, tt.want)
		})
	}

	rec := env.do(http.MethodGet, "/api/v1/cart", nil, "")
	assert.Equal(t, "You are not logged in. Please log in first.", decode(t, rec)["message"])
}

func TestTokenIssuedBeforePasswordChange(t *testing.T) {
	env := newTestEnv(t)
	u, token := env.seedUser("user@example.com", models.RoleUser)

	changed := time.Now().Add(time.Hour)
	require.NoError(t, env.DB.Model(&models.User{}).Where("id = ?", u.ID).Update("password_changed_at", changed).Error)

	rec := env.do(http.MethodGet, "/api/v1/users/getMe", nil, token)
	statusOK(t, rec, http.StatusUnauthorized)
	assert.Equal(t, "Password recently changed. Please log in again.", decode(t, rec)["message"])
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.RateMax = 1
		d.RateWindow = time.Hour
	})

	statusOK(t, env.do(http.MethodGet, "/api/v1/products", nil, ""), http.StatusOK)
	statusOK(t, env.do(http.MethodGet, "/api/v1/products", nil, ""), http.StatusTooManyRequests)
	// the limiter covers /api only
	statusOK(t, env.do(http.MethodGet, "/health/live", nil, ""), http.StatusOK)
}

func TestAllowedToRejectsUnknownRole(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { allowedTo(models.Role("root")) })
}
