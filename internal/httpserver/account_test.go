package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/eshop/internal/models"
)

func TestWishlist(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct("Alpha phone", 100, 5, env.seedCategory("Phones"))
	_, token := env.seedUser("user@example.com", models.RoleUser)

	for i := 0; i < 2; i++ {
		rec := env.do(http.MethodPost, "/api/v1/wishlist", map[string]string{"productId": p.ID.String()}, token)
		statusOK(t, rec, http.StatusOK)
		assert.EqualValues(t, 1, decode(t, rec)["results"])
	}

	rec := env.do(http.MethodPost, "/api/v1/wishlist", map[string]string{"productId": "2f1c1a5e-1a47-4a8e-9b68-3c8a1f1d7d11"}, token)
	statusOK(t, rec, http.StatusNotFound)

	rec = env.do(http.MethodGet, "/api/v1/wishlist", nil, token)
	statusOK(t, rec, http.StatusOK)
	item := decode(t, rec)["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "/uploads/products/cover.jpeg", item["imageCover"])

	rec = env.do(http.MethodDelete, "/api/v1/wishlist/"+p.ID.String(), nil, token)
	statusOK(t, rec, http.StatusOK)
	assert.EqualValues(t, 0, decode(t, rec)["results"])
}

func TestAddresses(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser("user@example.com", models.RoleUser)

	addr := map[string]string{
		"alias":      "home",
		"details":    "1 Nile St",
		"phone":      "01012345678",
		"city":       "Cairo",
		"postalCode": "11511",
	}
	for i := 0; i < 2; i++ {
		rec := env.do(http.MethodPost, "/api/v1/addresses", addr, token)
		statusOK(t, rec, http.StatusOK)
		assert.EqualValues(t, 1, decode(t, rec)["results"])
	}

	bad := map[string]string{"alias": "work", "details": "x", "phone": "12345", "city": "Cairo", "postalCode": "115"}
	statusOK(t, env.do(http.MethodPost, "/api/v1/addresses", bad, token), http.StatusBadRequest)

	rec := env.do(http.MethodGet, "/api/v1/addresses", nil, token)
	statusOK(t, rec, http.StatusOK)
	id := decode(t, rec)["data"].([]any)[0].(map[string]any)["id"].(string)

	rec = env.do(http.MethodDelete, "/api/v1/addresses/"+id, nil, token)
	statusOK(t, rec, http.StatusOK)
	assert.EqualValues(t, 0, decode(t, rec)["results"])
}

func TestAdminUsers(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.seedUser("admin@example.com", models.RoleAdmin)

	rec := env.do(http.MethodPost, "/api/v1/users", map[string]string{
		"name":            "Sara Adel",
		"email":           "sara@example.com",
		"password":        "Passw0rd!",
		"passwordConfirm": "Passw0rd!",
		"role":            "manager",
	}, admin)
	statusOK(t, rec, http.StatusCreated)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "manager", data["role"])
	id := data["id"].(string)

	rec = env.do(http.MethodPost, "/api/v1/users", map[string]string{
		"name": "Sara Two", "email": "sara@example.com", "password": "Passw0rd!", "passwordConfirm": "Passw0rd!",
	}, admin)
	statusOK(t, rec, http.StatusConflict)

	rec = env.do(http.MethodPut, "/api/v1/users/"+id, map[string]string{"name": "Sara Adel Ali"}, admin)
	statusOK(t, rec, http.StatusOK)
	assert.Equal(t, "sara-adel-ali", decode(t, rec)["data"].(map[string]any)["slug"])

	rec = env.do(http.MethodGet, "/api/v1/users?keyword=sara", nil, admin)
	statusOK(t, rec, http.StatusOK)
	assert.EqualValues(t, 1, decode(t, rec)["results"])

	statusOK(t, env.do(http.MethodDelete, "/api/v1/users/"+id, nil, admin), http.StatusNoContent)
	assert.EqualValues(t, 1, env.count(&models.User{}))
}
