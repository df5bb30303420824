package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/query"
)

func productBody(categoryID string) map[string]any {
	return map[string]any{
		"title":       "Apple iPhone 15",
		"description": "A phone with a very long description text",
		"quantity":    10,
		"price":       1000,
		"imageCover":  "cover.jpeg",
		"categoryId":  categoryID,
	}
}

func TestProductList(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCategory("Phones")
	env.seedProduct("Alpha phone", 100, 1, c)
	env.seedProduct("Beta phone", 200, 1, c)
	env.seedProduct("Gamma tablet", 300, 1, c)

	rec := env.do(http.MethodGet, "/api/v1/products?limit=2&sort=price", nil, "")
	statusOK(t, rec, http.StatusOK)
	body := decode(t, rec)

	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 2, body["results"])
	pg := body["pagination"].(map[string]any)
	assert.EqualValues(t, 1, pg["currentPage"])
	assert.EqualValues(t, 2, pg["limit"])
	assert.EqualValues(t, 2, pg["numberOfPages"])
	assert.EqualValues(t, 2, pg["next"])

	data := body["data"].([]any)
	first := data[0].(map[string]any)
	assert.Equal(t, "Alpha phone", first["title"])
	assert.Equal(t, "/uploads/products/cover.jpeg", first["imageCover"])

	rec = env.do(http.MethodGet, "/api/v1/products?keyword=PHONE&price[gte]=150", nil, "")
	statusOK(t, rec, http.StatusOK)
	body = decode(t, rec)
	require.EqualValues(t, 1, body["results"])
	assert.Equal(t, "Beta phone", body["data"].([]any)[0].(map[string]any)["title"])

	rec = env.do(http.MethodGet, "/api/v1/products?fields=title", nil, "")
	statusOK(t, rec, http.StatusOK)
	row := decode(t, rec)["data"].([]any)[0].(map[string]any)
	assert.Contains(t, row, "title")
	assert.NotContains(t, row, "price")
}

func TestProductListOutOfRangePaging(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct("Alpha phone", 100, 1, env.seedCategory("Phones"))

	tests := []struct {
		name  string
		query string
		page  int
		limit int
		rows  int
	}{
		{name: "huge limit", query: "limit=100000000", page: 1, limit: query.MaxLimit, rows: 1},
		{name: "max int limit", query: "limit=9223372036854775807", page: 1, limit: query.MaxLimit, rows: 1},
		{name: "max int page", query: "page=9223372036854775807", page: query.MaxPage, limit: query.DefaultLimit, rows: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/api/v1/products?"+tt.query, nil, "")
			statusOK(t, rec, http.StatusOK)
			body := decode(t, rec)
			assert.EqualValues(t, tt.rows, body["results"])
			assert.Len(t, body["data"], tt.rows)
			pg := body["pagination"].(map[string]any)
			assert.EqualValues(t, tt.page, pg["currentPage"])
			assert.EqualValues(t, tt.limit, pg["limit"])
			assert.NotContains(t, pg, "next")
		})
	}
}

func TestProductListFieldsIDOnly(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct("Alpha phone", 100, 1, env.seedCategory("Phones"))

	rec := env.do(http.MethodGet, "/api/v1/products?fields=id", nil, "")
	statusOK(t, rec, http.StatusOK)
	row := decode(t, rec)["data"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"id": p.ID.String()}, row)
}

func TestCreateProduct(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCategory("Phones")
	_, admin := env.seedUser("admin@example.com", models.RoleAdmin)

	t.Run("discount must be lower", func(t *testing.T) {
		body := productBody(c.ID.String())
		body["priceAfterDiscount"] = 1500
		rec := env.do(http.MethodPost, "/api/v1/products", body, admin)
		statusOK(t, rec, http.StatusBadRequest)
		assert.Equal(t, "Discount price must be lower than the original price", decode(t, rec)["message"])
	})

	t.Run("short description", func(t *testing.T) {
		body := productBody(c.ID.String())
		body["description"] = "too short"
		statusOK(t, env.do(http.MethodPost, "/api/v1/products", body, admin), http.StatusBadRequest)
	})

	t.Run("created", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/v1/products", productBody(c.ID.String()), admin)
		statusOK(t, rec, http.StatusCreated)
		data := decode(t, rec)["data"].(map[string]any)
		assert.Equal(t, "apple-iphone-15", data["slug"])
		assert.Contains(t, env.Events.Types("product_events"), "product_created")

		rec = env.do(http.MethodGet, "/api/v1/products/"+data["id"].(string), nil, "")
		statusOK(t, rec, http.StatusOK)
		got := decode(t, rec)["data"].(map[string]any)
		assert.Equal(t, "Phones", got["category"].(map[string]any)["name"])
	})

	assert.EqualValues(t, 1, env.count(&models.Product{}))
}

func TestGetProductErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/products/abc", nil, "")
	statusOK(t, rec, http.StatusBadRequest)
	assert.Equal(t, "Invalid id: abc", decode(t, rec)["message"])

	rec = env.do(http.MethodGet, "/api/v1/products/2f1c1a5e-1a47-4a8e-9b68-3c8a1f1d7d11", nil, "")
	statusOK(t, rec, http.StatusNotFound)
	assert.Equal(t, "No product for this id: 2f1c1a5e-1a47-4a8e-9b68-3c8a1f1d7d11", decode(t, rec)["message"])
}

func TestNestedSubCategories(t *testing.T) {
	env := newTestEnv(t)
	phones := env.seedCategory("Phones")
	laptops := env.seedCategory("Laptops")
	_, admin := env.seedUser("admin@example.com", models.RoleAdmin)

	rec := env.do(http.MethodPost, "/api/v1/categories/"+phones.ID.String()+"/subcategories", map[string]string{"name": "Android"}, admin)
	statusOK(t, rec, http.StatusCreated)
	assert.Equal(t, phones.ID.String(), decode(t, rec)["data"].(map[string]any)["categoryId"])

	rec = env.do(http.MethodPost, "/api/v1/subcategories", map[string]string{"name": "Gaming", "categoryId": laptops.ID.String()}, admin)
	statusOK(t, rec, http.StatusCreated)

	rec = env.do(http.MethodPost, "/api/v1/subcategories", map[string]string{"name": "Orphan"}, admin)
	statusOK(t, rec, http.StatusBadRequest)

	rec = env.do(http.MethodGet, "/api/v1/categories/"+phones.ID.String()+"/subcategories", nil, "")
	statusOK(t, rec, http.StatusOK)
	assert.EqualValues(t, 1, decode(t, rec)["results"])

	statusOK(t, env.do(http.MethodDelete, "/api/v1/categories/"+phones.ID.String(), nil, admin), http.StatusNoContent)
	assert.EqualValues(t, 1, env.count(&models.SubCategory{}))
}

func TestCategoryDeleteIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCategory("Phones")
	_, manager := env.seedUser("manager@example.com", models.RoleManager)

	statusOK(t, env.do(http.MethodDelete, "/api/v1/categories/"+c.ID.String(), nil, manager), http.StatusForbidden)

	rec := env.do(http.MethodPut, "/api/v1/categories/"+c.ID.String(), map[string]string{"name": "Mobiles"}, manager)
	statusOK(t, rec, http.StatusOK)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "mobiles", data["slug"])
	assert.Equal(t, "/uploads/categories/"+defaultCategoryImage, data["image"])
}

func TestReviews(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct("Alpha phone", 100, 1, env.seedCategory("Phones"))
	_, alice := env.seedUser("alice@example.com", models.RoleUser)
	_, bob := env.seedUser("bob@example.com", models.RoleUser)
	_, admin := env.seedUser("admin@example.com", models.RoleAdmin)

	path := "/api/v1/products/" + p.ID.String() + "/reviews"
	rec := env.do(http.MethodPost, path, map[string]any{"title": "good", "ratings": 4}, alice)
	statusOK(t, rec, http.StatusCreated)
	reviewID := decode(t, rec)["data"].(map[string]any)["id"].(string)

	statusOK(t, env.do(http.MethodPost, path, map[string]any{"ratings": 5}, alice), http.StatusConflict)
	statusOK(t, env.do(http.MethodPost, path, map[string]any{"ratings": 5}, bob), http.StatusCreated)

	var got models.Product
	require.NoError(t, env.DB.First(&got, "id = ?", p.ID).Error)
	assert.InDelta(t, 4.5, got.RatingsAverage, 1e-9)
	assert.Equal(t, 2, got.RatingsQuantity)

	rec = env.do(http.MethodPut, "/api/v1/reviews/"+reviewID, map[string]any{"ratings": 1}, bob)
	statusOK(t, rec, http.StatusForbidden)
	statusOK(t, env.do(http.MethodDelete, "/api/v1/reviews/"+reviewID, nil, bob), http.StatusForbidden)

	rec = env.do(http.MethodGet, path, nil, "")
	statusOK(t, rec, http.StatusOK)
	assert.EqualValues(t, 2, decode(t, rec)["results"])

	statusOK(t, env.do(http.MethodDelete, "/api/v1/reviews/"+reviewID, nil, admin), http.StatusNoContent)
	require.NoError(t, env.DB.First(&got, "id = ?", p.ID).Error)
	assert.InDelta(t, 5, got.RatingsAverage, 1e-9)
	assert.Equal(t, 1, got.RatingsQuantity)
}

func TestCreateStripsMarkup(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.seedUser("admin@example.com", models.RoleAdmin)

	rec := env.do(http.MethodPost, "/api/v1/categories", map[string]string{"name": "<b>Tablets</b><script>alert(1)</script>"}, admin)
	statusOK(t, rec, http.StatusCreated)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "Tablets", data["name"])
	assert.Equal(t, "tablets", data["slug"])

	// nothing left once the markup is gone
	statusOK(t, env.do(http.MethodPost, "/api/v1/categories", map[string]string{"name": "<p></p>"}, admin), http.StatusBadRequest)
}
