package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/repo"
	"github.com/Skotchmaster/eshop/internal/testdb"
	"github.com/Skotchmaster/eshop/pkg/hash"
)

func newRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return &repo.GormRepo{DB: testdb.Open(t)}
}

func seedCategory(t *testing.T, r *repo.GormRepo, name string) models.Category {
	t.Helper()
	c := models.Category{Name: name, Slug: Slug(name)}
	require.NoError(t, r.DB.Create(&c).Error)
	return c
}

func seedSubCategory(t *testing.T, r *repo.GormRepo, name string, categoryID uuid.UUID) models.SubCategory {
	t.Helper()
	sc := models.SubCategory{Name: name, Slug: Slug(name), CategoryID: categoryID}
	require.NoError(t, r.DB.Create(&sc).Error)
	return sc
}

func seedProduct(t *testing.T, r *repo.GormRepo, title string, price float64, quantity int) models.Product {
	t.Helper()
	c := seedCategory(t, r, title+" category")
	p := models.Product{
		Title:       title,
		Slug:        Slug(title),
		Description: "a product used by the service tests",
		Quantity:    quantity,
		Price:       price,
		ImageCover:  "cover.jpeg",
		CategoryID:  c.ID,
	}
	require.NoError(t, r.DB.Create(&p).Error)
	return p
}

func seedUser(t *testing.T, r *repo.GormRepo, email string) models.User {
	t.Helper()
	pw, err := hash.HashPassword("Passw0rd!")
	require.NoError(t, err)
	u := models.User{Name: "Test User", Slug: "test-user", Email: email, Password: pw, Role: models.RoleUser, Active: true}
	require.NoError(t, r.DB.Create(&u).Error)
	return u
}

func reloadProduct(t *testing.T, r *repo.GormRepo, id uuid.UUID) models.Product {
	t.Helper()
	p, err := r.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return *p
}

var codeRe = regexp.MustCompile(`\b\d{6}\b`)

func mailedCode(t *testing.T, text string) string {
	t.Helper()
	code := codeRe.FindString(text)
	require.NotEmpty(t, code, "no code in %q", text)
	return code
}
