package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/eshop/internal/events"
	"github.com/Skotchmaster/eshop/internal/mailer"
	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/payment"
	"github.com/Skotchmaster/eshop/internal/repo"
	"github.com/Skotchmaster/eshop/internal/service"
	"github.com/Skotchmaster/eshop/internal/testdb"
	"github.com/Skotchmaster/eshop/pkg/hash"
	"github.com/Skotchmaster/eshop/pkg/logging"
)

const (
	testWebhookSecret = "whsec_test"
	testPassword      = "Passw0rd!"
)

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Repo   *repo.GormRepo
	Deps   *Deps
	Events *events.Memory
	Mail   *mailer.Outbox
}

func newTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()

	db := testdb.Open(t)
	r := &repo.GormRepo{DB: db}
	pub := &events.Memory{}
	mail := &mailer.Outbox{}

	d := &Deps{
		DB:      db,
		Logger:  logging.NewWithWriter(io.Discard, "error", "production"),
		Catalog: &service.CatalogService{Repo: r, Events: pub},
		Reviews: &service.ReviewService{Repo: r},
		Carts:   &service.CartService{Repo: r, Events: pub},
		Orders: &service.OrderService{
			Repo:     r,
			Payments: payment.NewStripe("sk_test_unused", testWebhookSecret, "egp"),
			Events:   pub,
		},
		Auth: &service.AuthService{
			Repo:      r,
			Mail:      mail,
			Events:    pub,
			JWTSecret: []byte("test-secret"),
			TokenTTL:  time.Hour,
		},
		Users:       &service.UserService{Repo: r, Mail: mail, Events: pub},
		UploadDir:   t.TempDir(),
		BodyLimit:   "20K",
		CORSOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(d)
	}

	return &testEnv{T: t, E: NewServer(d), DB: db, Repo: r, Deps: d, Events: pub, Mail: mail}
}

// do sends a JSON request through the full router.
func (env *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	env.T.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(env.T, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) ctx() context.Context { return context.Background() }

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func (env *testEnv) seedUser(email string, role models.Role) (models.User, string) {
	env.T.Helper()

	pw, err := hash.HashPassword(testPassword)
	require.NoError(env.T, err)
	u := models.User{Name: "Test User", Slug: "test-user", Email: email, Password: pw, Role: role, Active: true}
	require.NoError(env.T, env.DB.Create(&u).Error)

	token, err := env.Deps.Auth.IssueToken(u.ID)
	require.NoError(env.T, err)
	return u, token
}

func (env *testEnv) seedCategory(name string) models.Category {
	env.T.Helper()
	c := models.Category{Name: name, Slug: service.Slug(name), Image: defaultCategoryImage}
	require.NoError(env.T, env.DB.Create(&c).Error)
	return c
}

func (env *testEnv) seedProduct(title string, price float64, quantity int, category models.Category) models.Product {
	env.T.Helper()
	p := models.Product{
		Title:       title,
		Slug:        service.Slug(title),
		Description: "a product used by the http tests",
		Quantity:    quantity,
		Price:       price,
		ImageCover:  "cover.jpeg",
		CategoryID:  category.ID,
	}
	require.NoError(env.T, env.DB.Create(&p).Error)
	return p
}

func (env *testEnv) count(model any) int64 {
	env.T.Helper()
	var n int64
	require.NoError(env.T, env.DB.Model(model).Count(&n).Error)
	return n
}

func statusOK(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, rec.Body.String())
}
