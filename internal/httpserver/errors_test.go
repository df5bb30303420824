package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/eshop/internal/apierror"
	"github.com/Skotchmaster/eshop/internal/service"
	"github.com/Skotchmaster/eshop/internal/upload"
	"github.com/Skotchmaster/eshop/pkg/tokens"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		verbose bool
		code    int
		msg     string
	}{
		{"operational", apierror.NotFound("No product for this id: 1"), false, 404, "No product for this id: 1"},
		{"service conflict", &service.Error{Kind: service.ErrConflict, Message: "This email is already registered"}, false, 409, "This email is already registered"},
		{"service forbidden", &service.Error{Kind: service.ErrForbidden, Message: "nope"}, false, 403, "nope"},
		{"unmatched route", echo.ErrNotFound, false, 404, "Can't find /api/v1/nope on this server!"},
		{"record not found", errors.Wrap(gorm.ErrRecordNotFound, "get"), false, 404, "No document found"},
		{"duplicate key", errors.Wrap(gorm.ErrDuplicatedKey, "create"), false, 409, "Duplicate field value. Please use another value."},
		{"expired token", errors.Wrap(jwt.ErrTokenExpired, "parse"), false, 401, "Expired token, please log in again."},
		{"bad signature", jwt.ErrTokenSignatureInvalid, false, 401, "Invalid token, please log in again."},
		{"wrong method", tokens.ErrUnexpectedMethod, false, 401, "Invalid token, please log in again."},
		{"not an image", errors.Wrap(upload.ErrNotImage, "image"), false, 400, "Only images allowed"},
		{"unknown hidden", errors.New("boom"), false, 500, msgUnexpected},
		{"unknown verbose", errors.New("boom"), true, 500, "boom"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ae := classify(tt.err, "/api/v1/nope", tt.verbose)
			assert.Equal(t, tt.code, ae.Code)
			assert.Equal(t, tt.msg, ae.Message)
		})
	}
}

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		dev       bool
		err       error
		code      int
		status    string
		withStack bool
	}{
		{"production fail", false, apierror.BadRequest("bad"), http.StatusBadRequest, "fail", false},
		{"production error", false, errors.New("db down"), http.StatusInternalServerError, "error", false},
		{"development adds stack", true, errors.Wrap(gorm.ErrRecordNotFound, "load"), http.StatusNotFound, "fail", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/x", nil), rec)

			ErrorHandler(tt.dev)(tt.err, c)

			require.Equal(t, tt.code, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.status, body["status"])
			assert.NotEmpty(t, body["message"])
			_, hasStack := body["stack"]
			_, hasErr := body["error"]
			assert.Equal(t, tt.withStack, hasStack)
			assert.Equal(t, tt.withStack, hasErr)
		})
	}
}
