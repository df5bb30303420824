package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/eshop/internal/apierror"
	"github.com/Skotchmaster/eshop/internal/query"
	"github.com/Skotchmaster/eshop/internal/service"
	"github.com/Skotchmaster/eshop/internal/transport"
	"github.com/Skotchmaster/eshop/internal/upload"
	"github.com/Skotchmaster/eshop/pkg/tokens"
)

const msgUnexpected = "Something went wrong! Please try again later."

var tokenErrors = []error{
	jwt.ErrTokenMalformed,
	jwt.ErrTokenSignatureInvalid,
	jwt.ErrTokenUnverifiable,
	jwt.ErrTokenNotValidYet,
	jwt.ErrTokenInvalidClaims,
	tokens.ErrUnexpectedMethod,
}

func serviceStatus(kind error) int {
	switch kind {
	case service.ErrValidation:
		return http.StatusBadRequest
	case service.ErrUnauthorized:
		return http.StatusUnauthorized
	case service.ErrForbidden:
		return http.StatusForbidden
	case service.ErrNotFound:
		return http.StatusNotFound
	case service.ErrConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// classify maps any handler error to the operational error shown to the
// client. Unknown errors keep their text only when verbose is set.
func classify(err error, path string, verbose bool) *apierror.Error {
	var ae *apierror.Error
	if errors.As(err, &ae) {
		return ae
	}
	var se *service.Error
	if errors.As(err, &se) {
		return apierror.Wrap(serviceStatus(se.Kind), se.Message, se.Err)
	}
	if err == echo.ErrNotFound || err == echo.ErrMethodNotAllowed {
		return apierror.NotFound(fmt.Sprintf("Can't find %s on this server!", path))
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return apierror.Wrap(he.Code, fmt.Sprint(he.Message), he.Internal)
	}
	if msg, ok := transport.Message(err); ok {
		return apierror.Wrap(http.StatusBadRequest, msg, err)
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierror.Wrap(http.StatusNotFound, "No document found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apierror.Wrap(http.StatusConflict, "Duplicate field value. Please use another value.", err)
	case errors.Is(err, query.ErrBadOperator):
		return apierror.Wrap(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, upload.ErrNotImage):
		return apierror.Wrap(http.StatusBadRequest, "Only images allowed", err)
	case errors.Is(err, upload.ErrTooManyFiles):
		return apierror.Wrap(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return apierror.Wrap(http.StatusUnauthorized, "Expired token, please log in again.", err)
	}
	for _, te := range tokenErrors {
		if errors.Is(err, te) {
			return apierror.Wrap(http.StatusUnauthorized, "Invalid token, please log in again.", err)
		}
	}

	if verbose {
		return apierror.Internal(err.Error(), err)
	}
	return apierror.Internal(msgUnexpected, err)
}

func statusOf(err error) int {
	return classify(err, "", false).Code
}

// ErrorHandler renders errors as {status, message}. In development the raw
// error and its stack are added.
func ErrorHandler(development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		ae := classify(err, c.Request().URL.Path, development)

		body := map[string]any{
			"status":  ae.Status(),
			"message": ae.Message,
		}
		if development {
			body["error"] = err.Error()
			body["stack"] = fmt.Sprintf("%+v", err)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(ae.Code)
			return
		}
		_ = c.JSON(ae.Code, body)
	}
}

// failed logs a handler failure at a level matching its status and returns
// err unchanged for the error handler.
func failed(l *slog.Logger, op string, err error) error {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		l.Error(op+"_failed", "status", code, "error", err)
	} else {
		l.Warn(op+"_failed", "status", code, "error", err)
	}
	return err
}
