package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/eshop/internal/service"
	"github.com/Skotchmaster/eshop/internal/transport"
	"github.com/Skotchmaster/eshop/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup")

	var req transport.SignupRequest
	if err := bindRequest(c, &req, nil); err != nil {
		return failed(l, "signup", err)
	}
	user, token, err := h.Svc.Signup(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return failed(l, "signup", err)
	}
	l.Info("user_signed_up", "user_id", user.ID)
	return respond(c, http.StatusCreated, Response{Data: user, Token: token})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bindRequest(c, &req, nil); err != nil {
		return failed(l, "login", err)
	}
	user, token, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return failed(l, "login", err)
	}
	l.Info("logged_in", "user_id", user.ID)
	return respond(c, http.StatusOK, Response{Message: "Logged in successfully", Data: user, Token: token})
}

func (h *AuthHTTP) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.forgot_password")

	var req transport.ForgotPasswordRequest
	if err := bindRequest(c, &req, nil); err != nil {
		return failed(l, "forgot_password", err)
	}
	if err := h.Svc.ForgotPassword(ctx, req.Email); err != nil {
		return failed(l, "forgot_password", err)
	}
	return respond(c, http.StatusOK, Response{Message: "Reset code sent to email"})
}

func (h *AuthHTTP) VerifyResetCode(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.verify_reset_code")

	var req transport.VerifyResetCodeRequest
	if err := bindRequest(c, &req, nil); err != nil {
		return failed(l, "verify_reset_code", err)
	}
	if err := h.Svc.VerifyResetCode(ctx, req.ResetCode); err != nil {
		return failed(l, "verify_reset_code", err)
	}
	return respond(c, http.StatusOK, Response{})
}

func (h *AuthHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.reset_password")

	var req transport.ResetPasswordRequest
	if err := bindRequest(c, &req, nil); err != nil {
		return failed(l, "reset_password", err)
	}
	token, err := h.Svc.ResetPassword(ctx, req.Email, req.NewPassword)
	if err != nil {
		return failed(l, "reset_password", err)
	}
	return respond(c, http.StatusOK, Response{Token: token})
}
