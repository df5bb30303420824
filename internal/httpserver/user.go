package httpserver

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/query"
	"github.com/Skotchmaster/eshop/internal/repo"
	"github.com/Skotchmaster/eshop/internal/service"
	"github.com/Skotchmaster/eshop/internal/transport"
	"github.com/Skotchmaster/eshop/internal/upload"
	"github.com/Skotchmaster/eshop/pkg/logging"
)

type UserHTTP struct {
	Auth    *service.AuthService
	Users   *service.UserService
	Present func(*models.User)
}

func (d *Deps) presentUser(u *models.User) {
	if u.ProfileImg != "" {
		u.ProfileImg = upload.URL(d.BaseURL, "users", u.ProfileImg)
	}
}

func (d *Deps) userResource() *Resource[models.User, transport.CreateUserRequest, transport.UpdateUserRequest] {
	return &Resource[models.User, transport.CreateUserRequest, transport.UpdateUserRequest]{
		Name:   "user",
		Store:  &repo.Store[models.User]{DB: d.DB, Spec: query.MustSpec(&models.User{}, "name", "email")},
		Images: d.images("users", "user", 600, 600, upload.Field{Name: "profileImg", MaxCount: 1}),
		Build: func(c echo.Context, req *transport.CreateUserRequest) (*models.User, error) {
			role := models.Role(req.Role)
			if role == "" {
				role = models.RoleUser
			}
			if err := d.Users.CheckEmail(c.Request().Context(), req.Email, uuid.Nil); err != nil {
				return nil, err
			}
			u, err := service.NewUser(req.Name, req.Email, req.Password, req.Phone, role)
			if err != nil {
				return nil, err
			}
			u.ProfileImg = req.ProfileImg
			return u, nil
		},
		Apply: func(c echo.Context, u *models.User, req *transport.UpdateUserRequest) error {
			if req.Name != nil {
				u.Name = *req.Name
				u.Slug = service.Slug(*req.Name)
			}
			if req.Email != nil {
				email := strings.ToLower(strings.TrimSpace(*req.Email))
				if err := d.Users.CheckEmail(c.Request().Context(), email, u.ID); err != nil {
					return err
				}
				u.Email = email
			}
			if req.Phone != nil {
				u.Phone = *req.Phone
			}
			if req.ProfileImg != nil {
				u.ProfileImg = *req.ProfileImg
			}
			if req.Role != nil {
				u.Role = models.Role(*req.Role)
			}
			return nil
		},
		Present: d.presentUser,
	}
}

func (h *UserHTTP) present(u *models.User) *models.User {
	if h.Present != nil {
		h.Present(u)
	}
	return u
}

func (h *UserHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.change_password")

	id, err := parseID(c, "id")
	if err != nil {
		return failed(l, "change_password", err)
	}
	var req transport.ChangePasswordRequest
	if err := bindRequest(c, &req, nil); err != nil {
		return failed(l, "change_password", err)
	}
	user, err := h.Auth.ChangePassword(ctx, id, req.Password)
	if err != nil {
		return failed(l, "change_password", err)
	}
	return respond(c, http.StatusOK, Response{Data: h.present(user)})
}

func (h *UserHTTP) GetMe(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "user.get_me")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "get_me", err)
	}
	me := *user
	return respond(c, http.StatusOK, Response{Data: h.present(&me)})
}

func (h *UserHTTP) ChangeMyPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.change_my_password")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "change_my_password", err)
	}
	var req transport.ChangeMyPasswordRequest
	if err := bindRequest(c, &req, nil); err != nil {
		return failed(l, "change_my_password", err)
	}
	token, err := h.Auth.ChangeMyPassword(ctx, user, req.CurrentPassword, req.Password)
	if err != nil {
		return failed(l, "change_my_password", err)
	}
	return respond(c, http.StatusOK, Response{Token: token})
}

func (h *UserHTTP) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_me")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "update_me", err)
	}
	var req transport.UpdateMeRequest
	if err := bindRequest(c, &req, nil); err != nil {
		return failed(l, "update_me", err)
	}
	updated, err := h.Users.UpdateMe(ctx, user.ID, service.ProfileUpdate{Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		return failed(l, "update_me", err)
	}
	return respond(c, http.StatusOK, Response{Data: h.present(updated)})
}

func (h *UserHTTP) DeleteMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete_me")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "delete_me", err)
	}
	if err := h.Users.Deactivate(ctx, user.ID); err != nil {
		return failed(l, "delete_me", err)
	}
	l.Info("user_deactivated", "user_id", user.ID)
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHTTP) RequestActivation(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.request_activation")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "request_activation", err)
	}
	if err := h.Users.RequestActivation(ctx, user); err != nil {
		return failed(l, "request_activation", err)
	}
	return respond(c, http.StatusOK, Response{Message: "Activation code sent to email"})
}

func (h *UserHTTP) ActivateMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.activate_me")

	user, err := currentUser(c)
	if err != nil {
		return failed(l, "activate_me", err)
	}
	var req transport.ActivateRequest
	if err := bindRequest(c, &req, nil); err != nil {
		return failed(l, "activate_me", err)
	}
	activated, err := h.Users.Activate(ctx, user, req.Code)
	if err != nil {
		return failed(l, "activate_me", err)
	}
	return respond(c, http.StatusOK, Response{Message: "Account activated", Data: h.present(activated)})
}
