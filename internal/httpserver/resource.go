package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/eshop/internal/apierror"
	"github.com/Skotchmaster/eshop/internal/query"
	"github.com/Skotchmaster/eshop/internal/repo"
	"github.com/Skotchmaster/eshop/internal/transport"
	"github.com/Skotchmaster/eshop/internal/upload"
	"github.com/Skotchmaster/eshop/pkg/logging"
)

// Resource serves list, read, create, update and delete for one entity.
// C and U are the create and update request bodies.
type Resource[T any, C any, U any] struct {
	Name  string
	Store *repo.Store[T]

	Preloads     []string
	ListPreloads []string
	Images       *upload.Processor

	// Scope returns fixed column filters, e.g. a parent id taken from the path.
	Scope func(c echo.Context) (map[string]any, error)

	Build func(c echo.Context, req *C) (*T, error)
	Apply func(c echo.Context, rec *T, req *U) error

	AfterCreate  func(c echo.Context, rec *T) error
	AfterUpdate  func(c echo.Context, rec *T) error
	BeforeDelete func(c echo.Context, rec *T) error
	AfterDelete  func(c echo.Context, rec *T) error

	// Present rewrites a record just before it is sent.
	Present func(rec *T)
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierror.Wrap(http.StatusBadRequest, "Invalid "+name+": "+raw, err)
	}
	return id, nil
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// bindRequest binds, sanitizes and validates req, storing uploaded images
// first when the request is multipart.
func bindRequest(c echo.Context, req any, images *upload.Processor) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	transport.Sanitize(req)
	if u, ok := req.(transport.Uploadable); ok && images != nil && isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return apierror.Wrap(http.StatusBadRequest, "Invalid multipart form", err)
		}
		names, err := images.Process(form)
		if err != nil {
			return err
		}
		u.ApplyUploads(names)
	}
	return c.Validate(req)
}

func (r *Resource[T, C, U]) scope(c echo.Context) (map[string]any, error) {
	if r.Scope == nil {
		return nil, nil
	}
	return r.Scope(c)
}

func (r *Resource[T, C, U]) present(rec *T) {
	if r.Present != nil {
		r.Present(rec)
	}
}

func (r *Resource[T, C, U]) load(c echo.Context, preloads ...string) (*T, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	where, err := r.scope(c)
	if err != nil {
		return nil, err
	}
	rec, err := r.Store.Get(c.Request().Context(), id, where, preloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.Wrap(http.StatusNotFound, "No "+r.Name+" for this id: "+id.String(), err)
		}
		return nil, err
	}
	return rec, nil
}

func (r *Resource[T, C, U]) GetAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", r.Name+".get_all")

	opts, err := query.Parse(c.QueryParams())
	if err != nil {
		return failed(l, "list", apierror.Wrap(http.StatusBadRequest, err.Error(), err))
	}
	where, err := r.scope(c)
	if err != nil {
		return failed(l, "list", err)
	}

	page, err := r.Store.List(ctx, where, opts, r.ListPreloads...)
	if err != nil {
		return failed(l, "list", err)
	}
	for i := range page.Items {
		r.present(&page.Items[i])
	}

	data, err := query.Project(page.Items, opts.Fields)
	if err != nil {
		return failed(l, "list", err)
	}

	return respond(c, http.StatusOK, Response{
		Results:    intPtr(len(page.Items)),
		Pagination: &page.Pagination,
		Data:       data,
	})
}

func (r *Resource[T, C, U]) GetOne(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", r.Name+".get_one")

	rec, err := r.load(c, r.Preloads...)
	if err != nil {
		return failed(l, "get", err)
	}
	r.present(rec)
	return respond(c, http.StatusOK, Response{Data: rec})
}

func (r *Resource[T, C, U]) CreateOne(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", r.Name+".create")

	req := new(C)
	if err := bindRequest(c, req, r.Images); err != nil {
		return failed(l, "create", err)
	}
	rec, err := r.Build(c, req)
	if err != nil {
		return failed(l, "create", err)
	}
	if err := r.Store.Create(ctx, rec); err != nil {
		return failed(l, "create", err)
	}
	if r.AfterCreate != nil {
		if err := r.AfterCreate(c, rec); err != nil {
			return failed(l, "after_create", err)
		}
	}

	r.present(rec)
	return respond(c, http.StatusCreated, Response{Data: rec})
}

func (r *Resource[T, C, U]) UpdateOne(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", r.Name+".update")

	rec, err := r.load(c)
	if err != nil {
		return failed(l, "update", err)
	}
	req := new(U)
	if err := bindRequest(c, req, r.Images); err != nil {
		return failed(l, "update", err)
	}
	if err := r.Apply(c, rec, req); err != nil {
		return failed(l, "update", err)
	}
	if err := r.Store.Update(ctx, rec); err != nil {
		return failed(l, "update", err)
	}
	if r.AfterUpdate != nil {
		if err := r.AfterUpdate(c, rec); err != nil {
			return failed(l, "after_update", err)
		}
	}

	r.present(rec)
	return respond(c, http.StatusOK, Response{Data: rec})
}

func (r *Resource[T, C, U]) DeleteOne(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", r.Name+".delete")

	rec, err := r.load(c)
	if err != nil {
		return failed(l, "delete", err)
	}
	if r.BeforeDelete != nil {
		if err := r.BeforeDelete(c, rec); err != nil {
			return failed(l, "delete", err)
		}
	}
	if err := r.Store.Delete(ctx, rec); err != nil {
		return failed(l, "delete", err)
	}
	if r.AfterDelete != nil {
		if err := r.AfterDelete(c, rec); err != nil {
			return failed(l, "after_delete", err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}
