package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/eshop/internal/query"
)

const statusSuccess = "success"

// Response is the envelope of every successful reply.
type Response struct {
	Status         string            `json:"status"`
	Message        string            `json:"message,omitempty"`
	Results        *int              `json:"results,omitempty"`
	Pagination     *query.Pagination `json:"pagination,omitempty"`
	NumOfCartItems *int              `json:"numOfCartItems,omitempty"`
	Token          string            `json:"token,omitempty"`
	Data           any               `json:"data,omitempty"`
}

func respond(c echo.Context, code int, resp Response) error {
	resp.Status = statusSuccess
	return c.JSON(code, resp)
}

func intPtr(n int) *int { return &n }
