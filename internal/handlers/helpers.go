package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// pagination reads limit/page query parameters with sane bounds.
func pagination(c echo.Context) (limit, offset int) {
	limit = 20
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	page := 1
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	return limit, (page - 1) * limit
}
