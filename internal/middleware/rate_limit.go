package middleware

import (
	"log"
	"net/http"
	"time"

	"tourbase/internal/caching"

	"github.com/labstack/echo/v4"
)

// RateLimit applies a fixed-window per-IP limit backed by Redis. On Redis
// failure the request is allowed through; limiting is protection, not a
// dependency.
func RateLimit(cache caching.CacheService, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			limited, err := cache.IsRateLimited(c.Request().Context(), c.RealIP(), limit, window)
			if err != nil {
				log.Printf("rate limit check failed: %v", err)
				return next(c)
			}
			if limited {
				return echo.NewHTTPError(http.StatusTooManyRequests,
					"too many requests from this IP, please try again later")
			}
			return next(c)
		}
	}
}
