package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/aster/pkg/metrics"
)

// Metrics records request counts and latency per route. Uses the echo route
// pattern rather than the raw URI so path parameters don't explode the label
// cardinality. Register it outermost so errors are already resolved to a
// status code by the time the request is recorded.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			metrics.RecordHTTPRequest(
				c.Request().Method,
				route,
				strconv.Itoa(c.Response().Status),
				time.Since(start).Seconds(),
			)
			return err
		}
	}
}
