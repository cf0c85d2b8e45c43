package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// problemDetails mirrors handler.ProblemDetails for responses written
// before a request reaches a handler
type problemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Code     string `json:"code"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeProblem(c echo.Context, status int, slug, title, code, detail string) error {
	return c.JSON(status, problemDetails{
		Type:     "https://ledger.horologium.shop/errors/" + slug,
		Title:    title,
		Status:   status,
		Code:     code,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

func unauthorizedError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusUnauthorized, "unauthorized", "Unauthorized", "UNAUTHORIZED", detail)
}

func rateLimitError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusTooManyRequests, "rate-limit", "Rate Limit Exceeded", "RATE_LIMITED", detail)
}
