// Package handler is the HTTP boundary: bind and validate the request, pull
// the principal out of the context, call the service, and wrap the outcome in
// the `{success, message?, data?}` envelope.
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"taskboard-service/internal/apperror"
	"taskboard-service/internal/authz"
	"taskboard-service/internal/middleware"
)

// ok writes a successful response with data.
func ok(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

// okMessage writes a successful response with a message and optional data.
func okMessage(c echo.Context, status int, message string, data interface{}) error {
	resp := echo.Map{"success": true, "message": message}
	if data != nil {
		resp["data"] = data
	}
	return c.JSON(status, resp)
}

// fail maps a service error onto the envelope.
func fail(c echo.Context, err error) error {
	ae := apperror.From(err)
	return c.JSON(ae.Status, echo.Map{"success": false, "message": ae.Message})
}

// validationError writes a 400 with field-level details.
func validationError(c echo.Context, fields map[string]string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"success": false,
		"message": "validation error",
		"data":    fields,
	})
}

// principal returns the authenticated principal or a 401 response.
func principal(c echo.Context) (authz.Principal, error) {
	p, okP := middleware.PrincipalFromEcho(c)
	if !okP {
		return authz.Principal{}, c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "authentication required"})
	}
	return p, nil
}

// pageParams reads page/limit query parameters; zero means "use default".
func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return page, limit
}

// validEmail is the minimal shape check applied at the boundary; uniqueness
// and existence are the service's business.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}
