package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"taskboard-service/internal/authz"
	"taskboard-service/pkg/jwtutil"
	"taskboard-service/pkg/logger"
)

// PrincipalKey is the echo context key under which the authenticated
// principal is stored.
const PrincipalKey = "principal"

// JWTAuthMiddleware validates the bearer token and stores the resulting
// principal in the request context. Any verification failure is a 401.
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "missing token"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid authorization header format"})
			}

			claims, err := jwtUtil.Validate(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid or expired token"})
			}

			c.Set(PrincipalKey, authz.Principal{
				UserID:   claims.UserID,
				TenantID: claims.TenantID,
				Role:     claims.Role,
			})

			return next(c)
		}
	}
}

// PrincipalFromEcho returns the principal stored by JWTAuthMiddleware.
func PrincipalFromEcho(c echo.Context) (authz.Principal, bool) {
	p, ok := c.Get(PrincipalKey).(authz.Principal)
	return p, ok
}
