package middleware

import (
	"errors"
	"net/http"

	"e-courier/internal/models"
	"e-courier/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTAuth configures and returns Echo's JWT middleware. On success the
// actor's id and role are stashed into the context for the handlers.
func JWTAuth(jwtSecretKey string) echo.MiddlewareFunc {
	config := echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(models.JwtCustomClaims)
		},
		SigningKey: []byte(jwtSecretKey),
		SuccessHandler: func(c echo.Context) {
			userToken := c.Get("user").(*jwt.Token)
			claims := userToken.Claims.(*models.JwtCustomClaims)

			c.Set("userID", claims.UserID)
			c.Set("userRole", claims.Role)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			c.Logger().Errorf("JWT error: %v", err)

			if errors.Is(err, echojwt.ErrJWTMissing) {
				return utils.RespondWithError(c, http.StatusUnauthorized, "Missing or malformed JWT")
			}
			if errors.Is(err, jwt.ErrTokenExpired) {
				return utils.RespondWithError(c, http.StatusUnauthorized, "Token has expired")
			}
			if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
				return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid token signature")
			}
			return utils.RespondWithError(c, http.StatusUnauthorized, "Invalid or expired JWT")
		},
	}
	return echojwt.WithConfig(config)
}

// RoleRequired restricts a route to the given roles. It must run after
// JWTAuth so the role is already in the context.
func RoleRequired(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("userRole").(string)
			if _, ok := allowed[role]; !ok {
				return utils.RespondWithError(c, http.StatusForbidden, "Access denied")
			}
			return next(c)
		}
	}
}
