package utils

import (
	"errors"
	"net/http"

	"e-courier/internal/models"

	"github.com/labstack/echo/v4"
)

// Envelope is the uniform response body: {success, data?, message?}.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// RespondWithJSON writes a success envelope around the given payload.
func RespondWithJSON(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

// RespondWithMessage writes a success envelope carrying only a message.
func RespondWithMessage(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: true, Message: message})
}

// RespondWithError writes a failure envelope with the given message.
func RespondWithError(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: false, Message: message})
}

// HandleServiceError maps service-layer errors onto HTTP responses.
// Business-rule violations keep their message; anything unexpected is
// logged and returned as a generic 500 so internals never leak.
func HandleServiceError(c echo.Context, err error) error {
	var validationErr *models.ValidationError
	var conflictErr *models.ConflictError

	switch {
	case errors.Is(err, models.ErrNotFound):
		return RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrAccessDenied):
		return RespondWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		return RespondWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrNoRouteRule),
		errors.Is(err, models.ErrDuplicateRule),
		errors.Is(err, models.ErrPhoneInUse):
		return RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &validationErr):
		return RespondWithError(c, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &conflictErr):
		return RespondWithError(c, http.StatusBadRequest, conflictErr.Message)
	default:
		c.Logger().Errorf("unexpected service error: %v", err)
		return RespondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
