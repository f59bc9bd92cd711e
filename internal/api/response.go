package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Harsh-Singh007/grabit/internal/service"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type body map[string]interface{}

func success(c echo.Context, code int, message string, fields body) error {
	resp := body{"success": true}
	if message != "" {
		resp["message"] = message
	}
	for k, v := range fields {
		resp[k] = v
	}
	return c.JSON(code, resp)
}

func fail(c echo.Context, code int, message string) error {
	return c.JSON(code, body{"success": false, "message": message})
}

func badRequest(c echo.Context) error {
	return fail(c, http.StatusBadRequest, "Invalid request payload")
}

// respondError converts a service failure into its HTTP response. Anything
// that is not a *service.Error is logged and answered with a 500.
func respondError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrNotVerified) {
		return c.JSON(http.StatusForbidden, body{"success": false, "message": service.ErrNotVerified.Message, "notVerified": true})
	}

	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		logger.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
		return fail(c, http.StatusInternalServerError, "Internal server error")
	}

	switch {
	case errors.Is(svcErr.Kind, service.ErrInvalidInput):
		return fail(c, http.StatusBadRequest, svcErr.Message)
	case errors.Is(svcErr.Kind, service.ErrAuthentication):
		return fail(c, http.StatusUnauthorized, svcErr.Message)
	case errors.Is(svcErr.Kind, service.ErrUnauthorized):
		return fail(c, http.StatusForbidden, svcErr.Message)
	case errors.Is(svcErr.Kind, service.ErrNotFound):
		return fail(c, http.StatusNotFound, svcErr.Message)
	case errors.Is(svcErr.Kind, service.ErrConflict):
		return fail(c, http.StatusConflict, svcErr.Message)
	}
	return fail(c, http.StatusInternalServerError, "Internal server error")
}
