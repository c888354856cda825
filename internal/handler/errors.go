package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/tasktracker/backend/internal/logutil"
	"github.com/tasktracker/backend/internal/model"
	"github.com/tasktracker/backend/internal/service"
)

// writeError maps a service error kind to its status code. Only errors of a
// known kind have their message shown; everything else is logged and reported
// as a generic server error.
func writeError(c *gin.Context, err error) {
	status, message := classifyError(err)
	if status >= http.StatusInternalServerError {
		log := logutil.GetOrDefault(c.Request.Context())
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, model.ErrorResponse{Error: message})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrMissingToken):
		return http.StatusUnauthorized, "unauthorized request"
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "server error"
	}
}

// bindError turns a gin binding failure into an ErrInvalidInput with a message
// that names the JSON field instead of the Go struct field.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describeField(fe))
		}
		return fmt.Errorf("%w: %s", service.ErrInvalidInput, strings.Join(msgs, "; "))
	}
	if strings.Contains(err.Error(), "unknown field") {
		return fmt.Errorf("%w: %s", service.ErrInvalidInput, strings.TrimPrefix(err.Error(), "json: "))
	}
	return fmt.Errorf("%w: malformed request body", service.ErrInvalidInput)
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	default:
		return fe.Field() + " is invalid"
	}
}
