package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/civic-report/internal/application"
	"github.com/oksasatya/civic-report/internal/domain/entity"
	"github.com/oksasatya/civic-report/internal/interface/middleware"
	"github.com/oksasatya/civic-report/pkg/helpers"
	"github.com/oksasatya/civic-report/pkg/response"
	"github.com/oksasatya/civic-report/pkg/validation"
)

// fail maps a service error onto the response envelope.
func fail(c *gin.Context, logger *logrus.Logger, err error) {
	var (
		verr *application.ValidationError
		nerr *application.NotFoundError
		ferr *application.ForbiddenError
		cerr *application.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		response.Error[any](c, http.StatusUnprocessableEntity, "validation failed", verr.Fields)
	case errors.As(err, &nerr):
		response.Error[any](c, http.StatusNotFound, nerr.Error(), nil)
	case errors.As(err, &ferr):
		response.Error[any](c, http.StatusForbidden, ferr.Error(), nil)
	case errors.As(err, &cerr):
		var details any
		if cerr.Field != "" {
			details = map[string]string{cerr.Field: cerr.Reason}
		}
		response.Error[any](c, http.StatusConflict, cerr.Reason, details)
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Error[any](c, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, application.ErrInvalidToken):
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, application.ErrSearchUnavailable):
		response.Error[any](c, http.StatusServiceUnavailable, err.Error(), nil)
	default:
		if logger != nil {
			helpers.LogError(logger, "request failed", err, logrus.Fields{
				"request_id": c.GetString("request_id"),
				"path":       c.FullPath(),
			})
		}
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}

func badPayload(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

// actor builds the explicit caller identity from what Auth put in the context.
func actor(c *gin.Context) application.Actor {
	return application.Actor{
		ID:   c.GetString(middleware.CtxUserIDKey),
		Role: entity.Role(c.GetString(middleware.CtxUserRoleKey)),
	}
}

// int64Param parses a positive path parameter. A bad value is answered with 404.
func int64Param(c *gin.Context, name, resource string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusNotFound, resource+" "+c.Param(name)+" not found", nil)
		return 0, false
	}
	return id, true
}
