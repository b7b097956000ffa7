package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/konkoor/konkoor-backend/internal/response"
	"github.com/konkoor/konkoor-backend/internal/service"
	"github.com/rs/zerolog"
)

// statusForKind maps a domain error kind to its HTTP status.
func statusForKind(k service.Kind) int {
	switch k {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindConflict:
		return http.StatusConflict
	case service.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// failWithError renders err in the response envelope. Domain errors keep their
// code; anything else is logged and reported as INTERNAL_ERROR.
func failWithError(c *gin.Context, log zerolog.Logger, err error) {
	var de *service.DomainError
	if errors.As(err, &de) {
		response.Fail(c, statusForKind(de.Kind), response.ErrCode(de.Code))
		return
	}

	log.Error().Err(err).
		Str("request_id", response.RequestID(c)).
		Str("route", c.FullPath()).
		Msg("Request failed")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// parseID reads a positive integer path parameter, writing INVALID_ID on failure.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
