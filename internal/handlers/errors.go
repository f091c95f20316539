package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/synesthesie/catalog/internal/services"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch services.KindOf(err) {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindAlreadyExists:
		return http.StatusConflict
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindUpstream:
		if errors.Is(err, services.ErrMediaHost) {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := "internal server error"
	var se *services.Error
	if errors.As(err, &se) {
		message = se.Message
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"message": message,
		"status":  "error",
	})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"message": message,
		"status":  "error",
	})
}

// NoRoute answers every unmatched route.
func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"message": "Not Found - " + c.Request.URL.Path,
		"status":  "error",
	})
}
