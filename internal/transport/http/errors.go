package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/parceltrack/internal/auth"
	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
)

// writeError переводит доменную ошибку в HTTP-ответ. Инфраструктурные ошибки
// логируются и скрываются за сообщением "failed to <operation>".
func writeError(c *gin.Context, logger *log.Entry, operation string, err error) {
	status, body := errorResponse(operation, err)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithFields(log.Fields{
			"operation": operation,
			"path":      c.FullPath(),
		}).Error("request failed")
	}
	c.AbortWithStatusJSON(status, body)
}

func errorResponse(operation string, err error) (int, gin.H) {
	var missing *domain.MissingFieldError
	switch {
	case errors.As(err, &missing):
		return http.StatusBadRequest, gin.H{"error": "validation_failed", "field": missing.Field, "message": err.Error()}
	case domain.IsValidation(err):
		return http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()}
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, auth.ErrSessionNotFound):
		return http.StatusUnauthorized, gin.H{"error": "unauthenticated"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, gin.H{"error": "forbidden"}
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound, gin.H{"error": "not_found", "message": domain.ErrOrderNotFound.Error()}
	case errors.Is(err, domain.ErrTrackingCodeTaken):
		return http.StatusConflict, gin.H{"error": "conflict", "message": domain.ErrTrackingCodeTaken.Error()}
	case errors.Is(err, domain.ErrOrderExists), errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, gin.H{"error": "conflict", "message": err.Error()}
	default:
		return http.StatusInternalServerError, gin.H{"error": "internal", "message": "failed to " + operation}
	}
}
