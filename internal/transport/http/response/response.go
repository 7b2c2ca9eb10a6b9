package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"msgboard/internal/app"
)

// Error bodies are plain text; success bodies are JSON.

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func Error(c *gin.Context, httpStatus int, message string) {
	c.String(httpStatus, message)
}

// ServiceError writes a tagged service error with its own message. Untagged
// errors are unexpected and get the fixed fallback text.
func ServiceError(c *gin.Context, err error, fallback string) {
	svcErr, ok := app.AsError(err)
	if !ok {
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, fallback)
		return
	}
	if svcErr.Kind == app.KindStorage {
		_ = c.Error(err)
	}
	Error(c, StatusFor(svcErr.Kind), svcErr.Message)
}

func StatusFor(kind app.ErrorKind) int {
	switch kind {
	case app.KindInvalidInput:
		return http.StatusBadRequest
	case app.KindNotFound:
		return http.StatusNotFound
	case app.KindDuplicateUsername:
		return http.StatusConflict
	case app.KindInvalidCredentials:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
