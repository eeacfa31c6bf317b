package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/furkanakkurt/taskmanager/internal/apperr"
	"github.com/furkanakkurt/taskmanager/internal/services/attachment"
)

func errorBody(code, message string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": message}}
}

// fail writes err with the status of its kind. Unclassified errors are not
// echoed to the client.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	message := "internal error"

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status, code, message = http.StatusBadRequest, "VALIDATION_ERROR", apperr.Message(err)
	case apperr.KindNotFound:
		status, code, message = http.StatusNotFound, "NOT_FOUND", apperr.Message(err)
	case apperr.KindAccess:
		status, code, message = http.StatusForbidden, "ACCESS_ERROR", apperr.Message(err)
	case apperr.KindPartial:
		code, message = "PARTIAL_FAILURE", err.Error()
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, attachment.ErrFileTooLarge) {
		status, code, message = http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "request body exceeds the upload size limit"
	}

	if status >= 500 {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, errorBody(code, message))
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody("BAD_REQUEST", err.Error()))
}
