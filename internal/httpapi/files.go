package httpapi

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/furkanakkurt/taskmanager/internal/storage"
)

// serveFile answers signed download URLs of the local blob store. The
// signature is the only credential; no bearer token is needed.
func (s *Server) serveFile(c *gin.Context) {
	if s.deps.Files == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, errorBody("NOT_FOUND", "file serving is not enabled"))
		return
	}

	p := strings.TrimPrefix(c.Param("path"), "/")
	if err := s.deps.Files.Verify(p, c.Query("expires"), c.Query("signature")); err != nil {
		code := "INVALID_SIGNATURE"
		switch {
		case errors.Is(err, storage.ErrSignatureExpired):
			code = "URL_EXPIRED"
		case errors.Is(err, storage.ErrInvalidPath):
			code = "INVALID_PATH"
		}
		c.AbortWithStatusJSON(http.StatusForbidden, errorBody(code, err.Error()))
		return
	}

	f, info, err := s.deps.Files.Open(p)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, errorBody("NOT_FOUND", "file not found"))
			return
		}
		s.fail(c, err)
		return
	}
	defer f.Close()

	c.Header("Cache-Control", "private, no-store")
	http.ServeContent(c.Writer, c.Request, path.Base(info.Path), info.ModTime, f)
}
