package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/furkanakkurt/taskmanager/internal/apperr"
	"github.com/furkanakkurt/taskmanager/internal/services/attachment"
)

// multipartOverhead is allowed on top of the file size for the form
// envelope
const multipartOverhead = 1 << 20

func (s *Server) listAttachments(c *gin.Context) {
	list, err := s.deps.Attachments.ListAttachments(c.Request.Context(), c.Param("id"), owner(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attachments": list})
}

// uploadAttachment takes a multipart form with the file in "file". An
// optional "name" field overrides the stored file name.
func (s *Server) uploadAttachment(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(c, err)
			return
		}
		s.fail(c, apperr.Validationf("multipart field \"file\" is required: %v", err))
		return
	}

	f, err := header.Open()
	if err != nil {
		s.fail(c, err)
		return
	}
	defer f.Close()

	name := c.PostForm("name")
	if name == "" {
		name = header.Filename
	}

	a, err := s.deps.Attachments.Upload(c.Request.Context(), attachment.UploadRequest{
		OwnerID:     owner(c),
		TaskID:      c.Param("id"),
		FileName:    name,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"attachment": a})
}

func (s *Server) getAttachment(c *gin.Context) {
	a, err := s.deps.Attachments.GetAttachment(c.Request.Context(), c.Param("id"), owner(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attachment": a})
}

// attachmentURL mints a fresh URL on every call
func (s *Server) attachmentURL(c *gin.Context) {
	a, err := s.deps.Attachments.GetAttachment(c.Request.Context(), c.Param("id"), owner(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": a.ID, "url": a.URL})
}

func (s *Server) deleteAttachment(c *gin.Context) {
	if err := s.deps.Attachments.DeleteAttachment(c.Request.Context(), c.Param("id"), owner(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
