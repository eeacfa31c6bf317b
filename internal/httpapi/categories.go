package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/furkanakkurt/taskmanager/internal/services/category"
)

type categoryBody struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.deps.Categories.ListCategories(c.Request.Context(), owner(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (s *Server) getCategory(c *gin.Context) {
	cat, err := s.deps.Categories.GetCategory(c.Request.Context(), c.Param("id"), owner(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat})
}

func (s *Server) createCategory(c *gin.Context) {
	var body categoryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}

	req := category.CreateCategoryRequest{OwnerID: owner(c)}
	if body.Name != nil {
		req.Name = *body.Name
	}
	if body.Color != nil {
		req.Color = *body.Color
	}

	cat, err := s.deps.Categories.CreateCategory(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": cat})
}

func (s *Server) updateCategory(c *gin.Context) {
	var body categoryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}

	cat, err := s.deps.Categories.UpdateCategory(c.Request.Context(), category.UpdateCategoryRequest{
		ID:      c.Param("id"),
		OwnerID: owner(c),
		Name:    body.Name,
		Color:   body.Color,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat})
}

func (s *Server) deleteCategory(c *gin.Context) {
	if err := s.deps.Categories.DeleteCategory(c.Request.Context(), c.Param("id"), owner(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
