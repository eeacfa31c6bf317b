package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/furkanakkurt/taskmanager/internal/models"
	"github.com/furkanakkurt/taskmanager/internal/services/project"
)

type projectBody struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Status      *models.ProjectStatus `json:"status"`
}

func (s *Server) listProjects(c *gin.Context) {
	projects, err := s.deps.Projects.ListProjects(c.Request.Context(), owner(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (s *Server) getProject(c *gin.Context) {
	p, err := s.deps.Projects.GetProject(c.Request.Context(), c.Param("id"), owner(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (s *Server) createProject(c *gin.Context) {
	var body projectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}

	req := project.CreateProjectRequest{OwnerID: owner(c)}
	if body.Name != nil {
		req.Name = *body.Name
	}
	if body.Description != nil {
		req.Description = *body.Description
	}
	if body.Status != nil {
		req.Status = *body.Status
	}

	p, err := s.deps.Projects.CreateProject(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": p})
}

func (s *Server) updateProject(c *gin.Context) {
	var body projectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}

	p, err := s.deps.Projects.UpdateProject(c.Request.Context(), project.UpdateProjectRequest{
		ID:          c.Param("id"),
		OwnerID:     owner(c),
		Name:        body.Name,
		Description: body.Description,
		Status:      body.Status,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (s *Server) deleteProject(c *gin.Context) {
	if err := s.deps.Projects.DeleteProject(c.Request.Context(), c.Param("id"), owner(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listProjectTasks(c *gin.Context) {
	tasks, err := s.deps.Projects.ListProjectTasks(c.Request.Context(), c.Param("id"), owner(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (s *Server) projectStats(c *gin.Context) {
	stats, err := s.deps.Projects.GetProjectStats(c.Request.Context(), c.Param("id"), owner(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
