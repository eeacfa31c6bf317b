package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/furkanakkurt/taskmanager/internal/apperr"
	"github.com/furkanakkurt/taskmanager/internal/models"
	"github.com/furkanakkurt/taskmanager/internal/services/task"
)

type createTaskBody struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	CategoryID  *string             `json:"category_id"`
	ProjectID   *string             `json:"project_id"`
}

type updateTaskBody struct {
	Title         *string              `json:"title"`
	Description   *string              `json:"description"`
	Status        *models.TaskStatus   `json:"status"`
	Priority      *models.TaskPriority `json:"priority"`
	DueDate       *time.Time           `json:"due_date"`
	CategoryID    *string              `json:"category_id"`
	ProjectID     *string              `json:"project_id"`
	ClearDueDate  bool                 `json:"clear_due_date"`
	ClearCategory bool                 `json:"clear_category"`
	ClearProject  bool                 `json:"clear_project"`
}

func (s *Server) listTasks(c *gin.Context) {
	filter := task.ListFilter{
		CategoryID: c.Query("category_id"),
		ProjectID:  c.Query("project_id"),
		Status:     models.TaskStatus(c.Query("status")),
		Priority:   models.TaskPriority(c.Query("priority")),
		Search:     c.Query("search"),
	}
	var err error
	if filter.DueAfter, err = queryTime(c, "due_after"); err != nil {
		s.fail(c, err)
		return
	}
	if filter.DueBefore, err = queryTime(c, "due_before"); err != nil {
		s.fail(c, err)
		return
	}

	tasks, err := s.deps.Tasks.ListTasks(c.Request.Context(), owner(c), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (s *Server) getTask(c *gin.Context) {
	t, err := s.deps.Tasks.GetTask(c.Request.Context(), c.Param("id"), owner(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

func (s *Server) createTask(c *gin.Context) {
	var body createTaskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}

	t, err := s.deps.Tasks.CreateTask(c.Request.Context(), task.CreateTaskRequest{
		OwnerID:     owner(c),
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
		Priority:    body.Priority,
		DueDate:     body.DueDate,
		CategoryID:  body.CategoryID,
		ProjectID:   body.ProjectID,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": t})
}

func (s *Server) updateTask(c *gin.Context) {
	var body updateTaskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}

	t, err := s.deps.Tasks.UpdateTask(c.Request.Context(), task.UpdateTaskRequest{
		ID:            c.Param("id"),
		OwnerID:       owner(c),
		Title:         body.Title,
		Description:   body.Description,
		Status:        body.Status,
		Priority:      body.Priority,
		DueDate:       body.DueDate,
		CategoryID:    body.CategoryID,
		ProjectID:     body.ProjectID,
		ClearDueDate:  body.ClearDueDate,
		ClearCategory: body.ClearCategory,
		ClearProject:  body.ClearProject,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

func (s *Server) updateTaskStatus(c *gin.Context) {
	var body struct {
		Status models.TaskStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}

	t, err := s.deps.Tasks.UpdateTaskStatus(c.Request.Context(), c.Param("id"), owner(c), body.Status)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

func (s *Server) deleteTask(c *gin.Context) {
	if err := s.deps.Tasks.DeleteTask(c.Request.Context(), c.Param("id"), owner(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// queryTime parses an optional RFC 3339 or YYYY-MM-DD query parameter
func queryTime(c *gin.Context, name string) (*time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperr.Validationf("invalid %s %q (use RFC 3339 or YYYY-MM-DD)", name, v)
}
