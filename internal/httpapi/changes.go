package httpapi

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/furkanakkurt/taskmanager/internal/events"
	"github.com/furkanakkurt/taskmanager/internal/models"
)

// pingInterval keeps idle streams open through proxies
const pingInterval = 15 * time.Second

var streamTables = map[string]string{
	"tasks":            models.TableTasks,
	"projects":         models.TableProjects,
	"categories":       models.TableCategories,
	"attachments":      models.TableAttachments,
	"task_attachments": models.TableAttachments,
}

// streamChanges relays the owner's changes to one table as Server-Sent
// Events. A "ready" event is sent once the subscription is active, then one
// "change" event per committed row change.
func (s *Server) streamChanges(c *gin.Context) {
	if s.deps.Subscriber == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorBody("LIVE_DISABLED", "live updates are not enabled"))
		return
	}

	table, ok := streamTables[c.Query("table")]
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody("VALIDATION_ERROR", "table must be one of tasks, projects, categories, attachments"))
		return
	}

	target := events.Subscription{Table: table, OwnerID: owner(c)}
	if column, value := c.Query("column"), c.Query("value"); column != "" || value != "" {
		target.Filter = &events.Filter{Column: column, Value: value}
	}
	if err := target.Validate(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody("VALIDATION_ERROR", err.Error()))
		return
	}

	ctx := c.Request.Context()
	stream, err := s.deps.Subscriber.Subscribe(ctx, target)
	if err != nil {
		s.logger.Warn("change subscription failed", "subscription", target.String(), "error", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorBody("LIVE_UNAVAILABLE", "change stream is unavailable"))
		return
	}
	defer stream.Close()

	// streams outlive the server write timeout
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("ready", gin.H{"subscription": target.String()})
	c.Writer.Flush()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case change, ok := <-stream.Changes():
			if !ok {
				return false
			}
			c.SSEvent("change", change)
			return true
		case <-ping.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
