package livesync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/furkanakkurt/taskmanager/internal/models"
)

func TestNotifications(t *testing.T) {
	created := TaskNotification(Created(models.Task{ID: "t-1", Title: "Write report"}), base)
	assert.Equal(t, `Task "Write report" has been created`, created.Message)
	assert.Equal(t, SeveritySuccess, created.Severity)
	assert.Equal(t, base, created.Timestamp)

	deleted := TaskNotification(Deleted(models.Task{ID: "t-1", Title: "Write report"}), base)
	assert.Equal(t, `Task "Write report" has been deleted`, deleted.Message)
	assert.Equal(t, SeverityWarning, deleted.Severity)

	updated := ProjectNotification(Updated(models.Project{ID: "p-1", Name: "Launch"}), base)
	assert.Equal(t, `Project "Launch" has been updated`, updated.Message)
	assert.Equal(t, SeverityInfo, updated.Severity)

	gone := ProjectNotification(Deleted(models.Project{ID: "p-1", Name: "Launch"}), base)
	assert.Equal(t, `Project "Launch" has been deleted`, gone.Message)
	assert.Equal(t, SeverityWarning, gone.Severity)
}
