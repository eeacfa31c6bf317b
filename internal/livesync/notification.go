package livesync

import (
	"fmt"
	"time"

	"github.com/furkanakkurt/taskmanager/internal/models"
)

// Severity of a notification
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Notification is a short message shown when a pushed change arrives
type Notification struct {
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

var actions = map[Kind]string{
	Insert: "created",
	Update: "updated",
	Delete: "deleted",
}

// TaskNotification describes a task event, for example
// `Task "Write report" has been created`. Deletes are warnings.
func TaskNotification(ev Event[models.Task], at time.Time) Notification {
	task := ev.New
	if ev.Kind == Delete {
		task = ev.Old
	}

	severity := SeveritySuccess
	if ev.Kind == Delete {
		severity = SeverityWarning
	}

	return Notification{
		Message:   fmt.Sprintf("Task %q has been %s", task.Title, actions[ev.Kind]),
		Severity:  severity,
		Timestamp: at,
	}
}

// ProjectNotification describes a project event the way TaskNotification
// describes a task event
func ProjectNotification(ev Event[models.Project], at time.Time) Notification {
	project := ev.New
	severity := SeverityInfo
	if ev.Kind == Delete {
		project = ev.Old
		severity = SeverityWarning
	}

	return Notification{
		Message:   fmt.Sprintf("Project %q has been %s", project.Name, actions[ev.Kind]),
		Severity:  severity,
		Timestamp: at,
	}
}
