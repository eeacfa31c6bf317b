package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furkanakkurt/taskmanager/internal/apperr"
	"github.com/furkanakkurt/taskmanager/internal/models"
)

func newFormatter(jsonMode, quiet bool) (*OutputFormatter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &OutputFormatter{JSON: jsonMode, Quiet: quiet, Out: &out, Err: &errOut}, &out, &errOut
}

func TestOutputFormatter_Success(t *testing.T) {
	task := models.Task{ID: "t-1", Title: "Draft plan"}

	t.Run("JSON wraps data under key", func(t *testing.T) {
		f, out, _ := newFormatter(true, false)
		require.NoError(t, f.Success("task", task, nil))

		var got map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, true, got["success"])
		assert.Equal(t, "Draft plan", got["task"].(map[string]any)["title"])
	})

	t.Run("Quiet prints the id", func(t *testing.T) {
		f, out, _ := newFormatter(false, true)
		require.NoError(t, f.Success("task", task, nil))
		assert.Equal(t, "t-1\n", out.String())
	})

	t.Run("Quiet prints every id of a slice", func(t *testing.T) {
		f, out, _ := newFormatter(false, true)
		projects := []models.Project{{ID: "p-2"}, {ID: "p-1"}}
		require.NoError(t, f.Success("projects", projects, nil))
		assert.Equal(t, "p-2\np-1\n", out.String())
	})

	t.Run("Quiet ignores data without ids", func(t *testing.T) {
		f, out, _ := newFormatter(false, true)
		require.NoError(t, f.Success("count", 3, nil))
		assert.Empty(t, out.String())
	})

	t.Run("Human uses the callback", func(t *testing.T) {
		f, out, _ := newFormatter(false, false)
		require.NoError(t, f.Success("task", task, func(w io.Writer) {
			fmt.Fprintln(w, "created", task.Title)
		}))
		assert.Equal(t, "created Draft plan\n", out.String())
	})
}

func TestOutputFormatter_Error(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		f, out, errOut := newFormatter(true, false)
		require.NoError(t, f.ErrorWithSuggestion("NOT_FOUND", "task not found", "run task list"))

		var got map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, false, got["success"])
		errData := got["error"].(map[string]any)
		assert.Equal(t, "NOT_FOUND", errData["code"])
		assert.Equal(t, "task not found", errData["message"])
		assert.Equal(t, "run task list", errData["suggestion"])
		assert.Empty(t, errOut.String())
	})

	t.Run("Human goes to stderr", func(t *testing.T) {
		f, out, errOut := newFormatter(false, false)
		require.NoError(t, f.Error("NOT_FOUND", "task not found"))
		assert.Empty(t, out.String())
		assert.Contains(t, errOut.String(), "task not found")
		assert.NotContains(t, errOut.String(), "Hint")
	})
}

func TestOutputFormatter_Fail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     int
		jsonCode string
	}{
		{"validation", apperr.Validation("title is required"), ExitValidation, "VALIDATION_ERROR"},
		{"not found", apperr.NotFound("get task", "task"), ExitNotFound, "NOT_FOUND"},
		{"access", apperr.Access("list tasks", errors.New("connection refused")), ExitError, "ACCESS_ERROR"},
		{"partial", &apperr.PartialError{Op: "upload", Path: "alice/t/a.txt", BlobLeaked: true, Err: errors.New("insert failed")}, ExitError, "PARTIAL_FAILURE"},
		{"unclassified", errors.New("boom"), ExitError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, out, _ := newFormatter(true, false)
			err := f.Fail(tt.err)

			var exitErr *ExitCodeError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, tt.code, exitErr.Code)
			assert.ErrorIs(t, err, tt.err)

			var got map[string]any
			require.NoError(t, json.Unmarshal(out.Bytes(), &got))
			assert.Equal(t, tt.jsonCode, got["error"].(map[string]any)["code"])
		})
	}
}

func TestOutputFormatter_FailPartialSuggestion(t *testing.T) {
	f, _, errOut := newFormatter(false, false)
	_ = f.Fail(&apperr.PartialError{Op: "upload", Path: "alice/t/a.txt", BlobLeaked: true, Err: errors.New("insert failed")})
	assert.Contains(t, errOut.String(), "alice/t/a.txt")
	assert.Contains(t, errOut.String(), "sweeper")
}

func TestOutputFormatter_Usage(t *testing.T) {
	f, _, errOut := newFormatter(false, false)
	err := f.Usage(ErrNoOwner, OwnerSuggestion)
	assert.Equal(t, ExitUsage, ExitCodeFor(err))
	assert.Contains(t, errOut.String(), "no user configured")
	assert.Contains(t, errOut.String(), "--user")
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCodeFor(nil))
	assert.Equal(t, ExitDataErr, ExitCodeFor(fmt.Errorf("wrapped: %w", &ExitCodeError{Code: ExitDataErr, Err: errors.New("bad file")})))
	assert.Equal(t, ExitValidation, ExitCodeFor(fmt.Errorf("create: %w", apperr.Validation("bad"))))
	assert.Equal(t, ExitNotFound, ExitCodeFor(apperr.NotFound("delete", "project")))
	assert.Equal(t, ExitError, ExitCodeFor(errors.New("boom")))
}
