package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/furkanakkurt/taskmanager/internal/apperr"
	"github.com/furkanakkurt/taskmanager/internal/cli/styles"
)

// OutputFormatter handles three output modes: JSON, quiet, and human-readable
type OutputFormatter struct {
	JSON  bool
	Quiet bool

	// Out and Err default to os.Stdout and os.Stderr
	Out io.Writer
	Err io.Writer
}

func (f *OutputFormatter) out() io.Writer {
	if f.Out != nil {
		return f.Out
	}
	return os.Stdout
}

func (f *OutputFormatter) errOut() io.Writer {
	if f.Err != nil {
		return f.Err
	}
	return os.Stderr
}

// Success outputs successful operation result. key names the JSON member
// holding data; human prints the human-readable form.
func (f *OutputFormatter) Success(key string, data any, human func(w io.Writer)) error {
	if f.Quiet {
		f.printIDs(data)
		return nil
	}

	if f.JSON {
		return json.NewEncoder(f.out()).Encode(map[string]any{
			"success": true,
			key:       data,
		})
	}

	if human != nil {
		human(f.out())
		return nil
	}
	_, err := fmt.Fprintf(f.out(), "%+v\n", data)
	return err
}

type identified interface{ EntityID() string }

// printIDs prints the id of data, or of each element when data is a slice
func (f *OutputFormatter) printIDs(data any) {
	if v, ok := data.(identified); ok {
		fmt.Fprintln(f.out(), v.EntityID())
		return
	}

	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice {
		return
	}
	for i := 0; i < rv.Len(); i++ {
		if v, ok := rv.Index(i).Interface().(identified); ok {
			fmt.Fprintln(f.out(), v.EntityID())
		}
	}
}

// Error outputs error information
func (f *OutputFormatter) Error(code string, message string) error {
	return f.ErrorWithSuggestion(code, message, "")
}

// ErrorWithSuggestion outputs error information with an optional suggestion
func (f *OutputFormatter) ErrorWithSuggestion(code string, message string, suggestion string) error {
	if f.JSON {
		errData := map[string]any{
			"code":    code,
			"message": message,
		}
		if suggestion != "" {
			errData["suggestion"] = suggestion
		}
		return json.NewEncoder(f.out()).Encode(map[string]any{
			"success": false,
			"error":   errData,
		})
	}

	// Human-readable error
	fmt.Fprintf(f.errOut(), "%s %s\n", styles.ErrorStyle.Render("Error"), message)
	if suggestion != "" {
		fmt.Fprintf(f.errOut(), "%s %s\n", styles.WarningStyle.Render("Hint"), suggestion)
	}
	return nil
}

// Fail prints err and returns it wrapped with its exit code
func (f *OutputFormatter) Fail(err error) error {
	return f.FailWithSuggestion(err, suggestionFor(err))
}

// FailWithSuggestion is Fail with an explicit hint
func (f *OutputFormatter) FailWithSuggestion(err error, suggestion string) error {
	_ = f.ErrorWithSuggestion(errorCode(err), apperr.Message(err), suggestion)
	return &ExitCodeError{Code: ExitCodeFor(err), Err: err}
}

// Usage prints a usage problem and returns an ExitUsage error
func (f *OutputFormatter) Usage(err error, suggestion string) error {
	_ = f.ErrorWithSuggestion("USAGE_ERROR", err.Error(), suggestion)
	return &ExitCodeError{Code: ExitUsage, Err: err}
}

func suggestionFor(err error) string {
	var partial *apperr.PartialError
	if errors.As(err, &partial) {
		if partial.BlobLeaked {
			return fmt.Sprintf("the file at %s was not cleaned up; the orphan sweeper will remove it", partial.Path)
		}
		return "the attachment record is still listed; run the delete again"
	}
	if apperr.KindOf(err) == apperr.KindAccess {
		return "check that the database and blob store are reachable"
	}
	return ""
}
