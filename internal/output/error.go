package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// ErrorOutput represents a structured error for JSON output.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	ExitCode   int               `json:"exit_code"`
}

// FormatError formats an error for display.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}

	if format == FormatJSON {
		return formatErrorJSON(w, err)
	}
	return formatErrorText(w, err)
}

func formatErrorJSON(w io.Writer, err error) error {
	var be *hberr.BridgeError
	if errors.As(err, &be) {
		output := ErrorOutput{
			Error: ErrorDetail{
				Code:       be.Code,
				Message:    be.Message,
				Details:    be.Details,
				Suggestion: be.Suggestion,
				ExitCode:   be.ExitCode,
			},
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	}

	output := ErrorOutput{
		Error: ErrorDetail{
			Code:     "GENERAL_ERROR",
			Message:  err.Error(),
			ExitCode: hberr.ExitGeneral,
		},
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func formatErrorText(w io.Writer, err error) error {
	var sb strings.Builder

	var be *hberr.BridgeError
	if errors.As(err, &be) {
		sb.WriteString(fmt.Sprintf("Error: %s\n", be.Message))

		if len(be.Details) > 0 {
			sb.WriteString("\nDetails:\n")
			for k, v := range be.Details {
				sb.WriteString(fmt.Sprintf("  %s: %s\n", k, v))
			}
		}

		if be.Suggestion != "" {
			sb.WriteString(fmt.Sprintf("\nSuggestion: %s\n", be.Suggestion))
		}
	} else {
		sb.WriteString(fmt.Sprintf("Error: %s\n", err.Error()))
	}

	_, writeErr := w.Write([]byte(sb.String()))
	return writeErr
}

// FormatSuccess formats a success message.
func FormatSuccess(w io.Writer, message string, format Format) error {
	if format == FormatJSON {
		output := map[string]string{"status": "success", "message": message}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	}
	_, err := fmt.Fprintln(w, message)
	return err
}
