package model

import (
	"fmt"
	"strings"
)

// ErrorCode is the stable taxonomy of import failures.
type ErrorCode string

const (
	ErrFileTooLarge      ErrorCode = "FILE_TOO_LARGE"
	ErrInvalidFormat     ErrorCode = "INVALID_FORMAT"
	ErrMissingElements   ErrorCode = "MISSING_ELEMENTS"
	ErrDuplicate         ErrorCode = "DUPLICATE"
	ErrNamespaceConflict ErrorCode = "NAMESPACE_CONFLICT"
	ErrParse             ErrorCode = "PARSE_ERROR"
)

// messages holds the templates for each error code. {arg} is replaced by the
// size, detail list or element names.
var messages = map[ErrorCode]string{
	ErrFileTooLarge:      "File exceeds the maximum size of {arg} MB",
	ErrInvalidFormat:     "Invalid file format. Expected an OPC UA nodeset XML file",
	ErrMissingElements:   "Missing required models: {arg}. Select all required model files together",
	ErrDuplicate:         "This nodeset has already been loaded",
	ErrNamespaceConflict: "Namespace conflict detected: {arg}",
	ErrParse:             "Failed to parse nodeset file",
}

// Message renders the template for code. An empty arg drops the placeholder
// along with its surrounding punctuation for codes whose template has none.
func Message(code ErrorCode, arg string) string {
	tmpl, ok := messages[code]
	if !ok {
		return string(code)
	}
	if strings.Contains(tmpl, "{arg}") {
		return strings.ReplaceAll(tmpl, "{arg}", arg)
	}
	if arg != "" {
		return tmpl + ": " + arg
	}
	return tmpl
}

// ImportError describes one failure event of an import.
type ImportError struct {
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
	FileName string    `json:"file_name,omitempty"`
	Details  string    `json:"details,omitempty"`
}

func (e *ImportError) Error() string {
	if e.FileName != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.FileName, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewImportError builds an ImportError whose message is the rendered template.
func NewImportError(code ErrorCode, fileName, arg, details string) *ImportError {
	return &ImportError{
		Code:     code,
		Message:  Message(code, arg),
		FileName: fileName,
		Details:  details,
	}
}
