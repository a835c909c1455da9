package nodeset

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RootElement is the expected document element of a nodeset file.
const RootElement = "UANodeSet"

// ValidationError is one structural problem found by Validate.
type ValidationError struct {
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Messages returns the error messages in order.
func (r ValidationResult) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		if e.Line > 0 {
			out[i] = fmt.Sprintf("line %d: %s", e.Line, e.Message)
		} else {
			out[i] = e.Message
		}
	}
	return out
}

// Validate checks that text is a well-formed XML document with a single
// UANodeSet root element.
func Validate(text string) ValidationResult {
	var res ValidationResult
	fail := func(line int, format string, args ...any) {
		res.Errors = append(res.Errors, ValidationError{Message: fmt.Sprintf(format, args...), Line: line})
	}

	if strings.TrimSpace(TrimBOM(text)) == "" {
		fail(0, "document is empty")
		return res
	}

	dec := newDecoder(text)
	depth := 0
	roots := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var syn *xml.SyntaxError
			if errors.As(err, &syn) {
				fail(syn.Line, "%s", syn.Msg)
			} else {
				line, _ := dec.InputPos()
				fail(line, "%v", err)
			}
			return res
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				line, _ := dec.InputPos()
				if roots > 1 {
					fail(line, "multiple root elements")
				} else if t.Name.Local != RootElement {
					fail(line, "root element is <%s>, expected <%s>", t.Name.Local, RootElement)
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(strings.TrimSpace(string(t))) > 0 {
				line, _ := dec.InputPos()
				fail(line, "text outside the root element")
			}
		}
	}

	if roots == 0 {
		fail(0, "document has no root element")
	}
	res.Valid = len(res.Errors) == 0
	return res
}
