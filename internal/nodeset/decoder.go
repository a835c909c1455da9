package nodeset

import (
	"encoding/xml"
	"strings"

	"golang.org/x/net/html/charset"
)

const utf8BOM = "\uFEFF"

// TrimBOM drops a leading UTF-8 byte order mark.
func TrimBOM(text string) string {
	return strings.TrimPrefix(text, utf8BOM)
}

// newDecoder returns a decoder over text that skips a leading byte order
// mark and honors non UTF-8 encoding declarations.
func newDecoder(text string) *xml.Decoder {
	dec := xml.NewDecoder(strings.NewReader(TrimBOM(text)))
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}
