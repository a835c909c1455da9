package nodeset

import "encoding/xml"

// RequiredModels returns the ModelUri of every RequiredModel element in
// document order, excluding the base namespace. Malformed input yields the
// models found before the first syntax error.
func RequiredModels(text string) []string {
	dec := newDecoder(text)
	var required []string
	for {
		tok, err := dec.Token()
		if err != nil {
			return required
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "RequiredModel" {
			continue
		}
		uri := attr(se, "ModelUri")
		if uri != "" && uri != BaseNamespaceURI {
			required = append(required, uri)
		}
	}
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
