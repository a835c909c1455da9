package nodeset

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/nodeset-import/internal/model"
)

// NewID returns a fresh ULID string.
func NewID() string {
	return ulid.Make().String()
}

// ExtractMetadata derives the summary record for a parsed nodeset. The id is
// new on every call and LoadedAt is the extraction time.
func ExtractMetadata(text string, m *Model, fileName string, size int64, checksum string) model.NodesetMetadata {
	meta := model.NodesetMetadata{
		ID:             NewID(),
		Name:           displayName(fileName, m),
		FileName:       fileName,
		Size:           size,
		Checksum:       checksum,
		RequiredModels: RequiredModels(text),
		LoadedAt:       time.Now().UTC(),
	}
	if m != nil {
		meta.NodeCount = m.NodeCount()
		meta.Models = append([]model.ModelInfo(nil), m.Models...)
		for i, uri := range m.NamespaceURIs {
			meta.Namespaces = append(meta.Namespaces, model.Namespace{
				Index:  i + 1,
				URI:    uri,
				Prefix: namespacePrefix(uri, i+1),
			})
		}
	}
	return meta
}

func displayName(fileName string, m *Model) string {
	base := filepath.Base(fileName)
	if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" && base != "." {
		return name
	}
	if m != nil && len(m.Models) > 0 {
		return m.Models[0].URI
	}
	return fileName
}

// namespacePrefix derives a short prefix from the last URI segment, e.g.
// "http://opcfoundation.org/UA/DI/" -> "DI", "urn:acme:pumps" -> "pumps".
func namespacePrefix(uri string, index int) string {
	trimmed := strings.TrimRight(uri, "/#:")
	if i := strings.LastIndexAny(trimmed, "/:#"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	if trimmed == "" {
		return "ns" + strconv.Itoa(index)
	}
	return trimmed
}
