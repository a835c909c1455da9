// Package model defines the core nodeset import data types.
package model

import "time"

// Namespace is a namespace URI declared by a nodeset.
// Index is the ns= index the URI is addressed by inside its file.
type Namespace struct {
	Index  int    `json:"index"`
	URI    string `json:"uri"`
	Prefix string `json:"prefix"`
}

// ModelInfo is a <Model> declaration from a nodeset header.
type ModelInfo struct {
	URI             string `json:"uri"`
	Version         string `json:"version,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`
}

// NodesetMetadata is the lightweight summary kept for every accepted nodeset.
type NodesetMetadata struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	FileName       string      `json:"file_name"`
	Size           int64       `json:"size"`
	Checksum       string      `json:"checksum"`
	Namespaces     []Namespace `json:"namespaces"`
	Models         []ModelInfo `json:"models,omitempty"`
	RequiredModels []string    `json:"required_models,omitempty"`
	NodeCount      int         `json:"node_count"`
	LoadedAt       time.Time   `json:"loaded_at"`
}

// Clone returns a copy that shares no slices with m.
func (m NodesetMetadata) Clone() NodesetMetadata {
	c := m
	c.Namespaces = append([]Namespace(nil), m.Namespaces...)
	c.Models = append([]ModelInfo(nil), m.Models...)
	c.RequiredModels = append([]string(nil), m.RequiredModels...)
	return c
}

// RecentFileEntry is one row of the persisted recent-files history.
type RecentFileEntry struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	LoadedAt time.Time `json:"loadedAt"`
}

// Severity classifies a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Notification is a user-facing message produced during an import.
type Notification struct {
	ID       string   `json:"id"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Details  string   `json:"details,omitempty"`
}
