package nodeset

import (
	"fmt"
	"strconv"
	"strings"
)

// BaseNamespaceURI is the OPC UA core namespace (ns=0). It is implicitly
// present in every workspace.
const BaseNamespaceURI = "http://opcfoundation.org/UA/"

// NodeID is a parsed OPC UA node identifier such as "ns=1;i=1001",
// "i=85" or "nsu=urn:x;s=Pump".
type NodeID struct {
	Namespace    int
	NamespaceURI string // set only for the nsu= form
	Kind         byte   // i, s, g or b
	Value        string
}

// ParseNodeID parses the textual NodeId encoding.
func ParseNodeID(s string) (NodeID, error) {
	var id NodeID
	rest := strings.TrimSpace(s)
	if rest == "" {
		return id, fmt.Errorf("empty node id")
	}

	if strings.HasPrefix(rest, "ns=") || strings.HasPrefix(rest, "nsu=") {
		head, tail, ok := strings.Cut(rest, ";")
		if !ok {
			return id, fmt.Errorf("node id %q: missing identifier", s)
		}
		if uri, isURI := strings.CutPrefix(head, "nsu="); isURI {
			id.NamespaceURI = uri
		} else {
			n, err := strconv.Atoi(strings.TrimPrefix(head, "ns="))
			if err != nil || n < 0 {
				return id, fmt.Errorf("node id %q: bad namespace index", s)
			}
			id.Namespace = n
		}
		rest = tail
	}

	if len(rest) < 2 || rest[1] != '=' {
		return id, fmt.Errorf("node id %q: missing identifier type", s)
	}
	switch rest[0] {
	case 'i':
		if _, err := strconv.ParseUint(rest[2:], 10, 32); err != nil {
			return id, fmt.Errorf("node id %q: bad numeric identifier", s)
		}
	case 's', 'g', 'b':
	default:
		return id, fmt.Errorf("node id %q: unknown identifier type %q", s, rest[0])
	}
	id.Kind = rest[0]
	id.Value = rest[2:]
	return id, nil
}

// Identifier returns the namespace-independent part, e.g. "i=1001".
func (id NodeID) Identifier() string {
	return string(id.Kind) + "=" + id.Value
}

func (id NodeID) String() string {
	switch {
	case id.NamespaceURI != "":
		return "nsu=" + id.NamespaceURI + ";" + id.Identifier()
	case id.Namespace == 0:
		return id.Identifier()
	default:
		return "ns=" + strconv.Itoa(id.Namespace) + ";" + id.Identifier()
	}
}

// namespaceTable maps file-local namespace indexes to URIs.
type namespaceTable []string

// uri resolves the namespace of id. Index 0 is the base namespace and index
// k addresses the k-th declared <Uri>.
func (t namespaceTable) uri(id NodeID) (string, bool) {
	if id.NamespaceURI != "" {
		return id.NamespaceURI, true
	}
	if id.Namespace == 0 {
		return BaseNamespaceURI, true
	}
	if id.Namespace > len(t) {
		return "", false
	}
	return t[id.Namespace-1], true
}

// qualify returns a workspace-wide key for id: namespace URI plus identifier.
func (t namespaceTable) qualify(id NodeID) (string, bool) {
	uri, ok := t.uri(id)
	if !ok {
		return "", false
	}
	return uri + "|" + id.Identifier(), true
}
