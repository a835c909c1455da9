// Package nodeset validates and parses OPC UA nodeset XML documents and
// derives the metadata recorded for each imported file.
package nodeset

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rcliao/nodeset-import/internal/model"
)

// NodeClass is the node kind, taken from the element name without its UA prefix.
type NodeClass string

const (
	ClassObject        NodeClass = "Object"
	ClassVariable      NodeClass = "Variable"
	ClassMethod        NodeClass = "Method"
	ClassObjectType    NodeClass = "ObjectType"
	ClassVariableType  NodeClass = "VariableType"
	ClassDataType      NodeClass = "DataType"
	ClassReferenceType NodeClass = "ReferenceType"
	ClassView          NodeClass = "View"
)

var nodeElements = map[string]NodeClass{
	"UAObject":        ClassObject,
	"UAVariable":      ClassVariable,
	"UAMethod":        ClassMethod,
	"UAObjectType":    ClassObjectType,
	"UAVariableType":  ClassVariableType,
	"UADataType":      ClassDataType,
	"UAReferenceType": ClassReferenceType,
	"UAView":          ClassView,
}

// hierarchicalRefs are the reference types that place a node in the tree,
// by browse name and by their ns=0 numeric id.
var hierarchicalRefs = map[string]bool{
	"HasComponent": true, "i=47": true,
	"HasProperty": true, "i=46": true,
	"Organizes": true, "i=35": true,
	"HasSubtype": true, "i=45": true,
	"HasOrderedComponent": true, "i=49": true,
	"HasChild": true, "i=34": true,
	"Aggregates": true, "i=44": true,
	"HasEventSource": true, "i=36": true,
	"HasNotifier": true, "i=48": true,
	"HasAddIn": true, "i=17604": true,
}

// Reference is one <Reference> of a node.
type Reference struct {
	Type         string `json:"type"`
	Target       string `json:"target"`
	IsForward    bool   `json:"is_forward"`
	Hierarchical bool   `json:"hierarchical,omitempty"`
}

// Node is a single information model node.
type Node struct {
	NodeID       string      `json:"node_id"`
	Class        NodeClass   `json:"node_class"`
	BrowseName   string      `json:"browse_name"`
	DisplayName  string      `json:"display_name,omitempty"`
	Description  string      `json:"description,omitempty"`
	ParentNodeID string      `json:"parent_node_id,omitempty"`
	DataType     string      `json:"data_type,omitempty"`
	ValueRank    *int        `json:"value_rank,omitempty"`
	IsAbstract   bool        `json:"is_abstract,omitempty"`
	References   []Reference `json:"references,omitempty"`
	Children     []*Node     `json:"-"`
}

// Model is the parsed form of one nodeset file.
type Model struct {
	FileName       string            `json:"file_name"`
	NamespaceURIs  []string          `json:"namespace_uris"`
	Models         []model.ModelInfo `json:"models,omitempty"`
	RequiredModels []string          `json:"required_models,omitempty"`
	Aliases        map[string]string `json:"aliases,omitempty"`
	Nodes          []*Node           `json:"nodes"`
	Roots          []*Node           `json:"-"`
	// ExternalReferences counts reference targets found in another file of
	// the same batch.
	ExternalReferences int `json:"external_references"`
	// UnresolvedReferences lists targets found neither in this file, the
	// batch, nor the base namespace.
	UnresolvedReferences []string `json:"unresolved_references,omitempty"`

	index map[string]*Node
}

// Lookup returns the node with the given NodeId as written in the file.
func (m *Model) Lookup(nodeID string) (*Node, bool) {
	n, ok := m.index[nodeID]
	return n, ok
}

// NodeCount returns the number of nodes declared by the file.
func (m *Model) NodeCount() int {
	return len(m.Nodes)
}

// Walk visits the tree depth-first from the roots. Returning false from fn
// skips the node's children.
func (m *Model) Walk(fn func(n *Node, depth int) bool) {
	var visit func(n *Node, depth int, seen map[*Node]bool)
	visit = func(n *Node, depth int, seen map[*Node]bool) {
		if seen[n] {
			return
		}
		seen[n] = true
		if !fn(n, depth) {
			return
		}
		for _, c := range n.Children {
			visit(c, depth+1, seen)
		}
	}
	seen := make(map[*Node]bool)
	for _, r := range m.Roots {
		visit(r, 0, seen)
	}
}

// ParseError reports why a nodeset could not be parsed.
type ParseError struct {
	FileName string
	Line     int
	Reason   string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %s", e.FileName, e.Line, e.Reason)
	}
	return fmt.Sprintf("parse %s: %s", e.FileName, e.Reason)
}

type xmlLocalized struct {
	Locale string `xml:"Locale,attr"`
	Text   string `xml:",chardata"`
}

type xmlReference struct {
	ReferenceType string `xml:"ReferenceType,attr"`
	IsForward     string `xml:"IsForward,attr"`
	Target        string `xml:",chardata"`
}

type xmlNode struct {
	NodeID       string         `xml:"NodeId,attr"`
	BrowseName   string         `xml:"BrowseName,attr"`
	ParentNodeID string         `xml:"ParentNodeId,attr"`
	DataType     string         `xml:"DataType,attr"`
	ValueRank    *int           `xml:"ValueRank,attr"`
	IsAbstract   bool           `xml:"IsAbstract,attr"`
	DisplayName  []xmlLocalized `xml:"DisplayName"`
	Description  []xmlLocalized `xml:"Description"`
	References   []xmlReference `xml:"References>Reference"`
}

type xmlModel struct {
	ModelURI        string `xml:"ModelUri,attr"`
	Version         string `xml:"Version,attr"`
	PublicationDate string `xml:"PublicationDate,attr"`
	Required        []struct {
		ModelURI string `xml:"ModelUri,attr"`
	} `xml:"RequiredModel"`
}

type rawNode struct {
	class NodeClass
	line  int
	xml   xmlNode
}

// document is the decoded content of a nodeset before tree building.
type document struct {
	namespaces namespaceTable
	models     []xmlModel
	aliases    map[string]string
	nodes      []rawNode
}

func decode(text, fileName string) (*document, error) {
	dec := newDecoder(text)
	doc := &document{aliases: make(map[string]string)}
	fail := func(reason string) error {
		line, _ := dec.InputPos()
		return &ParseError{FileName: fileName, Line: line, Reason: reason}
	}

	rootSeen := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fail(err.Error())
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if !rootSeen {
			if se.Name.Local != RootElement {
				return nil, fail(fmt.Sprintf("root element is <%s>, expected <%s>", se.Name.Local, RootElement))
			}
			rootSeen = true
			continue
		}

		switch se.Name.Local {
		case "NamespaceUris":
			var v struct {
				URIs []string `xml:"Uri"`
			}
			if err := dec.DecodeElement(&v, &se); err != nil {
				return nil, fail(err.Error())
			}
			for _, u := range v.URIs {
				doc.namespaces = append(doc.namespaces, strings.TrimSpace(u))
			}
		case "Models":
			var v struct {
				Models []xmlModel `xml:"Model"`
			}
			if err := dec.DecodeElement(&v, &se); err != nil {
				return nil, fail(err.Error())
			}
			doc.models = append(doc.models, v.Models...)
		case "Aliases":
			var v struct {
				Aliases []struct {
					Alias  string `xml:"Alias,attr"`
					NodeID string `xml:",chardata"`
				} `xml:"Alias"`
			}
			if err := dec.DecodeElement(&v, &se); err != nil {
				return nil, fail(err.Error())
			}
			for _, a := range v.Aliases {
				doc.aliases[a.Alias] = strings.TrimSpace(a.NodeID)
			}
		default:
			class, isNode := nodeElements[se.Name.Local]
			if !isNode {
				if err := dec.Skip(); err != nil {
					return nil, fail(err.Error())
				}
				continue
			}
			line, _ := dec.InputPos()
			var n xmlNode
			if err := dec.DecodeElement(&n, &se); err != nil {
				return nil, fail(err.Error())
			}
			doc.nodes = append(doc.nodes, rawNode{class: class, line: line, xml: n})
		}
	}

	if !rootSeen {
		return nil, &ParseError{FileName: fileName, Reason: "document has no root element"}
	}
	return doc, nil
}

// Parse builds the model of one nodeset file. batch holds the text of every
// file imported together with it (it may include text itself); node ids of
// the other batch files are used to resolve cross-file references.
func Parse(text, fileName string, batch []string) (*Model, error) {
	doc, err := decode(text, fileName)
	if err != nil {
		return nil, err
	}

	m := &Model{
		FileName:      fileName,
		NamespaceURIs: append([]string(nil), doc.namespaces...),
		Aliases:       doc.aliases,
		index:         make(map[string]*Node, len(doc.nodes)),
	}
	for _, xm := range doc.models {
		m.Models = append(m.Models, model.ModelInfo{
			URI:             xm.ModelURI,
			Version:         xm.Version,
			PublicationDate: xm.PublicationDate,
		})
		for _, r := range xm.Required {
			m.RequiredModels = append(m.RequiredModels, r.ModelURI)
		}
	}

	qualified := make(map[string]*Node, len(doc.nodes))
	for _, rn := range doc.nodes {
		perr := func(reason string) error {
			return &ParseError{FileName: fileName, Line: rn.line, Reason: reason}
		}
		raw := strings.TrimSpace(rn.xml.NodeID)
		if raw == "" {
			return nil, perr(fmt.Sprintf("%s without NodeId", rn.class))
		}
		id, err := ParseNodeID(raw)
		if err != nil {
			return nil, perr(err.Error())
		}
		key, ok := doc.namespaces.qualify(id)
		if !ok {
			return nil, perr(fmt.Sprintf("node %s uses undeclared namespace index %d", raw, id.Namespace))
		}
		if _, dup := m.index[raw]; dup {
			return nil, perr(fmt.Sprintf("duplicate NodeId %s", raw))
		}
		if rn.xml.BrowseName == "" {
			return nil, perr(fmt.Sprintf("node %s without BrowseName", raw))
		}

		n := &Node{
			NodeID:       raw,
			Class:        rn.class,
			BrowseName:   rn.xml.BrowseName,
			DisplayName:  firstText(rn.xml.DisplayName),
			Description:  firstText(rn.xml.Description),
			ParentNodeID: strings.TrimSpace(rn.xml.ParentNodeID),
			DataType:     rn.xml.DataType,
			ValueRank:    rn.xml.ValueRank,
			IsAbstract:   rn.xml.IsAbstract,
		}
		for _, xr := range rn.xml.References {
			n.References = append(n.References, Reference{
				Type:         xr.ReferenceType,
				Target:       strings.TrimSpace(xr.Target),
				IsForward:    !strings.EqualFold(strings.TrimSpace(xr.IsForward), "false"),
				Hierarchical: isHierarchical(xr.ReferenceType, doc.aliases),
			})
		}
		m.Nodes = append(m.Nodes, n)
		m.index[raw] = n
		qualified[key] = n
	}

	external := indexBatch(text, batch)
	m.resolve(doc.namespaces, qualified, external)
	m.buildTree()
	return m, nil
}

// indexBatch collects the qualified node keys of every other parseable file
// in the batch.
func indexBatch(self string, batch []string) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, other := range batch {
		if other == self {
			continue
		}
		doc, err := decode(other, "")
		if err != nil {
			continue
		}
		for _, rn := range doc.nodes {
			id, err := ParseNodeID(rn.xml.NodeID)
			if err != nil {
				continue
			}
			if key, ok := doc.namespaces.qualify(id); ok {
				keys[key] = struct{}{}
			}
		}
	}
	return keys
}

func (m *Model) resolve(ns namespaceTable, local map[string]*Node, external map[string]struct{}) {
	seen := make(map[string]bool)
	for _, n := range m.Nodes {
		for _, r := range n.References {
			target := r.Target
			if alias, ok := m.Aliases[target]; ok {
				target = alias
			}
			id, err := ParseNodeID(target)
			if err != nil {
				m.unresolved(r.Target, seen)
				continue
			}
			key, ok := ns.qualify(id)
			if !ok {
				m.unresolved(r.Target, seen)
				continue
			}
			if _, ok := local[key]; ok {
				continue
			}
			if _, ok := external[key]; ok {
				m.ExternalReferences++
				continue
			}
			if strings.HasPrefix(key, BaseNamespaceURI+"|") {
				continue
			}
			m.unresolved(r.Target, seen)
		}
	}
}

func (m *Model) unresolved(target string, seen map[string]bool) {
	if seen[target] {
		return
	}
	seen[target] = true
	m.UnresolvedReferences = append(m.UnresolvedReferences, target)
}

func (m *Model) buildTree() {
	hasParent := make(map[*Node]bool)
	linked := make(map[[2]*Node]bool)
	link := func(parent, child *Node) {
		if parent == child || linked[[2]*Node{parent, child}] {
			return
		}
		linked[[2]*Node{parent, child}] = true
		parent.Children = append(parent.Children, child)
		hasParent[child] = true
		if child.ParentNodeID == "" {
			child.ParentNodeID = parent.NodeID
		}
	}

	for _, n := range m.Nodes {
		if p, ok := m.index[n.ParentNodeID]; ok {
			link(p, n)
		}
		for _, r := range n.References {
			if !r.Hierarchical {
				continue
			}
			target, ok := m.index[r.Target]
			if !ok {
				continue
			}
			if r.IsForward {
				link(n, target)
			} else {
				link(target, n)
			}
		}
	}

	for _, n := range m.Nodes {
		if !hasParent[n] {
			m.Roots = append(m.Roots, n)
		}
	}
}

func isHierarchical(refType string, aliases map[string]string) bool {
	if hierarchicalRefs[refType] {
		return true
	}
	if target, ok := aliases[refType]; ok {
		return hierarchicalRefs[target]
	}
	return false
}

func firstText(values []xmlLocalized) string {
	for _, v := range values {
		if t := strings.TrimSpace(v.Text); t != "" {
			return t
		}
	}
	return ""
}
