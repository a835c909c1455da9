// Package conflict detects and resolves namespace URI collisions between an
// incoming nodeset and the nodesets already loaded in a workspace.
package conflict

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rcliao/nodeset-import/internal/model"
)

// Strategy is the policy applied when an incoming nodeset declares a
// namespace URI that is already loaded.
type Strategy string

const (
	Reject          Strategy = "REJECT"
	Rename          Strategy = "RENAME"
	Merge           Strategy = "MERGE"
	WarnAndContinue Strategy = "WARN_AND_CONTINUE"
)

// DefaultStrategy is used when none is configured.
const DefaultStrategy = WarnAndContinue

// RenameSeparator joins a renamed URI and the owning nodeset id.
const RenameSeparator = "#"

// ValidStrategies are the accepted strategy names.
var ValidStrategies = map[Strategy]bool{
	Reject:          true,
	Rename:          true,
	Merge:           true,
	WarnAndContinue: true,
}

// ParseStrategy parses a strategy name case-insensitively. Dashes are
// accepted in place of underscores. Empty input yields DefaultStrategy.
func ParseStrategy(s string) (Strategy, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultStrategy, nil
	}
	st := Strategy(strings.ToUpper(strings.ReplaceAll(s, "-", "_")))
	if !ValidStrategies[st] {
		return "", fmt.Errorf("unknown conflict strategy %q (use REJECT, RENAME, MERGE or WARN_AND_CONTINUE)", s)
	}
	return st, nil
}

// Action is the outcome of resolving a conflict.
type Action string

const (
	ActionReject   Action = "reject"
	ActionRename   Action = "rename"
	ActionContinue Action = "continue"
)

// Resolution is returned by Resolve. Metadata is the (possibly rewritten)
// metadata to accept; it is the zero value for ActionReject.
type Resolution struct {
	Action   Action
	Metadata model.NodesetMetadata
}

// Detect returns the URIs of incoming that already appear in any of the
// existing namespace lists. Results follow incoming order and each URI is
// reported once.
func Detect(incoming []model.Namespace, existing [][]model.Namespace) []string {
	known := make(map[string]struct{})
	for _, list := range existing {
		for _, ns := range list {
			known[ns.URI] = struct{}{}
		}
	}

	var conflicts []string
	seen := make(map[string]struct{})
	for _, ns := range incoming {
		if _, ok := known[ns.URI]; !ok {
			continue
		}
		if _, dup := seen[ns.URI]; dup {
			continue
		}
		seen[ns.URI] = struct{}{}
		conflicts = append(conflicts, ns.URI)
	}
	return conflicts
}

// Resolve applies strategy to meta given the conflicting URIs reported by
// Detect. meta itself is never modified.
func Resolve(strategy Strategy, meta model.NodesetMetadata, conflicts []string) Resolution {
	switch strategy {
	case Reject:
		return Resolution{Action: ActionReject}
	case Rename:
		updated := meta.Clone()
		hit := make(map[string]bool, len(conflicts))
		for _, uri := range conflicts {
			hit[uri] = true
		}
		renamed := make(map[string]bool, len(conflicts))
		for i, ns := range updated.Namespaces {
			if !hit[ns.URI] {
				continue
			}
			// A URI declared twice in one file gets the namespace index
			// appended on its later occurrences so no two renamed URIs match.
			uri := ns.URI + RenameSeparator + meta.ID
			if renamed[ns.URI] {
				uri += "-" + strconv.Itoa(ns.Index)
			}
			renamed[ns.URI] = true
			updated.Namespaces[i].URI = uri
		}
		return Resolution{Action: ActionRename, Metadata: updated}
	default:
		// MERGE has no semantics of its own yet and behaves like WARN_AND_CONTINUE.
		return Resolution{Action: ActionContinue, Metadata: meta.Clone()}
	}
}
