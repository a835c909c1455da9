package importer

import (
	"context"
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rcliao/nodeset-import/internal/ctxlog"
	"github.com/rcliao/nodeset-import/internal/model"
	"github.com/rcliao/nodeset-import/internal/store"
)

const (
	// RecentFilesKey is the store key of the persisted history.
	RecentFilesKey = "opcua_recent_nodesets"
	// MaxRecentFiles bounds the history.
	MaxRecentFiles = 5
)

// recentFiles is the recent-files history keyed by file name. Adding a name
// that is already present replaces it and makes it the newest entry.
type recentFiles struct {
	cache *lru.Cache[string, model.RecentFileEntry]
}

func newRecentFiles() *recentFiles {
	cache, _ := lru.New[string, model.RecentFileEntry](MaxRecentFiles)
	return &recentFiles{cache: cache}
}

func (r *recentFiles) add(e model.RecentFileEntry) {
	r.cache.Add(e.Name, e)
}

// list returns the entries newest first.
func (r *recentFiles) list() []model.RecentFileEntry {
	keys := r.cache.Keys()
	out := make([]model.RecentFileEntry, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if e, ok := r.cache.Peek(keys[i]); ok {
			out = append(out, e)
		}
	}
	return out
}

// replace loads entries given newest first.
func (r *recentFiles) replace(entries []model.RecentFileEntry) {
	r.cache.Purge()
	for i := len(entries) - 1; i >= 0; i-- {
		r.add(entries[i])
	}
}

// loadRecent reads the persisted history. Any store failure or malformed
// payload results in an empty history.
func loadRecent(ctx context.Context, kv store.KV) []model.RecentFileEntry {
	if kv == nil {
		return nil
	}
	log := ctxlog.FromContext(ctx)
	b, ok, err := kv.Get(ctx, RecentFilesKey)
	if err != nil {
		log.Warn("failed to load recent files", "err", err)
		return nil
	}
	if !ok {
		return nil
	}
	var entries []model.RecentFileEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		log.Warn("failed to load recent files", "err", err)
		return nil
	}
	return entries
}

func saveRecent(ctx context.Context, kv store.KV, entries []model.RecentFileEntry) {
	if kv == nil {
		return
	}
	if entries == nil {
		entries = []model.RecentFileEntry{}
	}
	b, _ := json.Marshal(entries)
	if err := kv.Put(ctx, RecentFilesKey, b); err != nil {
		ctxlog.FromContext(ctx).Warn("failed to save recent files", "err", err)
	}
}
