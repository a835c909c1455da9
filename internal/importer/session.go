package importer

import (
	"context"

	"github.com/rcliao/nodeset-import/internal/config"
	"github.com/rcliao/nodeset-import/internal/model"
)

// Seed registers nodesets accepted in an earlier session so that duplicate
// and namespace checks see them. metas are given newest first.
func (o *Orchestrator) Seed(metas []model.NodesetMetadata) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, m := range metas {
		o.loaded = append(o.loaded, Loaded{Metadata: m.Clone()})
	}
}

// Loaded returns the accepted nodesets, newest first.
func (o *Orchestrator) Loaded() []Loaded {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]Loaded, len(o.loaded))
	for i, l := range o.loaded {
		out[i] = Loaded{Metadata: l.Metadata.Clone(), Model: l.Model}
	}
	return out
}

// Remove drops an accepted nodeset, freeing its checksum and namespaces.
func (o *Orchestrator) Remove(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, l := range o.loaded {
		if l.Metadata.ID == id {
			o.loaded = append(o.loaded[:i:i], o.loaded[i+1:]...)
			return true
		}
	}
	return false
}

// Notifications returns the buffered notifications, newest first.
func (o *Orchestrator) Notifications() []model.Notification {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]model.Notification(nil), o.notes...)
}

// DismissNotification removes one notification by id.
func (o *Orchestrator) DismissNotification(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	var ok bool
	o.notes, ok = o.notes.remove(id)
	return ok
}

// Recent returns the recent-files history, newest first.
func (o *Orchestrator) Recent() []model.RecentFileEntry {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.recent.list()
}

// ClearRecent empties the history and persists the empty list.
func (o *Orchestrator) ClearRecent(ctx context.Context) {
	o.mu.Lock()
	o.recent.replace(nil)
	o.mu.Unlock()
	saveRecent(ctx, o.kv, nil)
}

// State returns the current upload state.
func (o *Orchestrator) State() UploadState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Progress returns the progress of the file being imported, or nil when no
// import is running.
func (o *Orchestrator) Progress() *Progress {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.progress == nil {
		return nil
	}
	p := *o.progress
	return &p
}

// RequiredModels returns the models reported missing by the last
// single-file batch.
func (o *Orchestrator) RequiredModels() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]string(nil), o.requiredModels...)
}

// SetMaxFileSizeMB sets the user size override and returns the clamped value.
func (o *Orchestrator) SetMaxFileSizeMB(v float64) float64 {
	v = config.ClampMaxSizeMB(v)
	o.mu.Lock()
	o.cfg.MaxFileSizeMB = v
	o.mu.Unlock()
	return v
}

// Close stops a pending state reset.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.resetTimer != nil {
		o.resetTimer.Stop()
		o.resetTimer = nil
	}
}
