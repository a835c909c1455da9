// Package importer drives the nodeset import pipeline: per-batch gating,
// validation, deduplication, parsing and namespace conflict handling, plus
// the session state (accepted nodesets, notifications, recent files and
// upload state) that the pipeline owns.
package importer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rcliao/nodeset-import/internal/config"
	"github.com/rcliao/nodeset-import/internal/conflict"
	"github.com/rcliao/nodeset-import/internal/ctxlog"
	"github.com/rcliao/nodeset-import/internal/model"
	"github.com/rcliao/nodeset-import/internal/nodeset"
	"github.com/rcliao/nodeset-import/internal/store"
)

// Loaded is an accepted nodeset. Model is nil for nodesets restored with Seed.
type Loaded struct {
	Metadata model.NodesetMetadata
	Model    *nodeset.Model
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) { o.onProgress = fn }
}

// Orchestrator owns one workspace session. Import calls are serialized;
// the accessors return snapshots and are safe for concurrent use.
type Orchestrator struct {
	kv         store.KV
	onProgress ProgressFunc

	importMu sync.Mutex

	mu             sync.RWMutex
	cfg            config.Options
	state          UploadState
	resetGen       uint64
	resetTimer     *time.Timer
	progress       *Progress
	requiredModels []string
	loaded         []Loaded // newest first
	notes          notifications
	recent         *recentFiles
}

// New creates an Orchestrator and loads the recent-files history from kv.
// kv may be nil, in which case history is kept in memory only.
func New(ctx context.Context, cfg config.Options, kv store.KV, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		kv:     kv,
		cfg:    cfg.WithDefaults(),
		state:  StateSelectFile,
		recent: newRecentFiles(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.recent.replace(loadRecent(ctx, kv))
	return o
}

// Import runs one batch. Files are processed strictly in order; a later
// file sees the checksums and namespaces of earlier accepted files.
//
// Size and format violations, a missing required model in a single-file
// batch and parse failures abort the batch. Invalid XML, duplicates and
// rejected namespace conflicts skip only the affected file.
//
// Import does not stop early when ctx is cancelled.
func (o *Orchestrator) Import(ctx context.Context, files []Source) *Result {
	res := &Result{}
	if len(files) == 0 {
		res.State = o.State()
		return res
	}

	o.importMu.Lock()
	defer o.importMu.Unlock()

	log := ctxlog.FromContext(ctx).With("batch", len(files))
	o.begin()
	defer func() {
		if r := recover(); r != nil {
			log.Error("import failed unexpectedly", "panic", r)
			o.abort(ctx, res, "", model.NewImportError(model.ErrParse, "", fmt.Sprint(r), ""), model.SeverityError)
		}
		o.finish(res)
	}()

	o.run(ctx, res, files)
	return res
}

func (o *Orchestrator) run(ctx context.Context, res *Result, files []Source) {
	log := ctxlog.FromContext(ctx)

	o.mu.RLock()
	cfg := o.cfg
	o.mu.RUnlock()

	maxSize := cfg.EffectiveMaxFileSize()
	for _, f := range files {
		if f.Size > maxSize {
			limit := fmt.Sprintf("%.1f", float64(maxSize)/config.MiB)
			o.abort(ctx, res, f.Name, model.NewImportError(model.ErrFileTooLarge, f.Name, limit,
				fmt.Sprintf("Size: %d bytes", f.Size)), model.SeverityError)
			return
		}
		if !cfg.AcceptsName(f.Name) {
			o.abort(ctx, res, f.Name, model.NewImportError(model.ErrInvalidFormat, f.Name, "",
				"accepted formats: "+strings.Join(cfg.AcceptedFormats, ", ")), model.SeverityError)
			return
		}
	}

	texts := make([]string, len(files))
	for i, f := range files {
		text, err := readText(f, func(v int) { o.setProgress(f.Name, StageReading, v) })
		if err != nil {
			o.abort(ctx, res, f.Name, model.NewImportError(model.ErrParse, f.Name, err.Error(), ""), model.SeverityError)
			return
		}
		texts[i] = text
	}

	if len(files) == 1 {
		if required := nodeset.RequiredModels(texts[0]); len(required) > 0 {
			o.mu.Lock()
			o.requiredModels = required
			o.mu.Unlock()
			o.abort(ctx, res, files[0].Name, model.NewImportError(model.ErrMissingElements, files[0].Name,
				strings.Join(required, ", "), ""), model.SeverityWarning)
			return
		}
	}

	for i, f := range files {
		text := texts[i]
		flog := log.With("file", f.Name)

		o.setProgress(f.Name, StageValidating, 0)
		if v := nodeset.Validate(text); !v.Valid {
			details := strings.Join(v.Messages(), ", ")
			o.skip(ctx, res, f.Name, model.NewImportError(model.ErrInvalidFormat, f.Name, details, details), model.SeverityError)
			continue
		}

		o.setProgress(f.Name, StageChecksum, 30)
		sum := nodeset.Checksum(text)
		if o.hasChecksum(sum) {
			o.skip(ctx, res, f.Name, model.NewImportError(model.ErrDuplicate, f.Name, "", "checksum "+sum), model.SeverityWarning)
			continue
		}

		o.setProgress(f.Name, StageParsing, 60)
		parsed, err := nodeset.Parse(text, f.Name, texts)
		if err != nil {
			o.abort(ctx, res, f.Name, model.NewImportError(model.ErrParse, f.Name, err.Error(), ""), model.SeverityError)
			return
		}
		meta := nodeset.ExtractMetadata(text, parsed, f.Name, f.Size, sum)

		var warning *model.ImportError
		if conflicts := conflict.Detect(meta.Namespaces, o.namespaceSets()); len(conflicts) > 0 {
			cerr := model.NewImportError(model.ErrNamespaceConflict, f.Name, strings.Join(conflicts, ", "), "")
			resolution := conflict.Resolve(cfg.Strategy, meta, conflicts)
			flog.Warn("namespace conflict", "uris", conflicts, "action", resolution.Action)
			switch resolution.Action {
			case conflict.ActionReject:
				o.skip(ctx, res, f.Name, cerr, model.SeverityError)
				continue
			case conflict.ActionRename:
				o.notify(model.SeverityWarning, cerr.Message+" (renamed)", cerr.Details)
			default:
				o.notify(model.SeverityWarning, cerr.Message, cerr.Details)
			}
			meta = resolution.Metadata
			warning = cerr
		}

		o.setProgress(f.Name, StageCompleted, 100)
		o.accept(ctx, res, f, parsed, meta, warning)
		flog.Info("nodeset loaded", "id", meta.ID, "nodes", meta.NodeCount, "namespaces", len(meta.Namespaces))
	}
}

func (o *Orchestrator) begin() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.resetTimer != nil {
		o.resetTimer.Stop()
		o.resetTimer = nil
	}
	o.resetGen++
	o.state = StateLoading
	o.requiredModels = nil
	o.progress = nil
}

// finish clears progress, settles the final state and schedules the return
// to SELECT_FILE.
func (o *Orchestrator) finish(res *Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress = nil
	if res.Aborted != nil || len(res.Accepted()) == 0 {
		o.state = StateFailed
	}
	res.State = o.state

	o.resetGen++
	gen := o.resetGen
	o.resetTimer = time.AfterFunc(o.cfg.ResetDelay, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.resetGen == gen {
			o.state = StateSelectFile
			o.resetTimer = nil
		}
	})
}

func (o *Orchestrator) accept(ctx context.Context, res *Result, f Source, parsed *nodeset.Model, meta model.NodesetMetadata, warning *model.ImportError) {
	o.mu.Lock()
	o.loaded = append([]Loaded{{Metadata: meta.Clone(), Model: parsed}}, o.loaded...)
	o.state = StateSucceeded
	o.notes = o.notes.push(model.SeveritySuccess,
		fmt.Sprintf("Loaded '%s' with %d nodes", f.Name, meta.NodeCount), "")
	o.recent.add(model.RecentFileEntry{
		ID:       meta.ID,
		Name:     f.Name,
		Size:     f.Size,
		LoadedAt: time.Now().UTC(),
	})
	recent := o.recent.list()
	o.mu.Unlock()

	saveRecent(ctx, o.kv, recent)
	accepted := meta.Clone()
	res.add(FileResult{Name: f.Name, Outcome: Accepted, Metadata: &accepted, Model: parsed, Warning: warning})
}

func (o *Orchestrator) skip(ctx context.Context, res *Result, fileName string, err *model.ImportError, severity model.Severity) {
	ctxlog.FromContext(ctx).Warn("file skipped", "file", fileName, "code", err.Code, "message", err.Message)
	o.notify(severity, err.Message, err.Details)
	res.add(FileResult{Name: fileName, Outcome: Skipped, Err: err})
}

func (o *Orchestrator) abort(ctx context.Context, res *Result, fileName string, err *model.ImportError, severity model.Severity) {
	ctxlog.FromContext(ctx).Error("batch aborted", "file", fileName, "code", err.Code, "message", err.Message)
	o.notify(severity, err.Message, err.Details)
	res.abort(fileName, err)
}

func (o *Orchestrator) notify(severity model.Severity, message, details string) {
	o.mu.Lock()
	o.notes = o.notes.push(severity, message, details)
	o.mu.Unlock()
}

func (o *Orchestrator) setProgress(fileName, stage string, value int) {
	p := Progress{FileName: fileName, Stage: stage, Value: value}
	o.mu.Lock()
	o.progress = &p
	o.mu.Unlock()
	if o.onProgress != nil {
		o.onProgress(p)
	}
}

func (o *Orchestrator) hasChecksum(sum string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, l := range o.loaded {
		if l.Metadata.Checksum != "" && l.Metadata.Checksum == sum {
			return true
		}
	}
	return false
}

func (o *Orchestrator) namespaceSets() [][]model.Namespace {
	o.mu.RLock()
	defer o.mu.RUnlock()
	sets := make([][]model.Namespace, len(o.loaded))
	for i, l := range o.loaded {
		sets[i] = l.Metadata.Namespaces
	}
	return sets
}
