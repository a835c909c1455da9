package importer

import (
	"github.com/rcliao/nodeset-import/internal/model"
	"github.com/rcliao/nodeset-import/internal/nodeset"
)

// Outcome is what happened to one file of a batch.
type Outcome string

const (
	Accepted     Outcome = "accepted"
	Skipped      Outcome = "skipped"
	BatchAborted Outcome = "aborted"
)

// FileResult is the per-file result of an import. Metadata and Model are set
// for Accepted files; Err for Skipped and BatchAborted ones. Warning holds
// the namespace conflict reported for a file that was still accepted.
type FileResult struct {
	Name     string                 `json:"name"`
	Outcome  Outcome                `json:"outcome"`
	Metadata *model.NodesetMetadata `json:"metadata,omitempty"`
	Model    *nodeset.Model         `json:"-"`
	Err      *model.ImportError     `json:"error,omitempty"`
	Warning  *model.ImportError     `json:"warning,omitempty"`
}

// Result is the outcome of one Import call.
type Result struct {
	Files []FileResult `json:"files"`
	// Aborted is set when the batch stopped early.
	Aborted *model.ImportError `json:"aborted,omitempty"`
	// State is the upload state the batch finished in.
	State UploadState `json:"state"`

	events []event
}

// event records handoffs in emission order for Dispatch.
type event struct {
	loaded int // index into Files, or -1
	err    *model.ImportError
}

func (r *Result) add(fr FileResult) {
	r.Files = append(r.Files, fr)
	idx := len(r.Files) - 1
	switch {
	case fr.Outcome == Accepted:
		if fr.Warning != nil {
			r.events = append(r.events, event{loaded: -1, err: fr.Warning})
		}
		r.events = append(r.events, event{loaded: idx})
	case fr.Err != nil:
		r.events = append(r.events, event{loaded: -1, err: fr.Err})
	}
}

func (r *Result) abort(fileName string, err *model.ImportError) {
	r.Aborted = err
	if fileName != "" {
		r.add(FileResult{Name: fileName, Outcome: BatchAborted, Err: err})
		return
	}
	r.events = append(r.events, event{loaded: -1, err: err})
}

// Accepted returns the accepted files in order.
func (r *Result) Accepted() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Outcome == Accepted {
			out = append(out, f)
		}
	}
	return out
}

// Errors returns every ImportError of the batch in emission order.
func (r *Result) Errors() []model.ImportError {
	var out []model.ImportError
	for _, e := range r.events {
		if e.err != nil {
			out = append(out, *e.err)
		}
	}
	return out
}

// Dispatch replays the batch as "model loaded" and "error" handoffs, in
// the order they occurred. Either callback may be nil.
func (r *Result) Dispatch(onLoaded func(*nodeset.Model, model.NodesetMetadata), onError func(model.ImportError)) {
	for _, e := range r.events {
		if e.err != nil {
			if onError != nil {
				onError(*e.err)
			}
			continue
		}
		f := r.Files[e.loaded]
		if onLoaded != nil && f.Metadata != nil {
			onLoaded(f.Model, *f.Metadata)
		}
	}
}
