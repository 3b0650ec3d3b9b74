package folio

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Submitter is what Assist drives. *Generator implements it.
type Submitter interface {
	Submit(ctx context.Context, ct ContentType, input any) (map[string]any, error)
}

// AssistState is the lifecycle of the current request.
type AssistState int

const (
	AssistIdle AssistState = iota
	AssistGenerating
	AssistSuccess
	AssistError
)

func (s AssistState) String() string {
	switch s {
	case AssistIdle:
		return "idle"
	case AssistGenerating:
		return "generating"
	case AssistSuccess:
		return "success"
	case AssistError:
		return "error"
	default:
		return "unknown"
	}
}

// AssistSnapshot is a point-in-time copy of an Assist's state.
type AssistSnapshot struct {
	State       AssistState
	ContentType ContentType
	Result      map[string]any
	Err         error
	// RequestID identifies the request that produced this state. Empty while
	// idle.
	RequestID string
}

// Generating reports whether a request is in flight.
func (s AssistSnapshot) Generating() bool { return s.State == AssistGenerating }

// AssistOption customizes NewAssist.
type AssistOption func(*Assist)

// OnSuccess registers a callback run after a request succeeds. Superseded
// requests never trigger it.
func OnSuccess(fn func(requestID string, result map[string]any)) AssistOption {
	return func(a *Assist) {
		a.onSuccess = fn
	}
}

// OnError registers a callback run after a request fails. Superseded requests
// never trigger it.
func OnError(fn func(requestID string, err error)) AssistOption {
	return func(a *Assist) {
		a.onError = fn
	}
}

// Assist tracks one generation at a time for a UI. Starting a new request
// cancels the one in flight, and a completion that arrives after a newer
// request started is discarded: the last request started always owns the
// state.
type Assist struct {
	sub       Submitter
	onSuccess func(string, map[string]any)
	onError   func(string, error)

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	snap   AssistSnapshot
}

// NewAssist returns an idle Assist that submits through sub.
func NewAssist(sub Submitter, opts ...AssistOption) *Assist {
	a := &Assist{sub: sub}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Generate runs one submission and returns its outcome. When a later
// Generate supersedes this one, the returned error is the context error of
// the canceled call (or whatever the submitter returned) and state is left
// to the newer request.
func (a *Assist) Generate(ctx context.Context, ct ContentType, input any) (map[string]any, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.seq++
	seq := a.seq
	a.cancel = cancel
	id := uuid.NewString()
	a.snap = AssistSnapshot{State: AssistGenerating, ContentType: ct, RequestID: id}
	a.mu.Unlock()

	result, err := a.sub.Submit(ctx, ct, input)

	a.mu.Lock()
	if seq != a.seq {
		a.mu.Unlock()
		return result, err
	}
	a.cancel = nil
	if err != nil {
		a.snap.State = AssistError
		a.snap.Err = err
	} else {
		a.snap.State = AssistSuccess
		a.snap.Result = result
	}
	a.mu.Unlock()

	if err != nil {
		if a.onError != nil {
			a.onError(id, err)
		}
		return nil, err
	}
	if a.onSuccess != nil {
		a.onSuccess(id, result)
	}
	return result, nil
}

// Snapshot returns a copy of the current state. The result map is shared;
// callers must not modify it.
func (a *Assist) Snapshot() AssistSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snap
}

// Reset clears the result and error. An in-flight request keeps running and
// still reports its outcome; a finished one goes back to idle.
func (a *Assist) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snap.Result = nil
	a.snap.Err = nil
	if a.snap.State != AssistGenerating {
		a.snap = AssistSnapshot{}
	}
}
