package shelfsync

import (
	"sync"

	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/documents"
	"github.com/agentstation/shelfsync/pkg/reconciler"
	pkgsync "github.com/agentstation/shelfsync/pkg/sync"
)

// Hook function types for document events
type (
	// DocumentCreatedHook is called when a sync creates a document
	DocumentCreatedHook func(doc *documents.Document)

	// DocumentUpdatedHook is called when a sync patches a document
	DocumentUpdatedHook func(doc *documents.Document)
)

// hooks manages event callbacks for document writes
type hooks struct {
	mu                sync.RWMutex
	onDocumentCreated []DocumentCreatedHook
	onDocumentUpdated []DocumentUpdatedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnDocumentCreated registers a callback for when documents are created
func (h *hooks) OnDocumentCreated(fn DocumentCreatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDocumentCreated = append(h.onDocumentCreated, fn)
}

// OnDocumentUpdated registers a callback for when documents are patched
func (h *hooks) OnDocumentUpdated(fn DocumentUpdatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDocumentUpdated = append(h.onDocumentUpdated, fn)
}

// trigger fires the hooks matching a reconciliation outcome
func (h *hooks) trigger(res reconciler.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch res.Outcome {
	case reconciler.OutcomeCreated:
		for _, hook := range h.onDocumentCreated {
			hook(res.Document.Clone())
		}
	case reconciler.OutcomeUpdated:
		for _, hook := range h.onDocumentUpdated {
			hook(res.Document.Clone())
		}
	}
}

// wrap returns callbacks that fire the hooks before delegating progress.
func (h *hooks) wrap(cb pkgsync.Callbacks) pkgsync.Callbacks {
	if cb == nil {
		cb = pkgsync.NopCallbacks{}
	}
	return hookedCallbacks{Callbacks: cb, hooks: h}
}

type hookedCallbacks struct {
	pkgsync.Callbacks
	hooks *hooks
}

func (c hookedCallbacks) OnProgress(e catalog.Entity, res reconciler.Result) {
	c.hooks.trigger(res)
	c.Callbacks.OnProgress(e, res)
}
