package sync

import (
	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/reconciler"
)

// Callbacks receives notifications during one sync run. The orchestrator
// never invokes two callbacks concurrently, so implementations need no
// locking of their own.
type Callbacks interface {
	// OnFetchedItems is called once per fetched page with that page's entities.
	OnFetchedItems(entities []catalog.Entity)

	// OnProgress is called after each entity is reconciled. Calls may arrive
	// out of fetch order.
	OnProgress(entity catalog.Entity, result reconciler.Result)

	// OnError is called at most once, with the error that aborted the run.
	OnError(err error)

	// OnComplete is called once when the run finished without error.
	OnComplete(summary Summary)
}

// NopCallbacks ignores every notification. Embed it to implement only the
// callbacks you need.
type NopCallbacks struct{}

// OnFetchedItems implements Callbacks.
func (NopCallbacks) OnFetchedItems([]catalog.Entity) {}

// OnProgress implements Callbacks.
func (NopCallbacks) OnProgress(catalog.Entity, reconciler.Result) {}

// OnError implements Callbacks.
func (NopCallbacks) OnError(error) {}

// OnComplete implements Callbacks.
func (NopCallbacks) OnComplete(Summary) {}

// CallbackFuncs adapts plain functions to Callbacks. Nil fields are no-ops.
type CallbackFuncs struct {
	FetchedItems func(entities []catalog.Entity)
	Progress     func(entity catalog.Entity, result reconciler.Result)
	Error        func(err error)
	Complete     func(summary Summary)
}

// OnFetchedItems implements Callbacks.
func (f CallbackFuncs) OnFetchedItems(entities []catalog.Entity) {
	if f.FetchedItems != nil {
		f.FetchedItems(entities)
	}
}

// OnProgress implements Callbacks.
func (f CallbackFuncs) OnProgress(entity catalog.Entity, result reconciler.Result) {
	if f.Progress != nil {
		f.Progress(entity, result)
	}
}

// OnError implements Callbacks.
func (f CallbackFuncs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

// OnComplete implements Callbacks.
func (f CallbackFuncs) OnComplete(summary Summary) {
	if f.Complete != nil {
		f.Complete(summary)
	}
}

var (
	_ Callbacks = NopCallbacks{}
	_ Callbacks = CallbackFuncs{}
)
