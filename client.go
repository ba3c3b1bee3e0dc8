// Package shelfsync syncs a storefront catalog into a document store.
//
// Products and collections are paged out of the remote commerce API and
// reconciled one by one: documents that do not exist are created, documents
// whose slug or source snapshot drifted are patched, and up-to-date
// documents are left alone.
//
// Example usage:
//
//	client, err := shelfsync.New(source, store,
//	    shelfsync.WithConcurrency(10),
//	    shelfsync.WithPacingDelay(50*time.Millisecond),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Be notified of writes
//	client.OnDocumentCreated(func(doc *documents.Document) {
//	    log.Printf("created %s", doc.Slug.Current)
//	})
//
//	err = client.SyncProducts(ctx, shelfsync.CallbackFuncs{
//	    Progress: func(e catalog.Entity, res reconciler.Result) {
//	        fmt.Println(e.Handle, res.Outcome)
//	    },
//	    Complete: func(s shelfsync.Summary) {
//	        fmt.Println(s)
//	    },
//	})
//
//	// Sync a single collection by handle
//	err = client.SyncCollection(ctx, "summer-sale", nil)
package shelfsync

import (
	"github.com/agentstation/shelfsync/pkg/sync"
)

// Callbacks receives progress, error and completion notifications for one
// sync call. See sync.Callbacks.
type Callbacks = sync.Callbacks

// CallbackFuncs adapts plain functions to Callbacks; nil fields are no-ops.
type CallbackFuncs = sync.CallbackFuncs

// NopCallbacks ignores every notification.
type NopCallbacks = sync.NopCallbacks

// Summary describes a completed sync.
type Summary = sync.Summary
