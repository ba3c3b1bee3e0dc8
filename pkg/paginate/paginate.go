// Package paginate turns a cursor-paged remote API into a single ordered
// stream of entities.
package paginate

import (
	"context"
	"iter"
	"sync/atomic"

	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/errors"
)

// PageFunc fetches one page. A nil cursor requests the first page. It must
// return a page or an error; an empty result is a page with no entities.
type PageFunc func(ctx context.Context, cursor *string) (*catalog.Page, error)

var (
	// ErrMissingCursor is yielded when a page claims more data but carries no
	// cursor to request it with.
	ErrMissingCursor = errors.New("page reports more results but no end cursor")

	// ErrNilPage is yielded when a PageFunc returns neither a page nor an error.
	ErrNilPage = errors.New("page func returned no page")

	// ErrConsumed is yielded when a sequence returned by All is ranged over
	// a second time.
	ErrConsumed = errors.New("page sequence already consumed")
)

// All returns a lazy sequence over every entity of every page, in fetch
// order. Pages are requested one at a time as the caller consumes entities;
// breaking out of the range loop stops further fetches. onPage, when not nil,
// receives each page's entities before any of them is yielded.
//
// A fetch error, a cancelled context, a nil page or a malformed page is
// yielded once as the final element. The sequence can only be ranged over once.
func All(ctx context.Context, fetch PageFunc, onPage func([]catalog.Entity)) iter.Seq2[catalog.Entity, error] {
	var used atomic.Bool

	return func(yield func(catalog.Entity, error) bool) {
		if used.Swap(true) {
			yield(catalog.Entity{}, ErrConsumed)
			return
		}

		var cursor *string
		for {
			if err := ctx.Err(); err != nil {
				yield(catalog.Entity{}, err)
				return
			}

			page, err := fetch(ctx, cursor)
			if err != nil {
				yield(catalog.Entity{}, err)
				return
			}
			if page == nil {
				yield(catalog.Entity{}, ErrNilPage)
				return
			}

			if onPage != nil {
				onPage(page.Entities)
			}

			for _, e := range page.Entities {
				if !yield(e, nil) {
					return
				}
			}

			if !page.HasNextPage {
				return
			}
			if page.EndCursor == "" {
				yield(catalog.Entity{}, ErrMissingCursor)
				return
			}
			next := page.EndCursor
			cursor = &next
		}
	}
}

// Collect drains a sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[catalog.Entity, error]) ([]catalog.Entity, error) {
	var out []catalog.Entity
	for e, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}
