package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/peteski22/booksync/internal/quickbooks"
)

// defaultPageSize is the remote's hard per-request record cap.
const defaultPageSize = 1000

// fetcher pages through remote query results.
type fetcher struct {
	// client issues the page requests.
	client Querier

	// pageSize is the number of records requested per page.
	pageSize int

	// transactionID is the diagnostic id of the first successful response.
	transactionID string
}

// fetchAll returns every record of entity matching where, in remote order.
// Paging stops at the first page shorter than the page size.
func (f *fetcher) fetchAll(ctx context.Context, entity string, where string) ([]json.RawMessage, error) {
	var all []json.RawMessage

	for start := 1; ; start += f.pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := f.client.Query(ctx, quickbooks.Query{
			Entity:        entity,
			MaxResults:    f.pageSize,
			StartPosition: start,
			Where:         where,
		})
		if err != nil {
			return nil, fmt.Errorf("querying %s at position %d: %w", entity, start, err)
		}

		if f.transactionID == "" {
			f.transactionID = page.TransactionID
		}

		all = append(all, page.Records...)

		if len(page.Records) < f.pageSize {
			return all, nil
		}
	}
}
