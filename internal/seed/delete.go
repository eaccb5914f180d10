package seed

import (
	"context"
	"errors"
	"fmt"

	"toy-catalog/internal/store"
)

// DefaultBatchSize is the number of documents fetched per delete round.
const DefaultBatchSize = 10

var ErrInvalidBatchSize = errors.New("batch size must be positive")

// DeleteStats describes one DeleteCollection call.
type DeleteStats struct {
	Rounds  int
	Deleted int
}

// DeleteCollection removes every document of a collection, at most
// batchSize documents per fetch. It stops after the first round that
// deletes fewer than batchSize documents, so an empty collection costs one
// round and batchSize*k+r documents cost k+1 rounds.
//
// Deletion is not isolated: documents written concurrently by another
// process may survive.
func DeleteCollection(ctx context.Context, st store.DocumentStore, collection string, batchSize int) (DeleteStats, error) {
	var stats DeleteStats
	if batchSize <= 0 {
		return stats, ErrInvalidBatchSize
	}

	for {
		docs, err := st.Find(ctx, collection, store.Query{Limit: batchSize})
		if err != nil {
			return stats, fmt.Errorf("failed to fetch %s batch: %w", collection, err)
		}
		stats.Rounds++

		deleted := 0
		for _, doc := range docs {
			if err := st.Delete(ctx, collection, doc.ID); err != nil {
				return stats, fmt.Errorf("failed to delete %s/%s: %w", collection, doc.ID, err)
			}
			deleted++
			stats.Deleted++
		}

		if deleted < batchSize {
			return stats, nil
		}
	}
}
