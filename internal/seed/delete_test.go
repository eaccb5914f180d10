package seed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"toy-catalog/internal/store"
	"toy-catalog/internal/store/memdb"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// recordingStore wraps memdb and records fetch sizes. failDeleteAt makes
// the n-th Delete call (1-based) fail.
type recordingStore struct {
	*memdb.Store
	fetches      []int
	deletes      int
	failDeleteAt int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Store: memdb.New()}
}

func (r *recordingStore) Find(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	docs, err := r.Store.Find(ctx, collection, q)
	if err == nil && q.Limit > 0 {
		r.fetches = append(r.fetches, len(docs))
	}
	return docs, err
}

func (r *recordingStore) Delete(ctx context.Context, collection, id string) error {
	r.deletes++
	if r.failDeleteAt > 0 && r.deletes == r.failDeleteAt {
		return errors.New("permission denied")
	}
	return r.Store.Delete(ctx, collection, id)
}

func fill(t *testing.T, s store.DocumentStore, collection string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := s.Create(context.Background(), collection, store.Fields{"n": i}); err != nil {
			t.Fatalf("failed to create document: %v", err)
		}
	}
}

func TestDeleteCollection_TwentyThreeDocuments(t *testing.T) {
	st := newRecordingStore()
	fill(t, st, "categories", 23)

	stats, err := DeleteCollection(context.Background(), st, "categories", 10)
	if err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}

	if stats.Rounds != 3 || stats.Deleted != 23 {
		t.Errorf("stats = %+v, want 3 rounds and 23 deleted", stats)
	}
	if fmt.Sprint(st.fetches) != "[10 10 3]" {
		t.Errorf("fetch sizes = %v, want [10 10 3]", st.fetches)
	}
	if st.Count("categories") != 0 {
		t.Errorf("%d documents left", st.Count("categories"))
	}
}

func TestDeleteCollection_Empty(t *testing.T) {
	st := newRecordingStore()

	stats, err := DeleteCollection(context.Background(), st, "products", 10)
	if err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}
	if stats.Rounds != 1 || stats.Deleted != 0 {
		t.Errorf("stats = %+v, want one round with no deletions", stats)
	}
}

func TestDeleteCollection_ExactMultipleNeedsTrailingRound(t *testing.T) {
	st := newRecordingStore()
	fill(t, st, "products", 20)

	stats, err := DeleteCollection(context.Background(), st, "products", 10)
	if err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}
	if fmt.Sprint(st.fetches) != "[10 10 0]" {
		t.Errorf("fetch sizes = %v, want [10 10 0]", st.fetches)
	}
	if stats.Rounds != 3 {
		t.Errorf("rounds = %d, want 3", stats.Rounds)
	}
}

func TestDeleteCollection_InvalidBatchSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := DeleteCollection(context.Background(), memdb.New(), "products", size)
		if !errors.Is(err, ErrInvalidBatchSize) {
			t.Errorf("batch size %d: expected ErrInvalidBatchSize, got %v", size, err)
		}
	}
}

func TestDeleteCollection_DeleteErrorAbortsBatch(t *testing.T) {
	st := newRecordingStore()
	st.failDeleteAt = 4
	fill(t, st, "products", 8)

	stats, err := DeleteCollection(context.Background(), st, "products", 10)
	if err == nil {
		t.Fatal("expected an error")
	}
	if stats.Deleted != 3 {
		t.Errorf("deleted = %d, want 3 before the failure", stats.Deleted)
	}
	if st.Count("products") != 5 {
		t.Errorf("%d documents left, want 5", st.Count("products"))
	}
	if st.deletes != 4 {
		t.Errorf("delete calls = %d, remaining deletions should be skipped", st.deletes)
	}
}

func TestDeleteCollection_LeavesOtherCollections(t *testing.T) {
	st := newRecordingStore()
	fill(t, st, "products", 4)
	fill(t, st, "orders", 2)

	if _, err := DeleteCollection(context.Background(), st, "products", 10); err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}
	if st.Count("orders") != 2 {
		t.Errorf("orders touched: %d left", st.Count("orders"))
	}
}

// Property: batchSize*k + r documents are removed in exactly k+1 rounds
func TestProperty_DeleteTerminatesInKPlusOneRounds(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("collection ends empty after k+1 fetch rounds", prop.ForAll(
		func(batchSize int, k int, r int) bool {
			r = r % batchSize

			st := newRecordingStore()
			fill(t, st, "categories", batchSize*k+r)

			stats, err := DeleteCollection(context.Background(), st, "categories", batchSize)
			if err != nil {
				t.Logf("FAIL: DeleteCollection error: %v", err)
				return false
			}

			if stats.Rounds != k+1 || len(st.fetches) != k+1 {
				t.Logf("FAIL: batch=%d k=%d r=%d rounds=%d", batchSize, k, r, stats.Rounds)
				return false
			}

			if stats.Deleted != batchSize*k+r {
				return false
			}

			return st.Count("categories") == 0
		},
		gen.IntRange(1, 15), // batch size
		gen.IntRange(0, 6),  // full batches
		gen.IntRange(0, 14), // remainder, reduced modulo batch size
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
