package snapshot

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/kjxref/kjxref/internal/index"
)

func TestArchiveOfEmptyIndexIsNoOp(t *testing.T) {
	// An empty index produces zero rows, so batchInsert short-circuits
	// before ever touching db — no live Postgres connection required.
	sink := NewSink(nil)
	idx := index.NewBuilder().Build(uuid.New())

	if err := sink.Archive(context.Background(), idx); err != nil {
		t.Fatalf("Archive on an empty index should be a no-op, got: %v", err)
	}
}
