package rules

import (
	"testing"

	"github.com/louisbranch/arcana/internal/services/arcana/catalog"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return NewEngine(cat, opts...)
}

func sel(id string, rank, extra int) Selection {
	return Selection{ModifierID: id, Rank: rank, ExtraInstances: extra}
}
