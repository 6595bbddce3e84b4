package recall

import (
	"context"
	"testing"

	"github.com/Elyon-code/book-recommendation-engine/core"
	"github.com/Elyon-code/book-recommendation-engine/store"
)

func TestTopRatedFromRatingStore(t *testing.T) {
	adapter := newTestLibrary(t, sampleBooks(), map[int64]map[int64]float64{
		1: {1: 5, 2: 3},
		2: {1: 4, 3: 5},
	})

	r := &TopRated{Ratings: adapter, Limit: 2}
	items, err := r.Recall(context.Background(), &core.RecommendContext{UserID: 9})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}

	// 平均分：book3=5.0 > book1=4.5 > book2=3.0，Limit=2 截断
	want := []int64{3, 1}
	if len(items) != len(want) {
		t.Fatalf("Recall() returned %d items, want %d", len(items), len(want))
	}
	for i, it := range items {
		if it.ID != want[i] {
			t.Errorf("Recall()[%d].ID = %d, want %d", i, it.ID, want[i])
		}
		if lbl, ok := it.GetLabel("recall_source"); !ok || lbl.Value != "toprated" {
			t.Errorf("Recall()[%d] recall_source = %v, want toprated", i, lbl)
		}
	}
}

func TestTopRatedPrefersCache(t *testing.T) {
	ctx := context.Background()
	adapter := newTestLibrary(t, sampleBooks(), map[int64]map[int64]float64{
		1: {1: 5},
	})

	cache := store.NewMemoryStore()
	t.Cleanup(func() { cache.Close() })

	// 预热的热门榜与现算结果不同，命中缓存时以缓存为准
	cache.ZAdd(ctx, "library:top", 4.8, "2")
	cache.ZAdd(ctx, "library:top", 4.2, "5")

	r := &TopRated{Ratings: adapter, Cache: cache, Key: "library:top", Limit: 5}
	items, err := r.Recall(ctx, &core.RecommendContext{UserID: 9})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}

	want := []int64{2, 5}
	if len(items) != len(want) {
		t.Fatalf("Recall() returned %d items, want %d", len(items), len(want))
	}
	for i, it := range items {
		if it.ID != want[i] {
			t.Errorf("Recall()[%d].ID = %d, want %d", i, it.ID, want[i])
		}
		if it.Book() == nil {
			t.Errorf("Recall()[%d] missing hydrated book", i)
		}
	}
	if items[0].Score != 4.8 {
		t.Errorf("Recall()[0].Score = %v, want cached score 4.8", items[0].Score)
	}
}

func TestTopRatedEmptyCorpus(t *testing.T) {
	adapter := newTestLibrary(t, sampleBooks(), nil)

	r := &TopRated{Ratings: adapter}
	items, err := r.Recall(context.Background(), &core.RecommendContext{UserID: 1})
	if err != nil {
		t.Fatalf("Recall() error = %v, empty corpus is not an error", err)
	}
	if len(items) != 0 {
		t.Errorf("Recall() = %d items with no ratings anywhere, want 0", len(items))
	}
}
