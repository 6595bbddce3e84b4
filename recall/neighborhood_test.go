package recall

import (
	"context"
	"testing"

	"github.com/Elyon-code/book-recommendation-engine/core"
)

func TestNeighborhood(t *testing.T) {
	// 用户 1 与 2 完全同向（sim=1），与 3 完全反向（sim=-1），
	// 与 4 只有 2 本共同书（sim=0）
	adapter := newTestLibrary(t, sampleBooks(), map[int64]map[int64]float64{
		1: {1: 1, 2: 3, 3: 5},
		2: {1: 1, 2: 3, 3: 5},
		3: {1: 5, 2: 3, 3: 1},
		4: {1: 1, 2: 3},
	})

	r := &NeighborhoodRecall{Store: adapter}
	target, err := adapter.RatingsOf(context.Background(), 1)
	if err != nil {
		t.Fatalf("RatingsOf() error = %v", err)
	}

	neighbors, err := r.Neighborhood(context.Background(), 1, target)
	if err != nil {
		t.Fatalf("Neighborhood() error = %v", err)
	}
	if len(neighbors) != 1 {
		t.Fatalf("Neighborhood() = %v, want exactly user 2", neighbors)
	}
	if neighbors[0].UserID != 2 || neighbors[0].Similarity != 1 {
		t.Errorf("Neighborhood()[0] = %+v, want {UserID:2 Similarity:1}", neighbors[0])
	}
}

func TestNeighborhoodThresholdIsStrict(t *testing.T) {
	adapter := newTestLibrary(t, sampleBooks(), map[int64]map[int64]float64{
		1: {1: 1, 2: 3, 3: 5},
		2: {1: 1, 2: 3, 3: 5},
	})

	// 阈值恰为 1：sim == 1 不满足“严格大于”，邻域为空
	r := &NeighborhoodRecall{Store: adapter, Threshold: 1}
	target, _ := adapter.RatingsOf(context.Background(), 1)

	neighbors, err := r.Neighborhood(context.Background(), 1, target)
	if err != nil {
		t.Fatalf("Neighborhood() error = %v", err)
	}
	if len(neighbors) != 0 {
		t.Errorf("Neighborhood() = %v, want empty (threshold is strict)", neighbors)
	}
}

func TestNeighborhoodSizeCap(t *testing.T) {
	ratings := map[int64]map[int64]float64{
		1: {1: 1, 2: 3, 3: 5},
	}
	// 7 个克隆用户全部 sim=1
	for uid := int64(2); uid <= 8; uid++ {
		ratings[uid] = map[int64]float64{1: 1, 2: 3, 3: 5}
	}
	adapter := newTestLibrary(t, sampleBooks(), ratings)

	r := &NeighborhoodRecall{Store: adapter, NeighborhoodSize: 5}
	target, _ := adapter.RatingsOf(context.Background(), 1)

	neighbors, err := r.Neighborhood(context.Background(), 1, target)
	if err != nil {
		t.Fatalf("Neighborhood() error = %v", err)
	}
	if len(neighbors) != 5 {
		t.Fatalf("Neighborhood() size = %d, want 5", len(neighbors))
	}
	// 同分按 UserID 升序，保证可复现
	for i, n := range neighbors {
		if n.UserID != int64(i+2) {
			t.Errorf("Neighborhood()[%d].UserID = %d, want %d", i, n.UserID, i+2)
		}
	}
}

func TestNeighborhoodRecallExcludesRatedBooks(t *testing.T) {
	adapter := newTestLibrary(t, sampleBooks(), map[int64]map[int64]float64{
		1: {1: 5, 2: 4, 3: 5},
		2: {1: 5, 2: 4, 3: 5, 4: 5, 5: 2},
	})

	r := &NeighborhoodRecall{Store: adapter}
	items, err := r.Recall(context.Background(), &core.RecommendContext{UserID: 1})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}

	// 邻居 2 评过 4(5 分) 和 5(2 分)；1/2/3 已被用户 1 评过
	want := []int64{4, 5}
	if len(items) != len(want) {
		t.Fatalf("Recall() returned %d items, want %d", len(items), len(want))
	}
	for i, it := range items {
		if it.ID != want[i] {
			t.Errorf("Recall()[%d].ID = %d, want %d", i, it.ID, want[i])
		}
	}
	if items[0].Score != 5 || items[1].Score != 2 {
		t.Errorf("Recall() scores = [%v, %v], want neighborhood averages [5, 2]",
			items[0].Score, items[1].Score)
	}
}

func TestNeighborhoodRecallColdStart(t *testing.T) {
	adapter := newTestLibrary(t, sampleBooks(), map[int64]map[int64]float64{
		2: {1: 5, 2: 4, 3: 5},
	})

	r := &NeighborhoodRecall{Store: adapter}
	items, err := r.Recall(context.Background(), &core.RecommendContext{UserID: 1})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Recall() = %d items for a user with no ratings, want 0", len(items))
	}
}

func TestNeighborhoodCancellation(t *testing.T) {
	adapter := newTestLibrary(t, sampleBooks(), map[int64]map[int64]float64{
		1: {1: 1, 2: 3, 3: 5},
		2: {1: 1, 2: 3, 3: 5},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &NeighborhoodRecall{Store: adapter}
	target := map[int64]float64{1: 1, 2: 3, 3: 5}
	if _, err := r.Neighborhood(ctx, 1, target); err == nil {
		t.Error("Neighborhood() error = nil with cancelled context, want context error")
	}
}
