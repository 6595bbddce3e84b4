package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/Elyon-code/book-recommendation-engine/core"
)

// stubRatings 是测试用的只读评分源。
type stubRatings struct {
	core.RatingStore
	ratings map[int64]map[int64]float64
}

func (s *stubRatings) RatingsOf(_ context.Context, userID int64) (map[int64]float64, error) {
	r, ok := s.ratings[userID]
	if !ok {
		return map[int64]float64{}, nil
	}
	return r, nil
}

func TestRatedFilter(t *testing.T) {
	f := NewRatedFilter(&stubRatings{ratings: map[int64]map[int64]float64{
		1: {10: 5, 20: 3},
	}})
	rctx := &core.RecommendContext{UserID: 1}

	tests := []struct {
		name   string
		itemID int64
		want   bool
	}{
		{"rated book is filtered", 10, true},
		{"another rated book is filtered", 20, true},
		{"unrated book passes", 30, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.ShouldFilter(context.Background(), rctx, core.NewItem(tt.itemID))
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter(%d) = %v, want %v", tt.itemID, got, tt.want)
			}
		})
	}
}

func TestRatedFilterNewUser(t *testing.T) {
	f := NewRatedFilter(&stubRatings{ratings: map[int64]map[int64]float64{}})
	got, err := f.ShouldFilter(context.Background(),
		&core.RecommendContext{UserID: 9}, core.NewItem(1))
	if err != nil {
		t.Fatalf("ShouldFilter() error = %v", err)
	}
	if got {
		t.Error("ShouldFilter() = true for a user with no ratings, want false")
	}
}

// failingRatings 是总是返回错误的评分源，模拟存储抖动。
type failingRatings struct {
	core.RatingStore
}

func (s *failingRatings) RatingsOf(_ context.Context, _ int64) (map[int64]float64, error) {
	return nil, errors.New("store unavailable")
}

func TestRatedFilterStoreError(t *testing.T) {
	f := NewRatedFilter(&failingRatings{})
	rctx := &core.RecommendContext{UserID: 1}

	// 过滤器把存储错误交给上层
	if _, err := f.ShouldFilter(context.Background(), rctx, core.NewItem(1)); err == nil {
		t.Fatal("ShouldFilter() error = nil on store failure, want error")
	}

	// FilterNode 对出错的候选按命中处理：存储抖动不能放行可能已评分的书
	node := &FilterNode{Filters: []Filter{f}}
	out, err := node.Process(context.Background(), rctx, []*core.Item{core.NewItem(1)})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 0 {
		t.Errorf("Process() kept %d items on store failure, want 0", len(out))
	}
}

func TestFilterNode(t *testing.T) {
	node := &FilterNode{Filters: []Filter{
		NewRatedFilter(&stubRatings{ratings: map[int64]map[int64]float64{
			1: {2: 4},
		}}),
	}}
	rctx := &core.RecommendContext{UserID: 1}

	items := []*core.Item{core.NewItem(1), core.NewItem(2), core.NewItem(3)}
	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Process() kept %d items, want 2", len(out))
	}
	for _, it := range out {
		if it.ID == 2 {
			t.Error("Process() kept the rated item 2")
		}
	}
	// 被过滤的 item 带上过滤原因 label
	if lbl, ok := items[1].GetLabel("filtered"); !ok || lbl.Source != "filter.rated" {
		t.Errorf("filtered label = %v, want source filter.rated", lbl)
	}
}

func TestRuleFilter(t *testing.T) {
	rctx := &core.RecommendContext{UserID: 1}

	item := core.NewItem(1)
	item.Score = 0.9
	item.SetBook(&core.Book{ID: 1, Genre: "Dystopian"})

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"empty expression keeps everything", "", false},
		{"genre match filters", `label.genre == "Dystopian"`, true},
		{"genre mismatch passes", `label.genre == "Romance"`, false},
		{"score rule", `item.score > 0.5`, true},
		{"invalid expression is ignored", `label.`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewRuleFilter(tt.expr)
			got, err := f.ShouldFilter(context.Background(), rctx, item)
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter() with %q = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}
