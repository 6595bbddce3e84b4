package recall

import (
	"context"
	"strconv"

	"github.com/Elyon-code/book-recommendation-engine/core"
	"github.com/Elyon-code/book-recommendation-engine/pipeline"
	"github.com/Elyon-code/book-recommendation-engine/pkg/utils"
)

// TopRated 是全局热门召回源：全体用户平均分最高的图书。
// 作为个性化信号缺失时的兜底（catch-all），也可独立使用。
//   - 如果配置了 KeyValueStore + Key，优先用 ZRange 读预热的热门榜
//   - 否则从 RatingStore 现算（TopRatedBooks）
//   - 整个评分语料为空时返回空结果：这是“数据不足”，不是错误
//
// TopRated 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用
type TopRated struct {
	Ratings core.RatingStore

	// Cache 可选：热门榜缓存，实现 core.KeyValueStore 时用 ZRange 读取
	Cache core.Store
	// Key 热门榜的存储 key，例如 "library:top"
	Key string

	// Limit 返回数量，默认 5
	Limit int
}

func (r *TopRated) Name() string { return "recall.toprated" }

func (r *TopRated) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *TopRated) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *TopRated) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	limit := r.Limit
	if limit <= 0 {
		limit = 5
	}

	// 优先从缓存的有序集合读取
	if r.Cache != nil && r.Key != "" {
		if kv, ok := r.Cache.(core.KeyValueStore); ok {
			members, err := kv.ZRange(ctx, r.Key, 0, int64(limit)-1)
			if err == nil && len(members) > 0 {
				return r.fromCache(ctx, kv, members)
			}
		}
	}

	if r.Ratings == nil {
		return nil, nil
	}
	top, err := r.Ratings.TopRatedBooks(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(top))
	for _, rb := range top {
		it := core.NewItem(rb.Book.ID)
		it.Score = rb.Average
		it.SetBook(rb.Book)
		it.PutLabel("recall_source", utils.Label{Value: "toprated", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// fromCache 从 zset 成员还原候选：成员为图书 ID，分数为平均分。
func (r *TopRated) fromCache(
	ctx context.Context,
	kv core.KeyValueStore,
	members []string,
) ([]*core.Item, error) {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if id, err := strconv.ParseInt(m, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}

	var books map[int64]*core.Book
	if r.Ratings != nil {
		books, _ = r.Ratings.BooksByID(ctx, ids)
	}

	out := make([]*core.Item, 0, len(ids))
	for i, id := range ids {
		it := core.NewItem(id)
		if score, err := kv.ZScore(ctx, r.Key, members[i]); err == nil {
			it.Score = score
		}
		if b, ok := books[id]; ok {
			it.SetBook(b)
		}
		it.PutLabel("recall_source", utils.Label{Value: "toprated", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
