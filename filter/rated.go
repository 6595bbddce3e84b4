package filter

import (
	"context"

	"github.com/Elyon-code/book-recommendation-engine/core"
)

// RatedFilter 是已评分过滤器：过滤掉用户已经评过分的图书。
// 这是推荐结果的硬约束，无论候选来自哪条召回路径（包括兜底热门榜），
// 用户读过并打过分的书都不应再出现在结果里。
type RatedFilter struct {
	// Store 用于读取用户的评分历史
	Store core.RatingStore
}

// NewRatedFilter 创建一个已评分过滤器。
func NewRatedFilter(store core.RatingStore) *RatedFilter {
	return &RatedFilter{Store: store}
}

func (f *RatedFilter) Name() string {
	return "filter.rated"
}

func (f *RatedFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx == nil || rctx.UserID == 0 || f.Store == nil {
		return false, nil
	}

	ratings, err := f.Store.RatingsOf(ctx, rctx.UserID)
	if err != nil {
		// 读不到评分历史就无法证明候选未被评过，错误交给上层按命中处理
		return false, err
	}
	_, rated := ratings[item.ID]
	return rated, nil
}
