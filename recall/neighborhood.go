package recall

import (
	"context"
	"sort"

	"github.com/Elyon-code/book-recommendation-engine/core"
	"github.com/Elyon-code/book-recommendation-engine/pipeline"
	"github.com/Elyon-code/book-recommendation-engine/pkg/utils"
)

// UserSimilarity 是目标用户与一个候选用户的相似度。
type UserSimilarity struct {
	UserID     int64
	Similarity float64
}

// NeighborhoodRecall 是基于用户的协同过滤召回源（User-based CF）。
//
// 核心思想："兴趣相似的用户，喜欢相似的书"
//
// 算法流程：
//  1. 取目标用户的评分映射
//  2. 对每个其他用户计算皮尔逊相关系数
//  3. 保留严格大于 Threshold 的用户，取 TopK 组成邻域
//  4. 推荐邻域评过、目标用户未评过的书，按邻域平均分排序
//
// 每次请求全量线性扫描其他用户（O(U·R)），是整条链路的主要开销；
// 规模化时应在外层按（无序用户对 + 评分版本）做记忆化，核心保持纯函数。
type NeighborhoodRecall struct {
	Store core.RatingStore

	// Threshold 进入邻域的最低相似度（严格大于），默认 0.3；低于它视为噪声
	Threshold float64

	// NeighborhoodSize 邻域内最多保留的相似用户数，默认 5
	NeighborhoodSize int

	// TopK 最终返回的候选上限，默认 5
	TopK int

	// MinCommonBooks 计算相似度所需的最少共同评分数，默认 3
	MinCommonBooks int
}

func (r *NeighborhoodRecall) Name() string { return "recall.neighborhood" }

func (r *NeighborhoodRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *NeighborhoodRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *NeighborhoodRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil || rctx == nil || rctx.UserID == 0 {
		return nil, nil
	}

	targetRatings, err := r.Store.RatingsOf(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	if len(targetRatings) == 0 {
		return nil, nil
	}

	neighbors, err := r.Neighborhood(ctx, rctx.UserID, targetRatings)
	if err != nil {
		return nil, err
	}
	if len(neighbors) == 0 {
		return nil, nil
	}

	rated := make(map[int64]struct{}, len(targetRatings))
	for id := range targetRatings {
		rated[id] = struct{}{}
	}

	neighborIDs := make([]int64, 0, len(neighbors))
	for _, n := range neighbors {
		neighborIDs = append(neighborIDs, n.UserID)
	}

	candidates, err := r.Store.BooksRatedBy(ctx, neighborIDs, rated)
	if err != nil {
		return nil, err
	}

	// 邻域平均分降序，平分按 ID 升序保证可复现
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Average == candidates[j].Average {
			return candidates[i].Book.ID < candidates[j].Book.ID
		}
		return candidates[i].Average > candidates[j].Average
	})

	topK := r.TopK
	if topK <= 0 {
		topK = 5
	}
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	out := make([]*core.Item, 0, len(candidates))
	for _, c := range candidates {
		it := core.NewItem(c.Book.ID)
		it.Score = c.Average
		it.SetBook(c.Book)
		it.PutLabel("recall_source", utils.Label{Value: "neighborhood", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// Neighborhood 计算目标用户的相似用户邻域：
// 相似度严格大于 Threshold 的用户，按相似度降序取前 NeighborhoodSize 个。
// 相似度逐对即时计算，不缓存、不持久化。
func (r *NeighborhoodRecall) Neighborhood(
	ctx context.Context,
	userID int64,
	targetRatings map[int64]float64,
) ([]UserSimilarity, error) {
	others, err := r.Store.AllUsersExcept(ctx, userID)
	if err != nil {
		return nil, err
	}

	threshold := r.Threshold
	if threshold <= 0 {
		threshold = 0.3
	}
	minCommon := r.MinCommonBooks
	if minCommon <= 0 {
		minCommon = DefaultMinCommonBooks
	}
	size := r.NeighborhoodSize
	if size <= 0 {
		size = 5
	}

	similarities := make([]UserSimilarity, 0)
	for _, otherID := range others {
		// 邻域扫描期间可被 ctx 取消：无任何写操作，放弃是安全的
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		otherRatings, err := r.Store.RatingsOf(ctx, otherID)
		if err != nil || len(otherRatings) == 0 {
			continue
		}
		sim := Pearson(targetRatings, otherRatings, minCommon)
		if sim > threshold {
			similarities = append(similarities, UserSimilarity{UserID: otherID, Similarity: sim})
		}
	}

	sort.Slice(similarities, func(i, j int) bool {
		if similarities[i].Similarity == similarities[j].Similarity {
			return similarities[i].UserID < similarities[j].UserID
		}
		return similarities[i].Similarity > similarities[j].Similarity
	})
	if len(similarities) > size {
		similarities = similarities[:size]
	}
	return similarities, nil
}
