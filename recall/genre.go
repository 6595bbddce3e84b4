package recall

import (
	"context"
	"math/rand"
	"sort"

	"github.com/Elyon-code/book-recommendation-engine/core"
	"github.com/Elyon-code/book-recommendation-engine/pipeline"
	"github.com/Elyon-code/book-recommendation-engine/pkg/utils"
)

// genreCountCap 限制单个分类内评分数量对权重的影响：
// 超过 5 条评分后不再增加权重，避免“量大分平”的分类仅靠数量压过高分分类。
const genreCountCap = 5

// GenrePreference 是一个分类的偏好聚合：用户在该分类下的平均分、评分数与权重。
type GenrePreference struct {
	Genre   string
	Average float64
	Count   int
	Weight  float64 // Average * min(Count, 5)
}

// GenrePreferences 对用户自己的评分按图书分类聚合并排序。
// ratings 是用户的 bookID -> score；books 提供每本书的分类。
// 排序：Weight 降序，同权重按分类名升序（保证可复现）。
// 无评分返回空切片：这是“无内容信号”，不是错误。
func GenrePreferences(ratings map[int64]float64, books map[int64]*core.Book) []GenrePreference {
	type agg struct {
		sum   float64
		count int
	}
	byGenre := make(map[string]*agg)
	for bookID, score := range ratings {
		b, ok := books[bookID]
		if !ok || b.Genre == "" {
			continue
		}
		a := byGenre[b.Genre]
		if a == nil {
			a = &agg{}
			byGenre[b.Genre] = a
		}
		a.sum += score
		a.count++
	}

	prefs := make([]GenrePreference, 0, len(byGenre))
	for genre, a := range byGenre {
		avg := a.sum / float64(a.count)
		capped := a.count
		if capped > genreCountCap {
			capped = genreCountCap
		}
		prefs = append(prefs, GenrePreference{
			Genre:   genre,
			Average: avg,
			Count:   a.count,
			Weight:  avg * float64(capped),
		})
	}

	sort.Slice(prefs, func(i, j int) bool {
		if prefs[i].Weight == prefs[j].Weight {
			return prefs[i].Genre < prefs[j].Genre
		}
		return prefs[i].Weight > prefs[j].Weight
	})
	return prefs
}

// PreferredGenres 返回用户偏好最高的 topN 个分类名（topN <= 0 时取 2）。
func PreferredGenres(ctx context.Context, store core.RatingStore, userID int64, topN int) ([]string, error) {
	if store == nil {
		return nil, nil
	}
	if topN <= 0 {
		topN = 2
	}

	ratings, err := store.RatingsOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		return []string{}, nil
	}

	ids := make([]int64, 0, len(ratings))
	for id := range ratings {
		ids = append(ids, id)
	}
	books, err := store.BooksByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	prefs := GenrePreferences(ratings, books)
	if len(prefs) > topN {
		prefs = prefs[:topN]
	}
	genres := make([]string, 0, len(prefs))
	for _, p := range prefs {
		genres = append(genres, p.Genre)
	}
	return genres, nil
}

// GenreRecall 是基于内容的召回源：按用户的偏好分类选未读图书。
//
// 核心思想："用户偏爱某些分类，推荐这些分类下还没评过分的书"
//
// 这条路径是粗过滤而不是精排：命中偏好分类即可入候选，
// Item.Score 取所属分类的偏好权重，供下游 Blend 归一化使用。
type GenreRecall struct {
	Store core.RatingStore

	// TopGenres 参与召回的偏好分类数，默认 2
	TopGenres int

	// TopK 候选上限，默认 5
	TopK int

	// Shuffle 为 true 时在命中分类的图书内随机选取（原始行为）；
	// 为 false 时按图书 ID 升序，保证可复现
	Shuffle bool
}

func (r *GenreRecall) Name() string { return "recall.genre" }

func (r *GenreRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *GenreRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *GenreRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil || rctx == nil || rctx.UserID == 0 {
		return nil, nil
	}

	ratings, err := r.Store.RatingsOf(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		// 新用户没有内容信号，由兜底策略接管
		return nil, nil
	}

	ids := make([]int64, 0, len(ratings))
	for id := range ratings {
		ids = append(ids, id)
	}
	rated := make(map[int64]struct{}, len(ratings))
	for id := range ratings {
		rated[id] = struct{}{}
	}

	books, err := r.Store.BooksByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	topGenres := r.TopGenres
	if topGenres <= 0 {
		topGenres = 2
	}
	prefs := GenrePreferences(ratings, books)
	if len(prefs) > topGenres {
		prefs = prefs[:topGenres]
	}
	if len(prefs) == 0 {
		return nil, nil
	}

	weights := make(map[string]float64, len(prefs))
	genres := make([]string, 0, len(prefs))
	for _, p := range prefs {
		genres = append(genres, p.Genre)
		weights[p.Genre] = p.Weight
	}

	candidates, err := r.Store.BooksByGenre(ctx, genres, rated)
	if err != nil {
		return nil, err
	}

	if r.Shuffle {
		rand.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
	} else {
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 5
	}
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	out := make([]*core.Item, 0, len(candidates))
	for _, b := range candidates {
		it := core.NewItem(b.ID)
		it.Score = weights[b.Genre]
		it.SetBook(b)
		it.PutLabel("recall_source", utils.Label{Value: "genre", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
