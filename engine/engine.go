// Package engine 是推荐引擎的门面：组装召回/过滤/重排 Pipeline，
// 对外暴露相似度、偏好分类、推荐三个领域操作。
package engine

import (
	"context"
	"fmt"

	"github.com/Elyon-code/book-recommendation-engine/core"
	"github.com/Elyon-code/book-recommendation-engine/filter"
	"github.com/Elyon-code/book-recommendation-engine/pipeline"
	"github.com/Elyon-code/book-recommendation-engine/recall"
	"github.com/Elyon-code/book-recommendation-engine/rerank"
)

// Engine 是面向调用方的推荐引擎。
//
// 默认 Pipeline：
//
//	Fanout(union){ GenreRecall, NeighborhoodRecall }
//	  -> FilterNode{ RatedFilter }
//	  -> Blend
//	  -> TopN(ResultLimit)
//
// 两条召回路径都空手而归时走全局热门兜底（同样过已评分过滤）。
// 整个评分语料为空时返回空结果，这是“数据不足”，不是错误。
type Engine struct {
	ratings core.RatingStore
	cfg     core.RecommendConfig
	pipe    *pipeline.Pipeline

	fallback *recall.TopRated
	rated    *filter.RatedFilter
}

// Option 配置 Engine。
type Option func(*Engine)

// WithConfig 替换默认配置。
func WithConfig(cfg core.RecommendConfig) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithPipeline 替换默认 Pipeline（高级用法：配置驱动或自定义节点链）。
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(e *Engine) { e.pipe = p }
}

// WithTopRatedCache 为热门兜底挂一个预热的有序集合缓存。
func WithTopRatedCache(cache core.Store, key string) Option {
	return func(e *Engine) {
		e.fallback.Cache = cache
		e.fallback.Key = key
	}
}

// New 创建一个推荐引擎。ratings 是评分与目录的只读数据源。
func New(ratings core.RatingStore, opts ...Option) *Engine {
	e := &Engine{
		ratings: ratings,
		cfg:     &core.DefaultRecommendConfig{},
	}
	e.fallback = &recall.TopRated{Ratings: ratings}
	e.rated = filter.NewRatedFilter(ratings)

	for _, opt := range opts {
		opt(e)
	}

	e.fallback.Limit = e.cfg.FallbackLimit()
	if e.pipe == nil {
		e.pipe = e.defaultPipeline()
	}
	return e
}

func (e *Engine) defaultPipeline() *pipeline.Pipeline {
	cfg := e.cfg
	return &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Fanout{
				Sources: []recall.Source{
					&recall.GenreRecall{
						Store:     e.ratings,
						TopGenres: cfg.TopGenres(),
						TopK:      cfg.GenreCandidates(),
					},
					&recall.NeighborhoodRecall{
						Store:            e.ratings,
						Threshold:        cfg.SimilarityThreshold(),
						NeighborhoodSize: cfg.NeighborhoodSize(),
						TopK:             cfg.CollabCandidates(),
						MinCommonBooks:   cfg.MinCommonBooks(),
					},
				},
				Timeout:       cfg.RecallTimeout(),
				MergeStrategy: "union",
			},
			&filter.FilterNode{Filters: []filter.Filter{e.rated}},
			&rerank.Blend{},
			&rerank.TopNNode{N: cfg.ResultLimit()},
		},
	}
}

// Similarity 计算两个用户的皮尔逊相关系数，结果落在 [-1, 1]。
// 未注册或没有评分的用户视为空评分集，相似度为 0。
// 自己和自己同样走完整计算：评分不足或方差退化时是 0，不特判为 1。
func (e *Engine) Similarity(ctx context.Context, userA, userB int64) (float64, error) {
	ratingsA, err := e.ratings.RatingsOf(ctx, userA)
	if err != nil {
		return 0, err
	}
	ratingsB, err := e.ratings.RatingsOf(ctx, userB)
	if err != nil {
		return 0, err
	}
	return recall.Pearson(ratingsA, ratingsB, e.cfg.MinCommonBooks()), nil
}

// PreferredGenres 返回用户偏好最高的 topN 个分类名（topN <= 0 时用配置默认值）。
// 没有任何评分的用户得到空切片。
func (e *Engine) PreferredGenres(ctx context.Context, userID int64, topN int) ([]string, error) {
	if topN <= 0 {
		topN = e.cfg.TopGenres()
	}
	return recall.PreferredGenres(ctx, e.ratings, userID, topN)
}

// Recommend 为用户生成推荐图书列表。
//
// 错误约定：只有“用户不存在”是错误（NOT_FOUND）；
// 冷启动、无邻域、空语料都是正常的业务状态，用兜底或空结果表达。
// 结果保证不含该用户已评分的书。
func (e *Engine) Recommend(ctx context.Context, userID int64) ([]*core.Book, error) {
	exists, err := e.ratings.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotFound,
			fmt.Sprintf("engine: user %d not found", userID))
	}

	rctx := &core.RecommendContext{UserID: userID, Scene: "book_rec"}

	items, err := e.pipe.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		items, err = e.fallbackItems(ctx, rctx)
		if err != nil {
			return nil, err
		}
	}

	return e.hydrate(ctx, items)
}

// fallbackItems 走全局热门兜底，并保证同样不含用户已评分的书。
func (e *Engine) fallbackItems(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	items, err := e.fallback.Recall(ctx, rctx)
	if err != nil {
		return nil, err
	}
	node := &filter.FilterNode{Filters: []filter.Filter{e.rated}}
	return node.Process(ctx, rctx, items)
}

// hydrate 把 Item 还原为展示用的图书记录，缺失展示字段时回源补全。
func (e *Engine) hydrate(ctx context.Context, items []*core.Item) ([]*core.Book, error) {
	missing := make([]int64, 0)
	for _, it := range items {
		if it.Book() == nil {
			missing = append(missing, it.ID)
		}
	}

	var fetched map[int64]*core.Book
	if len(missing) > 0 {
		var err error
		fetched, err = e.ratings.BooksByID(ctx, missing)
		if err != nil {
			return nil, err
		}
	}

	books := make([]*core.Book, 0, len(items))
	for _, it := range items {
		if b := it.Book(); b != nil {
			books = append(books, b)
			continue
		}
		if b, ok := fetched[it.ID]; ok {
			books = append(books, b)
		}
	}
	return books, nil
}
