package core

import "time"

// RecommendConfig 是推荐引擎的配置接口，用于提供各环节默认值。
type RecommendConfig interface {
	// MinCommonBooks 计算相似度所需的最少共同评分数
	MinCommonBooks() int

	// SimilarityThreshold 进入邻域的最低相似度（严格大于）
	SimilarityThreshold() float64

	// NeighborhoodSize 邻域内最多保留的相似用户数
	NeighborhoodSize() int

	// TopGenres 内容召回使用的偏好分类数
	TopGenres() int

	// GenreCandidates 内容召回的候选上限
	GenreCandidates() int

	// CollabCandidates 协同召回的候选上限
	CollabCandidates() int

	// ResultLimit 最终返回的推荐数上限
	ResultLimit() int

	// FallbackLimit 全局热门兜底的数量
	FallbackLimit() int

	// RecallTimeout 每个召回源的超时时间
	RecallTimeout() time.Duration
}

// DefaultRecommendConfig 是默认配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) MinCommonBooks() int { return 3 }

func (c *DefaultRecommendConfig) SimilarityThreshold() float64 { return 0.3 }

func (c *DefaultRecommendConfig) NeighborhoodSize() int { return 5 }

func (c *DefaultRecommendConfig) TopGenres() int { return 2 }

func (c *DefaultRecommendConfig) GenreCandidates() int { return 5 }

func (c *DefaultRecommendConfig) CollabCandidates() int { return 5 }

func (c *DefaultRecommendConfig) ResultLimit() int { return 10 }

func (c *DefaultRecommendConfig) FallbackLimit() int { return 5 }

func (c *DefaultRecommendConfig) RecallTimeout() time.Duration { return 2 * time.Second }
