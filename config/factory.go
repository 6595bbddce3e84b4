package config

import (
	"fmt"
	"time"

	"github.com/Elyon-code/book-recommendation-engine/core"
	"github.com/Elyon-code/book-recommendation-engine/filter"
	"github.com/Elyon-code/book-recommendation-engine/pipeline"
	"github.com/Elyon-code/book-recommendation-engine/pkg/conv"
	"github.com/Elyon-code/book-recommendation-engine/recall"
	"github.com/Elyon-code/book-recommendation-engine/rerank"
)

// Deps 是配置驱动构建 Node 时注入的运行期依赖。
// 配置只描述拓扑与参数，数据源由代码注入。
type Deps struct {
	// Ratings 是评分与目录的只读数据源（必须）
	Ratings core.RatingStore

	// Cache 可选：热门榜等预热数据的缓存
	Cache core.Store
}

// Factory 返回一个包含所有内置 Node 的工厂，各构建器持有注入的依赖。
func Factory(deps Deps) *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	// 注册 Recall Nodes
	factory.Register("recall.fanout", buildFanoutNode(deps))
	factory.Register("recall.genre", buildGenreNode(deps))
	factory.Register("recall.neighborhood", buildNeighborhoodNode(deps))
	factory.Register("recall.toprated", buildTopRatedNode(deps))

	// 注册 Filter Nodes
	factory.Register("filter", buildFilterNode(deps))

	// 注册 ReRank Nodes
	factory.Register("rerank.blend", buildBlendNode)
	factory.Register("rerank.topn", buildTopNNode)

	return factory
}

func buildFanoutNode(deps Deps) pipeline.NodeBuilder {
	return func(config map[string]interface{}) (pipeline.Node, error) {
		sourcesConfig, ok := config["sources"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("sources not found or invalid")
		}

		sources := make([]recall.Source, 0, len(sourcesConfig))
		for _, sc := range sourcesConfig {
			sourceMap, ok := sc.(map[string]interface{})
			if !ok {
				continue
			}
			sourceType := conv.ConfigGet[string](sourceMap, "type", "")
			switch sourceType {
			case "genre":
				sources = append(sources, genreRecall(deps, sourceMap))
			case "neighborhood":
				sources = append(sources, neighborhoodRecall(deps, sourceMap))
			case "toprated":
				sources = append(sources, topRatedRecall(deps, sourceMap))
			default:
				return nil, fmt.Errorf("unknown source type: %s", sourceType)
			}
		}

		fanout := &recall.Fanout{
			Sources:       sources,
			Dedup:         conv.ConfigGet[bool](config, "dedup", true),
			MergeStrategy: conv.ConfigGet[string](config, "merge_strategy", ""),
		}
		if sec := conv.ConfigGetInt64(config, "timeout", 0); sec > 0 {
			fanout.Timeout = time.Duration(sec) * time.Second
		}
		if n := conv.ConfigGetInt64(config, "max_concurrent", 0); n > 0 {
			fanout.MaxConcurrent = int(n)
		}
		return fanout, nil
	}
}

func genreRecall(deps Deps, config map[string]interface{}) *recall.GenreRecall {
	return &recall.GenreRecall{
		Store:     deps.Ratings,
		TopGenres: int(conv.ConfigGetInt64(config, "top_genres", 0)),
		TopK:      int(conv.ConfigGetInt64(config, "top_k", 0)),
		Shuffle:   conv.ConfigGet[bool](config, "shuffle", false),
	}
}

func neighborhoodRecall(deps Deps, config map[string]interface{}) *recall.NeighborhoodRecall {
	return &recall.NeighborhoodRecall{
		Store:            deps.Ratings,
		Threshold:        conv.ConfigGetFloat64(config, "threshold", 0),
		NeighborhoodSize: int(conv.ConfigGetInt64(config, "neighborhood_size", 0)),
		TopK:             int(conv.ConfigGetInt64(config, "top_k", 0)),
		MinCommonBooks:   int(conv.ConfigGetInt64(config, "min_common_books", 0)),
	}
}

func topRatedRecall(deps Deps, config map[string]interface{}) *recall.TopRated {
	return &recall.TopRated{
		Ratings: deps.Ratings,
		Cache:   deps.Cache,
		Key:     conv.ConfigGet[string](config, "key", ""),
		Limit:   int(conv.ConfigGetInt64(config, "limit", 0)),
	}
}

func buildGenreNode(deps Deps) pipeline.NodeBuilder {
	return func(config map[string]interface{}) (pipeline.Node, error) {
		return genreRecall(deps, config), nil
	}
}

func buildNeighborhoodNode(deps Deps) pipeline.NodeBuilder {
	return func(config map[string]interface{}) (pipeline.Node, error) {
		return neighborhoodRecall(deps, config), nil
	}
}

func buildTopRatedNode(deps Deps) pipeline.NodeBuilder {
	return func(config map[string]interface{}) (pipeline.Node, error) {
		return topRatedRecall(deps, config), nil
	}
}

func buildFilterNode(deps Deps) pipeline.NodeBuilder {
	return func(config map[string]interface{}) (pipeline.Node, error) {
		filtersConfig, ok := config["filters"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("filters not found or invalid")
		}

		filters := make([]filter.Filter, 0, len(filtersConfig))
		for _, fc := range filtersConfig {
			filterMap, ok := fc.(map[string]interface{})
			if !ok {
				continue
			}
			filterType := conv.ConfigGet[string](filterMap, "type", "")
			switch filterType {
			case "rated":
				filters = append(filters, filter.NewRatedFilter(deps.Ratings))
			case "rule":
				expr := conv.ConfigGet[string](filterMap, "expr", "")
				filters = append(filters, filter.NewRuleFilter(expr))
			default:
				return nil, fmt.Errorf("unknown filter type: %s", filterType)
			}
		}

		return &filter.FilterNode{Filters: filters}, nil
	}
}

func buildBlendNode(config map[string]interface{}) (pipeline.Node, error) {
	blend := &rerank.Blend{}
	if weightsMap, ok := config["weights"].(map[string]interface{}); ok {
		blend.Weights = conv.MapToFloat64(weightsMap)
	}
	return blend, nil
}

func buildTopNNode(config map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{
		N: int(conv.ConfigGetInt64(config, "n", 0)),
	}, nil
}
