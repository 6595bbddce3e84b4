package rerank

import (
	"context"
	"sort"
	"strings"

	"github.com/Elyon-code/book-recommendation-engine/core"
	"github.com/Elyon-code/book-recommendation-engine/pipeline"
)

// Blend 是多路召回的混合节点：把不同来源的候选放到同一把尺子上再合并。
//
// 不同召回路径的原始分数量纲不同（分类权重最高 25 分、邻域平均分最高 5 分），
// 直接相加没有意义。Blend 的做法：
//  1. 按 recall_source 分组
//  2. 组内 min-max 归一化到 [0, 1]（单个候选或同分组归一为 1）
//  3. 同一图书在多路出现时，加权分数累加（被多路召回是更强的信号）
//  4. 按混合分降序排序，同分按 ID 升序保证可复现
//
// 去重在这里完成，因此上游 Fanout 应使用 union 策略保留各路贡献。
type Blend struct {
	// Weights 是各召回源的混合权重，key 为 recall_source（如 "genre"），
	// 未配置的来源权重为 1
	Weights map[string]float64
}

func (n *Blend) Name() string {
	return "rerank.blend"
}

func (n *Blend) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Blend) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	// 1. 按来源分组
	groups := make(map[string][]*core.Item)
	for _, it := range items {
		if it == nil {
			continue
		}
		groups[sourceOf(it)] = append(groups[sourceOf(it)], it)
	}

	// 2. 组内归一化 + 3. 按 ID 累加加权分
	type blended struct {
		item  *core.Item
		score float64
	}
	merged := make(map[int64]*blended)
	order := make([]int64, 0, len(items))

	for source, group := range groups {
		weight := 1.0
		if n.Weights != nil {
			if w, ok := n.Weights[source]; ok {
				weight = w
			}
		}

		min, max := group[0].Score, group[0].Score
		for _, it := range group {
			if it.Score < min {
				min = it.Score
			}
			if it.Score > max {
				max = it.Score
			}
		}

		for _, it := range group {
			norm := 1.0
			if max > min {
				norm = (it.Score - min) / (max - min)
			}

			b, ok := merged[it.ID]
			if !ok {
				merged[it.ID] = &blended{item: it, score: weight * norm}
				order = append(order, it.ID)
				continue
			}
			b.score += weight * norm
			// 合并多路的 label，保留召回来源轨迹
			for k, v := range it.Labels {
				b.item.PutLabel(k, v)
			}
			// 任何一路带了完整图书信息就保留
			if b.item.Book() == nil {
				if book := it.Book(); book != nil {
					b.item.SetBook(book)
				}
			}
		}
	}

	out := make([]*core.Item, 0, len(merged))
	for _, id := range order {
		b := merged[id]
		b.item.Score = b.score
		out = append(out, b.item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// sourceOf 读取候选的召回来源。多路合并时 label 以 "|" 累积，取首个。
func sourceOf(it *core.Item) string {
	lbl, ok := it.GetLabel("recall_source")
	if !ok {
		return ""
	}
	if i := strings.IndexByte(lbl.Value, '|'); i >= 0 {
		return lbl.Value[:i]
	}
	return lbl.Value
}
