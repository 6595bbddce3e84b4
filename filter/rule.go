package filter

import (
	"context"

	"github.com/Elyon-code/book-recommendation-engine/core"
	"github.com/Elyon-code/book-recommendation-engine/pkg/dsl"
)

// RuleFilter 是规则过滤器：用 CEL 表达式描述过滤条件，命中即移除。
//
// 表达式以 Item / Label / RecommendContext 为输入，例如：
//
//	label.genre == "Dystopian"              过滤掉反乌托邦类
//	item.score < 0.2                        过滤掉低分候选
//	label.recall_source.contains("toprated") 过滤掉纯热门兜底
type RuleFilter struct {
	// Expr 是 CEL 过滤表达式，为空时不过滤任何物品
	Expr string
}

// NewRuleFilter 创建一个规则过滤器。
func NewRuleFilter(expr string) *RuleFilter {
	return &RuleFilter{Expr: expr}
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.Expr == "" {
		return false, nil
	}

	hit, err := dsl.NewEval(item, rctx).Evaluate(f.Expr)
	if err != nil {
		// 表达式错误时保守放行，不让配置问题影响出量
		return false, nil
	}
	return hit, nil
}
