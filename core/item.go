package core

import "github.com/Elyon-code/book-recommendation-engine/pkg/utils"

// Item 是推荐链路中的统一承载结构：候选图书的 ID、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策；Meta 携带展示字段（如 *Book）。
type Item struct {
	ID     int64
	Score  float64
	Meta   map[string]any
	Labels map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:     id,
		Score:  0,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// GetLabel 读取 Label。
func (it *Item) GetLabel(key string) (utils.Label, bool) {
	if it.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := it.Labels[key]
	return lbl, ok
}

// Book 从 Meta 中取出展示字段；召回源负责写入。
func (it *Item) Book() *Book {
	if it.Meta == nil {
		return nil
	}
	b, _ := it.Meta["book"].(*Book)
	return b
}

// SetBook 把图书展示字段挂到 Meta，并同步 genre 标签（便于规则/解释）。
func (it *Item) SetBook(b *Book) {
	if b == nil {
		return
	}
	if it.Meta == nil {
		it.Meta = make(map[string]any)
	}
	it.Meta["book"] = b
	if b.Genre != "" {
		it.PutLabel("genre", utils.Label{Value: b.Genre, Source: "catalog"})
	}
}
