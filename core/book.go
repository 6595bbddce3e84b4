package core

// Book 是图书目录中的一条记录，由外部目录方维护。
// 推荐核心只读不写：Genre 是内容召回的唯一内容特征。
type Book struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Genre         string `json:"genre"`
	Description   string `json:"description,omitempty"`
	PublishedYear int    `json:"published_year,omitempty"`
}

// RatedBook 是带评分聚合的图书：Average 是某个用户群体对该书的平均分。
// 邻域召回中为邻居用户的平均分；全局热门中为全体用户的平均分。
type RatedBook struct {
	Book    *Book   `json:"book"`
	Average float64 `json:"average"`
}
