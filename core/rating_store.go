package core

import "context"

// RatingStore 是评分数据的领域接口（Rating Store Accessor）。
//
// 核心只通过它读取评分与目录的一致性快照；写入（评分 upsert、目录编辑）
// 由外部实现方负责，并保证同一 (user, book) 至多一条评分。
//
// 实现：
//   - recall.StoreRatingAdapter 基于 core.Store（内存/Redis）实现此接口
//   - 宿主服务也可以直接用自己的持久层实现
type RatingStore interface {
	// UserExists 判断用户是否存在
	UserExists(ctx context.Context, userID int64) (bool, error)

	// RatingsOf 返回用户的评分映射 bookID -> score（不存在或无评分返回空 map）
	RatingsOf(ctx context.Context, userID int64) (map[int64]float64, error)

	// AllUsersExcept 返回除指定用户外的所有用户 ID
	AllUsersExcept(ctx context.Context, userID int64) ([]int64, error)

	// BooksByID 批量查图书记录（缺失的 ID 不出现在结果中）
	BooksByID(ctx context.Context, ids []int64) (map[int64]*Book, error)

	// BooksByGenre 返回属于给定分类、且不在排除集合中的图书
	BooksByGenre(ctx context.Context, genres []string, excluding map[int64]struct{}) ([]*Book, error)

	// BooksRatedBy 返回被给定用户群评过分、且不在排除集合中的图书，
	// 附带该用户群对每本书的平均分
	BooksRatedBy(ctx context.Context, userIDs []int64, excluding map[int64]struct{}) ([]RatedBook, error)

	// TopRatedBooks 返回全局平均分最高的 limit 本书（全局兜底）
	TopRatedBooks(ctx context.Context, limit int) ([]RatedBook, error)
}
