package recall

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/Elyon-code/book-recommendation-engine/core"
)

// StoreRatingAdapter 是基于 core.Store 接口的评分数据适配器，
// 实现 core.RatingStore，从内存/Redis 等存储中读取评分与目录快照。
//
// key 约定：
//
//	用户列表：    {KeyPrefix}:users            -> []int64
//	图书列表：    {KeyPrefix}:books            -> []int64
//	图书记录：    {KeyPrefix}:book:{bookID}    -> core.Book JSON
//	分类倒排：    {KeyPrefix}:genre:{genre}    -> []int64
//	用户评分：    {KeyPrefix}:ratings:user:{userID} -> map[bookID]score
//	图书评分：    {KeyPrefix}:ratings:book:{bookID} -> map[userID]score
//
// 写入走本适配器的 AddUser/AddBook/SaveRating；SaveRating 以“后写覆盖”
// 维护 (user, book) 至多一条评分的不变量。核心只经由 RatingStore 接口读。
type StoreRatingAdapter struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀
	KeyPrefix string
}

// NewStoreRatingAdapter 创建一个基于 core.Store 的评分适配器。
func NewStoreRatingAdapter(s core.Store, keyPrefix string) *StoreRatingAdapter {
	if keyPrefix == "" {
		keyPrefix = "library"
	}
	return &StoreRatingAdapter{
		store:     s,
		KeyPrefix: keyPrefix,
	}
}

// 确保实现 core.RatingStore 接口
var _ core.RatingStore = (*StoreRatingAdapter)(nil)

func (a *StoreRatingAdapter) Name() string { return "store_rating_adapter" }

func (a *StoreRatingAdapter) UserExists(ctx context.Context, userID int64) (bool, error) {
	users, err := a.readIDs(ctx, a.KeyPrefix+":users")
	if err != nil {
		return false, err
	}
	for _, id := range users {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (a *StoreRatingAdapter) RatingsOf(ctx context.Context, userID int64) (map[int64]float64, error) {
	return a.readScores(ctx, a.KeyPrefix+":ratings:user:"+strconv.FormatInt(userID, 10))
}

func (a *StoreRatingAdapter) AllUsersExcept(ctx context.Context, userID int64) ([]int64, error) {
	users, err := a.readIDs(ctx, a.KeyPrefix+":users")
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(users))
	for _, id := range users {
		if id != userID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (a *StoreRatingAdapter) BooksByID(ctx context.Context, ids []int64) (map[int64]*core.Book, error) {
	if len(ids) == 0 {
		return make(map[int64]*core.Book), nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, a.bookKey(id))
	}
	kvs, err := a.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}
	books := make(map[int64]*core.Book, len(kvs))
	for _, data := range kvs {
		var b core.Book
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		books[b.ID] = &b
	}
	return books, nil
}

func (a *StoreRatingAdapter) BooksByGenre(
	ctx context.Context,
	genres []string,
	excluding map[int64]struct{},
) ([]*core.Book, error) {
	idSet := make(map[int64]struct{})
	for _, g := range genres {
		ids, err := a.readIDs(ctx, a.KeyPrefix+":genre:"+g)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if _, skip := excluding[id]; skip {
				continue
			}
			idSet[id] = struct{}{}
		}
	}

	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	books, err := a.BooksByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Book, 0, len(books))
	for _, b := range books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a *StoreRatingAdapter) BooksRatedBy(
	ctx context.Context,
	userIDs []int64,
	excluding map[int64]struct{},
) ([]core.RatedBook, error) {
	type agg struct {
		sum   float64
		count int
	}
	byBook := make(map[int64]*agg)
	for _, uid := range userIDs {
		ratings, err := a.RatingsOf(ctx, uid)
		if err != nil {
			return nil, err
		}
		for bookID, score := range ratings {
			if _, skip := excluding[bookID]; skip {
				continue
			}
			g := byBook[bookID]
			if g == nil {
				g = &agg{}
				byBook[bookID] = g
			}
			g.sum += score
			g.count++
		}
	}

	ids := make([]int64, 0, len(byBook))
	for id := range byBook {
		ids = append(ids, id)
	}
	books, err := a.BooksByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]core.RatedBook, 0, len(byBook))
	for id, g := range byBook {
		b, ok := books[id]
		if !ok {
			continue
		}
		out = append(out, core.RatedBook{Book: b, Average: g.sum / float64(g.count)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Average == out[j].Average {
			return out[i].Book.ID < out[j].Book.ID
		}
		return out[i].Average > out[j].Average
	})
	return out, nil
}

func (a *StoreRatingAdapter) TopRatedBooks(ctx context.Context, limit int) ([]core.RatedBook, error) {
	if limit <= 0 {
		limit = 5
	}
	bookIDs, err := a.readIDs(ctx, a.KeyPrefix+":books")
	if err != nil {
		return nil, err
	}

	rated := make([]core.RatedBook, 0, len(bookIDs))
	for _, id := range bookIDs {
		avg, count, err := a.bookAverage(ctx, id)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			// 没有任何评分的书不进热门榜
			continue
		}
		rated = append(rated, core.RatedBook{Book: &core.Book{ID: id}, Average: avg})
	}
	sort.Slice(rated, func(i, j int) bool {
		if rated[i].Average == rated[j].Average {
			return rated[i].Book.ID < rated[j].Book.ID
		}
		return rated[i].Average > rated[j].Average
	})
	if len(rated) > limit {
		rated = rated[:limit]
	}

	// 补全展示字段
	ids := make([]int64, 0, len(rated))
	for _, rb := range rated {
		ids = append(ids, rb.Book.ID)
	}
	books, err := a.BooksByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]core.RatedBook, 0, len(rated))
	for _, rb := range rated {
		if b, ok := books[rb.Book.ID]; ok {
			out = append(out, core.RatedBook{Book: b, Average: rb.Average})
		}
	}
	return out, nil
}

// BookAverage 返回一本书的全局平均分与评分数（无评分时为 0, 0）。
func (a *StoreRatingAdapter) BookAverage(ctx context.Context, bookID int64) (float64, int, error) {
	return a.bookAverage(ctx, bookID)
}

func (a *StoreRatingAdapter) bookAverage(ctx context.Context, bookID int64) (float64, int, error) {
	scores, err := a.readScores(ctx, a.KeyPrefix+":ratings:book:"+strconv.FormatInt(bookID, 10))
	if err != nil {
		return 0, 0, err
	}
	if len(scores) == 0 {
		return 0, 0, nil
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores)), len(scores), nil
}

// ====== 写入辅助（外部协作方职责；核心只读） ======

// AddUser 注册一个用户（幂等）。
func (a *StoreRatingAdapter) AddUser(ctx context.Context, userID int64) error {
	return a.appendID(ctx, a.KeyPrefix+":users", userID)
}

// AddBook 写入一条图书记录，并维护图书列表与分类倒排（幂等）。
func (a *StoreRatingAdapter) AddBook(ctx context.Context, b *core.Book) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	if err := a.store.Set(ctx, a.bookKey(b.ID), data); err != nil {
		return err
	}
	if err := a.appendID(ctx, a.KeyPrefix+":books", b.ID); err != nil {
		return err
	}
	if b.Genre != "" {
		return a.appendID(ctx, a.KeyPrefix+":genre:"+b.Genre, b.ID)
	}
	return nil
}

// SaveRating 以 upsert 语义写入评分：同一 (user, book) 后写覆盖。
// score 必须落在 [1, 5]。
func (a *StoreRatingAdapter) SaveRating(ctx context.Context, userID, bookID int64, score float64) error {
	if score < 1 || score > 5 {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput,
			"store: score must be between 1 and 5")
	}
	if err := a.AddUser(ctx, userID); err != nil {
		return err
	}

	userKey := a.KeyPrefix + ":ratings:user:" + strconv.FormatInt(userID, 10)
	userScores, err := a.readScores(ctx, userKey)
	if err != nil {
		return err
	}
	userScores[bookID] = score
	if err := a.writeScores(ctx, userKey, userScores); err != nil {
		return err
	}

	bookKey := a.KeyPrefix + ":ratings:book:" + strconv.FormatInt(bookID, 10)
	bookScores, err := a.readScores(ctx, bookKey)
	if err != nil {
		return err
	}
	bookScores[userID] = score
	return a.writeScores(ctx, bookKey, bookScores)
}

// ====== 内部编解码 ======

func (a *StoreRatingAdapter) bookKey(id int64) string {
	return a.KeyPrefix + ":book:" + strconv.FormatInt(id, 10)
}

func (a *StoreRatingAdapter) readIDs(ctx context.Context, key string) ([]int64, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []int64{}, nil
		}
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (a *StoreRatingAdapter) appendID(ctx context.Context, key string, id int64) error {
	ids, err := a.readIDs(ctx, key)
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	ids = append(ids, id)
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, data)
}

func (a *StoreRatingAdapter) readScores(ctx context.Context, key string) (map[int64]float64, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return make(map[int64]float64), nil
		}
		return nil, err
	}
	var scores map[int64]float64
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil, err
	}
	if scores == nil {
		scores = make(map[int64]float64)
	}
	return scores, nil
}

func (a *StoreRatingAdapter) writeScores(ctx context.Context, key string, scores map[int64]float64) error {
	data, err := json.Marshal(scores)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, data)
}

// SeedSampleLibrary 写入演示用的样本目录（五本书，五个分类），
// 便于示例与测试快速起步。
func SeedSampleLibrary(ctx context.Context, adapter *StoreRatingAdapter) error {
	books := []*core.Book{
		{ID: 1, Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Genre: "Classic"},
		{ID: 2, Title: "To Kill a Mockingbird", Author: "Harper Lee", Genre: "Fiction"},
		{ID: 3, Title: "1984", Author: "George Orwell", Genre: "Dystopian"},
		{ID: 4, Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance"},
		{ID: 5, Title: "The Catcher in the Rye", Author: "J.D. Salinger", Genre: "Coming-of-Age"},
	}
	for _, b := range books {
		if err := adapter.AddBook(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// SeedRatings 批量写入评分三元组，方便测试与示例准备数据。
func SeedRatings(ctx context.Context, adapter *StoreRatingAdapter, ratings []struct {
	UserID int64
	BookID int64
	Score  float64
}) error {
	for _, r := range ratings {
		if err := adapter.SaveRating(ctx, r.UserID, r.BookID, r.Score); err != nil {
			return err
		}
	}
	return nil
}
