package recall

import "math"

// DefaultMinCommonBooks 是计算相似度所需的最少共同评分数。
// 低于该数量时相关性不可靠，定义为中性值 0，而不是错误。
const DefaultMinCommonBooks = 3

// Pearson 计算两个用户评分映射（bookID -> score）在共同评分图书上的
// 皮尔逊相关系数，结果落在 [-1, 1]。
//
// 约定的边界语义（是既定策略，不是疏漏）：
//   - 共同评分数 < minCommon（minCommon <= 0 时取 DefaultMinCommonBooks）→ 0
//   - 方差退化（任一用户对共同图书打分完全相同，分母为 0）→ 0
//
// 纯函数：无副作用，结果只取决于两个输入；数学上对称，
// 但实现按有序对逐次计算，调用方不要假设存在对称缓存。
func Pearson(a, b map[int64]float64, minCommon int) float64 {
	if minCommon <= 0 {
		minCommon = DefaultMinCommonBooks
	}

	// 共同评分的图书
	var (
		n      int
		sum1   float64
		sum2   float64
		sqSum1 float64
		sqSum2 float64
		pSum   float64
	)
	for bookID, scoreA := range a {
		scoreB, ok := b[bookID]
		if !ok {
			continue
		}
		n++
		sum1 += scoreA
		sum2 += scoreB
		sqSum1 += scoreA * scoreA
		sqSum2 += scoreB * scoreB
		pSum += scoreA * scoreB
	}

	if n < minCommon {
		return 0
	}

	fn := float64(n)
	num := pSum - sum1*sum2/fn
	den := math.Sqrt((sqSum1 - sum1*sum1/fn) * (sqSum2 - sum2*sum2/fn))
	if den == 0 {
		return 0
	}
	return num / den
}
