package recall

import (
	"context"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/ecomrec/core"
	"github.com/rushteam/ecomrec/dataset"
	"github.com/rushteam/ecomrec/pkg/utils"
)

// FillMissing 定义用户-物品矩阵中缺失评分的取值策略。
// 默认把缺失当 0 处理——"没有证据"被近似成"不偏好"，这是一个
// 显式的设计选择；需要更严格的缺失值策略时替换此函数即可，
// 相似度算法本身不用动。
type FillMissing func(userID, itemID int64) float64

// ZeroFill 是默认策略：缺失评分取 0。
func ZeroFill(int64, int64) float64 { return 0 }

// UserCF 是基于用户的协同过滤召回源（User-based CF，u2i）。
//
// 核心思想："兴趣相似的用户，喜欢相似的物品"
//
// 构建流程：
//  1. 交互表 pivot 成稠密 用户×物品 评分矩阵（缺失按 FillMissing 补）
//  2. 一次性计算全量用户两两余弦相似度并缓存
//  3. 查询时按相似度降序走邻居，收集目标用户没见过的物品
//
// 矩阵构建后只读，可并发查询；数据更新走整体重建 + 引用替换。
type UserCF struct {
	table *dataset.Table

	// users[i] 是矩阵行 i 对应的用户 ID，升序
	users []int64
	index map[int64]int

	// sim[i][j] 是用户 i 与 j 的余弦相似度
	sim [][]float64
}

// NewUserCF 从交互表构建协同过滤引擎。fill 为 nil 时使用 ZeroFill。
func NewUserCF(table *dataset.Table, fill FillMissing) *UserCF {
	if fill == nil {
		fill = ZeroFill
	}
	cf := &UserCF{
		table: table,
		index: make(map[int64]int),
	}
	if table == nil || table.Len() == 0 {
		return cf
	}

	cf.users = table.Users()
	for i, u := range cf.users {
		cf.index[u] = i
	}

	// pivot 成稠密矩阵：列为 [1, NumItems]
	numItems := table.NumItems()
	rows := make([][]float64, len(cf.users))
	for i, u := range cf.users {
		row := make([]float64, numItems)
		ratings := table.UserRatings(u)
		for col := int64(1); col <= numItems; col++ {
			if r, ok := ratings[col]; ok {
				row[col-1] = r
			} else {
				row[col-1] = fill(u, col)
			}
		}
		rows[i] = row
	}

	n := len(rows)
	norms := make([]float64, n)
	for i, row := range rows {
		var sum float64
		for _, v := range row {
			sum += v * v
		}
		norms[i] = math.Sqrt(sum)
	}

	cf.sim = make([][]float64, n)
	for i := range cf.sim {
		cf.sim[i] = make([]float64, n)
	}

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		row := i
		eg.Go(func() error {
			cf.sim[row][row] = 1
			for j := row + 1; j < n; j++ {
				cf.sim[row][j] = cosine(rows[row], rows[j], norms[row], norms[j])
			}
			return nil
		})
	}
	_ = eg.Wait()

	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			cf.sim[i][j] = cf.sim[j][i]
		}
	}
	return cf
}

func cosine(a, b []float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for k := range a {
		dot += a[k] * b[k]
	}
	return dot / (normA * normB)
}

func (cf *UserCF) Name() string { return "recall.usercf" }

// RecommendForUser 返回目标用户的 topN 个推荐物品。
//
// 按相似度降序遍历邻居（相似度相同按用户 ID 升序，保证确定性），
// 收集邻居交互过而目标用户没交互过的物品；去重保留首次出现
//（最近邻优先）的顺序；收满 topN 或邻居耗尽即停。
// 未知用户返回空切片。返回的物品绝不包含目标用户已交互的物品。
func (cf *UserCF) RecommendForUser(userID int64, topN int) []*core.Item {
	row, ok := cf.index[userID]
	if !ok {
		return nil
	}
	if topN <= 0 {
		topN = 10
	}

	type neighbor struct {
		idx   int
		score float64
	}
	neighbors := make([]neighbor, 0, len(cf.users)-1)
	for j := range cf.users {
		if j == row {
			continue
		}
		neighbors = append(neighbors, neighbor{idx: j, score: cf.sim[row][j]})
	}
	sort.Slice(neighbors, func(a, b int) bool {
		if neighbors[a].score != neighbors[b].score {
			return neighbors[a].score > neighbors[b].score
		}
		return cf.users[neighbors[a].idx] < cf.users[neighbors[b].idx]
	})

	seen := cf.table.UserItems(userID)
	collected := make(map[int64]struct{})
	out := make([]*core.Item, 0, topN)

	for _, nb := range neighbors {
		if len(out) >= topN {
			break
		}
		nbItems := cf.table.UserItems(cf.users[nb.idx])

		// 邻居内部按物品 ID 升序，消除 map 遍历的随机性
		ids := make([]int64, 0, len(nbItems))
		for id := range nbItems {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

		for _, id := range ids {
			if _, already := seen[id]; already {
				continue
			}
			if _, dup := collected[id]; dup {
				continue
			}
			collected[id] = struct{}{}

			it := core.NewItem(id)
			it.Score = nb.score
			it.PutLabel("recall_source", utils.Label{Value: "usercf", Source: "recall"})
			out = append(out, it)
			if len(out) >= topN {
				break
			}
		}
	}
	return out
}

// Recall 实现 Source 接口。
func (cf *UserCF) Recall(_ context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || rctx.UserID == 0 {
		return nil, nil
	}
	return cf.RecommendForUser(rctx.UserID, rctx.TopN), nil
}
