package recall

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/ecomrec/core"
	"github.com/rushteam/ecomrec/dataset"
	"github.com/rushteam/ecomrec/feature"
	"github.com/rushteam/ecomrec/pkg/utils"
)

// Content 是基于内容的召回源（Content-Based，i2i）。
//
// 核心思想："文本描述相似的商品，相互相似"
//
// 构建流程：
//  1. 商品文本 = name + category + description
//  2. TF-IDF 向量化（去停用词，L2 归一化）
//  3. 一次性计算全量两两余弦相似度并缓存
//
// 矩阵构建后只读，查询无锁并发安全；目录变化时重建一个新的
// Content 实例并整体替换，绝不原地更新。
//
// 这是面向用户的路径：未知物品、空目录一律返回空结果而不是报错。
type Content struct {
	catalog *dataset.Catalog

	// ids[i] 是矩阵下标 i 对应的物品 ID（目录顺序）
	ids   []int64
	index map[int64]int

	// sim[i][j] 是物品 i 与 j 的余弦相似度，对称非负
	sim [][]float64
}

// NewContent 从商品目录构建内容相似度引擎。
// 两两相似度按行并行计算（目录内 CPU 密集，无 I/O）。
func NewContent(catalog *dataset.Catalog) *Content {
	c := &Content{
		catalog: catalog,
		index:   make(map[int64]int),
	}
	if catalog == nil || catalog.Len() == 0 {
		return c
	}

	docs := make([]string, 0, catalog.Len())
	for _, id := range catalog.IDs() {
		c.index[id] = len(c.ids)
		c.ids = append(c.ids, id)
		docs = append(docs, catalog.Get(id).CombinedText())
	}

	vecs := feature.NewTFIDFVectorizer().FitTransform(docs)

	n := len(vecs)
	c.sim = make([][]float64, n)
	for i := range c.sim {
		c.sim[i] = make([]float64, n)
	}

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		row := i
		eg.Go(func() error {
			c.sim[row][row] = 1
			for j := row + 1; j < n; j++ {
				// 向量已 L2 归一化，点积即余弦相似度
				s := vecs[row].Dot(vecs[j])
				c.sim[row][j] = s
			}
			return nil
		})
	}
	_ = eg.Wait() // 行计算不会失败

	// 对称补全放在并行区之后，避免写竞争
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			c.sim[i][j] = c.sim[j][i]
		}
	}
	return c
}

func (c *Content) Name() string { return "recall.content" }

// SimilarItems 返回与 itemID 最相似的 topN 个商品（降序，排除自身）。
// 未知物品或空目录返回空切片。分数相同按物品 ID 升序，保证确定性。
func (c *Content) SimilarItems(itemID int64, topN int) []*core.Item {
	row, ok := c.index[itemID]
	if !ok || len(c.ids) == 0 {
		return nil
	}
	if topN <= 0 {
		topN = 10
	}

	type scored struct {
		idx   int
		score float64
	}
	candidates := make([]scored, 0, len(c.ids)-1)
	for j := range c.ids {
		if j == row {
			continue
		}
		candidates = append(candidates, scored{idx: j, score: c.sim[row][j]})
	}
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}
		return c.ids[candidates[a].idx] < c.ids[candidates[b].idx]
	})
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}

	out := make([]*core.Item, 0, len(candidates))
	for _, cand := range candidates {
		it := core.NewItem(c.ids[cand.idx])
		it.Score = cand.score
		it.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})
		out = append(out, it)
	}
	return out
}

// Recall 实现 Source 接口：以 rctx.ItemID 为种子做 i2i 召回。
func (c *Content) Recall(_ context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || rctx.ItemID == 0 {
		return nil, nil
	}
	return c.SimilarItems(rctx.ItemID, rctx.TopN), nil
}
