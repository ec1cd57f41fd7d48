package recall

import (
	"context"
	"sort"

	"github.com/rushteam/ecomrec/core"
	"github.com/rushteam/ecomrec/dataset"
	"github.com/rushteam/ecomrec/model"
	"github.com/rushteam/ecomrec/pkg/utils"
)

// NCFRecall 是模型打分召回源：用训练好的 checkpoint 对候选物品
// 逐个打分，取 TopK（u2i）。
//
// 候选集 = [1, NumItems] 里用户没交互过的全部物品（目录规模可控，
// 全量打分即可；更大的目录应上 ANN 召回再排序）。
//
// Scorer 的权重只读，可并发打分；未知用户（超出训练范围或无历史）
// 返回空，由派发器落到兜底策略。
type NCFRecall struct {
	Scorer model.Scorer
	Table  *dataset.Table

	// NumItems 是打分候选的物品 ID 上界；0 时取 Table.NumItems()
	NumItems int64
}

func (r *NCFRecall) Name() string { return "recall.ncf" }

// RankForUser 返回模型打分最高的 topN 个未交互物品。
// 分数相同按物品 ID 升序。打分失败（例如用户超出模型范围）返回错误。
func (r *NCFRecall) RankForUser(userID int64, topN int) ([]*core.Item, error) {
	if r.Scorer == nil || r.Table == nil {
		return nil, nil
	}
	if topN <= 0 {
		topN = 10
	}
	numItems := r.NumItems
	if numItems == 0 {
		numItems = r.Table.NumItems()
	}

	seen := r.Table.UserItems(userID)
	users := make([]int64, 0, numItems)
	items := make([]int64, 0, numItems)
	for id := int64(1); id <= numItems; id++ {
		if _, skip := seen[id]; skip {
			continue
		}
		users = append(users, userID)
		items = append(items, id)
	}
	if len(items) == 0 {
		return nil, nil
	}

	probs, err := r.Scorer.Score(users, items)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if probs[order[a]] != probs[order[b]] {
			return probs[order[a]] > probs[order[b]]
		}
		return items[order[a]] < items[order[b]]
	})
	if len(order) > topN {
		order = order[:topN]
	}

	out := make([]*core.Item, 0, len(order))
	for _, idx := range order {
		it := core.NewItem(items[idx])
		it.Score = probs[idx]
		it.PutLabel("recall_source", utils.Label{Value: "ncf", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// Recall 实现 Source 接口。
func (r *NCFRecall) Recall(_ context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || rctx.UserID == 0 {
		return nil, nil
	}
	return r.RankForUser(rctx.UserID, rctx.TopN)
}
