package rank

import (
	"context"
	"sort"

	"github.com/rushteam/ecomrec/core"
	"github.com/rushteam/ecomrec/model"
	"github.com/rushteam/ecomrec/pipeline"
	"github.com/rushteam/ecomrec/pkg/utils"
)

// NCFNode 是使用 NCF 模型的精排 Node。
// 对候选集做一次批量打分，得分为交互概率，降序排列，
// 同分时按商品 ID 升序保证结果可复现。
type NCFNode struct {
	Scorer model.Scorer
}

func (n *NCFNode) Name() string        { return "rank.ncf" }
func (n *NCFNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *NCFNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Scorer == nil || rctx == nil || rctx.UserID <= 0 || len(items) == 0 {
		return items, nil
	}

	users := make([]int64, 0, len(items))
	ids := make([]int64, 0, len(items))
	kept := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		users = append(users, rctx.UserID)
		ids = append(ids, it.ID)
		kept = append(kept, it)
	}
	if len(kept) == 0 {
		return items, nil
	}

	scores, err := n.Scorer.Score(users, ids)
	if err != nil {
		return nil, err
	}

	for i, it := range kept {
		it.Score = scores[i]
		it.PutLabel("rank_model", utils.Label{Value: n.Scorer.Name(), Source: "rank"})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return kept[i].ID < kept[j].ID
	})
	return kept, nil
}
