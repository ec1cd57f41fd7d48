package recall

import (
	"context"
	"strconv"

	"github.com/rushteam/ecomrec/core"
	"github.com/rushteam/ecomrec/dataset"
	"github.com/rushteam/ecomrec/pkg/utils"
)

// Hot 是全局热门召回源，冷启动用户的兜底策略。
//
// 排序规则：交互次数降序，次数相同按物品 ID 升序——给定同一张
// 交互表，结果完全确定，服务路径不引入任何随机性。
//
// 读取顺序：
//   - 如果配置了 KeyValueStore 和 Key，优先读有序集合（离线任务
//     预计算好热榜写入 Redis，线上 ZRange 直出）
//   - 否则/读取失败时，从交互表快照现算
type Hot struct {
	Table *dataset.Table

	// Store 可选：预计算热榜的有序集合存储
	Store core.KeyValueStore
	Key   string // 例如 "hot:items"
}

func (r *Hot) Name() string { return "recall.hot" }

// Top 返回前 topN 个热门物品，excluded 中的物品被跳过。
func (r *Hot) Top(ctx context.Context, topN int, excluded map[int64]struct{}) []*core.Item {
	if topN <= 0 {
		topN = 10
	}

	ids := r.fromStore(ctx)
	if len(ids) == 0 && r.Table != nil {
		ids = r.Table.Popularity()
	}

	out := make([]*core.Item, 0, topN)
	for _, id := range ids {
		if _, skip := excluded[id]; skip {
			continue
		}
		it := core.NewItem(id)
		if r.Table != nil {
			it.Score = float64(r.Table.PopularityCount(id))
		}
		it.PutLabel("recall_source", utils.Label{Value: "hot", Source: "recall"})
		out = append(out, it)
		if len(out) >= topN {
			break
		}
	}
	return out
}

func (r *Hot) fromStore(ctx context.Context) []int64 {
	if r.Store == nil || r.Key == "" {
		return nil
	}
	members, err := r.Store.ZRange(ctx, r.Key, 0, 99)
	if err != nil || len(members) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if id, err := strconv.ParseInt(m, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// Recall 实现 Source 接口。有交互历史的用户会排除已买过的物品。
func (r *Hot) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	var excluded map[int64]struct{}
	topN := 0
	if rctx != nil {
		topN = rctx.TopN
		if r.Table != nil && rctx.UserID > 0 {
			excluded = r.Table.UserItems(rctx.UserID)
		}
	}
	return r.Top(ctx, topN, excluded), nil
}
