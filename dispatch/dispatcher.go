package dispatch

import (
	"context"
	"sync/atomic"

	"github.com/rushteam/ecomrec/core"
	"github.com/rushteam/ecomrec/pkg/logger"
	"github.com/rushteam/ecomrec/pkg/utils"
)

// 策略名，写入每个返回物品的 strategy 标签。
const (
	StrategyNCF        = "ncf"
	StrategyUserCF     = "usercf"
	StrategyPopularity = "popularity"
	StrategyContent    = "content"
)

// Dispatcher 是推荐派发器，按固定优先级选择策略：
//
//	有交互历史的用户：模型打分（有 checkpoint 时）> 用户协同过滤 > 热门兜底
//	无历史/未知用户：热门兜底
//	相似商品查询：始终走内容相似
//
// 服务路径没有任何随机性，同一份快照对同一请求的返回完全一致。
// 快照通过 Swap 原子替换，读请求无锁。
type Dispatcher struct {
	snap atomic.Pointer[Snapshot]
	log  *logger.Logger
}

func NewDispatcher(snap *Snapshot, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	d := &Dispatcher{log: log}
	if snap != nil {
		d.snap.Store(snap)
	}
	return d
}

// Swap 原子替换服务快照，在飞的读请求继续使用旧快照。
func (d *Dispatcher) Swap(snap *Snapshot) {
	if snap == nil {
		return
	}
	d.snap.Store(snap)
	if snap.Table != nil {
		d.log.Info("snapshot swapped",
			"num_users", snap.Table.NumUsers(),
			"num_items", snap.Table.NumItems(),
			"has_scorer", snap.NCF != nil,
		)
	}
}

// Snapshot 返回当前快照，可能为 nil（尚未加载数据）。
func (d *Dispatcher) Snapshot() *Snapshot {
	return d.snap.Load()
}

// Recommend 为用户返回 topN 个推荐商品，按得分降序。
//
// 推荐是尽力而为的：未知用户落到热门兜底而不是报错，
// 空数据时返回空列表。每个物品带 strategy 标签标明来源策略，
// 目录可用时附带商品属性。
func (d *Dispatcher) Recommend(ctx context.Context, userID int64, topN int) ([]*core.Item, error) {
	snap := d.snap.Load()
	if snap == nil || snap.Table == nil || snap.Table.Len() == 0 {
		return nil, nil
	}
	if topN <= 0 {
		topN = 10
	}

	if snap.Table.HasUser(userID) {
		if snap.NCF != nil {
			items, err := snap.NCF.RankForUser(userID, topN)
			if err != nil {
				// 模型打分失败（例如 checkpoint 与数据范围不一致）时
				// 降级到协同过滤，同时记录原因
				d.log.Warn("model scoring failed, falling back",
					"user_id", userID, "err", err)
			} else if len(items) > 0 {
				return d.finish(snap, items, StrategyNCF), nil
			}
		}
		if snap.UserCF != nil {
			if items := snap.UserCF.RecommendForUser(userID, topN); len(items) > 0 {
				return d.finish(snap, items, StrategyUserCF), nil
			}
		}
	}

	if snap.Hot == nil {
		return nil, nil
	}
	var excluded map[int64]struct{}
	if snap.Table.HasUser(userID) {
		excluded = snap.Table.UserItems(userID)
	}
	items := snap.Hot.Top(ctx, topN, excluded)
	return d.finish(snap, items, StrategyPopularity), nil
}

// RecommendSimilarItems 返回与某商品内容最相似的 topN 个商品。
// 未知商品或目录为空时返回空列表，不报错。
func (d *Dispatcher) RecommendSimilarItems(ctx context.Context, itemID int64, topN int) ([]*core.Item, error) {
	snap := d.snap.Load()
	if snap == nil || snap.Content == nil {
		return nil, nil
	}
	if topN <= 0 {
		topN = 10
	}
	items := snap.Content.SimilarItems(itemID, topN)
	return d.finish(snap, items, StrategyContent), nil
}

// finish 打上策略标签并附加商品属性。
func (d *Dispatcher) finish(snap *Snapshot, items []*core.Item, strategy string) []*core.Item {
	for _, it := range items {
		if it == nil {
			continue
		}
		it.PutLabel("strategy", utils.Label{Value: strategy, Source: "dispatch"})
		if snap.Catalog != nil {
			snap.Catalog.Attach(it)
		}
	}
	return items
}
