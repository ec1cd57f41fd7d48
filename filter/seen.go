package filter

import (
	"context"

	"github.com/rushteam/ecomrec/core"
	"github.com/rushteam/ecomrec/dataset"
)

// SeenFilter 是已购过滤器，过滤掉用户已经交互过的商品。
// 数据源是内存中的交互表快照，未知用户不过滤任何商品。
type SeenFilter struct {
	Table *dataset.Table
}

func NewSeenFilter(table *dataset.Table) *SeenFilter {
	return &SeenFilter{Table: table}
}

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.UserID <= 0 {
		return false, nil
	}
	if f.Table == nil || !f.Table.HasUser(rctx.UserID) {
		return false, nil
	}
	seen := f.Table.UserItems(rctx.UserID)
	_, ok := seen[item.ID]
	return ok, nil
}
