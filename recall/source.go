package recall

import (
	"context"

	"github.com/rushteam/ecomrec/core"
)

// Source 表示一个可复用的召回源（热门/协同过滤/内容/模型...）。
// 你可以把它理解为可并发 fan-out 的策略单元；派发器按兜底链选择其一。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}
