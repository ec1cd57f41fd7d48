package pipeline

import (
	"context"

	"github.com/rushteam/ecomrec/core"
)

// Pipeline 把一条推荐策略拆成可组合的 Node 链：
// Recall → Filter → Rank → ReRank → PostProcess。
// 派发器为每个策略装配一条 Pipeline，按兜底链依次尝试。
type Pipeline struct {
	Nodes []Node
}

// Run 依次执行各 Node，前一个的输出是后一个的输入。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
