package recall

import (
	"context"

	"github.com/rushteam/ecomrec/core"
	"github.com/rushteam/ecomrec/pipeline"
)

// SourceNode 把任意召回源包装成 Pipeline Node。
// 召回结果追加到输入 items 之后，同一物品去重保留首次出现。
type SourceNode struct {
	Source Source
}

func (n *SourceNode) Name() string {
	if n.Source != nil {
		return n.Source.Name()
	}
	return "recall.source"
}

func (n *SourceNode) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *SourceNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Source == nil {
		return items, nil
	}
	recalled, err := n.Source.Recall(ctx, rctx)
	if err != nil {
		return nil, err
	}
	if len(recalled) == 0 {
		return items, nil
	}

	seen := make(map[int64]struct{}, len(items))
	out := make([]*core.Item, 0, len(items)+len(recalled))
	for _, it := range items {
		if it == nil {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	for _, it := range recalled {
		if it == nil {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out, nil
}

var _ pipeline.Node = (*SourceNode)(nil)
