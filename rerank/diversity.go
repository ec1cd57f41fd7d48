package rerank

import (
	"context"

	"github.com/rushteam/ecomrec/core"
	"github.com/rushteam/ecomrec/pipeline"
)

// Diversity 是一个简单的多样性 ReRank：限制每个类别最多出现的次数，
// 避免推荐列表被单一类别刷屏。输入顺序保持不变，超出配额的商品被丢弃。
// 类别来源优先级：
// - label["category"].Value
// - meta["category"] (string)
type Diversity struct {
	LabelKey       string // 默认 "category"
	MaxPerCategory int    // 默认 1（每个类别只保留首个）
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.LabelKey
	if key == "" {
		key = "category"
	}
	quota := n.MaxPerCategory
	if quota <= 0 {
		quota = 1
	}

	counts := make(map[string]int, 32)
	out := make([]*core.Item, 0, len(items))

	for _, it := range items {
		if it == nil {
			continue
		}

		cate := ""
		if it.Labels != nil {
			if lbl, ok := it.Labels[key]; ok {
				cate = lbl.Value
			}
		}
		if cate == "" && it.Meta != nil {
			if v, ok := it.Meta[key]; ok {
				if s, ok := v.(string); ok {
					cate = s
				}
			}
		}

		// 无类别信息的商品不参与配额限制
		if cate == "" {
			out = append(out, it)
			continue
		}
		if counts[cate] >= quota {
			continue
		}
		counts[cate]++
		out = append(out, it)
	}

	return out, nil
}
