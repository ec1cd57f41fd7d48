package recall

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/ecomrec/core"
)

// Fanout 并发执行多个召回源并按优先级合并结果。
//
// 合并规则：结果按 Sources 的声明顺序拼接（索引越小优先级越高），
// 同一物品去重保留首次出现。各源内部顺序保持不变，因此只要每个
// 源是确定的，合并结果就是确定的——并发只影响耗时，不影响输出。
//
// 单个源超时或出错时丢弃该源的结果，不中断其他源。
type Fanout struct {
	Sources []Source

	// Timeout 是每个召回源的超时时间（0 表示不限制）
	Timeout time.Duration

	// MaxConcurrent 最大并发数（0 表示每源一个 goroutine）
	MaxConcurrent int
}

func (n *Fanout) Name() string { return "recall.fanout" }

// Recall 实现 Source 接口。
func (n *Fanout) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	// 每个源写自己的槽位，合并阶段再按优先级拼接
	results := make([][]*core.Item, len(n.Sources))

	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}
	for i, src := range n.Sources {
		slot, s := i, src
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}
			items, err := s.Recall(recallCtx, rctx)
			if err != nil {
				// 单源失败不拖垮整次召回
				return nil
			}
			results[slot] = items
			return nil
		})
	}
	_ = eg.Wait()

	seen := make(map[int64]struct{})
	var out []*core.Item
	for _, items := range results {
		for _, it := range items {
			if it == nil {
				continue
			}
			if _, dup := seen[it.ID]; dup {
				continue
			}
			seen[it.ID] = struct{}{}
			out = append(out, it)
		}
	}
	return out, nil
}
