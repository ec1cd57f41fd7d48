package config

import (
	"fmt"
	"time"

	"github.com/rushteam/ecomrec/core"
	"github.com/rushteam/ecomrec/dataset"
	"github.com/rushteam/ecomrec/filter"
	"github.com/rushteam/ecomrec/model"
	"github.com/rushteam/ecomrec/pipeline"
	"github.com/rushteam/ecomrec/pkg/conv"
	"github.com/rushteam/ecomrec/rank"
	"github.com/rushteam/ecomrec/recall"
	"github.com/rushteam/ecomrec/rerank"
)

// Resources 是构建 Node 所需的运行期资源。
// 交互表/目录/模型在进程启动时装载，YAML 配置只描述编排结构，
// 不描述数据来源。
type Resources struct {
	Table   *dataset.Table
	Catalog *dataset.Catalog
	Scorer  model.Scorer
	Store   core.KeyValueStore
}

// DefaultFactory 返回一个包含所有内置 Node 的默认工厂。
func DefaultFactory(res Resources) *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	// 注册 Recall Nodes
	factory.Register("recall.hot", func(cfg map[string]any) (pipeline.Node, error) {
		return &recall.SourceNode{Source: &recall.Hot{
			Table: res.Table,
			Store: res.Store,
			Key:   conv.ConfigGet[string](cfg, "key", ""),
		}}, nil
	})
	factory.Register("recall.usercf", func(cfg map[string]any) (pipeline.Node, error) {
		if res.Table == nil {
			return nil, fmt.Errorf("recall.usercf: no interaction table loaded")
		}
		return &recall.SourceNode{Source: recall.NewUserCF(res.Table, recall.ZeroFill)}, nil
	})
	factory.Register("recall.content", func(cfg map[string]any) (pipeline.Node, error) {
		if res.Catalog == nil {
			return nil, fmt.Errorf("recall.content: no catalog loaded")
		}
		return &recall.SourceNode{Source: recall.NewContent(res.Catalog)}, nil
	})
	factory.Register("recall.ncf", func(cfg map[string]any) (pipeline.Node, error) {
		if res.Scorer == nil {
			return nil, fmt.Errorf("recall.ncf: no model checkpoint loaded")
		}
		return &recall.SourceNode{Source: &recall.NCFRecall{
			Scorer: res.Scorer,
			Table:  res.Table,
		}}, nil
	})
	factory.Register("recall.fanout", buildFanoutNode(res))

	// 注册 Filter Nodes
	factory.Register("filter.seen", func(cfg map[string]any) (pipeline.Node, error) {
		return &filter.FilterNode{Filters: []filter.Filter{
			filter.NewSeenFilter(res.Table),
		}}, nil
	})
	factory.Register("filter.expr", func(cfg map[string]any) (pipeline.Node, error) {
		expr := conv.ConfigGet[string](cfg, "expr", "")
		if expr == "" {
			return nil, fmt.Errorf("filter.expr: expr is required")
		}
		f, err := filter.NewExprFilter(expr)
		if err != nil {
			return nil, fmt.Errorf("filter.expr: %w", err)
		}
		return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
	})

	// 注册 Rank Nodes
	factory.Register("rank.ncf", func(cfg map[string]any) (pipeline.Node, error) {
		if res.Scorer == nil {
			return nil, fmt.Errorf("rank.ncf: no model checkpoint loaded")
		}
		return &rank.NCFNode{Scorer: res.Scorer}, nil
	})

	// 注册 ReRank Nodes
	factory.Register("rerank.topn", func(cfg map[string]any) (pipeline.Node, error) {
		return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
	})
	factory.Register("rerank.diversity", func(cfg map[string]any) (pipeline.Node, error) {
		return &rerank.Diversity{
			LabelKey:       conv.ConfigGet[string](cfg, "label_key", ""),
			MaxPerCategory: conv.ConfigGetInt(cfg, "max_per_category", 0),
		}, nil
	})

	return factory
}

func buildFanoutNode(res Resources) func(map[string]any) (pipeline.Node, error) {
	return func(cfg map[string]any) (pipeline.Node, error) {
		sourcesConfig, ok := cfg["sources"].([]any)
		if !ok {
			return nil, fmt.Errorf("recall.fanout: sources not found or invalid")
		}

		sources := make([]recall.Source, 0, len(sourcesConfig))
		for _, sc := range sourcesConfig {
			sourceMap, ok := sc.(map[string]any)
			if !ok {
				continue
			}
			sourceType := conv.ConfigGet[string](sourceMap, "type", "")
			switch sourceType {
			case "hot":
				sources = append(sources, &recall.Hot{
					Table: res.Table,
					Store: res.Store,
					Key:   conv.ConfigGet[string](sourceMap, "key", ""),
				})
			case "usercf":
				if res.Table == nil {
					return nil, fmt.Errorf("recall.fanout: usercf needs interaction table")
				}
				sources = append(sources, recall.NewUserCF(res.Table, recall.ZeroFill))
			case "content":
				if res.Catalog == nil {
					return nil, fmt.Errorf("recall.fanout: content needs catalog")
				}
				sources = append(sources, recall.NewContent(res.Catalog))
			case "ncf":
				if res.Scorer == nil {
					return nil, fmt.Errorf("recall.fanout: ncf needs model checkpoint")
				}
				sources = append(sources, &recall.NCFRecall{Scorer: res.Scorer, Table: res.Table})
			default:
				return nil, fmt.Errorf("recall.fanout: unknown source type: %s", sourceType)
			}
		}

		fanout := &recall.Fanout{Sources: sources}
		if sec := conv.ConfigGetInt(cfg, "timeout", 0); sec > 0 {
			fanout.Timeout = time.Duration(sec) * time.Second
		}
		if n := conv.ConfigGetInt(cfg, "max_concurrent", 0); n > 0 {
			fanout.MaxConcurrent = n
		}
		return &recall.SourceNode{Source: fanout}, nil
	}
}
