package dispatch

import (
	"github.com/rushteam/ecomrec/dataset"
	"github.com/rushteam/ecomrec/model"
	"github.com/rushteam/ecomrec/recall"
)

// Snapshot 是一份不可变的服务状态：交互表、商品目录和各路召回引擎。
// 构建完成后只读，可被并发请求无锁共享；数据更新时整体重建一份
// 新的 Snapshot 再原子替换，绝不原地修改。
type Snapshot struct {
	Table   *dataset.Table
	Catalog *dataset.Catalog

	NCF     *recall.NCFRecall
	UserCF  *recall.UserCF
	Content *recall.Content
	Hot     *recall.Hot
}

// SnapshotConfig 是构建 Snapshot 的输入。
// Scorer 可为 nil（没有可用 checkpoint 时走协同过滤）；
// Catalog 可为 nil（结果不会附带商品属性，内容相似召回不可用）。
type SnapshotConfig struct {
	Table   *dataset.Table
	Catalog *dataset.Catalog
	Scorer  model.Scorer
}

// NewSnapshot 构建一份服务快照，预计算相似度矩阵等只读结构。
func NewSnapshot(cfg SnapshotConfig) *Snapshot {
	s := &Snapshot{
		Table:   cfg.Table,
		Catalog: cfg.Catalog,
	}
	if cfg.Table != nil {
		s.UserCF = recall.NewUserCF(cfg.Table, recall.ZeroFill)
		s.Hot = &recall.Hot{Table: cfg.Table}
		if cfg.Scorer != nil {
			s.NCF = &recall.NCFRecall{Scorer: cfg.Scorer, Table: cfg.Table}
		}
	}
	if cfg.Catalog != nil && cfg.Catalog.Len() > 0 {
		s.Content = recall.NewContent(cfg.Catalog)
	}
	return s
}
