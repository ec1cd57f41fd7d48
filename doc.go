// Package ecomrec 是面向电商场景的推荐引擎核心（implicit feedback）。
//
// 设计要点：
// - 离线/在线分离: train 产出不可变 checkpoint，dispatch 只读消费
// - 确定性服务路径: 所有随机性（负采样、初始化、dropout）只存在于训练；
//   同一份快照对同一请求的返回逐位一致
// - 显式兜底链: 模型打分 → 用户协同过滤 → 全局热门；i2i 固定走内容相似
// - Pipeline 可组合: Recall → Filter → Rank → ReRank 通过 Node 串联，
//   YAML 配置即可编排
package ecomrec

import "github.com/rushteam/ecomrec/pipeline"

// 轻量 facade：便于用户直接 import 根包使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
