package model

// Scorer 是打分模型的最小抽象：输入 (用户, 物品) 平行数组，
// 输出每一对的亲和概率，取值 [0, 1]。
//
// 实现必须是当前权重下的纯函数：推理路径无随机性、无副作用，
// 同一 checkpoint 下同一输入必须得到逐位一致的输出。
type Scorer interface {
	Name() string

	// Score 对等长的 users/items 平行数组逐对打分。
	// ID 超出模型声明范围是域错误（OUT_OF_RANGE），不做静默截断。
	Score(users, items []int64) ([]float64, error)
}
