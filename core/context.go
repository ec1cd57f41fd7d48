package core

import "github.com/rushteam/ecomrec/pkg/utils"

// RecommendContext 承载一次推荐请求的用户/物品/场景信息，贯穿整个 Pipeline 透传。
//
// 两类请求：
//   - u2i：UserID > 0，给用户推荐物品（个性化）
//   - i2i：ItemID > 0，给物品找相似物品（"看了又看"）
type RecommendContext struct {
	// UserID 是目标用户 ID（正整数；0 表示匿名/未知用户）
	UserID int64

	// ItemID 是 i2i 请求的种子物品 ID（0 表示非 i2i 请求）
	ItemID int64

	// Scene 是业务场景标识，例如 "home" / "detail" / "cart"
	Scene string

	// TopN 期望返回的物品数量（<= 0 时由各策略取默认值）
	TopN int

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数（设备、时段等），透传给过滤表达式
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
