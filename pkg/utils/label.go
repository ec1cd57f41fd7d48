package utils

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// 本项目用它标注每个结果由哪个策略产出（strategy=ncf/usercf/content/hot），
// 以及召回与过滤阶段留下的痕迹。Value 与 Source 的语义由业务自定义。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / rank / rerank / filter / dispatch ...
}

// NewLabel 构造一个 Label。
func NewLabel(value, source string) Label {
	return Label{Value: value, Source: source}
}

// MergeLabel 合并同名 Label，遵循"保留历史、可追踪"的默认策略。
//   - Value: 以 '|' 累积
//   - Source: 以 ',' 累积
//
// 需要覆盖语义时，直接对 map 赋值即可，不走 Merge。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
