// Package conv 提供类型转换与配置取值的泛型工具，用于简化各模块中的重复逻辑。
package conv

// ToFloat64 将 any 转为 float64。
// 支持 float64、float32、int、int64、int32；bool 视为 1.0/0.0。
func ToFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case bool:
		if val {
			return 1.0, true
		}
		return 0.0, true
	default:
		return 0, false
	}
}

// ToInt64 将 any 转为 int64。
// 支持 int、int64、int32、float64、float32。
func ToInt64(v any) (int64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case int32:
		return int64(val), true
	case float64:
		return int64(val), true
	case float32:
		return int64(val), true
	default:
		return 0, false
	}
}

// SliceToInt64 将 []any 转为 []int64，不可转换的元素被跳过。
func SliceToInt64(v any) []int64 {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(raw))
	for _, e := range raw {
		if id, ok := ToInt64(e); ok {
			out = append(out, id)
		}
	}
	return out
}

// ConfigGet 从配置 map 中取值，类型不匹配或 key 不存在时返回 defaultVal。
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	if m == nil {
		return defaultVal
	}
	if v, ok := m[key]; ok {
		if t, ok := v.(T); ok {
			return t
		}
	}
	return defaultVal
}

// ConfigGetInt 从配置 map 中取整数值，兼容 YAML/JSON 解析出的数字类型。
func ConfigGetInt(m map[string]any, key string, defaultVal int) int {
	if m == nil {
		return defaultVal
	}
	if v, ok := m[key]; ok {
		if n, ok := ToInt64(v); ok {
			return int(n)
		}
	}
	return defaultVal
}

// ConfigGetFloat 从配置 map 中取浮点值，兼容整数形式的配置。
func ConfigGetFloat(m map[string]any, key string, defaultVal float64) float64 {
	if m == nil {
		return defaultVal
	}
	if v, ok := m[key]; ok {
		if f, ok := ToFloat64(v); ok {
			return f
		}
	}
	return defaultVal
}
