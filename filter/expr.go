package filter

import (
	"context"

	"github.com/rushteam/ecomrec/core"
	"github.com/rushteam/ecomrec/pkg/dsl"
)

// ExprFilter 是表达式过滤器，基于 CEL 表达式判断是否过滤。
// 表达式返回 true 表示保留，false 表示过滤，
// 例如 `meta.stock > 0.0` 只保留有库存的商品。
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译表达式并创建过滤器，表达式非法时返回错误。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || f.prg == nil {
		return false, nil
	}
	keep, err := f.prg.Match(item, rctx)
	if err != nil {
		// 表达式求值失败时不过滤，避免误杀
		return false, nil
	}
	return !keep, nil
}
