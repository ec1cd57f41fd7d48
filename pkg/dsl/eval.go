package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/ecomrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// getCELEnv 初始化并返回 CEL 环境，定义可用变量。
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("meta", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译好的过滤表达式，使用 CEL (Common Expression Language) 实现。
// 编译一次，可对任意多个 (item, rctx) 求值，并发安全。
//
// 表达式语法（CEL 标准语法）：
//   - 库存：meta.stock > 0.0
//   - 价格：meta.price <= 500.0
//   - 分数：item.score > 0.7
//   - 标签：label.strategy == "content"
//   - 组合：meta.stock > 0.0 && meta.rating >= 4.0
//
// 访问不存在的 key 会报错，用 `label.key != null` 检查存在性。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译一个 CEL 布尔表达式。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式文本。
func (p *Program) Expr() string { return p.expr }

// Match 对单个物品求值，返回表达式的布尔结果。
func (p *Program) Match(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据。
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any)
	if item != nil {
		for k, v := range item.Labels {
			labels[k] = v.Value
		}
	}

	itemInput := map[string]any{}
	metaInput := map[string]any{}
	if item != nil {
		itemInput["id"] = item.ID
		itemInput["score"] = item.Score
		itemInput["meta"] = item.Meta
		metaInput = item.Meta
	}

	rctxInput := map[string]any{}
	if rctx != nil {
		rctxInput["user_id"] = rctx.UserID
		rctxInput["item_id"] = rctx.ItemID
		rctxInput["scene"] = rctx.Scene
		rctxInput["params"] = rctx.Params
	}

	return map[string]any{
		"item":  itemInput,
		"meta":  metaInput,
		"label": labels,
		"rctx":  rctxInput,
	}
}
