package model

import (
	"math"
	"math/rand"

	"github.com/rushteam/ecomrec/core"
)

// NCF 默认超参数，与训练配置保持一致。
const (
	DefaultEmbSize = 64
	DefaultDropout = 0.2
)

// DefaultHidden 返回默认的隐层宽度。
func DefaultHidden() []int { return []int{128, 64} }

// NCFConfig 是 NCF 模型的结构配置。
// NumUsers/NumItems 在构建时由训练数据的最大 ID 固定，之后不可变；
// 嵌入表行号 0 保留不用（ID 从 1 开始）。
type NCFConfig struct {
	NumUsers int64
	NumItems int64

	// EmbSize 是用户/物品嵌入维度，默认 64
	EmbSize int

	// Hidden 是 MLP 各隐层宽度，默认 [128, 64]
	Hidden []int

	// Dropout 是训练时的 dropout 比例，默认 0.2；推理时不生效
	Dropout float64

	// Seed 用于权重初始化与 dropout 的随机源
	Seed int64
}

func (c *NCFConfig) normalize() {
	if c.EmbSize <= 0 {
		c.EmbSize = DefaultEmbSize
	}
	if len(c.Hidden) == 0 {
		c.Hidden = DefaultHidden()
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		c.Dropout = DefaultDropout
	}
}

// NCF 是神经协同过滤模型（Neural Collaborative Filtering）。
//
// 结构：
//  1. 用户嵌入 + 物品嵌入（各 EmbSize 维）拼接
//  2. 逐层全连接 + ReLU + Dropout（仅训练时）
//  3. 单输出线性层 → sigmoid → 亲和概率
//
// 工程特征：
//   - 实时性：好（本地推理，纯 CPU 浮点）
//   - 可解释性：弱（黑盒模型）
//   - 冷启动：差（依赖训练时见过的 ID，未知用户走兜底策略）
//
// 权重一旦训练完成即只读，可并发调用 Score；训练期间独占一个实例。
type NCF struct {
	cfg NCFConfig

	// userEmb / itemEmb 行数为 N+1，第 0 行保留（ID 从 1 开始）
	userEmb [][]float64
	itemEmb [][]float64

	// mlpW[l][out][in]、mlpB[l][out]；最后一层 out=1
	mlpW [][][]float64
	mlpB [][]float64

	rng *rand.Rand
}

// NewNCF 按配置构建模型并随机初始化权重（Xavier 均匀分布，seed 可复现）。
func NewNCF(cfg NCFConfig) (*NCF, error) {
	cfg.normalize()
	if cfg.NumUsers < 1 || cfg.NumItems < 1 {
		return nil, core.NewDomainErrorf(core.ModuleModel, core.ErrorCodeInvalidInput,
			"model: need at least one user and one item, got users=%d items=%d", cfg.NumUsers, cfg.NumItems)
	}

	m := &NCF{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}

	m.userEmb = m.initMatrix(int(cfg.NumUsers)+1, cfg.EmbSize)
	m.itemEmb = m.initMatrix(int(cfg.NumItems)+1, cfg.EmbSize)

	dims := append([]int{2 * cfg.EmbSize}, cfg.Hidden...)
	dims = append(dims, 1)
	m.mlpW = make([][][]float64, len(dims)-1)
	m.mlpB = make([][]float64, len(dims)-1)
	for l := 0; l < len(dims)-1; l++ {
		in, out := dims[l], dims[l+1]
		m.mlpW[l] = m.initMatrix(out, in)
		m.mlpB[l] = make([]float64, out)
	}
	return m, nil
}

func (m *NCF) initMatrix(rows, cols int) [][]float64 {
	limit := math.Sqrt(6.0 / float64(rows+cols))
	mat := make([][]float64, rows)
	for i := range mat {
		mat[i] = make([]float64, cols)
		for j := range mat[i] {
			mat[i][j] = (m.rng.Float64()*2 - 1) * limit
		}
	}
	return mat
}

func (m *NCF) Name() string { return "ncf" }

// Config 返回模型结构配置。
func (m *NCF) Config() NCFConfig { return m.cfg }

// NumLayers 返回 MLP 层数（含输出层）。
func (m *NCF) NumLayers() int { return len(m.mlpW) }

func (m *NCF) checkIDs(users, items []int64) error {
	if len(users) != len(items) {
		return core.NewDomainErrorf(core.ModuleModel, core.ErrorCodeInvalidInput,
			"model: users(%d) and items(%d) must have equal length", len(users), len(items))
	}
	for _, u := range users {
		if u < 1 || u > m.cfg.NumUsers {
			return core.NewDomainErrorf(core.ModuleModel, core.ErrorCodeOutOfRange,
				"model: user_id %d outside [1, %d]", u, m.cfg.NumUsers)
		}
	}
	for _, i := range items {
		if i < 1 || i > m.cfg.NumItems {
			return core.NewDomainErrorf(core.ModuleModel, core.ErrorCodeOutOfRange,
				"model: item_id %d outside [1, %d]", i, m.cfg.NumItems)
		}
	}
	return nil
}

// Score 对 (users, items) 平行数组逐对打分，推理模式（无 dropout）。
func (m *NCF) Score(users, items []int64) ([]float64, error) {
	probs, _, err := m.Forward(users, items, false)
	return probs, err
}

// ForwardCache 保存一次前向传播的中间量，供 Backward 使用。
type ForwardCache struct {
	users, items []int64

	// inputs[0] 是拼接后的嵌入；inputs[l] 是第 l 层的输入（上一层输出）
	inputs [][][]float64

	// preacts[l] 是第 l 层的线性输出（激活前）
	preacts [][][]float64

	// masks[l] 是隐层 dropout 的缩放掩码（推理时为 nil）
	masks [][][]float64
}

// Forward 执行前向传播。training=true 时启用 inverted dropout 并
// 记录反向传播所需的中间量。
func (m *NCF) Forward(users, items []int64, training bool) ([]float64, *ForwardCache, error) {
	if err := m.checkIDs(users, items); err != nil {
		return nil, nil, err
	}

	batch := len(users)
	nLayers := len(m.mlpW)
	cache := &ForwardCache{
		users:   users,
		items:   items,
		inputs:  make([][][]float64, nLayers),
		preacts: make([][][]float64, nLayers),
		masks:   make([][][]float64, nLayers),
	}

	// 拼接嵌入
	x := make([][]float64, batch)
	for b := 0; b < batch; b++ {
		vec := make([]float64, 2*m.cfg.EmbSize)
		copy(vec, m.userEmb[users[b]])
		copy(vec[m.cfg.EmbSize:], m.itemEmb[items[b]])
		x[b] = vec
	}

	keep := 1 - m.cfg.Dropout
	probs := make([]float64, batch)
	for l := 0; l < nLayers; l++ {
		cache.inputs[l] = x
		w, bias := m.mlpW[l], m.mlpB[l]
		out := make([][]float64, batch)
		pre := make([][]float64, batch)
		last := l == nLayers-1

		var mask [][]float64
		if training && !last && m.cfg.Dropout > 0 {
			mask = make([][]float64, batch)
		}

		for b := 0; b < batch; b++ {
			z := make([]float64, len(w))
			for o := range w {
				sum := bias[o]
				row := w[o]
				for i, xi := range x[b] {
					sum += row[i] * xi
				}
				z[o] = sum
			}
			pre[b] = z

			if last {
				out[b] = z
				probs[b] = sigmoid(z[0])
				continue
			}

			a := make([]float64, len(z))
			for o, zo := range z {
				if zo > 0 {
					a[o] = zo
				}
			}
			if mask != nil {
				mrow := make([]float64, len(a))
				for o := range a {
					if m.rng.Float64() < keep {
						mrow[o] = 1 / keep
					}
					a[o] *= mrow[o]
				}
				mask[b] = mrow
			}
			out[b] = a
		}

		cache.preacts[l] = pre
		cache.masks[l] = mask
		x = out
	}

	if !training {
		return probs, nil, nil
	}
	return probs, cache, nil
}

// Gradients 是一次反向传播产出的梯度，形状与模型参数对应。
// 嵌入梯度按行稀疏累积（一个 batch 只触碰少量行）。
type Gradients struct {
	UserEmb map[int64][]float64
	ItemEmb map[int64][]float64
	MLPW    [][][]float64
	MLPB    [][]float64
}

// NewGradients 分配与模型 MLP 同形的零梯度。
func (m *NCF) NewGradients() *Gradients {
	g := &Gradients{
		UserEmb: make(map[int64][]float64),
		ItemEmb: make(map[int64][]float64),
		MLPW:    make([][][]float64, len(m.mlpW)),
		MLPB:    make([][]float64, len(m.mlpB)),
	}
	for l := range m.mlpW {
		g.MLPW[l] = make([][]float64, len(m.mlpW[l]))
		for o := range m.mlpW[l] {
			g.MLPW[l][o] = make([]float64, len(m.mlpW[l][o]))
		}
		g.MLPB[l] = make([]float64, len(m.mlpB[l]))
	}
	return g
}

// Backward 依据输出层梯度 dLogit（每个样本一个标量，dL/dlogit）
// 反向传播，将梯度累积到 grads。
func (m *NCF) Backward(cache *ForwardCache, dLogit []float64, grads *Gradients) {
	nLayers := len(m.mlpW)
	batch := len(cache.users)
	keepEmb := m.cfg.EmbSize

	for b := 0; b < batch; b++ {
		// 输出层：dz 是标量
		dOut := []float64{dLogit[b]}

		for l := nLayers - 1; l >= 0; l-- {
			w := m.mlpW[l]
			input := cache.inputs[l][b]

			var dz []float64
			if l == nLayers-1 {
				dz = dOut
			} else {
				// 经过 dropout 掩码与 ReLU 门
				dz = dOut
				if mask := cache.masks[l]; mask != nil {
					for o := range dz {
						dz[o] *= mask[b][o]
					}
				}
				pre := cache.preacts[l][b]
				for o := range dz {
					if pre[o] <= 0 {
						dz[o] = 0
					}
				}
			}

			dIn := make([]float64, len(input))
			for o := range w {
				gzo := dz[o]
				if gzo == 0 {
					continue
				}
				grads.MLPB[l][o] += gzo
				gw := grads.MLPW[l][o]
				row := w[o]
				for i, xi := range input {
					gw[i] += gzo * xi
					dIn[i] += gzo * row[i]
				}
			}
			dOut = dIn
		}

		// dOut 现在是对拼接嵌入的梯度，拆回两张表
		u, i := cache.users[b], cache.items[b]
		gu := grads.UserEmb[u]
		if gu == nil {
			gu = make([]float64, keepEmb)
			grads.UserEmb[u] = gu
		}
		gi := grads.ItemEmb[i]
		if gi == nil {
			gi = make([]float64, keepEmb)
			grads.ItemEmb[i] = gi
		}
		for k := 0; k < keepEmb; k++ {
			gu[k] += dOut[k]
			gi[k] += dOut[k+keepEmb]
		}
	}
}

// UserEmbedding 返回用户嵌入行（训练器更新参数时使用）。
func (m *NCF) UserEmbedding(userID int64) []float64 { return m.userEmb[userID] }

// ItemEmbedding 返回物品嵌入行。
func (m *NCF) ItemEmbedding(itemID int64) []float64 { return m.itemEmb[itemID] }

// MLPWeights 返回第 l 层权重矩阵。
func (m *NCF) MLPWeights(l int) [][]float64 { return m.mlpW[l] }

// MLPBiases 返回第 l 层偏置。
func (m *NCF) MLPBiases(l int) []float64 { return m.mlpB[l] }

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
