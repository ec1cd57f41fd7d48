package train

import (
	"math"

	"github.com/rushteam/ecomrec/model"
)

// Adam 优化器默认超参数。
const (
	defaultBeta1 = 0.9
	defaultBeta2 = 0.999
	defaultEps   = 1e-8
)

// adam 是 Adam 自适应梯度优化器。
// 嵌入表采用 lazy 更新：一阶/二阶矩密集分配，但每步只更新被
// 当前 batch 触碰的行（稀疏梯度下的标准做法）。
type adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	step  int

	userM, userV [][]float64
	itemM, itemV [][]float64
	wM, wV       [][][]float64
	bM, bV       [][]float64
}

func newAdam(m *model.NCF, lr float64) *adam {
	cfg := m.Config()
	a := &adam{
		lr:    lr,
		beta1: defaultBeta1,
		beta2: defaultBeta2,
		eps:   defaultEps,
	}
	a.userM = zeros2(int(cfg.NumUsers)+1, cfg.EmbSize)
	a.userV = zeros2(int(cfg.NumUsers)+1, cfg.EmbSize)
	a.itemM = zeros2(int(cfg.NumItems)+1, cfg.EmbSize)
	a.itemV = zeros2(int(cfg.NumItems)+1, cfg.EmbSize)

	n := m.NumLayers()
	a.wM = make([][][]float64, n)
	a.wV = make([][][]float64, n)
	a.bM = make([][]float64, n)
	a.bV = make([][]float64, n)
	for l := 0; l < n; l++ {
		w := m.MLPWeights(l)
		a.wM[l] = zeros2(len(w), len(w[0]))
		a.wV[l] = zeros2(len(w), len(w[0]))
		a.bM[l] = make([]float64, len(m.MLPBiases(l)))
		a.bV[l] = make([]float64, len(m.MLPBiases(l)))
	}
	return a
}

func zeros2(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
	}
	return out
}

// Step 应用一步参数更新。
func (a *adam) Step(m *model.NCF, grads *model.Gradients) {
	a.step++
	c1 := 1 - math.Pow(a.beta1, float64(a.step))
	c2 := 1 - math.Pow(a.beta2, float64(a.step))

	for u, g := range grads.UserEmb {
		a.update(m.UserEmbedding(u), g, a.userM[u], a.userV[u], c1, c2)
	}
	for i, g := range grads.ItemEmb {
		a.update(m.ItemEmbedding(i), g, a.itemM[i], a.itemV[i], c1, c2)
	}
	for l := range grads.MLPW {
		w := m.MLPWeights(l)
		for o := range grads.MLPW[l] {
			a.update(w[o], grads.MLPW[l][o], a.wM[l][o], a.wV[l][o], c1, c2)
		}
		a.update(m.MLPBiases(l), grads.MLPB[l], a.bM[l], a.bV[l], c1, c2)
	}
}

func (a *adam) update(param, grad, mMom, vMom []float64, c1, c2 float64) {
	for k, g := range grad {
		mMom[k] = a.beta1*mMom[k] + (1-a.beta1)*g
		vMom[k] = a.beta2*vMom[k] + (1-a.beta2)*g*g
		mHat := mMom[k] / c1
		vHat := vMom[k] / c2
		param[k] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
	}
}
