package train

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rushteam/ecomrec/dataset"
	"github.com/rushteam/ecomrec/model"
	"github.com/rushteam/ecomrec/pkg/logger"
)

// 训练默认超参数，与原始线上配置保持一致。
const (
	DefaultNegRatio     = 4
	DefaultBatchSize    = 256
	DefaultEpochs       = 3
	DefaultLearningRate = 1e-3
	DefaultTestFrac     = 0.1
	DefaultSeed         = 42
)

// State 是训练器的生命周期状态：Uninitialized → Training → Completed。
// 失败时进入 Failed，实例不可复用。
type State int32

const (
	StateUninitialized State = iota
	StateTraining
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateTraining:
		return "training"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config 是一次训练运行的全部配置。
// 零值字段取默认值；checkpoint 的形状由这些字段隐式决定。
type Config struct {
	EmbSize      int     `yaml:"emb_size"`
	Hidden       []int   `yaml:"hidden"`
	Dropout      float64 `yaml:"dropout"`
	NegRatio     int     `yaml:"neg_ratio"`
	BatchSize    int     `yaml:"batch_size"`
	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learning_rate"`
	TestFrac     float64 `yaml:"test_frac"`
	Seed         int64   `yaml:"seed"`

	// CheckpointPath 非空时训练完成后写入产物
	CheckpointPath string `yaml:"checkpoint_path"`
}

func (c *Config) normalize() {
	if c.EmbSize <= 0 {
		c.EmbSize = model.DefaultEmbSize
	}
	if len(c.Hidden) == 0 {
		c.Hidden = model.DefaultHidden()
	}
	if c.Dropout <= 0 {
		c.Dropout = model.DefaultDropout
	}
	if c.NegRatio <= 0 {
		c.NegRatio = DefaultNegRatio
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Epochs <= 0 {
		c.Epochs = DefaultEpochs
	}
	if c.LearningRate <= 0 {
		c.LearningRate = DefaultLearningRate
	}
	if c.TestFrac <= 0 || c.TestFrac >= 1 {
		c.TestFrac = DefaultTestFrac
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
}

// Trainer 驱动 NCF 模型的随机优化。
//
// 一个 epoch = 对正例训练集的一次完整遍历（打乱后按 mini-batch）。
// 每个 batch：正例打分（标签 1）+ 展平负例打分（标签 0），
// 两组 BCE 损失求和，反向传播，Adam 更新一步。
//
// 没有 early stopping 与验证集监控（扩展点）；单实例单次训练，
// 不支持并发 Fit。epoch 之间检查 ctx，支持协作式取消。
type Trainer struct {
	cfg Config
	log *logger.Logger

	mu     sync.Mutex
	state  State
	losses []float64
}

// NewTrainer 创建训练器。log 为 nil 时使用 Nop。
func NewTrainer(cfg Config, log *logger.Logger) *Trainer {
	cfg.normalize()
	if log == nil {
		log = logger.Nop()
	}
	return &Trainer{cfg: cfg, log: log, state: StateUninitialized}
}

// State 返回当前训练状态。
func (t *Trainer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// EpochLosses 返回每个 epoch 的平均损失（训练结束后用于诊断）。
func (t *Trainer) EpochLosses() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]float64, len(t.losses))
	copy(out, t.losses)
	return out
}

func (t *Trainer) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// Fit 在交互表上训练模型。数据完整性错误与采样耗尽都会中止训练；
// ctx 取消在下一个 epoch 边界生效。成功后模型权重只读，可共享打分。
func (t *Trainer) Fit(ctx context.Context, table *dataset.Table) (*model.NCF, error) {
	t.mu.Lock()
	if t.state == StateTraining {
		t.mu.Unlock()
		return nil, fmt.Errorf("train: fit already in progress")
	}
	t.state = StateTraining
	t.losses = nil
	t.mu.Unlock()

	m, err := t.fit(ctx, table)
	if err != nil {
		t.setState(StateFailed)
		return nil, err
	}
	t.setState(StateCompleted)
	return m, nil
}

func (t *Trainer) fit(ctx context.Context, table *dataset.Table) (*model.NCF, error) {
	trainSet, _ := table.Split(t.cfg.TestFrac, t.cfg.Seed)
	ds, err := dataset.NewImplicitDataset(trainSet, table.NumItems(), t.cfg.NegRatio, t.cfg.Seed)
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("train: empty training set")
	}

	m, err := model.NewNCF(model.NCFConfig{
		NumUsers: table.NumUsers(),
		NumItems: table.NumItems(),
		EmbSize:  t.cfg.EmbSize,
		Hidden:   t.cfg.Hidden,
		Dropout:  t.cfg.Dropout,
		Seed:     t.cfg.Seed,
	})
	if err != nil {
		return nil, err
	}
	opt := newAdam(m, t.cfg.LearningRate)

	t.log.Info("training started",
		"examples", ds.Len(),
		"users", table.NumUsers(),
		"items", table.NumItems(),
		"epochs", t.cfg.Epochs,
		"batch_size", t.cfg.BatchSize,
		"neg_ratio", t.cfg.NegRatio,
	)

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		// epoch 之间是取消点；epoch 内不中断，保证优化器状态一致
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("train: cancelled before epoch %d: %w", epoch, err)
		}

		meanLoss, err := t.runEpoch(m, opt, ds)
		if err != nil {
			return nil, err
		}
		t.mu.Lock()
		t.losses = append(t.losses, meanLoss)
		t.mu.Unlock()
		t.log.Info("epoch finished", "epoch", epoch, "epochs", t.cfg.Epochs, "mean_loss", meanLoss)
	}

	if t.cfg.CheckpointPath != "" {
		if err := model.SaveCheckpoint(t.cfg.CheckpointPath, m, t.cfg.Epochs); err != nil {
			return nil, fmt.Errorf("train: save checkpoint: %w", err)
		}
		t.log.Info("checkpoint written", "path", t.cfg.CheckpointPath)
	}
	return m, nil
}

func (t *Trainer) runEpoch(m *model.NCF, opt *adam, ds *dataset.ImplicitDataset) (float64, error) {
	perm := ds.Shuffle()
	var totalLoss float64
	var batches int

	for start := 0; start < len(perm); start += t.cfg.BatchSize {
		end := start + t.cfg.BatchSize
		if end > len(perm) {
			end = len(perm)
		}

		loss, err := t.runBatch(m, opt, ds, perm[start:end])
		if err != nil {
			return 0, err
		}
		totalLoss += loss
		batches++
	}
	return totalLoss / float64(batches), nil
}

func (t *Trainer) runBatch(m *model.NCF, opt *adam, ds *dataset.ImplicitDataset, idxs []int) (float64, error) {
	posUsers := make([]int64, 0, len(idxs))
	posItems := make([]int64, 0, len(idxs))
	negUsers := make([]int64, 0, len(idxs)*ds.NegRatio())
	negItems := make([]int64, 0, len(idxs)*ds.NegRatio())

	for _, idx := range idxs {
		ex, err := ds.Example(idx)
		if err != nil {
			return 0, err
		}
		posUsers = append(posUsers, ex.UserID)
		posItems = append(posItems, ex.PosID)
		for _, neg := range ex.NegIDs {
			negUsers = append(negUsers, ex.UserID)
			negItems = append(negItems, neg)
		}
	}

	posProbs, posCache, err := m.Forward(posUsers, posItems, true)
	if err != nil {
		return 0, err
	}
	negProbs, negCache, err := m.Forward(negUsers, negItems, true)
	if err != nil {
		return 0, err
	}

	// 两组各取均值后求和（正例标签 1，负例标签 0）
	loss := bceMean(posProbs, 1) + bceMean(negProbs, 0)

	grads := m.NewGradients()
	m.Backward(posCache, bceGrad(posProbs, 1), grads)
	m.Backward(negCache, bceGrad(negProbs, 0), grads)
	opt.Step(m, grads)

	return loss, nil
}

const probEps = 1e-7

// bceMean 计算一组同标签样本的二元交叉熵均值。
func bceMean(probs []float64, label float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	var sum float64
	for _, p := range probs {
		p = clampProb(p)
		if label == 1 {
			sum += -math.Log(p)
		} else {
			sum += -math.Log(1 - p)
		}
	}
	return sum / float64(len(probs))
}

// bceGrad 计算 dL/dlogit：sigmoid + BCE 的组合梯度为 (p - y)，
// 均值规约后除以组大小。
func bceGrad(probs []float64, label float64) []float64 {
	out := make([]float64, len(probs))
	n := float64(len(probs))
	for i, p := range probs {
		out[i] = (clampProb(p) - label) / n
	}
	return out
}

func clampProb(p float64) float64 {
	if p < probEps {
		return probEps
	}
	if p > 1-probEps {
		return 1 - probEps
	}
	return p
}
