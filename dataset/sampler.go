package dataset

import (
	"math/rand"
	"sync"

	"github.com/rushteam/ecomrec/core"
)

// DefaultNegRatio 是每个正例采样的负例数。
const DefaultNegRatio = 4

// DefaultMaxRetries 是单个负例的拒绝采样重试预算。
// 用户交互覆盖接近全目录时拒绝采样会退化，宁可让这轮训练失败，
// 也不能无界循环。
const DefaultMaxRetries = 100

// Example 是一条训练样本：一个正例 + NegRatio 个负例。
type Example struct {
	UserID int64
	PosID  int64
	NegIDs []int64
}

// ImplicitDataset 是隐式反馈训练集：对每个正例 (u, i) 拒绝采样出
// negRatio 个 u 从未交互过的物品作为负例。
//
// 注意两点语义：
//   - 采样是按次随机的：对同一下标重复调用 Example 会得到不同负例，
//     这是有意为之（每个 epoch 重新采负例），rng 由 seed 决定，整体可复现
//   - 负例 j 均匀取自 [1, numItems]，重采直到 j 不在 u 的正例集中；
//     超过重试预算返回 SAMPLING_EXHAUSTED 错误
type ImplicitDataset struct {
	pairs    []Interaction
	userPos  map[int64]map[int64]struct{}
	numItems int64

	negRatio   int
	maxRetries int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewImplicitDataset 构建训练集。
// train 通常来自 Table.Split 的训练侧；numItems 是物品 ID 上界（含）。
// 超出 [1, numItems] 或非法 ID 的训练对是数据完整性错误。
func NewImplicitDataset(train []Interaction, numItems int64, negRatio int, seed int64) (*ImplicitDataset, error) {
	if negRatio <= 0 {
		negRatio = DefaultNegRatio
	}
	ds := &ImplicitDataset{
		pairs:      make([]Interaction, 0, len(train)),
		userPos:    make(map[int64]map[int64]struct{}),
		numItems:   numItems,
		negRatio:   negRatio,
		maxRetries: DefaultMaxRetries,
		rng:        rand.New(rand.NewSource(seed)),
	}
	for _, in := range train {
		if in.UserID < 1 {
			return nil, core.NewDomainErrorf(core.ModuleDataset, core.ErrorCodeDataIntegrity,
				"dataset: invalid user_id %d in training pair", in.UserID)
		}
		if in.ItemID < 1 || in.ItemID > numItems {
			return nil, core.NewDomainErrorf(core.ModuleDataset, core.ErrorCodeDataIntegrity,
				"dataset: item_id %d outside [1, %d]", in.ItemID, numItems)
		}
		ds.pairs = append(ds.pairs, in)
		if ds.userPos[in.UserID] == nil {
			ds.userPos[in.UserID] = make(map[int64]struct{})
		}
		ds.userPos[in.UserID][in.ItemID] = struct{}{}
	}
	return ds, nil
}

// Len 返回正例条数（一个 epoch 的样本数）。
func (ds *ImplicitDataset) Len() int { return len(ds.pairs) }

// NegRatio 返回每个正例的负例数。
func (ds *ImplicitDataset) NegRatio() int { return ds.negRatio }

// Example 返回下标 idx 处的训练样本，负例现采。
func (ds *ImplicitDataset) Example(idx int) (Example, error) {
	if idx < 0 || idx >= len(ds.pairs) {
		return Example{}, core.NewDomainErrorf(core.ModuleDataset, core.ErrorCodeOutOfRange,
			"dataset: example index %d outside [0, %d)", idx, len(ds.pairs))
	}
	pair := ds.pairs[idx]
	pos := ds.userPos[pair.UserID]

	// 该用户交互过全部物品时，不存在合法负例，直接失败
	if int64(len(pos)) >= ds.numItems {
		return Example{}, core.NewDomainErrorf(core.ModuleDataset, core.ErrorCodeSamplingExhausted,
			"dataset: user %d has interacted with all %d items, no valid negative exists", pair.UserID, ds.numItems)
	}

	negs := make([]int64, 0, ds.negRatio)
	ds.mu.Lock()
	defer ds.mu.Unlock()
	for k := 0; k < ds.negRatio; k++ {
		found := false
		for attempt := 0; attempt < ds.maxRetries; attempt++ {
			j := ds.rng.Int63n(ds.numItems) + 1
			if _, seen := pos[j]; !seen {
				negs = append(negs, j)
				found = true
				break
			}
		}
		if !found {
			return Example{}, core.NewDomainErrorf(core.ModuleDataset, core.ErrorCodeSamplingExhausted,
				"dataset: no valid negative for user %d within %d attempts", pair.UserID, ds.maxRetries)
		}
	}
	return Example{UserID: pair.UserID, PosID: pair.ItemID, NegIDs: negs}, nil
}

// Shuffle 返回一个确定性打乱的下标序列，供 Trainer 按 epoch 使用。
func (ds *ImplicitDataset) Shuffle() []int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.rng.Perm(len(ds.pairs))
}
