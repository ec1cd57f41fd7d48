package dataset

import (
	"math/rand"
	"sort"

	"github.com/rushteam/ecomrec/core"
)

// Interaction 是一条 (用户, 物品) 隐式正反馈记录。
// Rating 可选：显式评分场景填真实评分，隐式场景统一为 1。
type Interaction struct {
	UserID int64
	ItemID int64
	Rating float64
}

// Table 是交互数据的不可变快照（Interaction Store）。
//
// 构建一次之后只读，可被任意多个读请求并发共享；底层数据变化时
// 重新构建一个新的 Table 并原子替换引用，绝不原地修改。
//
// NumUsers / NumItems 取自观测到的最大 ID，ID 从 1 开始，0 号保留。
type Table struct {
	interactions []Interaction

	// userPos[u] 是用户 u 的正例物品集合；一个 epoch 内负采样的排除集
	userPos map[int64]map[int64]struct{}

	// ratings[u][i] 是用户对物品的评分（隐式场景为 1）
	ratings map[int64]map[int64]float64

	// popularity[i] 是物品被交互的次数
	popularity map[int64]int64

	numUsers int64
	numItems int64
}

// NewTable 从交互记录构建快照。
// 非法记录（用户或物品 ID < 1）是数据完整性错误，训练不得带病进行。
func NewTable(interactions []Interaction) (*Table, error) {
	t := &Table{
		interactions: make([]Interaction, 0, len(interactions)),
		userPos:      make(map[int64]map[int64]struct{}),
		ratings:      make(map[int64]map[int64]float64),
		popularity:   make(map[int64]int64),
	}
	for _, in := range interactions {
		if in.UserID < 1 || in.ItemID < 1 {
			return nil, core.NewDomainErrorf(core.ModuleDataset, core.ErrorCodeDataIntegrity,
				"dataset: invalid interaction (user_id=%d, item_id=%d), ids must be >= 1", in.UserID, in.ItemID)
		}
		rating := in.Rating
		if rating == 0 {
			rating = 1
		}
		t.interactions = append(t.interactions, Interaction{UserID: in.UserID, ItemID: in.ItemID, Rating: rating})

		if t.userPos[in.UserID] == nil {
			t.userPos[in.UserID] = make(map[int64]struct{})
		}
		if _, seen := t.userPos[in.UserID][in.ItemID]; !seen {
			t.userPos[in.UserID][in.ItemID] = struct{}{}
			t.popularity[in.ItemID]++
		}

		if t.ratings[in.UserID] == nil {
			t.ratings[in.UserID] = make(map[int64]float64)
		}
		t.ratings[in.UserID][in.ItemID] = rating

		if in.UserID > t.numUsers {
			t.numUsers = in.UserID
		}
		if in.ItemID > t.numItems {
			t.numItems = in.ItemID
		}
	}
	return t, nil
}

// Len 返回交互记录条数。
func (t *Table) Len() int { return len(t.interactions) }

// NumUsers 返回观测到的最大用户 ID（嵌入表行数由它决定）。
func (t *Table) NumUsers() int64 { return t.numUsers }

// NumItems 返回观测到的最大物品 ID。
func (t *Table) NumItems() int64 { return t.numItems }

// Interactions 返回全部交互记录（调用方不得修改）。
func (t *Table) Interactions() []Interaction { return t.interactions }

// HasUser 判断用户是否有交互历史。
func (t *Table) HasUser(userID int64) bool {
	_, ok := t.userPos[userID]
	return ok
}

// UserItems 返回用户的正例物品集合（调用方不得修改）；未知用户返回 nil。
func (t *Table) UserItems(userID int64) map[int64]struct{} {
	return t.userPos[userID]
}

// UserRatings 返回用户的评分表（隐式场景全为 1）；未知用户返回 nil。
func (t *Table) UserRatings(userID int64) map[int64]float64 {
	return t.ratings[userID]
}

// Users 返回所有有交互的用户 ID，升序。
func (t *Table) Users() []int64 {
	users := make([]int64, 0, len(t.userPos))
	for u := range t.userPos {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// Popularity 返回按热度排序的物品 ID：交互次数降序，次数相同时
// 物品 ID 升序。排序稳定且确定，服务路径不允许任何随机性。
func (t *Table) Popularity() []int64 {
	items := make([]int64, 0, len(t.popularity))
	for i := range t.popularity {
		items = append(items, i)
	}
	sort.Slice(items, func(a, b int) bool {
		ca, cb := t.popularity[items[a]], t.popularity[items[b]]
		if ca != cb {
			return ca > cb
		}
		return items[a] < items[b]
	})
	return items
}

// PopularityCount 返回物品的交互次数（按去重用户计）。
func (t *Table) PopularityCount(itemID int64) int64 {
	return t.popularity[itemID]
}

// Split 以 seed 确定性地打乱交互记录，划分训练/测试集。
// testFrac 是测试集占比，取值 (0, 1)；越界时整表作为训练集。
func (t *Table) Split(testFrac float64, seed int64) (train, test []Interaction) {
	shuffled := make([]Interaction, len(t.interactions))
	copy(shuffled, t.interactions)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if testFrac <= 0 || testFrac >= 1 {
		return shuffled, nil
	}
	n := int(float64(len(shuffled)) * testFrac)
	return shuffled[n:], shuffled[:n]
}
