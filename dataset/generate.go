package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
)

// GenerateInteractions 生成合成交互数据：nUsers 个用户，每人随机交互
// perUser 个互不相同的物品（物品 ID 取自 [1, nItems]）。
// 用于压测、demo 和冷启动前的离线验证，seed 固定则输出固定。
func GenerateInteractions(nUsers, nItems, perUser int, seed int64) []Interaction {
	if perUser > nItems {
		perUser = nItems
	}
	rng := rand.New(rand.NewSource(seed))
	out := make([]Interaction, 0, nUsers*perUser)
	for u := 1; u <= nUsers; u++ {
		perm := rng.Perm(nItems)
		for _, p := range perm[:perUser] {
			out = append(out, Interaction{UserID: int64(u), ItemID: int64(p + 1), Rating: 1})
		}
	}
	return out
}

// WriteInteractions 将交互记录写为 CSV（user_id,item_id,interaction）。
func WriteInteractions(w io.Writer, interactions []Interaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"user_id", "item_id", "interaction"}); err != nil {
		return fmt.Errorf("write interactions header: %w", err)
	}
	for _, in := range interactions {
		rec := []string{
			strconv.FormatInt(in.UserID, 10),
			strconv.FormatInt(in.ItemID, 10),
			"1",
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write interaction row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// GenerateToFile 生成合成交互数据并写入 CSV 文件。
func GenerateToFile(path string, nUsers, nItems, perUser int, seed int64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteInteractions(f, GenerateInteractions(nUsers, nItems, perUser, seed))
}
