package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rushteam/ecomrec/core"
)

// ReadInteractions 从 CSV 读取全部交互记录到内存。
//
// 要求 header 包含 user_id 与 item_id 两列；第三列可以是：
//   - interaction：隐式正反馈标志（任何值都视为一次交互）
//   - rating：显式评分
//
// 非数字 ID、缺列等问题是数据完整性错误，直接失败，不做静默跳行。
func ReadInteractions(r io.Reader) ([]Interaction, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read interactions header: %w", err)
	}

	userCol, itemCol, ratingCol := -1, -1, -1
	implicit := false
	for i, name := range header {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "user_id":
			userCol = i
		case "item_id", "product_id":
			itemCol = i
		case "rating":
			ratingCol = i
		case "interaction":
			ratingCol = i
			implicit = true
		}
	}
	if userCol < 0 || itemCol < 0 {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataIntegrity,
			"dataset: interactions csv must have user_id and item_id columns")
	}

	var out []Interaction
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read interactions row: %w", err)
		}
		line++

		userID, err := strconv.ParseInt(strings.TrimSpace(rec[userCol]), 10, 64)
		if err != nil {
			return nil, core.NewDomainErrorf(core.ModuleDataset, core.ErrorCodeDataIntegrity,
				"dataset: line %d: non-numeric user_id %q", line, rec[userCol])
		}
		itemID, err := strconv.ParseInt(strings.TrimSpace(rec[itemCol]), 10, 64)
		if err != nil {
			return nil, core.NewDomainErrorf(core.ModuleDataset, core.ErrorCodeDataIntegrity,
				"dataset: line %d: non-numeric item_id %q", line, rec[itemCol])
		}

		rating := 1.0
		if ratingCol >= 0 && ratingCol < len(rec) && !implicit {
			rating, err = strconv.ParseFloat(strings.TrimSpace(rec[ratingCol]), 64)
			if err != nil {
				return nil, core.NewDomainErrorf(core.ModuleDataset, core.ErrorCodeDataIntegrity,
					"dataset: line %d: non-numeric rating %q", line, rec[ratingCol])
			}
		}

		out = append(out, Interaction{UserID: userID, ItemID: itemID, Rating: rating})
	}
	return out, nil
}

// LoadInteractions 从文件读取交互记录并构建 Table 快照。
func LoadInteractions(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open interactions: %w", err)
	}
	defer f.Close()

	interactions, err := ReadInteractions(f)
	if err != nil {
		return nil, err
	}
	return NewTable(interactions)
}
