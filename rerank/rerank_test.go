package rerank

import (
	"context"
	"testing"

	"github.com/rushteam/ecomrec/core"
	"github.com/rushteam/ecomrec/pkg/utils"
)

func itemsWithIDs(ids ...int64) []*core.Item {
	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.NewItem(id))
	}
	return out
}

func TestTopNNode(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		rctxTop int
		in      int
		want    int
	}{
		{"truncates to node limit", 2, 0, 5, 2},
		{"request limit wins", 5, 3, 10, 3},
		{"no limit returns all", 0, 0, 4, 4},
		{"fewer items than limit", 10, 0, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &TopNNode{N: tt.n}
			ids := make([]int64, tt.in)
			for i := range ids {
				ids[i] = int64(i + 1)
			}
			out, err := node.Process(context.Background(),
				&core.RecommendContext{TopN: tt.rctxTop}, itemsWithIDs(ids...))
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if len(out) != tt.want {
				t.Errorf("got %d items, want %d", len(out), tt.want)
			}
		})
	}
}

func TestDiversity_CapsPerCategory(t *testing.T) {
	mk := func(id int64, category string) *core.Item {
		it := core.NewItem(id)
		it.PutMeta("category", category)
		return it
	}
	items := []*core.Item{
		mk(1, "apparel"),
		mk(2, "apparel"),
		mk(3, "apparel"),
		mk(4, "kitchen"),
		mk(5, ""), // no category info, always kept
	}

	node := &Diversity{MaxPerCategory: 2}
	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	want := []int64{1, 2, 4, 5}
	if len(out) != len(want) {
		t.Fatalf("got %d items, want %d", len(out), len(want))
	}
	for k, id := range want {
		if out[k].ID != id {
			t.Errorf("position %d = item %d, want %d", k, out[k].ID, id)
		}
	}
}

func TestDiversity_DefaultsToOnePerCategory(t *testing.T) {
	mk := func(id int64, category string) *core.Item {
		it := core.NewItem(id)
		it.PutMeta("category", category)
		return it
	}
	items := []*core.Item{mk(1, "a"), mk(2, "a"), mk(3, "b")}

	node := &Diversity{}
	out, err := node.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 2 || out[0].ID != 1 || out[1].ID != 3 {
		t.Fatalf("Process = %v, want items 1 and 3", out)
	}
}

func TestDiversity_ReadsCategoryLabel(t *testing.T) {
	it := core.NewItem(1)
	it.PutLabel("category", utils.Label{Value: "apparel", Source: "catalog"})
	dup := core.NewItem(2)
	dup.PutLabel("category", utils.Label{Value: "apparel", Source: "catalog"})

	node := &Diversity{}
	out, err := node.Process(context.Background(), nil, []*core.Item{it, dup})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("got %d items, want 1", len(out))
	}
}
