package dispatch

import (
	"context"
	"testing"

	"github.com/rushteam/ecomrec/dataset"
	"github.com/rushteam/ecomrec/model"
)

func demoTable(t *testing.T) *dataset.Table {
	t.Helper()
	// user 1 bought {2, 5}; item 3 is the most popular overall
	table, err := dataset.NewTable([]dataset.Interaction{
		{UserID: 1, ItemID: 2},
		{UserID: 1, ItemID: 5},
		{UserID: 2, ItemID: 3},
		{UserID: 3, ItemID: 3},
		{UserID: 4, ItemID: 3},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func demoCatalog() *dataset.Catalog {
	return dataset.NewCatalog([]*dataset.Product{
		{ID: 2, Name: "Red Shirt", Category: "apparel", Description: "cotton shirt", Price: 20},
		{ID: 3, Name: "Blue Shirt", Category: "apparel", Description: "cotton shirt", Price: 25},
		{ID: 5, Name: "Mug", Category: "kitchen", Description: "ceramic mug", Price: 8},
	})
}

func TestDispatcher_ExcludesBoughtItems(t *testing.T) {
	d := NewDispatcher(NewSnapshot(SnapshotConfig{Table: demoTable(t)}), nil)

	items, err := d.Recommend(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected a non-empty recommendation")
	}
	for _, it := range items {
		if it.ID == 2 || it.ID == 5 {
			t.Errorf("recommended already-bought item %d", it.ID)
		}
	}
}

func TestDispatcher_UnknownUserGetsPopularity(t *testing.T) {
	d := NewDispatcher(NewSnapshot(SnapshotConfig{Table: demoTable(t)}), nil)

	items, err := d.Recommend(context.Background(), 999, 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("unknown user must get the popularity fallback, got empty")
	}
	if items[0].ID != 3 {
		t.Errorf("top fallback item = %d, want most popular item 3", items[0].ID)
	}
	lbl, ok := items[0].GetLabel("strategy")
	if !ok || lbl.Value != StrategyPopularity {
		t.Errorf("strategy label = %v/%v, want popularity", lbl, ok)
	}
}

func TestDispatcher_ModelStrategyPreferred(t *testing.T) {
	table := demoTable(t)
	m, err := model.NewNCF(model.NCFConfig{
		NumUsers: table.NumUsers(),
		NumItems: table.NumItems(),
		EmbSize:  4,
		Hidden:   []int{8},
		Seed:     42,
	})
	if err != nil {
		t.Fatalf("NewNCF: %v", err)
	}
	d := NewDispatcher(NewSnapshot(SnapshotConfig{Table: table, Scorer: m}), nil)

	items, err := d.Recommend(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected recommendations")
	}
	lbl, ok := items[0].GetLabel("strategy")
	if !ok || lbl.Value != StrategyNCF {
		t.Errorf("strategy label = %v/%v, want ncf", lbl, ok)
	}
	for _, it := range items {
		if it.ID == 2 || it.ID == 5 {
			t.Errorf("model path recommended seen item %d", it.ID)
		}
	}
}

func TestDispatcher_CollaborativeWithoutModel(t *testing.T) {
	// user 1 and user 2 share item 1, so usercf can recommend item 4
	table, err := dataset.NewTable([]dataset.Interaction{
		{UserID: 1, ItemID: 1},
		{UserID: 2, ItemID: 1},
		{UserID: 2, ItemID: 4},
		{UserID: 3, ItemID: 9},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	d := NewDispatcher(NewSnapshot(SnapshotConfig{Table: table}), nil)

	items, err := d.Recommend(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected recommendations")
	}
	lbl, _ := items[0].GetLabel("strategy")
	if lbl.Value != StrategyUserCF {
		t.Errorf("strategy = %q, want usercf", lbl.Value)
	}
	if items[0].ID != 4 {
		t.Errorf("top item = %d, want 4", items[0].ID)
	}
}

func TestDispatcher_SimilarItemsAlwaysContent(t *testing.T) {
	d := NewDispatcher(NewSnapshot(SnapshotConfig{
		Table:   demoTable(t),
		Catalog: demoCatalog(),
	}), nil)

	items, err := d.RecommendSimilarItems(context.Background(), 2, 5)
	if err != nil {
		t.Fatalf("RecommendSimilarItems: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected similar items")
	}
	for _, it := range items {
		if it.ID == 2 {
			t.Error("similar items include the seed item")
		}
		lbl, _ := it.GetLabel("strategy")
		if lbl.Value != StrategyContent {
			t.Errorf("strategy = %q, want content", lbl.Value)
		}
	}
	// the matching shirt beats the mug
	if items[0].ID != 3 {
		t.Errorf("most similar to item 2 = %d, want 3", items[0].ID)
	}
}

func TestDispatcher_AttachesCatalogMeta(t *testing.T) {
	d := NewDispatcher(NewSnapshot(SnapshotConfig{
		Table:   demoTable(t),
		Catalog: demoCatalog(),
	}), nil)

	items, err := d.Recommend(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected recommendations")
	}
	if items[0].ID == 3 {
		if items[0].Meta["name"] != "Blue Shirt" {
			t.Errorf("Meta[name] = %v, want Blue Shirt", items[0].Meta["name"])
		}
	}
}

func TestDispatcher_NoSnapshot(t *testing.T) {
	d := NewDispatcher(nil, nil)
	items, err := d.Recommend(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %v, want empty", items)
	}
	items, err = d.RecommendSimilarItems(context.Background(), 1, 5)
	if err != nil || len(items) != 0 {
		t.Errorf("similar items on empty dispatcher = %v, %v", items, err)
	}
}

func TestDispatcher_SwapReplacesServingState(t *testing.T) {
	d := NewDispatcher(NewSnapshot(SnapshotConfig{Table: demoTable(t)}), nil)

	// new data arrives: item 9 dominates
	fresh, err := dataset.NewTable([]dataset.Interaction{
		{UserID: 1, ItemID: 9},
		{UserID: 2, ItemID: 9},
		{UserID: 3, ItemID: 9},
		{UserID: 4, ItemID: 1},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	d.Swap(NewSnapshot(SnapshotConfig{Table: fresh}))

	items, err := d.Recommend(context.Background(), 999, 1)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) == 0 || items[0].ID != 9 {
		t.Fatalf("after swap top = %v, want item 9", items)
	}
}

func TestDispatcher_RepeatedCallsIdentical(t *testing.T) {
	d := NewDispatcher(NewSnapshot(SnapshotConfig{Table: demoTable(t)}), nil)
	first, err := d.Recommend(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for n := 0; n < 5; n++ {
		again, err := d.Recommend(context.Background(), 1, 5)
		if err != nil {
			t.Fatalf("Recommend: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("call %d: %d items vs %d", n, len(again), len(first))
		}
		for k := range first {
			if first[k].ID != again[k].ID {
				t.Fatalf("call %d: ordering changed at position %d", n, k)
			}
		}
	}
}
