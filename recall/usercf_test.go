package recall

import (
	"testing"

	"github.com/rushteam/ecomrec/dataset"
)

func cfTable(t *testing.T) *dataset.Table {
	t.Helper()
	// users 1 and 2 overlap heavily, user 3 is disjoint
	table, err := dataset.NewTable([]dataset.Interaction{
		{UserID: 1, ItemID: 1, Rating: 5},
		{UserID: 1, ItemID: 2, Rating: 4},
		{UserID: 2, ItemID: 1, Rating: 5},
		{UserID: 2, ItemID: 2, Rating: 4},
		{UserID: 2, ItemID: 3, Rating: 5},
		{UserID: 3, ItemID: 4, Rating: 3},
		{UserID: 3, ItemID: 5, Rating: 2},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func TestUserCF_NeverReturnsSeenItems(t *testing.T) {
	cf := NewUserCF(cfTable(t), ZeroFill)
	seen := map[int64]struct{}{1: {}, 2: {}}
	for _, it := range cf.RecommendForUser(1, 10) {
		if _, bought := seen[it.ID]; bought {
			t.Errorf("recommended item %d that user 1 already interacted with", it.ID)
		}
	}
}

func TestUserCF_NearestNeighborItemsFirst(t *testing.T) {
	cf := NewUserCF(cfTable(t), ZeroFill)
	items := cf.RecommendForUser(1, 10)
	if len(items) == 0 {
		t.Fatal("expected recommendations for user 1")
	}
	// user 2 is the closest neighbor and contributes item 3 first
	if items[0].ID != 3 {
		t.Errorf("first recommendation = %d, want 3", items[0].ID)
	}
	if items[0].Score <= 0 {
		t.Errorf("neighbor similarity score = %v, want > 0", items[0].Score)
	}
}

func TestUserCF_UnknownUserReturnsEmpty(t *testing.T) {
	cf := NewUserCF(cfTable(t), ZeroFill)
	if items := cf.RecommendForUser(42, 10); len(items) != 0 {
		t.Errorf("unknown user got %v, want empty", items)
	}
}

func TestUserCF_Deterministic(t *testing.T) {
	cf := NewUserCF(cfTable(t), ZeroFill)
	first := cf.RecommendForUser(1, 10)
	for n := 0; n < 5; n++ {
		again := cf.RecommendForUser(1, 10)
		if len(again) != len(first) {
			t.Fatalf("call %d returned %d items, want %d", n, len(again), len(first))
		}
		for k := range first {
			if first[k].ID != again[k].ID || first[k].Score != again[k].Score {
				t.Fatalf("call %d: position %d differs", n, k)
			}
		}
	}

	// a rebuilt engine over the same table must agree as well
	rebuilt := NewUserCF(cfTable(t), ZeroFill).RecommendForUser(1, 10)
	for k := range first {
		if first[k].ID != rebuilt[k].ID {
			t.Fatalf("rebuilt engine differs at position %d", k)
		}
	}
}

func TestUserCF_TopNLimit(t *testing.T) {
	cf := NewUserCF(cfTable(t), ZeroFill)
	if items := cf.RecommendForUser(1, 1); len(items) > 1 {
		t.Errorf("RecommendForUser(1, 1) returned %d items", len(items))
	}
}

func TestUserCF_RecallSourceLabel(t *testing.T) {
	cf := NewUserCF(cfTable(t), ZeroFill)
	for _, it := range cf.RecommendForUser(1, 10) {
		lbl, ok := it.GetLabel("recall_source")
		if !ok || lbl.Value != "usercf" {
			t.Errorf("item %d recall_source label = %v/%v", it.ID, lbl, ok)
		}
	}
}
