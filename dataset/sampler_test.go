package dataset

import (
	"testing"

	"github.com/rushteam/ecomrec/core"
)

func TestImplicitDataset_NegativesNeverPositive(t *testing.T) {
	rows := []Interaction{
		{UserID: 1, ItemID: 2},
		{UserID: 1, ItemID: 5},
		{UserID: 2, ItemID: 3},
		{UserID: 3, ItemID: 1},
	}
	ds, err := NewImplicitDataset(rows, 10, 4, 42)
	if err != nil {
		t.Fatalf("NewImplicitDataset: %v", err)
	}
	if ds.Len() != len(rows) {
		t.Fatalf("Len() = %d, want %d", ds.Len(), len(rows))
	}

	positives := map[int64]map[int64]struct{}{}
	for _, r := range rows {
		if positives[r.UserID] == nil {
			positives[r.UserID] = map[int64]struct{}{}
		}
		positives[r.UserID][r.ItemID] = struct{}{}
	}

	for idx := 0; idx < ds.Len(); idx++ {
		ex, err := ds.Example(idx)
		if err != nil {
			t.Fatalf("Example(%d): %v", idx, err)
		}
		if len(ex.NegIDs) != 4 {
			t.Fatalf("Example(%d) has %d negatives, want 4", idx, len(ex.NegIDs))
		}
		for _, neg := range ex.NegIDs {
			if neg < 1 || neg > 10 {
				t.Errorf("negative %d outside [1, 10]", neg)
			}
			if _, isPos := positives[ex.UserID][neg]; isPos {
				t.Errorf("user %d: sampled positive item %d as negative", ex.UserID, neg)
			}
		}
	}
}

func TestImplicitDataset_SamplingExhaustion(t *testing.T) {
	// user 1 has interacted with the entire two-item catalog,
	// no valid negative exists
	rows := []Interaction{
		{UserID: 1, ItemID: 1},
		{UserID: 1, ItemID: 2},
	}
	ds, err := NewImplicitDataset(rows, 2, 4, 42)
	if err != nil {
		t.Fatalf("NewImplicitDataset: %v", err)
	}
	_, err = ds.Example(0)
	if err == nil {
		t.Fatal("expected sampling exhaustion error, got nil")
	}
	if !core.IsSamplingExhausted(err) {
		t.Errorf("expected sampling exhaustion error, got %v", err)
	}
}

func TestImplicitDataset_RejectsInvalidIDs(t *testing.T) {
	// item id beyond the declared catalog size
	rows := []Interaction{{UserID: 1, ItemID: 11}}
	_, err := NewImplicitDataset(rows, 10, 4, 42)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !core.IsDataIntegrity(err) {
		t.Errorf("expected data integrity error, got %v", err)
	}
}

func TestImplicitDataset_ShuffleIsPermutation(t *testing.T) {
	rows := []Interaction{
		{UserID: 1, ItemID: 1},
		{UserID: 2, ItemID: 2},
		{UserID: 3, ItemID: 3},
	}
	ds, err := NewImplicitDataset(rows, 10, 2, 7)
	if err != nil {
		t.Fatalf("NewImplicitDataset: %v", err)
	}
	perm := ds.Shuffle()
	if len(perm) != ds.Len() {
		t.Fatalf("Shuffle() len = %d, want %d", len(perm), ds.Len())
	}
	seen := map[int]bool{}
	for _, idx := range perm {
		if idx < 0 || idx >= ds.Len() || seen[idx] {
			t.Fatalf("Shuffle() = %v is not a permutation", perm)
		}
		seen[idx] = true
	}
}
