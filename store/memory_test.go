package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/rushteam/ecomrec/core"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if _, err := ms.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("Get(missing) err = %v, want store not found", err)
	}

	if err := ms.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := ms.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get = %q, want v", got)
	}

	if err := ms.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := ms.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after Delete err = %v, want store not found", err)
	}
}

func TestMemoryStore_ZSetOrdering(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	// scores descending; members "2" and "5" tie and must come back
	// in lexicographic order
	adds := map[string]float64{"3": 9, "2": 4, "5": 4, "7": 1}
	for member, score := range adds {
		if err := ms.ZAdd(ctx, "hot", score, member); err != nil {
			t.Fatalf("ZAdd: %v", err)
		}
	}

	got, err := ms.ZRange(ctx, "hot", 0, -1)
	if err != nil {
		t.Fatalf("ZRange: %v", err)
	}
	want := []string{"3", "2", "5", "7"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ZRange = %v, want %v", got, want)
	}

	// range is inclusive on both ends
	top2, err := ms.ZRange(ctx, "hot", 0, 1)
	if err != nil {
		t.Fatalf("ZRange: %v", err)
	}
	if !reflect.DeepEqual(top2, []string{"3", "2"}) {
		t.Errorf("ZRange(0,1) = %v, want [3 2]", top2)
	}
}

func TestMemoryStore_ZScore(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := ms.ZAdd(ctx, "hot", 42, "9"); err != nil {
		t.Fatalf("ZAdd: %v", err)
	}
	score, err := ms.ZScore(ctx, "hot", "9")
	if err != nil {
		t.Fatalf("ZScore: %v", err)
	}
	if score != 42 {
		t.Errorf("ZScore = %v, want 42", score)
	}
	if _, err := ms.ZScore(ctx, "hot", "404"); !core.IsStoreNotFound(err) {
		t.Errorf("ZScore(missing) err = %v, want store not found", err)
	}
	if _, err := ms.ZScore(ctx, "cold", "9"); !core.IsStoreNotFound(err) {
		t.Errorf("ZScore on missing key err = %v, want store not found", err)
	}
}

func TestMemoryStore_ZAddUpdatesScore(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	ms.ZAdd(ctx, "hot", 1, "a")
	ms.ZAdd(ctx, "hot", 10, "a")
	score, err := ms.ZScore(ctx, "hot", "a")
	if err != nil {
		t.Fatalf("ZScore: %v", err)
	}
	if score != 10 {
		t.Errorf("score = %v, want 10", score)
	}
	members, _ := ms.ZRange(ctx, "hot", 0, -1)
	if len(members) != 1 {
		t.Errorf("ZAdd duplicated member: %v", members)
	}
}
