package model

import (
	"testing"

	"github.com/rushteam/ecomrec/core"
)

func newTestNCF(t *testing.T) *NCF {
	t.Helper()
	m, err := NewNCF(NCFConfig{
		NumUsers: 10,
		NumItems: 20,
		EmbSize:  8,
		Hidden:   []int{16, 8},
		Dropout:  0.2,
		Seed:     42,
	})
	if err != nil {
		t.Fatalf("NewNCF: %v", err)
	}
	return m
}

func TestNCF_ScoreInUnitInterval(t *testing.T) {
	m := newTestNCF(t)

	var users, items []int64
	for u := int64(1); u <= 10; u++ {
		for i := int64(1); i <= 20; i++ {
			users = append(users, u)
			items = append(items, i)
		}
	}
	probs, err := m.Score(users, items)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(probs) != len(users) {
		t.Fatalf("got %d scores, want %d", len(probs), len(users))
	}
	for k, p := range probs {
		if p < 0 || p > 1 {
			t.Errorf("score(%d,%d) = %v outside [0,1]", users[k], items[k], p)
		}
	}
}

func TestNCF_ScoreIsDeterministic(t *testing.T) {
	m := newTestNCF(t)
	users := []int64{1, 2, 3}
	items := []int64{4, 5, 6}

	first, err := m.Score(users, items)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// inference must not involve dropout or any other randomness
	for n := 0; n < 3; n++ {
		again, err := m.Score(users, items)
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		for k := range first {
			if first[k] != again[k] {
				t.Fatalf("score changed between calls: %v vs %v", first[k], again[k])
			}
		}
	}
}

func TestNCF_OutOfRangeIDs(t *testing.T) {
	m := newTestNCF(t)
	tests := []struct {
		name  string
		users []int64
		items []int64
	}{
		{"user zero", []int64{0}, []int64{1}},
		{"user beyond range", []int64{11}, []int64{1}},
		{"item zero", []int64{1}, []int64{0}},
		{"item beyond range", []int64{1}, []int64{21}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Score(tt.users, tt.items)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !core.IsOutOfRange(err) {
				t.Errorf("expected out of range error, got %v", err)
			}
		})
	}
}

func TestNCF_MismatchedBatchLengths(t *testing.T) {
	m := newTestNCF(t)
	if _, err := m.Score([]int64{1, 2}, []int64{1}); err == nil {
		t.Fatal("expected error for mismatched lengths, got nil")
	}
}

func TestNCF_RejectsEmptyDomain(t *testing.T) {
	if _, err := NewNCF(NCFConfig{NumUsers: 0, NumItems: 5}); err == nil {
		t.Fatal("expected error for zero users, got nil")
	}
}

func TestNCF_DefaultsApplied(t *testing.T) {
	m, err := NewNCF(NCFConfig{NumUsers: 2, NumItems: 2})
	if err != nil {
		t.Fatalf("NewNCF: %v", err)
	}
	cfg := m.Config()
	if cfg.EmbSize != DefaultEmbSize {
		t.Errorf("EmbSize = %d, want %d", cfg.EmbSize, DefaultEmbSize)
	}
	if len(cfg.Hidden) != 2 || cfg.Hidden[0] != 128 || cfg.Hidden[1] != 64 {
		t.Errorf("Hidden = %v, want [128 64]", cfg.Hidden)
	}
	if cfg.Dropout != DefaultDropout {
		t.Errorf("Dropout = %v, want %v", cfg.Dropout, DefaultDropout)
	}
}

func TestNCF_BackwardAccumulatesTouchedRowsOnly(t *testing.T) {
	m := newTestNCF(t)
	users := []int64{1, 1, 2}
	items := []int64{3, 4, 3}

	probs, cache, err := m.Forward(users, items, true)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	dLogit := make([]float64, len(probs))
	for k, p := range probs {
		dLogit[k] = p - 1 // gradient as if every label were positive
	}
	grads := m.NewGradients()
	m.Backward(cache, dLogit, grads)

	if len(grads.UserEmb) != 2 {
		t.Errorf("UserEmb touched %d rows, want 2", len(grads.UserEmb))
	}
	if len(grads.ItemEmb) != 2 {
		t.Errorf("ItemEmb touched %d rows, want 2", len(grads.ItemEmb))
	}
	if _, ok := grads.UserEmb[1]; !ok {
		t.Error("missing gradient for user 1")
	}
	if _, ok := grads.ItemEmb[3]; !ok {
		t.Error("missing gradient for item 3")
	}
}
