package train

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rushteam/ecomrec/dataset"
	"github.com/rushteam/ecomrec/model"
)

func testTable(t *testing.T) *dataset.Table {
	t.Helper()
	rows := make([]dataset.Interaction, 0, 120)
	// 30 users over a 12-item catalog, 4 interactions each,
	// enough slack for negative sampling
	for u := int64(1); u <= 30; u++ {
		for k := int64(0); k < 4; k++ {
			rows = append(rows, dataset.Interaction{
				UserID: u,
				ItemID: (u+k*3)%12 + 1,
				Rating: 1,
			})
		}
	}
	table, err := dataset.NewTable(rows)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func smallConfig() Config {
	return Config{
		EmbSize:   4,
		Hidden:    []int{8, 4},
		Dropout:   0.1,
		NegRatio:  2,
		BatchSize: 16,
		Epochs:    2,
		Seed:      42,
	}
}

func TestTrainer_FitCompletes(t *testing.T) {
	trainer := NewTrainer(smallConfig(), nil)
	if got := trainer.State(); got != StateUninitialized {
		t.Fatalf("initial state = %v, want uninitialized", got)
	}

	m, err := trainer.Fit(context.Background(), testTable(t))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if m == nil {
		t.Fatal("Fit returned nil model")
	}
	if got := trainer.State(); got != StateCompleted {
		t.Errorf("state after Fit = %v, want completed", got)
	}

	losses := trainer.EpochLosses()
	if len(losses) != 2 {
		t.Fatalf("got %d epoch losses, want 2", len(losses))
	}
	for i, loss := range losses {
		if loss <= 0 {
			t.Errorf("epoch %d mean loss = %v, want > 0", i+1, loss)
		}
	}

	// trained model still scores inside the unit interval
	probs, err := m.Score([]int64{1, 2}, []int64{1, 2})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for _, p := range probs {
		if p < 0 || p > 1 {
			t.Errorf("score %v outside [0,1]", p)
		}
	}
}

func TestTrainer_WritesCheckpoint(t *testing.T) {
	cfg := smallConfig()
	cfg.CheckpointPath = filepath.Join(t.TempDir(), "ncf.ckpt")

	trainer := NewTrainer(cfg, nil)
	trained, err := trainer.Fit(context.Background(), testTable(t))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	loaded, meta, err := model.LoadCheckpoint(cfg.CheckpointPath)
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if meta.Epochs != cfg.Epochs {
		t.Errorf("meta.Epochs = %d, want %d", meta.Epochs, cfg.Epochs)
	}

	users := []int64{1, 5, 9}
	items := []int64{2, 4, 6}
	want, err := trained.Score(users, items)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	got, err := loaded.Score(users, items)
	if err != nil {
		t.Fatalf("Score after reload: %v", err)
	}
	for k := range want {
		if want[k] != got[k] {
			t.Fatalf("reloaded score differs: %v vs %v", want[k], got[k])
		}
	}
}

func TestTrainer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	trainer := NewTrainer(smallConfig(), nil)
	if _, err := trainer.Fit(ctx, testTable(t)); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
	if got := trainer.State(); got != StateFailed {
		t.Errorf("state = %v, want failed", got)
	}
}

func TestTrainer_EmptyTrainingSet(t *testing.T) {
	table, err := dataset.NewTable(nil)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	trainer := NewTrainer(smallConfig(), nil)
	if _, err := trainer.Fit(context.Background(), table); err == nil {
		t.Fatal("expected error for empty table, got nil")
	}
}

func TestConfig_Defaults(t *testing.T) {
	trainer := NewTrainer(Config{}, nil)
	cfg := trainer.cfg
	if cfg.NegRatio != DefaultNegRatio {
		t.Errorf("NegRatio = %d, want %d", cfg.NegRatio, DefaultNegRatio)
	}
	if cfg.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", cfg.BatchSize, DefaultBatchSize)
	}
	if cfg.Epochs != DefaultEpochs {
		t.Errorf("Epochs = %d, want %d", cfg.Epochs, DefaultEpochs)
	}
	if cfg.LearningRate != DefaultLearningRate {
		t.Errorf("LearningRate = %v, want %v", cfg.LearningRate, DefaultLearningRate)
	}
	if cfg.TestFrac != DefaultTestFrac {
		t.Errorf("TestFrac = %v, want %v", cfg.TestFrac, DefaultTestFrac)
	}
	if cfg.Seed != DefaultSeed {
		t.Errorf("Seed = %v, want %v", cfg.Seed, DefaultSeed)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUninitialized, "uninitialized"},
		{StateTraining, "training"},
		{StateCompleted, "completed"},
		{StateFailed, "failed"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, tt.want, got)
		}
	}
}
