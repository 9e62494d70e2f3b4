package staleness

import (
	"math/big"
	"testing"
	"time"

	"github.com/vietddude/ethmonitor/internal/core/domain"
	"github.com/vietddude/ethmonitor/internal/monitor/state"
)

func TestStatusAt_Boundary(t *testing.T) {
	seen := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    domain.Status
	}{
		{"fresh", 0, domain.StatusOK},
		{"just inside", 14999 * time.Millisecond, domain.StatusOK},
		{"exactly at threshold", 15000 * time.Millisecond, domain.StatusOK},
		{"just outside", 15001 * time.Millisecond, domain.StatusDown},
		{"long gone", time.Hour, domain.StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StatusAt(seen, seen.Add(tt.elapsed), DefaultThreshold)
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestStatusAt_NeverSeen(t *testing.T) {
	if got := StatusAt(time.Time{}, time.Now(), DefaultThreshold); got != domain.StatusDown {
		t.Errorf("expected DOWN for a source that never succeeded, got %s", got)
	}
}

func TestMergeCountdown(t *testing.T) {
	c, _ := new(big.Int).SetString("58750000000000000000000", 10)
	total, _ := new(big.Int).SetString("58700000000000000000000", 10)
	d, _ := new(big.Int).SetString("12000000000000000", 10)

	// (C - T) / D = 5e19 / 1.2e16 = 4166 blocks; 4166 * 14 / 60 = 972
	got, ok := MergeCountdown(d, total, c)
	if !ok {
		t.Fatalf("expected a countdown")
	}
	if got.Int64() != 972 {
		t.Errorf("expected 972, got %s", got)
	}
}

func TestMergeCountdown_Arithmetic(t *testing.T) {
	tests := []struct {
		name string
		d    int64
		t    int64
		c    int64
		want int64
	}{
		{"exact", 10, 0, 600, 14},          // 60 blocks
		{"inner floor", 7, 0, 100, 3},      // floor(100/7) = 14 blocks
		{"outer floor", 1, 0, 4, 0},        // 4 blocks is under a minute
		{"reached", 10, 600, 600, 0},       // T == C
		{"past", 10, 1200, 600, -14},       // -60 blocks
		{"truncates", 7, 101, 100, 0},      // -1/7 truncates toward zero
		{"neg truncates", 1, 105, 100, -1}, // -70/60 truncates toward zero
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MergeCountdown(big.NewInt(tt.d), big.NewInt(tt.t), big.NewInt(tt.c))
			if !ok {
				t.Fatalf("expected a countdown")
			}
			if got.Int64() != tt.want {
				t.Errorf("expected %d, got %s", tt.want, got)
			}
		})
	}
}

func TestMergeCountdown_NoData(t *testing.T) {
	if _, ok := MergeCountdown(nil, big.NewInt(1), TerminalTotalDifficulty); ok {
		t.Errorf("expected no countdown without difficulty")
	}
	if _, ok := MergeCountdown(big.NewInt(0), big.NewInt(1), TerminalTotalDifficulty); ok {
		t.Errorf("expected no countdown for zero difficulty")
	}
	if _, ok := MergeCountdown(big.NewInt(1), nil, TerminalTotalDifficulty); ok {
		t.Errorf("expected no countdown without total difficulty")
	}
}

func TestEvaluator_Scenario(t *testing.T) {
	snap := state.New([]state.Registration{
		{Source: "binance", Kind: domain.KindTicker},
		{Source: "ftx", Kind: domain.KindTicker},
	})
	eval := NewEvaluator(0)
	t0 := time.Unix(1_700_000_000, 0)

	// t=0: one probe succeeds with V
	snap.RecordSuccess("binance", domain.Update{Value: domain.Price{Value: 3000}}, t0)

	// t=10s: OK
	eval.Evaluate(snap, t0.Add(10*time.Second))
	rec, _ := snap.Get("binance")
	if rec.Status != domain.StatusOK {
		t.Errorf("t=10s: expected OK, got %s", rec.Status)
	}
	if rec.Value.(domain.Price).Value != 3000 {
		t.Errorf("t=10s: value changed: %+v", rec.Value)
	}

	// t=20s without further success: DOWN, value unchanged
	eval.Evaluate(snap, t0.Add(20*time.Second))
	rec, _ = snap.Get("binance")
	if rec.Status != domain.StatusDown {
		t.Errorf("t=20s: expected DOWN, got %s", rec.Status)
	}
	if rec.Value.(domain.Price).Value != 3000 {
		t.Errorf("t=20s: value changed: %+v", rec.Value)
	}

	// a source that never succeeded is DOWN once evaluated
	rec, _ = snap.Get("ftx")
	if rec.Status != domain.StatusDown {
		t.Errorf("expected never-seen source DOWN, got %s", rec.Status)
	}

	// recovery
	snap.RecordSuccess("binance", domain.Update{Value: domain.Price{Value: 3100}}, t0.Add(21*time.Second))
	eval.Evaluate(snap, t0.Add(22*time.Second))
	rec, _ = snap.Get("binance")
	if rec.Status != domain.StatusOK {
		t.Errorf("expected recovery to OK, got %s", rec.Status)
	}
}

func TestEvaluator_DerivedFromSweep(t *testing.T) {
	snap := state.New([]state.Registration{{Source: "rpc_nodes", Kind: domain.KindSweep}})
	eval := NewEvaluator(DefaultThreshold)
	now := time.Now()

	total, _ := new(big.Int).SetString("58700000000000000000000", 10)
	block := &domain.Block{
		Number:          15_000_000,
		Difficulty:      big.NewInt(12_000_000_000_000_000),
		TotalDifficulty: total,
	}
	snap.RecordSuccess("rpc_nodes", domain.Update{Value: domain.NodeSweep{LastBlock: block}}, now)

	ev := eval.Evaluate(snap, now)
	if ev.Derived.MinsToMerge == nil || ev.Derived.MinsToMerge.Int64() != 972 {
		t.Fatalf("expected 972 mins, got %v", ev.Derived.MinsToMerge)
	}
	if snap.Derived().LastBlock.Number != 15_000_000 {
		t.Errorf("expected last block to be stored")
	}
}

func TestEvaluator_PostMergeBlockHasNoCountdown(t *testing.T) {
	snap := state.New([]state.Registration{{Source: "rpc_nodes", Kind: domain.KindSweep}})
	block := &domain.Block{Number: 20_000_000, Difficulty: big.NewInt(0)}
	snap.RecordSuccess("rpc_nodes", domain.Update{Value: domain.NodeSweep{LastBlock: block}}, time.Now())

	ev := NewEvaluator(0).Refresh(snap)
	if ev.Derived.MinsToMerge != nil {
		t.Errorf("expected no countdown, got %v", ev.Derived.MinsToMerge)
	}
	if ev.Derived.LastBlock == nil {
		t.Errorf("expected last block even without countdown")
	}
}
