package state

import (
	"sync"
	"testing"
	"time"

	"github.com/vietddude/ethmonitor/internal/core/domain"
)

func newTestSnapshot() *Snapshot {
	return New([]Registration{
		{Source: "infura", Label: "INFURA", Kind: domain.KindRPC},
		{Source: "binance", Label: "Binance", Kind: domain.KindTicker},
		{Source: "rpc_nodes", Label: "RPC NODES", Kind: domain.KindSweep},
	})
}

func TestNew_DefaultsToOK(t *testing.T) {
	s := newTestSnapshot()

	records := s.Records()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Status != domain.StatusOK {
			t.Errorf("%s: expected OK, got %s", rec.Source, rec.Status)
		}
		if !rec.LastSeen.IsZero() || rec.LastLatency != 0 || rec.Value != nil {
			t.Errorf("%s: expected zero record, got %+v", rec.Source, rec)
		}
	}

	// Registration order is preserved
	if records[0].Source != "infura" || records[2].Source != "rpc_nodes" {
		t.Errorf("unexpected order %v, %v", records[0].Source, records[2].Source)
	}
}

func TestRecordSuccess(t *testing.T) {
	s := newTestSnapshot()
	now := time.Unix(1_700_000_000, 0)

	ok := s.RecordSuccess("binance", domain.Update{
		Value:   domain.Price{Symbol: "ETH", Value: 3000},
		Latency: 120 * time.Millisecond,
	}, now)
	if !ok {
		t.Fatalf("expected registered source")
	}

	rec, _ := s.Get("binance")
	if !rec.LastSeen.Equal(now) {
		t.Errorf("expected LastSeen %v, got %v", now, rec.LastSeen)
	}
	if rec.LastLatency != 120*time.Millisecond {
		t.Errorf("unexpected latency %v", rec.LastLatency)
	}
	if rec.Value.(domain.Price).Value != 3000 {
		t.Errorf("unexpected value %+v", rec.Value)
	}
}

func TestRecordFailure_KeepsLastSeen(t *testing.T) {
	s := newTestSnapshot()
	seen := time.Unix(1_700_000_000, 0)

	s.RecordSuccess("infura", domain.Update{
		Value:   domain.ChainHead{BlockNumber: 100},
		Latency: 50 * time.Millisecond,
	}, seen)

	s.RecordFailure("infura", domain.Update{Latency: 10 * time.Second})

	rec, _ := s.Get("infura")
	if !rec.LastSeen.Equal(seen) {
		t.Errorf("failure must not move LastSeen, got %v", rec.LastSeen)
	}
	if rec.LastLatency != 10*time.Second {
		t.Errorf("expected failure latency to be recorded, got %v", rec.LastLatency)
	}
	if rec.Value.(domain.ChainHead).BlockNumber != 100 {
		t.Errorf("failure must keep the last value, got %+v", rec.Value)
	}
}

func TestRecordFailure_ClearsSweepNodes(t *testing.T) {
	s := newTestSnapshot()
	seen := time.Unix(1_700_000_000, 0)
	block := &domain.Block{Number: 42}

	s.RecordSuccess("rpc_nodes", domain.Update{
		Value: domain.NodeSweep{
			Nodes:     []domain.NodeLatency{{Label: "rpc.ankr.com/eth", Latency: time.Millisecond}},
			LastBlock: block,
		},
	}, seen)

	s.RecordFailure("rpc_nodes", domain.Update{
		Value:   domain.NodeSweep{Nodes: []domain.NodeLatency{}},
		Latency: 2 * time.Second,
	})

	rec, _ := s.Get("rpc_nodes")
	if !rec.LastSeen.Equal(seen) {
		t.Errorf("failure must not move LastSeen, got %v", rec.LastSeen)
	}
	sweep := rec.Value.(domain.NodeSweep)
	if len(sweep.Nodes) != 0 {
		t.Errorf("expected node list to be cleared, got %+v", sweep.Nodes)
	}
	if sweep.LastBlock != block {
		t.Errorf("expected last block to be kept, got %+v", sweep.LastBlock)
	}
}

func TestUnknownSource(t *testing.T) {
	s := newTestSnapshot()

	if s.RecordSuccess("ftx", domain.Update{}, time.Now()) {
		t.Errorf("expected unknown source to be rejected")
	}
	if s.RecordFailure("ftx", domain.Update{Latency: time.Second}) {
		t.Errorf("expected unknown source to be rejected")
	}
	if _, ok := s.Get("ftx"); ok {
		t.Errorf("unknown source must not be created")
	}
}

func TestSetStatuses(t *testing.T) {
	s := newTestSnapshot()
	s.SetStatuses(map[domain.SourceID]domain.Status{
		"infura": domain.StatusDown,
		"ftx":    domain.StatusDown,
	})

	rec, _ := s.Get("infura")
	if rec.Status != domain.StatusDown {
		t.Errorf("expected DOWN, got %s", rec.Status)
	}
	rec, _ = s.Get("binance")
	if rec.Status != domain.StatusOK {
		t.Errorf("expected untouched OK, got %s", rec.Status)
	}
	if len(s.Records()) != 3 {
		t.Errorf("status for unknown source must not add a record")
	}
}

func TestSweepIsReplacedNotAliased(t *testing.T) {
	s := newTestSnapshot()

	nodes := []domain.NodeLatency{{Label: "a", Latency: time.Millisecond}, {Label: "b"}}
	s.RecordSuccess("rpc_nodes", domain.Update{Value: domain.NodeSweep{Nodes: nodes}}, time.Now())
	nodes[0].Label = "mutated"

	s.RecordSuccess("rpc_nodes", domain.Update{
		Value: domain.NodeSweep{Nodes: []domain.NodeLatency{{Label: "c"}}},
	}, time.Now())

	rec, _ := s.Get("rpc_nodes")
	got := rec.Value.(domain.NodeSweep).Nodes
	if len(got) != 1 || got[0].Label != "c" {
		t.Errorf("expected list to be replaced, got %+v", got)
	}
}

func TestConcurrentWriters(t *testing.T) {
	s := newTestSnapshot()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			s.RecordSuccess("infura", domain.Update{Value: domain.ChainHead{BlockNumber: uint64(i)}}, time.Now())
		}(i)
		go func() {
			defer wg.Done()
			s.RecordFailure("binance", domain.Update{Latency: time.Millisecond})
		}()
		go func() {
			defer wg.Done()
			_ = s.Records()
		}()
	}
	wg.Wait()

	rec, _ := s.Get("infura")
	if _, ok := rec.Value.(domain.ChainHead); !ok {
		t.Errorf("expected a ChainHead value, got %T", rec.Value)
	}
}
