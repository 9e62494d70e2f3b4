// Package state holds the shared health snapshot.
//
// Probes write into the snapshot as they complete; the evaluator and the
// renderer read from it. Every write replaces one record under the lock, so
// readers never see a partially applied update, but they may see records
// from different cycles side by side.
package state

import (
	"math/big"
	"sync"
	"time"

	"github.com/vietddude/ethmonitor/internal/core/domain"
)

// Registration declares a source at startup.
type Registration struct {
	Source domain.SourceID
	Label  string
	Kind   domain.SourceKind
}

// Derived holds snapshot-wide metrics computed by the evaluator.
type Derived struct {
	// MinsToMerge is nil until a block with difficulty data has been seen.
	MinsToMerge *big.Int
	// LastBlock is the most recent block observed by a sweep.
	LastBlock *domain.Block
}

// Snapshot is the shared mutable view of all sources.
type Snapshot struct {
	mu      sync.RWMutex
	order   []domain.SourceID
	records map[domain.SourceID]domain.HealthRecord
	derived Derived
}

// New creates a snapshot with every source pre-initialized to OK and zero
// values, so a render before any probe completes shows defaults.
func New(regs []Registration) *Snapshot {
	s := &Snapshot{
		order:   make([]domain.SourceID, 0, len(regs)),
		records: make(map[domain.SourceID]domain.HealthRecord, len(regs)),
	}
	for _, r := range regs {
		if _, dup := s.records[r.Source]; dup {
			continue
		}
		s.order = append(s.order, r.Source)
		s.records[r.Source] = domain.HealthRecord{
			Source: r.Source,
			Label:  r.Label,
			Kind:   r.Kind,
			Status: domain.StatusOK,
		}
	}
	return s
}

// RecordSuccess stores a successful probe outcome. It reports false for
// sources that were not registered.
func (s *Snapshot) RecordSuccess(source domain.SourceID, update domain.Update, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[source]
	if !ok {
		return false
	}
	rec.LastLatency = update.Latency
	rec.Value = cloneValue(update.Value)
	rec.LastSeen = now
	s.records[source] = rec
	return true
}

// RecordFailure stores the latency of a failed attempt. LastSeen is left
// untouched so staleness keeps accruing. The last value is kept unless the
// update carries a replacement, which a sweep sends to clear its node list;
// a replacement sweep without a block keeps the previous block.
func (s *Snapshot) RecordFailure(source domain.SourceID, update domain.Update) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[source]
	if !ok {
		return false
	}
	rec.LastLatency = update.Latency
	if update.Value != nil {
		next := cloneValue(update.Value)
		if sweep, ok := next.(domain.NodeSweep); ok && sweep.LastBlock == nil {
			if prev, ok := rec.Value.(domain.NodeSweep); ok {
				sweep.LastBlock = prev.LastBlock
				next = sweep
			}
		}
		rec.Value = next
	}
	s.records[source] = rec
	return true
}

// SetStatuses applies evaluator results. Sources missing from the map keep
// their current status.
func (s *Snapshot) SetStatuses(statuses map[domain.SourceID]domain.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, status := range statuses {
		rec, ok := s.records[id]
		if !ok {
			continue
		}
		rec.Status = status
		s.records[id] = rec
	}
}

// SetDerived replaces the derived metrics.
func (s *Snapshot) SetDerived(d Derived) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.derived = d
}

// Derived returns the current derived metrics.
func (s *Snapshot) Derived() Derived {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.derived
}

// Get returns a copy of one record.
func (s *Snapshot) Get(source domain.SourceID) (domain.HealthRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[source]
	return rec, ok
}

// Records returns copies of all records in registration order.
func (s *Snapshot) Records() []domain.HealthRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.HealthRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// cloneValue copies slice-backed values so the snapshot never aliases a
// probe's buffers.
func cloneValue(v domain.Value) domain.Value {
	if sweep, ok := v.(domain.NodeSweep); ok {
		nodes := make([]domain.NodeLatency, len(sweep.Nodes))
		copy(nodes, sweep.Nodes)
		sweep.Nodes = nodes
		return sweep
	}
	return v
}
