// Package staleness derives source status from the age of the last success.
package staleness

import (
	"math/big"
	"time"

	"github.com/vietddude/ethmonitor/internal/core/domain"
	"github.com/vietddude/ethmonitor/internal/monitor/state"
)

// DefaultThreshold is shared by every source.
const DefaultThreshold = 15 * time.Second

// TerminalTotalDifficulty is the mainnet merge trigger.
var TerminalTotalDifficulty, _ = new(big.Int).SetString("58750000000000000000000", 10)

var (
	secondsPerBlock = big.NewInt(14)
	secondsPerMin   = big.NewInt(60)
)

// StatusAt returns OK iff now - lastSeen <= threshold. A zero lastSeen is
// treated as the Unix epoch, so a source that never succeeded is DOWN.
func StatusAt(lastSeen, now time.Time, threshold time.Duration) domain.Status {
	if lastSeen.IsZero() {
		lastSeen = time.Unix(0, 0)
	}
	if now.Sub(lastSeen) <= threshold {
		return domain.StatusOK
	}
	return domain.StatusDown
}

// MergeCountdown estimates minutes until total difficulty reaches ttd:
// floor(floor((ttd - total) / difficulty) * 14 / 60), using truncated
// integer division. It reports false when difficulty is missing or zero.
// A total at or past ttd yields zero or a negative number.
func MergeCountdown(difficulty, total, ttd *big.Int) (*big.Int, bool) {
	if difficulty == nil || difficulty.Sign() == 0 || total == nil || ttd == nil {
		return nil, false
	}

	remaining := new(big.Int).Sub(ttd, total)
	blocks := new(big.Int).Quo(remaining, difficulty)
	mins := blocks.Mul(blocks, secondsPerBlock)
	return mins.Quo(mins, secondsPerMin), true
}

// Evaluation is the result of one evaluation pass.
type Evaluation struct {
	Statuses map[domain.SourceID]domain.Status
	Derived  state.Derived
}

// Evaluate is the pure evaluation over a set of records.
func Evaluate(records []domain.HealthRecord, now time.Time, threshold time.Duration) Evaluation {
	ev := Evaluation{Statuses: make(map[domain.SourceID]domain.Status, len(records))}

	for _, rec := range records {
		ev.Statuses[rec.Source] = StatusAt(rec.LastSeen, now, threshold)

		sweep, ok := rec.Value.(domain.NodeSweep)
		if !ok || sweep.LastBlock == nil {
			continue
		}
		if ev.Derived.LastBlock == nil || sweep.LastBlock.Number > ev.Derived.LastBlock.Number {
			ev.Derived.LastBlock = sweep.LastBlock
		}
	}

	if b := ev.Derived.LastBlock; b != nil {
		if mins, ok := MergeCountdown(b.Difficulty, b.TotalDifficulty, TerminalTotalDifficulty); ok {
			ev.Derived.MinsToMerge = mins
		}
	}
	return ev
}

// Evaluator applies evaluations to a snapshot.
type Evaluator struct {
	threshold time.Duration
	now       func() time.Time
}

// NewEvaluator creates an evaluator. A non-positive threshold selects
// DefaultThreshold.
func NewEvaluator(threshold time.Duration) *Evaluator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Evaluator{threshold: threshold, now: time.Now}
}

// Threshold returns the staleness threshold in use.
func (e *Evaluator) Threshold() time.Duration {
	return e.threshold
}

// Evaluate recomputes every status and the derived metrics at now.
func (e *Evaluator) Evaluate(snap *state.Snapshot, now time.Time) Evaluation {
	ev := Evaluate(snap.Records(), now, e.threshold)
	snap.SetStatuses(ev.Statuses)
	snap.SetDerived(ev.Derived)
	return ev
}

// Refresh evaluates at the current wall-clock time.
func (e *Evaluator) Refresh(snap *state.Snapshot) Evaluation {
	return e.Evaluate(snap, e.now())
}
