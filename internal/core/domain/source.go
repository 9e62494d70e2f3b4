package domain

import "time"

// SourceID identifies a monitored source. The set is fixed at startup.
type SourceID string

// SourceKind is the probe family a source belongs to.
type SourceKind string

const (
	KindRPC      SourceKind = "jsonrpc"
	KindTicker   SourceKind = "ticker"
	KindSupply   SourceKind = "supply"
	KindPageLoad SourceKind = "pageload"
	KindRelay    SourceKind = "relay"
	KindSweep    SourceKind = "sweep"
)

// Status is the liveness of a source derived from its last success.
type Status string

const (
	StatusOK   Status = "OK"
	StatusDown Status = "DOWN"
)

// HealthRecord holds the most recent outcome for one source.
//
// Status is written only by the staleness evaluator. Probes update
// LastSeen, LastLatency and Value.
type HealthRecord struct {
	Source      SourceID
	Label       string
	Kind        SourceKind
	Status      Status
	LastSeen    time.Time // zero until the first success
	LastLatency time.Duration
	Value       Value
}

// Update is what a probe run produces. Latency is set on failure too.
type Update struct {
	Value   Value
	Latency time.Duration
}
