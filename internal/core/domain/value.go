package domain

import (
	"math/big"
	"time"
)

// Value is the probe-specific payload stored on a HealthRecord.
type Value interface {
	isValue()
}

// ChainHead is reported by JSON-RPC provider probes.
type ChainHead struct {
	BlockNumber uint64
	GasPrice    *big.Int // wei, nil when not queried
}

// Price is a ticker quote.
type Price struct {
	Symbol string
	Value  float64
}

// Supply figures are whole ETH.
type Supply struct {
	Supply         int64
	StakingRewards int64
	BurntFees      int64
}

// PageLoad carries no payload beyond the number of bytes read.
type PageLoad struct {
	Bytes int64
}

// RelayPing records the relay's answer to an empty POST.
type RelayPing struct {
	StatusCode int
}

// NodeLatency is one entry of an RPC sweep.
type NodeLatency struct {
	Label   string
	Latency time.Duration
}

// NodeSweep is rebuilt in full on every sweep.
type NodeSweep struct {
	Nodes     []NodeLatency
	LastBlock *Block
}

func (ChainHead) isValue() {}
func (Price) isValue()     {}
func (Supply) isValue()    {}
func (PageLoad) isValue()  {}
func (RelayPing) isValue() {}
func (NodeSweep) isValue() {}
