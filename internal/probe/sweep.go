package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vietddude/ethmonitor/internal/core/domain"
	"github.com/vietddude/ethmonitor/internal/infra/rpc/provider"
	"golang.org/x/sync/errgroup"
)

// SweepEndpoint is one node queried by a SweepProbe.
type SweepEndpoint struct {
	Label  string
	Caller provider.RPCCaller
}

// SweepProbe queries a list of equivalent RPC nodes concurrently. Each node
// is independently fallible; the result lists the nodes that answered in
// this sweep only.
type SweepProbe struct {
	source    domain.SourceID
	endpoints []SweepEndpoint
	log       *slog.Logger
}

func NewSweepProbe(source domain.SourceID, endpoints []SweepEndpoint) *SweepProbe {
	return &SweepProbe{
		source:    source,
		endpoints: endpoints,
		log:       slog.Default().With("source", source),
	}
}

func (p *SweepProbe) Source() domain.SourceID {
	return p.source
}

type sweepResult struct {
	latency time.Duration
	block   *domain.Block
	err     error
}

func (p *SweepProbe) Run(ctx context.Context) (domain.Update, error) {
	start := time.Now()
	results := make([]sweepResult, len(p.endpoints))

	// Endpoint failures are kept in results and never returned to the group,
	// so one failing node cannot cancel the others.
	var g errgroup.Group
	for i, ep := range p.endpoints {
		g.Go(func() error {
			results[i] = querySweepEndpoint(ctx, ep.Caller)
			return nil
		})
	}
	_ = g.Wait()

	update := domain.Update{Latency: time.Since(start)}
	sweep := domain.NodeSweep{Nodes: make([]domain.NodeLatency, 0, len(p.endpoints))}

	var errs []error
	for i, res := range results {
		label := p.endpoints[i].Label
		if res.err != nil {
			p.log.Warn("RPC node check failed", "node", label, "kind", domain.KindOf(res.err), "error", res.err)
			errs = append(errs, fmt.Errorf("%s: %w", label, res.err))
			continue
		}
		sweep.Nodes = append(sweep.Nodes, domain.NodeLatency{Label: label, Latency: res.latency})
		if sweep.LastBlock == nil {
			sweep.LastBlock = res.block
		}
	}

	if len(sweep.Nodes) == 0 && len(p.endpoints) > 0 {
		// The empty list still replaces the previous sweep.
		update.Value = sweep
		return update, domain.ProtocolError("sweep", errors.Join(errs...))
	}

	update.Value = sweep
	return update, nil
}

// querySweepEndpoint measures eth_blockNumber and then fetches that block.
func querySweepEndpoint(ctx context.Context, caller provider.RPCCaller) sweepResult {
	start := time.Now()
	result, err := caller.Call(ctx, "eth_blockNumber", nil)
	latency := time.Since(start)
	if err != nil {
		return sweepResult{err: err}
	}

	number, err := parseHexUint(result)
	if err != nil {
		return sweepResult{err: domain.ParseError("eth_blockNumber", err)}
	}

	raw, err := caller.Call(ctx, "eth_getBlockByNumber", []any{fmt.Sprintf("0x%x", number), false})
	if err != nil {
		return sweepResult{err: err}
	}

	block, err := parseBlock(raw)
	if err != nil {
		return sweepResult{err: domain.ParseError("eth_getBlockByNumber", err)}
	}

	return sweepResult{latency: latency, block: block}
}

func parseBlock(v any) (*domain.Block, error) {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid block format %T", v)
	}

	number, err := parseHexUint(raw["number"])
	if err != nil {
		return nil, fmt.Errorf("number: %w", err)
	}

	block := &domain.Block{
		Number: number,
		Hash:   getString(raw["hash"]),
		Miner:  getString(raw["miner"]),
	}
	block.Timestamp = blockField(raw, "timestamp")
	block.Size = blockField(raw, "size")
	block.GasUsed = blockField(raw, "gasUsed")

	if txs, ok := raw["transactions"].([]any); ok {
		block.TxCount = len(txs)
	}

	// Difficulty fields are absent or zero after the merge.
	if d, err := parseHexBig(raw["difficulty"]); err == nil {
		block.Difficulty = d
	}
	if td, err := parseHexBig(raw["totalDifficulty"]); err == nil {
		block.TotalDifficulty = td
	}

	return block, nil
}

// blockField decodes an optional hex quantity. Missing or malformed fields
// read as zero; malformed ones are logged.
func blockField(raw map[string]any, name string) uint64 {
	v, ok := raw[name]
	if !ok || v == nil {
		return 0
	}
	n, err := parseHexUint(v)
	if err != nil {
		slog.Debug("Malformed block field", "field", name, "value", v, "error", err)
		return 0
	}
	return n
}

// NodeLabel derives a display label from an endpoint URL.
func NodeLabel(endpoint string) string {
	label := strings.TrimPrefix(endpoint, "https://")
	return strings.TrimPrefix(label, "http://")
}
