package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/ethmonitor/internal/core/domain"
	"github.com/vietddude/ethmonitor/internal/infra/rpc/provider"
)

// RPCProbe checks a JSON-RPC node provider. The same implementation serves
// every provider; instances differ only in the caller they wrap.
type RPCProbe struct {
	source   domain.SourceID
	caller   provider.RPCCaller
	gasPrice bool
}

// NewRPCProbe creates a probe that reads the head block number and,
// when withGasPrice is set, the current gas price.
func NewRPCProbe(source domain.SourceID, caller provider.RPCCaller, withGasPrice bool) *RPCProbe {
	return &RPCProbe{
		source:   source,
		caller:   caller,
		gasPrice: withGasPrice,
	}
}

func (p *RPCProbe) Source() domain.SourceID {
	return p.source
}

func (p *RPCProbe) Run(ctx context.Context) (domain.Update, error) {
	start := time.Now()
	result, err := p.caller.Call(ctx, "eth_blockNumber", nil)
	update := domain.Update{Latency: time.Since(start)}
	if err != nil {
		return update, fmt.Errorf("%s: %w", p.caller.GetName(), err)
	}

	number, err := parseHexUint(result)
	if err != nil {
		return update, domain.ParseError("eth_blockNumber", err)
	}
	head := domain.ChainHead{BlockNumber: number}

	if p.gasPrice {
		result, err := p.caller.Call(ctx, "eth_gasPrice", nil)
		if err != nil {
			return update, fmt.Errorf("%s: %w", p.caller.GetName(), err)
		}
		price, err := parseHexBig(result)
		if err != nil {
			return update, domain.ParseError("eth_gasPrice", err)
		}
		head.GasPrice = price
	}

	update.Value = head
	return update, nil
}
