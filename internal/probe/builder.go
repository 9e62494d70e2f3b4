package probe

import (
	"fmt"

	"github.com/vietddude/ethmonitor/internal/core/config"
	"github.com/vietddude/ethmonitor/internal/core/domain"
	"github.com/vietddude/ethmonitor/internal/infra/rpc/provider"
)

// Build constructs the probe for a configured source.
// Each probe owns its HTTP provider; nothing is shared across sources.
func Build(src config.SourceConfig) (Probe, error) {
	name := string(src.ID)

	switch src.Type {
	case domain.KindRPC:
		p := provider.NewHTTPProvider(name, src.URL, src.Timeout)
		return NewRPCProbe(src.ID, p, src.GasPrice), nil

	case domain.KindTicker:
		p := provider.NewHTTPProvider(name, src.URL, src.Timeout)
		return NewTickerProbe(src.ID, p, src.Path, src.Symbol), nil

	case domain.KindSupply:
		p := provider.NewHTTPProvider(name, src.URL, src.Timeout)
		return NewSupplyProbe(src.ID, p), nil

	case domain.KindPageLoad:
		p := provider.NewHTTPProvider(name, src.URL, src.Timeout)
		return NewPageLoadProbe(src.ID, p), nil

	case domain.KindRelay:
		p := provider.NewHTTPProvider(name, src.URL, src.Timeout)
		return NewRelayProbe(src.ID, p), nil

	case domain.KindSweep:
		endpoints := make([]SweepEndpoint, 0, len(src.URLs))
		for _, url := range src.URLs {
			label := NodeLabel(url)
			endpoints = append(endpoints, SweepEndpoint{
				Label:  label,
				Caller: provider.NewHTTPProvider(label, url, src.Timeout),
			})
		}
		return NewSweepProbe(src.ID, endpoints), nil

	default:
		return nil, fmt.Errorf("source %q: unknown type %q", src.ID, src.Type)
	}
}

// BuildAll constructs probes for every source, failing on the first error.
func BuildAll(sources []config.SourceConfig) ([]Probe, error) {
	probes := make([]Probe, 0, len(sources))
	for _, src := range sources {
		p, err := Build(src)
		if err != nil {
			return nil, err
		}
		probes = append(probes, p)
	}
	return probes, nil
}
