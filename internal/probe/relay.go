package probe

import (
	"context"
	"time"

	"github.com/vietddude/ethmonitor/internal/core/domain"
	"github.com/vietddude/ethmonitor/internal/infra/rpc/provider"
)

// RelayProbe pings a relay with an empty POST.
type RelayProbe struct {
	source   domain.SourceID
	provider *provider.HTTPProvider
}

func NewRelayProbe(source domain.SourceID, p *provider.HTTPProvider) *RelayProbe {
	return &RelayProbe{source: source, provider: p}
}

func (p *RelayProbe) Source() domain.SourceID {
	return p.source
}

func (p *RelayProbe) Run(ctx context.Context) (domain.Update, error) {
	start := time.Now()
	status, err := p.provider.PostEmpty(ctx)
	update := domain.Update{Latency: time.Since(start)}
	if err != nil {
		return update, err
	}
	update.Value = domain.RelayPing{StatusCode: status}
	return update, nil
}
