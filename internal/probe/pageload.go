package probe

import (
	"context"
	"time"

	"github.com/vietddude/ethmonitor/internal/core/domain"
	"github.com/vietddude/ethmonitor/internal/infra/rpc/provider"
)

// PageLoadProbe times a full page download. Nothing is extracted.
type PageLoadProbe struct {
	source   domain.SourceID
	provider *provider.HTTPProvider
}

func NewPageLoadProbe(source domain.SourceID, p *provider.HTTPProvider) *PageLoadProbe {
	return &PageLoadProbe{source: source, provider: p}
}

func (p *PageLoadProbe) Source() domain.SourceID {
	return p.source
}

func (p *PageLoadProbe) Run(ctx context.Context) (domain.Update, error) {
	start := time.Now()
	n, err := p.provider.Load(ctx)
	update := domain.Update{Latency: time.Since(start)}
	if err != nil {
		return update, err
	}
	update.Value = domain.PageLoad{Bytes: n}
	return update, nil
}
