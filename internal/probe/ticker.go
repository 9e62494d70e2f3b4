package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vietddude/ethmonitor/internal/core/domain"
	"github.com/vietddude/ethmonitor/internal/infra/rpc/provider"
)

// TickerProbe reads a numeric quote out of a REST JSON document.
type TickerProbe struct {
	source  domain.SourceID
	fetcher provider.JSONFetcher
	path    string
	symbol  string
}

// NewTickerProbe creates a ticker probe. path is dot separated; numeric
// segments index into arrays (e.g. "result.bids.0.0").
func NewTickerProbe(
	source domain.SourceID,
	fetcher provider.JSONFetcher,
	path, symbol string,
) *TickerProbe {
	return &TickerProbe{
		source:  source,
		fetcher: fetcher,
		path:    path,
		symbol:  symbol,
	}
}

func (p *TickerProbe) Source() domain.SourceID {
	return p.source
}

func (p *TickerProbe) Run(ctx context.Context) (domain.Update, error) {
	var doc any

	start := time.Now()
	err := p.fetcher.GetJSON(ctx, &doc)
	update := domain.Update{Latency: time.Since(start)}
	if err != nil {
		return update, err
	}

	leaf, err := lookup(doc, p.path)
	if err != nil {
		return update, domain.ParseError("ticker", err)
	}
	value, err := toFloat(leaf)
	if err != nil {
		return update, domain.ParseError("ticker", fmt.Errorf("%s: %w", p.path, err))
	}

	update.Value = domain.Price{Symbol: p.symbol, Value: value}
	return update, nil
}

// lookup walks a decoded JSON document along a dotted path.
func lookup(doc any, path string) (any, error) {
	if path == "" {
		return doc, nil
	}

	cur := doc
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("field %q not found", seg)
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return nil, fmt.Errorf("segment %q is not an array index", seg)
			}
			if idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("index %d out of range (len %d)", idx, len(node))
			}
			cur = node[idx]
		default:
			return nil, fmt.Errorf("cannot descend into %T at %q", cur, seg)
		}
	}
	return cur, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	case nil:
		return 0, errors.New("value is null")
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
