// Package probe implements the network checks the monitor runs each cycle.
//
// A probe closes over its own endpoint, credentials and timeout. Run measures
// wall-clock latency around its network calls and always reports it, even
// when the check fails, so the caller can record it for diagnostics.
package probe

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/vietddude/ethmonitor/internal/core/domain"
)

// Probe performs one health check for a single source.
type Probe interface {
	// Source returns the snapshot key the probe reports into
	Source() domain.SourceID

	// Run performs the check. The returned Update carries the latency on
	// success and on failure. On failure Value is nil, except for probes
	// whose value must be rebuilt every run, which return the reset value.
	Run(ctx context.Context) (domain.Update, error)
}

func parseHexUint(v any) (uint64, error) {
	n, err := parseHexBig(v)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("hex value out of range: %s", n.String())
	}
	return n.Uint64(), nil
}

func parseHexBig(v any) (*big.Int, error) {
	hexStr, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected hex string, got %T", v)
	}
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(hexStr, "0x"), 16); !ok {
		return nil, fmt.Errorf("invalid hex: %s", hexStr)
	}
	return n, nil
}

func getString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
