package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/vietddude/ethmonitor/internal/core/domain"
	"github.com/vietddude/ethmonitor/internal/infra/rpc/provider"
)

var weiPerEther = big.NewInt(1_000_000_000_000_000_000)

// SupplyProbe reads ETH supply statistics from the explorer API.
type SupplyProbe struct {
	source  domain.SourceID
	fetcher provider.JSONFetcher
}

func NewSupplyProbe(source domain.SourceID, fetcher provider.JSONFetcher) *SupplyProbe {
	return &SupplyProbe{source: source, fetcher: fetcher}
}

func (p *SupplyProbe) Source() domain.SourceID {
	return p.source
}

type supplyResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type supplyResult struct {
	EthSupply   string `json:"EthSupply"`
	Eth2Staking string `json:"Eth2Staking"`
	BurntFees   string `json:"BurntFees"`
}

func (p *SupplyProbe) Run(ctx context.Context) (domain.Update, error) {
	var resp supplyResponse

	start := time.Now()
	err := p.fetcher.GetJSON(ctx, &resp)
	update := domain.Update{Latency: time.Since(start)}
	if err != nil {
		return update, err
	}

	// The explorer answers errors with HTTP 200, status "0" and a string result.
	if resp.Status != "" && resp.Status != "1" {
		var detail string
		_ = json.Unmarshal(resp.Result, &detail)
		return update, domain.ProtocolError("ethsupply", fmt.Errorf("%s: %s", resp.Message, detail))
	}

	var result supplyResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return update, domain.ParseError("ethsupply", err)
	}

	supply, err := weiToEther(result.EthSupply)
	if err != nil {
		return update, domain.ParseError("ethsupply", fmt.Errorf("EthSupply: %w", err))
	}
	staking, err := weiToEther(result.Eth2Staking)
	if err != nil {
		return update, domain.ParseError("ethsupply", fmt.Errorf("Eth2Staking: %w", err))
	}
	burnt, err := weiToEther(result.BurntFees)
	if err != nil {
		return update, domain.ParseError("ethsupply", fmt.Errorf("BurntFees: %w", err))
	}

	update.Value = domain.Supply{
		Supply:         supply + staking - burnt,
		StakingRewards: staking,
		BurntFees:      burnt,
	}
	return update, nil
}

// weiToEther converts a decimal wei string to whole ether, rounding half up.
func weiToEther(wei string) (int64, error) {
	if wei == "" {
		return 0, errors.New("missing value")
	}
	n, ok := new(big.Int).SetString(wei, 10)
	if !ok {
		return 0, fmt.Errorf("invalid integer %q", wei)
	}

	q, r := new(big.Int).QuoRem(n, weiPerEther, new(big.Int))
	if r.Sign() >= 0 && new(big.Int).Lsh(r, 1).Cmp(weiPerEther) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	if !q.IsInt64() {
		return 0, fmt.Errorf("value out of range %q", wei)
	}
	return q.Int64(), nil
}
