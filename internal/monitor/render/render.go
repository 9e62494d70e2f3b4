// Package render formats the health snapshot into a dashboard frame.
package render

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/vietddude/ethmonitor/internal/core/domain"
	"github.com/vietddude/ethmonitor/internal/monitor/staleness"
	"github.com/vietddude/ethmonitor/internal/monitor/state"
)

// ClearScreen moves the cursor home and clears the terminal.
const ClearScreen = "\033[H\033[2J"

const banner = `
 ███████╗████████╗██╗  ██╗    ███╗   ███╗ ██████╗ ███╗   ██╗██╗████████╗ ██████╗ ██████╗
 ██╔════╝╚══██╔══╝██║  ██║    ████╗ ████║██╔═══██╗████╗  ██║██║╚══██╔══╝██╔═══██╗██╔══██╗
 █████╗     ██║   ███████║    ██╔████╔██║██║   ██║██╔██╗ ██║██║   ██║   ██║   ██║██████╔╝
 ██╔══╝     ██║   ██╔══██║    ██║╚██╔╝██║██║   ██║██║╚██╗██║██║   ██║   ██║   ██║██╔══██╗
 ███████╗   ██║   ██║  ██║    ██║ ╚═╝ ██║╚██████╔╝██║ ╚████║██║   ██║   ╚██████╔╝██║  ██║
 ╚══════╝   ╚═╝   ╚═╝  ╚═╝    ╚═╝     ╚═╝ ╚═════╝ ╚═╝  ╚═══╝╚═╝   ╚═╝    ╚═════╝ ╚═╝  ╚═╝
              Ethereum Core Infrastructure Health Monitor
`

var gwei = big.NewInt(1_000_000_000)

// Renderer formats frames. It never mutates the snapshot.
type Renderer struct {
	ok       *color.Color
	down     *color.Color
	dim      *color.Color
	useColor bool
}

// New creates a renderer; useColor forces ANSI colour on or off regardless
// of whether the output is a terminal.
func New(useColor bool) *Renderer {
	r := &Renderer{
		ok:       color.New(color.FgGreen, color.Bold),
		down:     color.New(color.FgRed, color.Bold),
		dim:      color.New(color.FgHiBlack),
		useColor: useColor,
	}
	for _, c := range []*color.Color{r.ok, r.down, r.dim} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Draw clears the screen and writes a full frame.
func (r *Renderer) Draw(w io.Writer, snap *state.Snapshot) error {
	frame := r.Frame(snap.Records(), snap.Derived())
	_, err := io.WriteString(w, ClearScreen+frame)
	return err
}

// Frame renders records and derived metrics. Missing data renders as zero
// values.
func (r *Renderer) Frame(records []domain.HealthRecord, derived state.Derived) string {
	var buf bytes.Buffer

	buf.WriteString(banner)
	buf.WriteString("\n")

	table := tablewriter.NewWriter(&buf)
	table.Append([]string{"Source", "Status", "Latency", "Detail"})
	for _, rec := range records {
		table.Append([]string{
			label(rec),
			r.status(rec.Status),
			formatLatency(rec.LastLatency),
			detail(rec),
		})
	}
	table.Render()

	buf.WriteString("\n")
	r.writeChain(&buf, records, derived)
	return buf.String()
}

func (r *Renderer) writeChain(buf *bytes.Buffer, records []domain.HealthRecord, derived state.Derived) {
	block := derived.LastBlock
	if block == nil {
		block = &domain.Block{}
	}

	ttd := staleness.TerminalTotalDifficulty
	fmt.Fprintf(buf, "  TRANSACTIONS: %d\n", block.TxCount)
	fmt.Fprintf(buf, "  BLOCK SIZE:   %d\n", block.Size)
	fmt.Fprintf(buf, "  BLOCK TIME:   %s\n", formatBlockTime(block.Timestamp))
	fmt.Fprintf(buf, "  TTD:          %s / %s\n", bigOrZero(block.TotalDifficulty), ttd.String())
	fmt.Fprintf(buf, "  MERGE IN:     %s mins\n", bigOrZero(derived.MinsToMerge))
	fmt.Fprintf(buf, "  DIFFICULTY:   %s\n", bigOrZero(block.Difficulty))
	fmt.Fprintf(buf, "  MINER:        %s\n", block.Miner)
	fmt.Fprintf(buf, "  GAS PRICE:    %s gwei\n", toGwei(gasPrice(records)))
	fmt.Fprintf(buf, "  RPC NODES:    %s\n", r.nodes(records))
}

func (r *Renderer) status(s domain.Status) string {
	switch s {
	case domain.StatusOK:
		return r.ok.Sprint(string(s))
	case domain.StatusDown:
		return r.down.Sprint(string(s))
	default:
		return r.dim.Sprint("-")
	}
}

func (r *Renderer) nodes(records []domain.HealthRecord) string {
	var parts []string
	for _, rec := range records {
		sweep, ok := rec.Value.(domain.NodeSweep)
		if !ok {
			continue
		}
		for _, n := range sweep.Nodes {
			parts = append(parts, fmt.Sprintf("%s (%s)", n.Label, formatLatency(n.Latency)))
		}
	}
	if len(parts) == 0 {
		return r.dim.Sprint("none")
	}
	return strings.Join(parts, "  ")
}

func label(rec domain.HealthRecord) string {
	if rec.Label != "" {
		return rec.Label
	}
	return string(rec.Source)
}

// detail formats the probe-specific payload, falling back to the zero value
// of the source's kind when nothing has been recorded yet.
func detail(rec domain.HealthRecord) string {
	switch v := rec.Value.(type) {
	case domain.ChainHead:
		return fmt.Sprintf("block %d", v.BlockNumber)
	case domain.Price:
		return fmt.Sprintf("%s $%.2f", v.Symbol, v.Value)
	case domain.Supply:
		return fmt.Sprintf("supply %d, staking rewards %d, fees burnt %d", v.Supply, v.StakingRewards, v.BurntFees)
	case domain.PageLoad:
		return fmt.Sprintf("%d bytes", v.Bytes)
	case domain.RelayPing:
		return fmt.Sprintf("http %d", v.StatusCode)
	case domain.NodeSweep:
		return fmt.Sprintf("%d nodes", len(v.Nodes))
	}

	switch rec.Kind {
	case domain.KindRPC:
		return "block 0"
	case domain.KindTicker:
		return "$0.00"
	case domain.KindSupply:
		return "supply 0, staking rewards 0, fees burnt 0"
	case domain.KindSweep:
		return "0 nodes"
	default:
		return ""
	}
}

func formatLatency(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

func formatBlockTime(ts uint64) string {
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC1123)
}

func bigOrZero(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

// gasPrice returns the first gas price reported by a provider probe.
func gasPrice(records []domain.HealthRecord) *big.Int {
	for _, rec := range records {
		if head, ok := rec.Value.(domain.ChainHead); ok && head.GasPrice != nil {
			return head.GasPrice
		}
	}
	return nil
}

// toGwei converts wei to whole gwei, rounding half up.
func toGwei(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	q, rem := new(big.Int).QuoRem(wei, gwei, new(big.Int))
	if new(big.Int).Lsh(rem, 1).Cmp(gwei) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	return q.String()
}
