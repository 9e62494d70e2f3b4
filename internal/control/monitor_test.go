package control

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/ethmonitor/internal/core/config"
	"github.com/vietddude/ethmonitor/internal/core/domain"
)

func newRPCServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int    `json:"id"`
			Method string `json:"method"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		result := "0x10"
		if req.Method == "eth_gasPrice" {
			result = "0x3b9aca00"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMonitor_Once(t *testing.T) {
	rpc := newRPCServer(t)

	cfg, err := config.Parse([]byte(`
sources:
  - id: infura
    type: jsonrpc
    url: ` + rpc.URL + `
    gas_price: true
  - id: offline
    type: jsonrpc
    url: http://127.0.0.1:1
    timeout: 200ms
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var out bytes.Buffer
	m, err := NewMonitor(cfg, &out)
	if err != nil {
		t.Fatalf("NewMonitor failed: %v", err)
	}

	if err := m.Once(context.Background()); err != nil {
		t.Fatalf("Once failed: %v", err)
	}

	rec, _ := m.Snapshot().Get("infura")
	if rec.Status != domain.StatusOK {
		t.Errorf("expected infura OK, got %s", rec.Status)
	}
	rec, _ = m.Snapshot().Get("offline")
	if rec.Status != domain.StatusDown {
		t.Errorf("expected offline DOWN, got %s", rec.Status)
	}

	frame := out.String()
	if !strings.Contains(frame, "block 16") || !strings.Contains(frame, "GAS PRICE:    1 gwei") {
		t.Errorf("unexpected frame:\n%s", frame)
	}
}

func TestMonitor_RunStopsOnCancel(t *testing.T) {
	rpc := newRPCServer(t)

	cfg, err := config.Parse([]byte(`
schedule:
  settle_delay: 10ms
  tick: 5ms
  ticks_per_cycle: 2
sources:
  - id: infura
    type: jsonrpc
    url: ` + rpc.URL + `
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	m, err := NewMonitor(cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("NewMonitor failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := m.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	rec, _ := m.Snapshot().Get("infura")
	if rec.LastSeen.IsZero() {
		t.Errorf("expected at least one successful probe")
	}
}

func TestNewMonitor_UnknownType(t *testing.T) {
	cfg := &config.AppConfig{
		Sources: []config.SourceConfig{{ID: "x", Type: "carrier-pigeon", URL: "http://x"}},
	}
	if _, err := NewMonitor(cfg, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown source type")
	}
}
