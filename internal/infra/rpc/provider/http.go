package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/ethmonitor/internal/core/domain"
)

// HTTPProvider talks to a single HTTP endpoint.
type HTTPProvider struct {
	name       string
	endpoint   string
	httpClient *http.Client

	Monitor *ProviderMonitor
}

// NewHTTPProvider creates a new HTTP provider. The timeout bounds every call
// so a hung endpoint cannot stall its probe indefinitely.
func NewHTTPProvider(name, endpoint string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:     name,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Monitor: NewProviderMonitor(),
	}
}

// GetName returns the provider's name.
func (p *HTTPProvider) GetName() string {
	return p.name
}

// Endpoint returns the URL the provider talks to.
func (p *HTTPProvider) Endpoint() string {
	return p.endpoint
}

// Close cleans up resources.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// Call makes a single JSON-RPC 2.0 call.
func (p *HTTPProvider) Call(ctx context.Context, method string, params []any) (any, error) {
	if params == nil {
		params = []any{}
	}

	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, domain.ParseError(method, fmt.Errorf("marshal request: %w", err))
	}

	start := time.Now()
	status, body, err := p.do(ctx, method, http.MethodPost, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	latency := time.Since(start)

	if status != http.StatusOK {
		if p.Monitor.DetectThrottlePattern(string(body)) {
			return nil, domain.ProtocolError(method, fmt.Errorf("throttle detected in response: %s", truncate(body)))
		}
		return nil, domain.ProtocolError(method, fmt.Errorf("http %d: %s", status, truncate(body)))
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, domain.ParseError(method, fmt.Errorf("parse response: %w", err))
	}

	if rpcResp.Error != nil {
		if p.Monitor.DetectThrottlePattern(rpcResp.Error.Message) {
			p.Monitor.RecordThrottle(http.StatusTooManyRequests, "")
			return nil, domain.ProtocolError(method, fmt.Errorf("throttle in rpc error: %s", rpcResp.Error.Message))
		}
		return nil, domain.ProtocolError(method, fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message))
	}

	if len(rpcResp.Result) == 0 {
		return nil, domain.ParseError(method, errors.New("response has no result"))
	}

	var result any
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return nil, domain.ParseError(method, fmt.Errorf("parse result: %w", err))
	}

	p.Monitor.RecordRequest(latency)
	return result, nil
}

// GetJSON fetches the endpoint with GET and decodes the JSON body into out.
func (p *HTTPProvider) GetJSON(ctx context.Context, out any) error {
	start := time.Now()
	status, body, err := p.do(ctx, "GET", http.MethodGet, nil)
	if err != nil {
		return err
	}

	if status < 200 || status >= 300 {
		return domain.ProtocolError("GET", fmt.Errorf("http %d: %s", status, truncate(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return domain.ParseError("GET", fmt.Errorf("decode body: %w", err))
	}

	p.Monitor.RecordRequest(time.Since(start))
	return nil
}

// Load fetches the endpoint with GET, reads the whole body and returns its
// size. It is used to time full page loads.
func (p *HTTPProvider) Load(ctx context.Context) (int64, error) {
	start := time.Now()
	status, body, err := p.do(ctx, "load", http.MethodGet, nil)
	if err != nil {
		return 0, err
	}

	if status < 200 || status >= 300 {
		return 0, domain.ProtocolError("load", fmt.Errorf("http %d", status))
	}

	p.Monitor.RecordRequest(time.Since(start))
	return int64(len(body)), nil
}

// PostEmpty sends a POST without a body and expects a JSON answer.
// Relays reply to such requests with a JSON-RPC error document, which still
// proves the service is up, so only 5xx and non-JSON bodies count as failures.
func (p *HTTPProvider) PostEmpty(ctx context.Context) (int, error) {
	start := time.Now()
	status, body, err := p.do(ctx, "POST", http.MethodPost, nil)
	if err != nil {
		return 0, err
	}

	if status >= 500 {
		return status, domain.ProtocolError("POST", fmt.Errorf("http %d: %s", status, truncate(body)))
	}

	if !json.Valid(body) {
		return status, domain.ParseError("POST", fmt.Errorf("response is not json: %s", truncate(body)))
	}

	p.Monitor.RecordRequest(time.Since(start))
	return status, nil
}

// do performs the request and records throttling. It returns the status code
// and the full body; transport failures come back as network errors.
// Every call reaches the endpoint: throttle state is tracked for diagnostics
// only, and a failed probe simply tries again next cycle.
func (p *HTTPProvider) do(
	ctx context.Context,
	op string,
	method string,
	body io.Reader,
) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, p.endpoint, body)
	if err != nil {
		return 0, nil, domain.NetworkError(op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "ethmonitor")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, nil, domain.NetworkError(op, err)
	}
	defer resp.Body.Close()

	// Rate limit detection
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		p.Monitor.RecordThrottle(resp.StatusCode, retryAfter)
		p.logThrottle(op)
		return resp.StatusCode, nil, domain.ProtocolError(op, fmt.Errorf("rate limited (429), retry after: %s", retryAfter))
	}

	// IP blocked detection
	if resp.StatusCode == http.StatusForbidden {
		p.Monitor.RecordThrottle(resp.StatusCode, "")
		p.logThrottle(op)
		return resp.StatusCode, nil, domain.ProtocolError(op, fmt.Errorf("ip blocked (403)"))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, domain.NetworkError(op, fmt.Errorf("read response: %w", err))
	}

	return resp.StatusCode, data, nil
}

func (p *HTTPProvider) logThrottle(op string) {
	slog.Warn("Provider throttling requests",
		"provider", p.name,
		"op", op,
		"status", p.Monitor.CheckProviderStatus(),
		"retry_after", p.Monitor.GetRetryAfter(),
	)
}

func truncate(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
