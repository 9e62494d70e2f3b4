// Package provider implements the HTTP transports probes run on.
//
// This package contains:
//   - HTTPProvider: JSON-RPC 2.0, REST JSON, page fetch and empty POST over HTTP
//   - ProviderMonitor: latency and throttle tracking per endpoint
//
// Every error returned by an HTTPProvider is classified with the
// domain error taxonomy (network, protocol, parse).
package provider

import "context"

// RPCCaller makes JSON-RPC calls against one endpoint.
type RPCCaller interface {
	// GetName returns the provider identifier (e.g. "alchemy", "infura")
	GetName() string

	// Call makes a single RPC request and returns the decoded "result" field
	Call(ctx context.Context, method string, params []any) (any, error)
}

// JSONFetcher fetches and decodes a REST JSON document.
type JSONFetcher interface {
	GetJSON(ctx context.Context, out any) error
}
