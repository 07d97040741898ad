// Package rpcclient is the adapter's HTTPS client for the chain's RPC
// indexer. Every core package depends only on the Client interface below,
// so tests substitute a fake.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"ton-gmp-adapter/chain"
	"ton-gmp-adapter/pkg/tonerr"
)

// PostMessageResult is the successful response body of POST /api/v3/message.
type PostMessageResult struct {
	MessageHash     string `json:"message_hash"`
	MessageHashNorm string `json:"message_hash_norm"`
}

// AccountState is one entry of GET /api/v3/accountStates.
type AccountState struct {
	Address          string `json:"address"`
	AccountStateHash string `json:"account_state_hash"`
	Balance          string `json:"balance"`
	Status           string `json:"status"`
}

// Client is the RPC surface every core package depends on.
type Client interface {
	PostMessage(ctx context.Context, bocBase64 string) (PostMessageResult, error)
	GetTraces(ctx context.Context, accounts []string) ([]chain.Trace, error)
	GetTraceByID(ctx context.Context, traceID string) (chain.Trace, error)
	GetAccountStates(ctx context.Context, addresses []string) ([]AccountState, error)
}

// HTTPClient is the production Client backed by net/http, authenticating
// with the X-API-Key header.
type HTTPClient struct {
	BaseURL    string
	APIKey     string
	HTTP       *http.Client
	logger     *log.Entry
}

// NewHTTPClient returns an HTTPClient with a bounded default timeout.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		logger:  log.WithField("component", "rpcclient"),
	}
}

type errorBody struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: marshal request: %v", tonerr.ErrBadRequest, err)
		}
		reqBody = bytes.NewReader(raw)
	}
	u := c.BaseURL + path
	if query != nil {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("%w: %v", tonerr.ErrConnectionFailed, err)
	}
	req.Header.Set("X-API-Key", c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", tonerr.ErrConnectionFailed, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", tonerr.ErrBadResponse, err)
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: decode response: %v", tonerr.ErrBadResponse, err)
		}
		return nil
	case resp.StatusCode == http.StatusBadRequest:
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		return fmt.Errorf("%w: %s", tonerr.ErrBadRequest, eb.Error)
	default:
		return fmt.Errorf("%w: status %d", tonerr.ErrBadResponse, resp.StatusCode)
	}
}

// PostMessage submits a signed external message BoC for broadcast.
func (c *HTTPClient) PostMessage(ctx context.Context, bocBase64 string) (PostMessageResult, error) {
	var out PostMessageResult
	err := c.do(ctx, http.MethodPost, "/api/v3/message", nil, map[string]string{"boc": bocBase64}, &out)
	return out, err
}

type tracesResponse struct {
	Traces []rawTrace `json:"traces"`
}

type rawTrace struct {
	IsIncomplete     bool                       `json:"is_incomplete"`
	StartLT          string                     `json:"start_lt"`
	EndLT            string                     `json:"end_lt"`
	TraceID          string                     `json:"trace_id"`
	Transactions     map[string]chain.Transaction `json:"transactions"`
	TransactionsOrder []string                   `json:"transactions_order"`
}

func (r rawTrace) toTrace(logger *log.Entry) chain.Trace {
	ordered := make([]chain.Transaction, 0, len(r.TransactionsOrder))
	for _, id := range r.TransactionsOrder {
		tx, ok := r.Transactions[id]
		if !ok {
			logger.WithField("trace_id", r.TraceID).Warnf("rpcclient: dropping unknown transaction id %q from transactions_order", id)
			continue
		}
		ordered = append(ordered, tx)
	}
	return chain.Trace{
		TraceID:      r.TraceID,
		IsIncomplete: r.IsIncomplete,
		StartLT:      r.StartLT,
		EndLT:        r.EndLT,
		Transactions: ordered,
	}
}

// GetTraces fetches traces for the given watched accounts, projecting each
// trace's transactions into transactions_order order and dropping unknown
// ids with a warning.
func (c *HTTPClient) GetTraces(ctx context.Context, accounts []string) ([]chain.Trace, error) {
	q := url.Values{}
	if len(accounts) > 0 {
		q.Set("account", strings.Join(accounts, ","))
	}
	var out tracesResponse
	if err := c.do(ctx, http.MethodGet, "/api/v3/traces", q, nil, &out); err != nil {
		return nil, err
	}
	traces := make([]chain.Trace, 0, len(out.Traces))
	for _, rt := range out.Traces {
		traces = append(traces, rt.toTrace(c.logger))
	}
	return traces, nil
}

// GetTraceByID re-fetches a single trace by id, used by the retry
// subscriber.
func (c *HTTPClient) GetTraceByID(ctx context.Context, traceID string) (chain.Trace, error) {
	q := url.Values{}
	q.Set("trace_id", traceID)
	var out tracesResponse
	if err := c.do(ctx, http.MethodGet, "/api/v3/traces", q, nil, &out); err != nil {
		return chain.Trace{}, err
	}
	if len(out.Traces) == 0 {
		return chain.Trace{}, fmt.Errorf("%w: trace %s not found", tonerr.ErrBadResponse, traceID)
	}
	return out.Traces[0].toTrace(c.logger), nil
}

type accountStatesResponse struct {
	Accounts []AccountState `json:"accounts"`
}

// GetAccountStates fetches the current state of a set of addresses.
func (c *HTTPClient) GetAccountStates(ctx context.Context, addresses []string) ([]AccountState, error) {
	q := url.Values{}
	q.Set("addresses", strings.Join(addresses, ","))
	var out accountStatesResponse
	if err := c.do(ctx, http.MethodGet, "/api/v3/accountStates", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}
