package solana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brojonat/minisolscan/service/metrics"
	"github.com/brojonat/minisolscan/service/network"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetParsedTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetParsedTransactionOpts,
	) (*rpc.GetParsedTransactionResult, error)

	GetTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetTransactionOpts,
	) (*rpc.GetTransactionResult, error)
}

// Dialer builds an RPC client bound to an endpoint URL.
type Dialer func(endpoint string) RPCClient

// Encoding selects the getTransaction response encoding.
type Encoding string

const (
	// EncodingJSONParsed lets the node resolve program ids (default).
	EncodingJSONParsed Encoding = "jsonParsed"
	// EncodingBase64 returns the raw transaction; program ids are resolved
	// from account key indexes.
	EncodingBase64 Encoding = "base64"
)

// ParseEncoding parses an encoding name; empty means jsonParsed.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "jsonparsed", "json-parsed", "parsed":
		return EncodingJSONParsed, nil
	case "base64", "raw":
		return EncodingBase64, nil
	default:
		return "", fmt.Errorf("unknown encoding %q: must be jsonParsed or base64", s)
	}
}

// newest transaction version we can display
var maxSupportedTransactionVersion uint64 = 0

// Options tune how the client talks to RPC and renders results.
type Options struct {
	Encoding   Encoding
	Commitment rpc.CommitmentType
	// Location is used for timestamps; nil means time.Local.
	Location *time.Location
	// Limiter throttles outgoing RPC calls; nil disables throttling.
	Limiter *rate.Limiter
}

// Client looks up transactions and normalizes them for display.
// Every lookup dials a fresh RPC client for the network it is given.
type Client struct {
	dial    Dialer
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewClient creates a new Solana lookup client.
// If dial is nil, NewRPCClient is used. If metrics is nil, no metrics will be recorded.
func NewClient(dial Dialer, opts Options, m *metrics.Metrics, logger *slog.Logger) *Client {
	if dial == nil {
		dial = NewRPCClient
	}
	if opts.Encoding == "" {
		opts.Encoding = EncodingJSONParsed
	}
	if opts.Commitment == "" {
		opts.Commitment = rpc.CommitmentConfirmed
	}
	return &Client{
		dial:    dial,
		opts:    opts,
		logger:  logger,
		metrics: m,
	}
}

// Fetch looks up signature on the given network. Errors are *Error values
// classified as validation, not-found or fetch failures. There is a single
// attempt per call; nothing is retried or cached.
func (c *Client) Fetch(ctx context.Context, signature string, cfg network.Config) (*TransactionView, error) {
	start := time.Now()
	view, err := c.fetch(ctx, strings.TrimSpace(signature), cfg)

	outcome := "success"
	if err != nil {
		outcome = KindOf(err).String() + "_error"
	}
	if c.metrics != nil {
		c.metrics.RecordLookup(string(cfg.Type), outcome, time.Since(start).Seconds())
		if view != nil {
			c.metrics.RecordInstructionsPerLookup(string(cfg.Type), float64(len(view.Instructions)))
		}
	}

	if err != nil {
		c.logger.InfoContext(ctx, "transaction lookup failed",
			"signature", signature,
			"network", cfg.Type,
			"kind", KindOf(err).String(),
			"error", err,
		)
		return nil, err
	}

	c.logger.InfoContext(ctx, "transaction lookup succeeded",
		"signature", view.Signature,
		"network", cfg.Type,
		"status", view.Status,
		"slot", view.Slot,
		"instructions", len(view.Instructions),
	)
	return view, nil
}

func (c *Client) fetch(ctx context.Context, signature string, cfg network.Config) (*TransactionView, error) {
	switch ClassifySignature(signature) {
	case SignatureEmpty:
		return nil, validationError("please enter a transaction signature", nil)
	case SignatureInvalid:
		return nil, validationError("invalid signature format: please enter a valid base58 transaction signature", nil)
	}

	if cfg.URL == "" {
		return nil, validationError("no RPC endpoint configured for the selected network", nil)
	}

	// Well-formed strings can still fail to decode to 64 bytes; the node
	// would reject those too, so they surface as fetch errors.
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fetchError("failed to fetch transaction", err)
	}

	if c.opts.Limiter != nil {
		waitStart := time.Now()
		if err := c.opts.Limiter.Wait(ctx); err != nil {
			return nil, fetchError("failed to fetch transaction", err)
		}
		if c.metrics != nil {
			c.metrics.RecordRateLimitWait(string(cfg.Type), time.Since(waitStart).Seconds())
		}
	}

	c.logger.DebugContext(ctx, "calling getTransaction",
		"signature", signature,
		"network", cfg.Type,
		"encoding", c.opts.Encoding,
		"commitment", c.opts.Commitment,
	)

	client := c.dial(cfg.URL)

	var rec *Record
	switch c.opts.Encoding {
	case EncodingBase64:
		rec, err = c.getEncoded(ctx, client, sig, cfg)
	default:
		rec, err = c.getParsed(ctx, client, sig, cfg)
	}
	if err != nil {
		return nil, err
	}

	return Normalize(signature, rec, c.opts.Location), nil
}

func (c *Client) getParsed(ctx context.Context, client RPCClient, sig solana.Signature, cfg network.Config) (*Record, error) {
	start := time.Now()
	res, err := client.GetParsedTransaction(ctx, sig, &rpc.GetParsedTransactionOpts{
		Commitment:                     c.opts.Commitment,
		MaxSupportedTransactionVersion: &maxSupportedTransactionVersion,
	})
	c.recordRPCCall(cfg, err, time.Since(start))

	if errors.Is(err, rpc.ErrNotFound) || (err == nil && res == nil) {
		return nil, notFoundError()
	}
	if err != nil {
		return nil, fetchError("failed to fetch transaction", err)
	}

	rec, err := recordFromParsed(res)
	if err != nil {
		return nil, fetchError("failed to read transaction", err)
	}
	return rec, nil
}

func (c *Client) getEncoded(ctx context.Context, client RPCClient, sig solana.Signature, cfg network.Config) (*Record, error) {
	start := time.Now()
	res, err := client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     c.opts.Commitment,
		MaxSupportedTransactionVersion: &maxSupportedTransactionVersion,
	})
	c.recordRPCCall(cfg, err, time.Since(start))

	if errors.Is(err, rpc.ErrNotFound) || (err == nil && res == nil) {
		return nil, notFoundError()
	}
	if err != nil {
		return nil, fetchError("failed to fetch transaction", err)
	}

	rec, err := recordFromEncoded(res)
	if err != nil {
		return nil, fetchError("failed to read transaction", err)
	}
	return rec, nil
}

func (c *Client) recordRPCCall(cfg network.Config, err error, d time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil && !errors.Is(err, rpc.ErrNotFound) {
		status = "error"
	}
	c.metrics.RecordRPCCall("getTransaction", status, string(cfg.Type), d.Seconds())
}
