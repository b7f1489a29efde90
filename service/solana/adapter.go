package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// realRPCClient adapts the actual solana-go RPC client to our RPCClient interface.
// This adapter allows us to control the interface and makes testing easier.
type realRPCClient struct {
	client *rpc.Client
}

// NewRPCClient creates a new RPCClient bound to rpcURL. It is the default Dialer.
// For premium RPC endpoints that require API keys, include the key in the URL:
// - Helius: https://mainnet.helius-rpc.com/?api-key=YOUR-KEY
// - QuickNode: https://YOUR-ENDPOINT.quiknode.pro/YOUR-KEY/
func NewRPCClient(rpcURL string) RPCClient {
	return &realRPCClient{
		client: rpc.New(rpcURL),
	}
}

func (r *realRPCClient) GetParsedTransaction(
	ctx context.Context,
	signature solana.Signature,
	opts *rpc.GetParsedTransactionOpts,
) (*rpc.GetParsedTransactionResult, error) {
	return r.client.GetParsedTransaction(ctx, signature, opts)
}

func (r *realRPCClient) GetTransaction(
	ctx context.Context,
	signature solana.Signature,
	opts *rpc.GetTransactionOpts,
) (*rpc.GetTransactionResult, error) {
	return r.client.GetTransaction(ctx, signature, opts)
}

// recordFromParsed converts a jsonParsed response. Instructions in this
// encoding name their program explicitly.
func recordFromParsed(res *rpc.GetParsedTransactionResult) (*Record, error) {
	if res.Transaction == nil {
		return nil, fmt.Errorf("response contains no transaction")
	}

	rec := &Record{
		Slot:      res.Slot,
		BlockTime: unixSeconds(res.BlockTime),
	}

	msg := res.Transaction.Message
	rec.AccountKeys = make([]string, len(msg.AccountKeys))
	for i, acc := range msg.AccountKeys {
		rec.AccountKeys[i] = acc.PublicKey.String()
	}

	rec.Instructions = make([]Instruction, 0, len(msg.Instructions))
	for _, ix := range msg.Instructions {
		rec.Instructions = append(rec.Instructions, parsedInstruction(ix))
	}

	if res.Meta != nil {
		fee := res.Meta.Fee
		meta := &Meta{
			Err: res.Meta.Err,
			Fee: &fee,
		}
		for _, group := range res.Meta.InnerInstructions {
			g := InnerGroup{
				Index:        int(group.Index),
				Instructions: make([]Instruction, 0, len(group.Instructions)),
			}
			for _, ix := range group.Instructions {
				g.Instructions = append(g.Instructions, parsedInstruction(ix))
			}
			meta.InnerInstructions = append(meta.InnerInstructions, g)
		}
		rec.Meta = meta
	}

	return rec, nil
}

func parsedInstruction(ix *rpc.ParsedInstruction) Instruction {
	if ix == nil {
		return ByProgramID("", ix)
	}
	return ByProgramID(ix.ProgramId.String(), ix)
}

// recordFromEncoded converts a base64 response. The transaction is decoded
// locally and instructions reference their program by account index.
func recordFromEncoded(res *rpc.GetTransactionResult) (*Record, error) {
	if res.Transaction == nil {
		return nil, fmt.Errorf("response contains no transaction")
	}

	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	rec := &Record{
		Slot:      res.Slot,
		BlockTime: unixSeconds(res.BlockTime),
	}

	// Static keys come first, then addresses loaded from lookup tables:
	// writable before read-only, the order program indexes assume.
	rec.AccountKeys = make([]string, 0, len(tx.Message.AccountKeys))
	for _, key := range tx.Message.AccountKeys {
		rec.AccountKeys = append(rec.AccountKeys, key.String())
	}
	if res.Meta != nil {
		for _, key := range res.Meta.LoadedAddresses.Writable {
			rec.AccountKeys = append(rec.AccountKeys, key.String())
		}
		for _, key := range res.Meta.LoadedAddresses.ReadOnly {
			rec.AccountKeys = append(rec.AccountKeys, key.String())
		}
	}

	rec.Instructions = make([]Instruction, 0, len(tx.Message.Instructions))
	for _, ix := range tx.Message.Instructions {
		rec.Instructions = append(rec.Instructions, ByProgramIndex(int(ix.ProgramIDIndex), ix))
	}

	if res.Meta != nil {
		fee := res.Meta.Fee
		meta := &Meta{
			Err: res.Meta.Err,
			Fee: &fee,
		}
		for _, group := range res.Meta.InnerInstructions {
			g := InnerGroup{
				Index:        int(group.Index),
				Instructions: make([]Instruction, 0, len(group.Instructions)),
			}
			for _, ix := range group.Instructions {
				g.Instructions = append(g.Instructions, ByProgramIndex(int(ix.ProgramIDIndex), ix))
			}
			meta.InnerInstructions = append(meta.InnerInstructions, g)
		}
		rec.Meta = meta
	}

	return rec, nil
}

func unixSeconds(t *solana.UnixTimeSeconds) *int64 {
	if t == nil {
		return nil
	}
	v := int64(*t)
	return &v
}
