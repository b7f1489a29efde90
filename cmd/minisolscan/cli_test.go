package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/brojonat/minisolscan/service/solana"
	"github.com/fatih/color"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const testSignature = "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7"

// parsedFixture is a successful jsonParsed transaction with one inner group.
const parsedFixture = `{
  "slot": 250000000,
  "blockTime": 1700000000,
  "transaction": {
    "signatures": ["5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7"],
    "message": {
      "accountKeys": [
        {"pubkey": "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", "signer": true, "writable": true},
        {"pubkey": "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T", "signer": false, "writable": true},
        {"pubkey": "11111111111111111111111111111111", "signer": false, "writable": false}
      ],
      "recentBlockhash": "11111111111111111111111111111111",
      "instructions": [
        {"programId": "ComputeBudget111111111111111111111111111111", "accounts": [], "data": "3Bxs4"},
        {"program": "system", "programId": "11111111111111111111111111111111",
         "parsed": {"type": "transfer", "info": {"lamports": 1000000}}}
      ]
    }
  },
  "meta": {
    "err": null,
    "fee": 5000,
    "preBalances": [],
    "postBalances": [],
    "innerInstructions": [
      {"index": 1, "instructions": [
        {"programId": "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", "accounts": [], "data": "3Bxs4"},
        {"programId": "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr", "accounts": [], "data": "3Bxs4"}
      ]}
    ],
    "logMessages": []
  }
}`

// fakeRPC answers every lookup with the same result.
type fakeRPC struct {
	mu     sync.Mutex
	parsed *rpc.GetParsedTransactionResult
	err    error
	calls  int
}

func (f *fakeRPC) GetParsedTransaction(ctx context.Context, sig solanago.Signature, opts *rpc.GetParsedTransactionOpts) (*rpc.GetParsedTransactionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.parsed, f.err
}

func (f *fakeRPC) GetTransaction(ctx context.Context, sig solanago.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil, f.err
}

// useFakeRPC routes local lookups to rpc and records dialed endpoints.
func useFakeRPC(t *testing.T, fake *fakeRPC) *[]string {
	t.Helper()
	var dialed []string
	orig := dialRPC
	dialRPC = func(endpoint string) solana.RPCClient {
		dialed = append(dialed, endpoint)
		return fake
	}
	t.Cleanup(func() { dialRPC = orig })
	return &dialed
}

func loadParsed(t *testing.T) *rpc.GetParsedTransactionResult {
	t.Helper()
	var res rpc.GetParsedTransactionResult
	require.NoError(t, json.Unmarshal([]byte(parsedFixture), &res))
	return &res
}

// cliRunner runs the app against a private preferences database.
type cliRunner struct {
	prefsPath string
}

func newRunner(t *testing.T) *cliRunner {
	t.Helper()
	color.NoColor = true
	return &cliRunner{prefsPath: filepath.Join(t.TempDir(), "prefs.db")}
}

func (r *cliRunner) run(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := append([]string{"minisolscan", "--prefs-path", r.prefsPath}, args...)
	err := app.Run(full)
	return stdout.String(), stderr.String(), err
}

// exitCode returns the exit code carried by err, or -1.
func exitCode(err error) int {
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return -1
}
