package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/brojonat/minisolscan/service/network"
	"github.com/brojonat/minisolscan/service/solana"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testView() *solana.TransactionView {
	return &solana.TransactionView{
		Signature: "sig",
		Status:    solana.StatusFailed,
		Signer:    "payer",
		Slot:      42,
		Fee:       5000,
		Instructions: []solana.InstructionView{
			{Label: "Instruction #1"},
			{Label: "Instruction #2"},
		},
	}
}

func TestFromView(t *testing.T) {
	cfg, err := network.Resolve(network.Testnet, "")
	require.NoError(t, err)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))

	event := FromView(testView(), cfg, at)
	assert.Equal(t, "sig", event.Signature)
	assert.Equal(t, uint64(42), event.Slot)
	assert.Equal(t, "testnet", event.Network)
	assert.Equal(t, "https://api.testnet.solana.com", event.Endpoint)
	assert.Equal(t, "Failed", event.Status)
	assert.Equal(t, uint64(5000), event.Fee)
	assert.Equal(t, 2, event.InstructionCount)
	assert.Equal(t, time.UTC, event.LookedUpAt.Location())
	assert.True(t, at.Equal(event.LookedUpAt))
	assert.Equal(t, "lookups.testnet", event.Subject())
}

func TestFromView_CustomEndpointNotLeaked(t *testing.T) {
	cfg, err := network.Resolve(network.Custom, "https://rpc.example.com/?api-key=secret")
	require.NoError(t, err)

	event := FromView(testView(), cfg, time.Now())
	assert.Empty(t, event.Endpoint)

	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
}

func TestDecodeLookupEvent(t *testing.T) {
	cfg, err := network.Resolve(network.Devnet, "")
	require.NoError(t, err)
	data, err := json.Marshal(FromView(testView(), cfg, time.Now()))
	require.NoError(t, err)

	event, err := DecodeLookupEvent(data)
	require.NoError(t, err)
	assert.Equal(t, "devnet", event.Network)

	_, err = DecodeLookupEvent([]byte("{not json"))
	assert.Error(t, err)
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "lookups.*", SubjectFor(""))
	assert.Equal(t, "lookups.mainnet-beta", SubjectFor("mainnet-beta"))
}

func TestStreamConfig(t *testing.T) {
	cfg := StreamConfig()
	assert.Equal(t, "LOOKUPS", cfg.Name)
	assert.Equal(t, []string{"lookups.*"}, cfg.Subjects)
	assert.Equal(t, jetstream.LimitsPolicy, cfg.Retention)
}

func TestMockPublisher(t *testing.T) {
	ctx := context.Background()
	m := NewMockPublisher()

	require.NoError(t, m.PublishLookup(ctx, &LookupEvent{Signature: "a", Network: "devnet"}))
	require.NoError(t, m.PublishLookup(ctx, &LookupEvent{Signature: "b", Network: "testnet"}))
	assert.Equal(t, 2, m.EventCount())
	assert.Len(t, m.EventsForNetwork("devnet"), 1)

	m.FailWith(errors.New("boom"))
	assert.Error(t, m.PublishLookup(ctx, &LookupEvent{Signature: "c"}))
	assert.Equal(t, 2, m.EventCount())

	require.NoError(t, m.Close())
	assert.True(t, m.Closed())

	m.Reset()
	assert.Zero(t, m.EventCount())
	assert.False(t, m.Closed())
}
