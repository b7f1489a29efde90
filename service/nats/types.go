package nats

import (
	"fmt"
	"time"

	"github.com/brojonat/minisolscan/service/network"
	"github.com/brojonat/minisolscan/service/solana"
)

// LookupEvent is published after every successful transaction lookup.
// It is published to the subject "lookups.{network}" in JetStream.
type LookupEvent struct {
	// Transaction identifiers
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`

	// Where it was looked up. Endpoint is only set for preset networks so
	// custom URLs carrying API keys never leave the process.
	Network  string `json:"network"`
	Endpoint string `json:"endpoint,omitempty"`

	// Transaction details
	Status           string `json:"status"`
	Fee              uint64 `json:"fee"`
	Signer           string `json:"signer"`
	InstructionCount int    `json:"instruction_count"`

	// Timing information
	LookedUpAt  time.Time `json:"looked_up_at"`
	PublishedAt time.Time `json:"published_at"`
}

// Subject returns the subject the event is published to.
func (e *LookupEvent) Subject() string {
	return SubjectFor(e.Network)
}

// SubjectFor returns "lookups.{network}"; an empty network matches all.
func SubjectFor(net string) string {
	if net == "" {
		return StreamSubjects
	}
	return fmt.Sprintf("lookups.%s", net)
}

// FromView converts a lookup result to a LookupEvent for publishing.
func FromView(view *solana.TransactionView, cfg network.Config, lookedUpAt time.Time) *LookupEvent {
	event := &LookupEvent{
		Signature:        view.Signature,
		Slot:             view.Slot,
		Network:          string(cfg.Type),
		Status:           string(view.Status),
		Fee:              view.Fee,
		Signer:           view.Signer,
		InstructionCount: len(view.Instructions),
		LookedUpAt:       lookedUpAt.UTC(),
		PublishedAt:      time.Now().UTC(),
	}
	if !cfg.IsCustom() {
		event.Endpoint = cfg.URL
	}
	return event
}
