package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// SubscribeOptions selects which lookups to receive.
type SubscribeOptions struct {
	// Network filters by network type; empty receives every network.
	Network string
	// Durable names a consumer that survives restarts; empty is ephemeral.
	Durable string
}

// DecodeLookupEvent parses a message payload.
func DecodeLookupEvent(data []byte) (*LookupEvent, error) {
	var event LookupEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to parse lookup event: %w", err)
	}
	return &event, nil
}

// Subscribe consumes lookup events until ctx is done, calling handle for
// each. Malformed messages are acked and reported through onError.
func Subscribe(ctx context.Context, js jetstream.JetStream, opts SubscribeOptions, handle func(*LookupEvent), onError func(error)) error {
	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: SubjectFor(opts.Network),
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	if opts.Durable != "" {
		consumerConfig.Durable = opts.Durable
		consumerConfig.Name = opts.Durable
	}

	cons, err := js.CreateOrUpdateConsumer(ctx, StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := cons.Consume(func(msg jetstream.Msg) {
		event, err := DecodeLookupEvent(msg.Data())
		if err != nil {
			if onError != nil {
				onError(err)
			}
			_ = msg.Ack()
			return
		}
		handle(event)
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	defer cc.Stop()

	<-ctx.Done()
	return nil
}
