// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bus is the in-process pub/sub carrying coordinator notifications.
package bus

import "context"

// Message is an opaque payload; subscribers type-switch on it.
type Message interface{}

type Bus interface {
	Publish(ctx context.Context, topic string, msg Message) error
	TryPublish(topic string, msg Message) bool
	Subscribe(ctx context.Context, topic string) (Subscriber, error)
}

type Subscriber interface {
	C() <-chan Message
	Close() error
}
