// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

var (
	_ Emitter = (*Buffer)(nil)
	_ Sink    = (*LogSink)(nil)
	_ Sink    = (Sinks)(nil)
)

// Emitter collects events while a transaction executes.
type Emitter interface {
	Emit(Event)
}

// Buffer holds the events of one transaction until it's accepted.
type Buffer struct {
	events []Event
}

func (b *Buffer) Emit(e Event) {
	b.events = append(b.events, e)
}

func (b *Buffer) Events() []Event {
	return b.events
}

// Sink receives the events of accepted transactions, in acceptance order.
type Sink interface {
	Publish(txID ids.ID, events []Event) error
}

type LogSink struct {
	Log logging.Logger
}

func (s *LogSink) Publish(txID ids.ID, events []Event) error {
	for i, e := range events {
		s.Log.Debug("event",
			zap.Stringer("txID", txID),
			zap.Int("index", i),
			zap.String("name", e.Name()),
			zap.Stringer("contract", e.Contract()),
			zap.Any("payload", e),
		)
	}
	return nil
}

type Sinks []Sink

func (s Sinks) Publish(txID ids.ID, events []Event) error {
	errs := wrappers.Errs{}
	for _, sink := range s {
		errs.Add(sink.Publish(txID, events))
	}
	return errs.Err
}
