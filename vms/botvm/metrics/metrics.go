// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/chain4travel/botvm/vms/botvm/events"
	"github.com/chain4travel/botvm/vms/botvm/txs"
)

const (
	outcomeLabel = "outcome"
	tokenLabel   = "token"

	outcomePassed    = "passed"
	outcomeFailed    = "failed"
	outcomeEmergency = "emergency"
)

var _ Metrics = (*metrics)(nil)

type Metrics interface {
	events.Sink

	// Mark that the given tx was accepted.
	MarkAccepted(*txs.Tx) error
	// Mark that a tx was rejected.
	MarkRejected()
}

func New(
	namespace string,
	registerer prometheus.Registerer,
) (Metrics, error) {
	txMetrics, err := newTxMetrics(namespace, registerer)
	m := &metrics{
		txMetrics: txMetrics,

		numTxsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txs_rejected",
			Help:      "Number of transactions rejected",
		}),
		tokensBurned: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tokens_burned",
				Help:      "Base units of a token burned by fees and burns since start",
			},
			[]string{tokenLabel},
		),
		proposalsFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proposals_finished",
				Help:      "Number of proposals finished, by outcome",
			},
			[]string{outcomeLabel},
		),
	}

	errs := wrappers.Errs{Err: err}
	errs.Add(
		registerer.Register(m.numTxsRejected),
		registerer.Register(m.tokensBurned),
		registerer.Register(m.proposalsFinished),
	)
	return m, errs.Err
}

type metrics struct {
	txMetrics *txMetrics

	numTxsRejected    prometheus.Counter
	tokensBurned      *prometheus.GaugeVec
	proposalsFinished *prometheus.CounterVec
}

func (m *metrics) MarkAccepted(tx *txs.Tx) error {
	return tx.Unsigned.Visit(m.txMetrics)
}

func (m *metrics) MarkRejected() {
	m.numTxsRejected.Inc()
}

// Publish counts burns and finished proposals of an accepted tx.
func (m *metrics) Publish(_ ids.ID, accepted []events.Event) error {
	for _, e := range accepted {
		switch e := e.(type) {
		case *events.Transfer:
			if e.To == ids.ShortEmpty && e.From != ids.ShortEmpty {
				m.tokensBurned.WithLabelValues(e.Token.String()).Add(e.Amount.Float64())
			}
		case *events.Finished:
			outcome := outcomeFailed
			if e.Success {
				outcome = outcomePassed
			}
			m.proposalsFinished.WithLabelValues(outcome).Inc()
		case *events.FinishedEmergency:
			m.proposalsFinished.WithLabelValues(outcomeEmergency).Inc()
		}
	}
	return nil
}
