// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
//
// This file is a derived work, based on ava-labs code whose
// original notices appear below.
//
// It is distributed under the same license conditions as the
// original code from which it is derived.
//
// Much love to the original authors for their work.
// **********************************************************
// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/chain4travel/botvm/vms/botvm/txs"
)

var _ txs.Visitor = (*txMetrics)(nil)

type txMetrics struct {
	numTransferTxs,
	numApproveTxs,
	numTransferFromTxs,
	numBurnTxs,
	numInvokeTxs,
	numDepositTxs,
	numWithdrawTokensTxs,
	numVoteTxs,
	numAddProposalTxs,
	numFinalizeProposalTxs,
	numEmergencyEndTxs,
	numWithdrawNativeTxs,
	numSendNativeTxs,
	numUpgradeTxs prometheus.Counter
}

func newTxMetrics(
	namespace string,
	registerer prometheus.Registerer,
) (*txMetrics, error) {
	errs := wrappers.Errs{}
	m := &txMetrics{
		numTransferTxs:         newTxMetric(namespace, "transfer", registerer, &errs),
		numApproveTxs:          newTxMetric(namespace, "approve", registerer, &errs),
		numTransferFromTxs:     newTxMetric(namespace, "transfer_from", registerer, &errs),
		numBurnTxs:             newTxMetric(namespace, "burn", registerer, &errs),
		numInvokeTxs:           newTxMetric(namespace, "invoke", registerer, &errs),
		numDepositTxs:          newTxMetric(namespace, "deposit", registerer, &errs),
		numWithdrawTokensTxs:   newTxMetric(namespace, "withdraw_tokens", registerer, &errs),
		numVoteTxs:             newTxMetric(namespace, "vote", registerer, &errs),
		numAddProposalTxs:      newTxMetric(namespace, "add_proposal", registerer, &errs),
		numFinalizeProposalTxs: newTxMetric(namespace, "finalize_proposal", registerer, &errs),
		numEmergencyEndTxs:     newTxMetric(namespace, "emergency_end", registerer, &errs),
		numWithdrawNativeTxs:   newTxMetric(namespace, "withdraw_native", registerer, &errs),
		numSendNativeTxs:       newTxMetric(namespace, "send_native", registerer, &errs),
		numUpgradeTxs:          newTxMetric(namespace, "upgrade", registerer, &errs),
	}
	return m, errs.Err
}

func newTxMetric(
	namespace string,
	txName string,
	registerer prometheus.Registerer,
	errs *wrappers.Errs,
) prometheus.Counter {
	txMetric := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      fmt.Sprintf("%s_txs_accepted", txName),
		Help:      fmt.Sprintf("Number of %s transactions accepted", txName),
	})
	errs.Add(registerer.Register(txMetric))
	return txMetric
}

func (m *txMetrics) TransferTx(*txs.TransferTx) error {
	m.numTransferTxs.Inc()
	return nil
}

func (m *txMetrics) ApproveTx(*txs.ApproveTx) error {
	m.numApproveTxs.Inc()
	return nil
}

func (m *txMetrics) TransferFromTx(*txs.TransferFromTx) error {
	m.numTransferFromTxs.Inc()
	return nil
}

func (m *txMetrics) BurnTx(*txs.BurnTx) error {
	m.numBurnTxs.Inc()
	return nil
}

func (m *txMetrics) InvokeTx(*txs.InvokeTx) error {
	m.numInvokeTxs.Inc()
	return nil
}

func (m *txMetrics) DepositTx(*txs.DepositTx) error {
	m.numDepositTxs.Inc()
	return nil
}

func (m *txMetrics) WithdrawTokensTx(*txs.WithdrawTokensTx) error {
	m.numWithdrawTokensTxs.Inc()
	return nil
}

func (m *txMetrics) VoteTx(*txs.VoteTx) error {
	m.numVoteTxs.Inc()
	return nil
}

func (m *txMetrics) AddProposalTx(*txs.AddProposalTx) error {
	m.numAddProposalTxs.Inc()
	return nil
}

func (m *txMetrics) FinalizeProposalTx(*txs.FinalizeProposalTx) error {
	m.numFinalizeProposalTxs.Inc()
	return nil
}

func (m *txMetrics) EmergencyEndTx(*txs.EmergencyEndTx) error {
	m.numEmergencyEndTxs.Inc()
	return nil
}

func (m *txMetrics) WithdrawNativeTx(*txs.WithdrawNativeTx) error {
	m.numWithdrawNativeTxs.Inc()
	return nil
}

func (m *txMetrics) SendNativeTx(*txs.SendNativeTx) error {
	m.numSendNativeTxs.Inc()
	return nil
}

func (m *txMetrics) UpgradeTx(*txs.UpgradeTx) error {
	m.numUpgradeTxs.Inc()
	return nil
}
