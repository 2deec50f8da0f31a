// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

// Allow vm to execute custom logic against the underlying transaction types.
type Visitor interface {
	TransferTx(*TransferTx) error
	ApproveTx(*ApproveTx) error
	TransferFromTx(*TransferFromTx) error
	BurnTx(*BurnTx) error
	InvokeTx(*InvokeTx) error
	DepositTx(*DepositTx) error
	WithdrawTokensTx(*WithdrawTokensTx) error
	VoteTx(*VoteTx) error
	AddProposalTx(*AddProposalTx) error
	FinalizeProposalTx(*FinalizeProposalTx) error
	EmergencyEndTx(*EmergencyEndTx) error
	WithdrawNativeTx(*WithdrawNativeTx) error
	SendNativeTx(*SendNativeTx) error
	UpgradeTx(*UpgradeTx) error
}
