// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package polaris

import (
	"github.com/aurora-is-near/aurora-evm/aurora"
)

const (
	// TxGas is the fixed base cost of any transaction. It is a protocol
	// constant and deliberately not part of the revision configuration.
	TxGas aurora.Gas = 21_000

	// standardTokenCost is the gas charged per calldata token (EIP-7623).
	standardTokenCost aurora.Gas = 4

	// tokensPerNonZeroByte is the token weight of a non-zero calldata byte
	// relative to a zero byte (EIP-7623).
	tokensPerNonZeroByte = 4

	// initCodeWordGas is charged per word of init code in creation
	// transactions (EIP-3860).
	initCodeWordGas aurora.Gas = 2

	createGasCostPerByte = 200
	maxCallDepth         = 1024
)

// getTokensInCallData computes the EIP-7623 token count of the given
// calldata: one token per zero byte, four per non-zero byte.
func getTokensInCallData(input []byte) aurora.Gas {
	nonZeroBytes := aurora.Gas(0)
	for _, b := range input {
		if b != 0 {
			nonZeroBytes++
		}
	}
	zeroBytes := aurora.Gas(len(input)) - nonZeroBytes
	return zeroBytes + nonZeroBytes*tokensPerNonZeroByte
}

// CalculateIntrinsicGasAndGasFloor computes the intrinsic gas of the given
// transaction and, for revisions with EIP-7623 support, its calldata gas
// floor. A transaction is only admitted for execution if its gas limit
// covers the maximum of the two; the final gas charge never drops below the
// floor.
func CalculateIntrinsicGasAndGasFloor(transaction aurora.Transaction, cfg *aurora.RevisionConfig) (intrinsicGas, gasFloor aurora.Gas) {
	isCreate := transaction.Recipient == nil

	gas := TxGas
	if isCreate {
		gas = cfg.GasTxCreate
	}

	for _, inputByte := range transaction.Input {
		if inputByte != 0 {
			gas += cfg.GasTxNonZeroData
		} else {
			gas += cfg.GasTxZeroData
		}
	}

	if isCreate && cfg.MaxInitCodeSize > 0 {
		gas += initCodeWordGas * aurora.Gas(aurora.SizeInWords(uint64(len(transaction.Input))))
	}

	if transaction.AccessList != nil {
		gas += aurora.Gas(len(transaction.AccessList)) * cfg.GasAccessListAddr
		for _, accessTuple := range transaction.AccessList {
			gas += aurora.Gas(len(accessTuple.Keys)) * cfg.GasAccessListKey
		}
	}

	// Authorizations are charged as if each created a new account; the
	// overhead for re-used authorities is refunded after processing.
	if cfg.HasAuthorizationList {
		gas += aurora.Gas(len(transaction.AuthorizationList)) * cfg.GasPerEmptyAccount
	}

	if cfg.HasFloorGas {
		tokens := getTokensInCallData(transaction.Input)
		gasFloor = TxGas + tokens*cfg.TotalCostFloorToken
	}

	return gas, gasFloor
}
