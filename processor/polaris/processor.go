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
	"fmt"

	"github.com/aurora-is-near/aurora-evm/aurora"
)

// Transaction-level rejections. A rejected transaction causes no state
// change and no gas charge; the sentinel errors are wrapped and can be
// tested for with errors.Is.
const (
	ErrNonceMismatch           = aurora.ConstError("nonce mismatch")
	ErrNonceOverflow           = aurora.ConstError("nonce overflow")
	ErrIntrinsicGasTooLow      = aurora.ConstError("intrinsic gas too low")
	ErrInsufficientFunds       = aurora.ConstError("insufficient funds for gas * price + value")
	ErrSenderNotEoa            = aurora.ConstError("sender is not an externally owned account")
	ErrGasPriceBelowBaseFee    = aurora.ConstError("gas price is below the block base fee")
	ErrBlobVersionHashMismatch = aurora.ConstError("blob versioned hash has an unsupported version")
	ErrUnsupportedTransaction  = aurora.ConstError("transaction type not supported by revision")
)

// blobCommitmentVersionKZG is the only versioned-hash version currently
// defined by EIP-4844.
const blobCommitmentVersionKZG = byte(0x01)

// gasPerBlob is the blob gas consumed per blob of an EIP-4844 transaction.
const gasPerBlob = aurora.Gas(1 << 17)

func init() {
	aurora.RegisterProcessorFactory("polaris", newProcessor)
}

func newProcessor(interpreter aurora.Interpreter) aurora.Processor {
	return &processor{
		interpreter: interpreter,
	}
}

// NewProcessor creates a transaction processor running code on the given
// interpreter.
func NewProcessor(interpreter aurora.Interpreter) aurora.Processor {
	return newProcessor(interpreter)
}

type processor struct {
	interpreter aurora.Interpreter

	// Tracer, if set, observes all frames and steps of processed
	// transactions.
	Tracer aurora.Tracer
}

// SetTracer installs an observation hook invoked for all frames and steps of
// subsequently processed transactions. A nil tracer disables observation.
func (p *processor) SetTracer(tracer aurora.Tracer) {
	p.Tracer = tracer
}

func (p *processor) Run(
	blockParams aurora.BlockParameters,
	transaction aurora.Transaction,
	context aurora.TransactionContext,
) (aurora.Receipt, error) {
	cfg := aurora.GetRevisionConfig(blockParams.Revision)

	if err := validateTransaction(blockParams, transaction, context, cfg); err != nil {
		return aurora.Receipt{}, err
	}

	intrinsicGas, gasFloor := CalculateIntrinsicGasAndGasFloor(transaction, cfg)
	requiredGas := intrinsicGas
	if gasFloor > requiredGas {
		requiredGas = gasFloor
	}
	if transaction.GasLimit < requiredGas {
		return aurora.Receipt{}, fmt.Errorf("%w: limit %d, required %d",
			ErrIntrinsicGasTooLow, transaction.GasLimit, requiredGas)
	}

	if err := buyGas(transaction, context); err != nil {
		return aurora.Receipt{}, err
	}
	gas := transaction.GasLimit - intrinsicGas

	// The sender nonce is consumed even if the execution fails.
	senderNonce := transaction.Nonce
	context.SetNonce(transaction.Sender, senderNonce+1)

	warmUpAccessLists(blockParams, transaction, context, cfg)

	refund := aurora.Gas(0)
	if cfg.HasAuthorizationList && transaction.Recipient != nil {
		refund += processAuthorizationList(
			transaction.AuthorizationList, context, blockParams.ChainID, cfg)
	}

	execution := runContext{
		TransactionContext: context,
		interpreter:        p.interpreter,
		blockParameters:    blockParams,
		transactionParameters: aurora.TransactionParameters{
			Origin:     transaction.Sender,
			GasPrice:   transaction.GasPrice,
			BlobHashes: transaction.BlobHashes,
		},
		cfg:    cfg,
		tracer: p.Tracer,
	}

	var result aurora.CallResult
	var contractAddress *aurora.Address
	var err error
	if transaction.Recipient == nil {
		// The transaction nonce bump above is the creator's nonce increment;
		// the creation address is derived from the pre-increment nonce.
		created := createAddress(aurora.Create, transaction.Sender, senderNonce, aurora.Hash{}, aurora.Hash{})
		// runCreate expects the depth of the new frame to be counted already.
		execution.depth++
		if p.Tracer != nil {
			p.Tracer.FrameEnter(aurora.Create, transaction.Sender, aurora.Address{}, gas, transaction.Input)
		}
		result, err = execution.runCreate(aurora.Create, aurora.CallParameters{
			Sender: transaction.Sender,
			Value:  transaction.Value,
			Input:  transaction.Input,
			Gas:    gas,
		}, created)
		if p.Tracer != nil {
			p.Tracer.FrameExit(result.GasLeft, result.Output, result.Success)
		}
		if err == nil && result.Success {
			contractAddress = &result.CreatedAddress
		}
	} else {
		result, err = execution.Call(aurora.Call, aurora.CallParameters{
			Sender:    transaction.Sender,
			Recipient: *transaction.Recipient,
			Value:     transaction.Value,
			Input:     transaction.Input,
			Gas:       gas,
		})
	}
	if err != nil {
		return aurora.Receipt{}, err
	}

	refund += result.GasRefund
	gasUsed, gasRefunded := settleGas(transaction, context, result.GasLeft, refund, gasFloor, cfg)

	var logs []aurora.Log
	if result.Success {
		logs = context.GetLogs()
	}

	return aurora.Receipt{
		Success:         result.Success,
		Exit:            result.Exit,
		GasUsed:         gasUsed,
		GasRefunded:     gasRefunded,
		BlobGasUsed:     gasPerBlob * aurora.Gas(len(transaction.BlobHashes)),
		ContractAddress: contractAddress,
		Output:          result.Output,
		Logs:            logs,
	}, nil
}

// validateTransaction performs all checks rejecting a transaction before any
// state change is made.
func validateTransaction(
	blockParams aurora.BlockParameters,
	transaction aurora.Transaction,
	context aurora.TransactionContext,
	cfg *aurora.RevisionConfig,
) error {
	stateNonce := context.GetNonce(transaction.Sender)
	if transaction.Nonce != stateNonce {
		return fmt.Errorf("%w: transaction %d, state %d", ErrNonceMismatch, transaction.Nonce, stateNonce)
	}
	if transaction.Nonce+1 < transaction.Nonce {
		return fmt.Errorf("%w: sender %v", ErrNonceOverflow, transaction.Sender)
	}

	// Only EOAs may originate transactions; an installed EIP-7702
	// delegation keeps the account an EOA.
	if code := context.GetCode(transaction.Sender); len(code) > 0 {
		if _, isDelegated := aurora.ParseDelegation(code); !isDelegated {
			return fmt.Errorf("%w: sender %v", ErrSenderNotEoa, transaction.Sender)
		}
	}

	if cfg.HasBaseFee && transaction.GasPrice.Cmp(blockParams.BaseFee) < 0 {
		return fmt.Errorf("%w: price %v, base fee %v",
			ErrGasPriceBelowBaseFee, transaction.GasPrice, blockParams.BaseFee)
	}

	if len(transaction.BlobHashes) > 0 {
		if !cfg.HasBlobHashes {
			return fmt.Errorf("%w: blob transactions", ErrUnsupportedTransaction)
		}
		for _, hash := range transaction.BlobHashes {
			if hash[0] != blobCommitmentVersionKZG {
				return fmt.Errorf("%w: %v", ErrBlobVersionHashMismatch, hash)
			}
		}
	}

	if len(transaction.AuthorizationList) > 0 && !cfg.HasAuthorizationList {
		return fmt.Errorf("%w: set-code transactions", ErrUnsupportedTransaction)
	}

	return nil
}

// buyGas withdraws the maximum gas fee from the sender. The unused part is
// restored by settleGas after execution.
func buyGas(transaction aurora.Transaction, context aurora.TransactionContext) error {
	fee := transaction.GasPrice.Scale(uint64(transaction.GasLimit))
	cost := aurora.Add(fee, transaction.Value)
	if cost.Cmp(fee) < 0 {
		return fmt.Errorf("%w: fee overflow", ErrInsufficientFunds)
	}

	senderBalance := context.GetBalance(transaction.Sender)
	if senderBalance.Cmp(cost) < 0 {
		return fmt.Errorf("%w: balance %v, cost %v", ErrInsufficientFunds, senderBalance, cost)
	}

	context.SetBalance(transaction.Sender, aurora.Sub(senderBalance, fee))
	return nil
}

// warmUpAccessLists seeds the EIP-2929 warm sets with the origin, the
// target, the active precompiles, the coinbase (EIP-3651), and the entries
// of the transaction's EIP-2930 access list.
func warmUpAccessLists(
	blockParams aurora.BlockParameters,
	transaction aurora.Transaction,
	context aurora.TransactionContext,
	cfg *aurora.RevisionConfig,
) {
	if !cfg.IncreaseStateAccessGas {
		return
	}

	context.AccessAccount(transaction.Sender)
	if transaction.Recipient != nil {
		context.AccessAccount(*transaction.Recipient)
	}
	for _, address := range getPrecompiledAddresses(blockParams.Revision) {
		context.AccessAccount(address)
	}
	if cfg.WarmCoinbaseAddress {
		context.AccessAccount(blockParams.Coinbase)
	}
	for _, accessTuple := range transaction.AccessList {
		context.AccessAccount(accessTuple.Address)
		for _, key := range accessTuple.Keys {
			context.AccessStorage(accessTuple.Address, key)
		}
	}
}

// settleGas caps the refund counter, applies the EIP-7623 calldata floor,
// and restores the fee of all unconsumed gas to the sender. It returns the
// final gas consumption and the granted refund.
func settleGas(
	transaction aurora.Transaction,
	context aurora.TransactionContext,
	gasLeft aurora.Gas,
	refund aurora.Gas,
	gasFloor aurora.Gas,
	cfg *aurora.RevisionConfig,
) (gasUsed, gasRefunded aurora.Gas) {
	gasUsed = transaction.GasLimit - gasLeft

	gasRefunded = refund
	if maxRefund := gasUsed / cfg.MaxRefundQuotient; gasRefunded > maxRefund {
		gasRefunded = maxRefund
	}
	gasUsed -= gasRefunded

	if cfg.HasFloorGas && gasUsed < gasFloor {
		gasUsed = gasFloor
	}

	returned := transaction.GasPrice.Scale(uint64(transaction.GasLimit - gasUsed))
	senderBalance := context.GetBalance(transaction.Sender)
	context.SetBalance(transaction.Sender, aurora.Add(senderBalance, returned))

	return gasUsed, gasRefunded
}
