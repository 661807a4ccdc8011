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

	// geth dependencies
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var emptyCodeHash = aurora.Hash(crypto.Keccak256(nil))

// runContext implements aurora.RunContext on behalf of a transaction
// execution. It multiplexes recursive contract calls between the
// interpreter, precompiled contracts, and contract creation.
type runContext struct {
	aurora.TransactionContext
	interpreter           aurora.Interpreter
	blockParameters       aurora.BlockParameters
	transactionParameters aurora.TransactionParameters
	cfg                   *aurora.RevisionConfig
	tracer                aurora.Tracer
	depth                 int
	static                bool
}

func (r runContext) Call(kind aurora.CallKind, parameters aurora.CallParameters) (aurora.CallResult, error) {
	if r.tracer != nil {
		r.tracer.FrameEnter(kind, parameters.Sender, parameters.Recipient, parameters.Gas, parameters.Input)
	}
	var res aurora.CallResult
	var err error
	if kind == aurora.Create || kind == aurora.Create2 {
		res, err = r.executeCreate(kind, parameters)
	} else {
		res, err = r.executeCall(kind, parameters)
	}
	if r.tracer != nil {
		r.tracer.FrameExit(res.GasLeft, res.Output, res.Success)
	}
	return res, err
}

func (r runContext) executeCall(kind aurora.CallKind, parameters aurora.CallParameters) (aurora.CallResult, error) {
	if r.depth > maxCallDepth {
		return aurora.CallResult{Exit: aurora.ExitCallTooDeep, GasLeft: parameters.Gas}, nil
	}
	r.depth++

	if kind == aurora.Call || kind == aurora.CallCode {
		if !canTransferValue(r, parameters.Value, parameters.Sender, &parameters.Recipient) {
			return aurora.CallResult{Exit: aurora.ExitError, GasLeft: parameters.Gas}, nil
		}
	}
	snapshot := r.CreateSnapshot()
	recipient := parameters.Recipient

	if kind == aurora.StaticCall {
		r.static = true
	}

	if kind == aurora.Call || kind == aurora.CallCode {
		transferValue(r, parameters.Value, parameters.Sender, recipient)
	}

	result, isPrecompiled := handlePrecompiledContract(
		r.blockParameters.Revision, parameters.Input, recipient, parameters.Gas)
	if isPrecompiled {
		if result.Success {
			result.Exit = aurora.ExitReturned
		} else {
			r.RestoreSnapshot(snapshot)
			result.GasLeft = 0
			result.Exit = aurora.ExitOutOfGas
		}
		return result, nil
	}

	codeAddress := parameters.CodeAddress
	if kind == aurora.Call || kind == aurora.StaticCall {
		codeAddress = recipient
	}
	code := r.GetCode(codeAddress)
	codeHash := r.GetCodeHash(codeAddress)

	gas := parameters.Gas

	// An EIP-7702 delegation designator redirects the code lookup to the
	// delegation target while the storage context stays with the recipient.
	if r.cfg.HasAuthorizationList {
		if delegate, isDelegated := aurora.ParseDelegation(code); isDelegated {
			cost := aurora.Gas(100)
			if r.AccessAccount(delegate) == aurora.ColdAccess {
				cost = 2600
			}
			if gas < cost {
				return aurora.CallResult{Success: false, Exit: aurora.ExitOutOfGas}, nil
			}
			gas -= cost
			code = r.GetCode(delegate)
			codeHash = r.GetCodeHash(delegate)
		}
	}

	interpreterParameters := aurora.Parameters{
		BlockParameters:       r.blockParameters,
		TransactionParameters: r.transactionParameters,
		Context:               r,
		Kind:                  kind,
		Static:                r.static,
		Depth:                 r.depth - 1, // depth has already been incremented
		Gas:                   gas,
		Recipient:             recipient,
		Sender:                parameters.Sender,
		Input:                 parameters.Input,
		Value:                 parameters.Value,
		CodeHash:              &codeHash,
		Code:                  code,
		Tracer:                r.tracer,
	}

	callResult, err := r.interpreter.Run(interpreterParameters)
	if err != nil || !callResult.Success {
		r.RestoreSnapshot(snapshot)

		if !isRevert(callResult, err) {
			// any fault other than a revert consumes the frame's gas
			callResult.GasLeft = 0
			callResult.GasRefund = 0
		}
	}

	return aurora.CallResult{
		Output:    callResult.Output,
		Exit:      callResult.Exit,
		GasLeft:   callResult.GasLeft,
		GasRefund: callResult.GasRefund,
		Success:   callResult.Success,
	}, err
}

func (r runContext) executeCreate(kind aurora.CallKind, parameters aurora.CallParameters) (aurora.CallResult, error) {
	if r.depth > maxCallDepth {
		return aurora.CallResult{Exit: aurora.ExitCallTooDeep, GasLeft: parameters.Gas}, nil
	}
	r.depth++

	if !canTransferValue(r, parameters.Value, parameters.Sender, nil) {
		return aurora.CallResult{Exit: aurora.ExitError, GasLeft: parameters.Gas}, nil
	}
	if err := incrementNonce(r, parameters.Sender); err != nil {
		return aurora.CallResult{Exit: aurora.ExitMaxNonce, GasLeft: parameters.Gas}, nil
	}

	initCode := aurora.Code(parameters.Input)
	initCodeHash := hashCode(initCode)

	createdAddress := createAddress(kind, parameters.Sender, r.GetNonce(parameters.Sender)-1,
		parameters.Salt, initCodeHash)

	return r.runCreate(kind, parameters, createdAddress)
}

// runCreate executes the initialization code of a contract creation whose
// target address has already been derived and whose creator nonce has been
// bumped. It is shared by the CREATE/CREATE2 opcodes and the top-level
// creation transaction path.
func (r runContext) runCreate(
	kind aurora.CallKind,
	parameters aurora.CallParameters,
	createdAddress aurora.Address,
) (aurora.CallResult, error) {
	initCode := aurora.Code(parameters.Input)
	initCodeHash := hashCode(initCode)

	if r.cfg.IncreaseStateAccessGas {
		r.AccessAccount(createdAddress)
	}

	// A target with a non-zero nonce or deployed code is a collision; the
	// creation fails and all forwarded gas is consumed.
	if r.GetNonce(createdAddress) != 0 ||
		(r.GetCodeHash(createdAddress) != (aurora.Hash{}) &&
			r.GetCodeHash(createdAddress) != emptyCodeHash) {
		return aurora.CallResult{Exit: aurora.ExitCreateCollision}, nil
	}
	snapshot := r.CreateSnapshot()

	r.MarkAccountCreated(createdAddress)
	if r.cfg.CreateIncreaseNonce {
		r.SetNonce(createdAddress, 1)
	}

	transferValue(r, parameters.Value, parameters.Sender, createdAddress)

	interpreterParameters := aurora.Parameters{
		BlockParameters:       r.blockParameters,
		TransactionParameters: r.transactionParameters,
		Context:               r,
		Kind:                  kind,
		Static:                r.static,
		Depth:                 r.depth - 1, // depth has already been incremented
		Gas:                   parameters.Gas,
		Recipient:             createdAddress,
		Sender:                parameters.Sender,
		Input:                 nil,
		Value:                 parameters.Value,
		CodeHash:              &initCodeHash,
		Code:                  initCode,
		Tracer:                r.tracer,
	}

	result, err := r.interpreter.Run(interpreterParameters)
	if err != nil || !result.Success {
		r.RestoreSnapshot(snapshot)

		if !isRevert(result, err) {
			// if the unsuccessful create was due to a revert, the output is
			// still returned
			return aurora.CallResult{Exit: result.Exit}, err
		}
		return aurora.CallResult{
			Output:         result.Output,
			Exit:           aurora.ExitReverted,
			GasLeft:        result.GasLeft,
			CreatedAddress: createdAddress,
		}, nil
	}

	outCode := result.Output
	if r.cfg.MaxCodeSize > 0 && len(outCode) > r.cfg.MaxCodeSize {
		result.Success = false
		result.Exit = aurora.ExitCreateContractLimit
	}
	if r.cfg.DisallowExecutableFormat && len(outCode) > 0 && outCode[0] == 0xEF {
		result.Success = false
		result.Exit = aurora.ExitInvalidCode
	}
	depositGas := aurora.Gas(len(outCode) * createGasCostPerByte)
	if result.GasLeft < depositGas {
		result.Success = false
		result.Exit = aurora.ExitOutOfGas
	} else {
		result.GasLeft -= depositGas
	}

	if result.Success {
		r.SetCode(createdAddress, aurora.Code(outCode))
	} else {
		r.RestoreSnapshot(snapshot)
		result.GasLeft = 0
		result.GasRefund = 0
		result.Output = nil
	}

	return aurora.CallResult{
		Output:         result.Output,
		Exit:           result.Exit,
		GasLeft:        result.GasLeft,
		GasRefund:      result.GasRefund,
		Success:        result.Success,
		CreatedAddress: createdAddress,
	}, nil
}

// isRevert distinguishes an orderly REVERT from other failed executions;
// only reverts preserve unused gas and an output for the caller.
func isRevert(result aurora.Result, err error) bool {
	return err == nil && !result.Success && result.Exit == aurora.ExitReverted
}

func hashCode(code aurora.Code) aurora.Hash {
	return aurora.Hash(crypto.Keccak256(code))
}

// createAddress derives the address of a new contract: for CREATE from the
// sender and its nonce, for CREATE2 from the sender, the salt, and the init
// code hash.
func createAddress(
	kind aurora.CallKind,
	sender aurora.Address,
	nonce uint64,
	salt aurora.Hash,
	initHash aurora.Hash,
) aurora.Address {
	if kind == aurora.Create {
		return aurora.Address(crypto.CreateAddress(common.Address(sender), nonce))
	}
	return aurora.Address(crypto.CreateAddress2(common.Address(sender), common.Hash(salt), initHash[:]))
}
