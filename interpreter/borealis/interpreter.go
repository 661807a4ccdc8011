// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package borealis

import (
	"fmt"

	"github.com/aurora-is-near/aurora-evm/aurora"
)

// status is enumeration of the execution state of an interpreter run.
type status byte

const (
	statusRunning        status = iota // < all fine, ops are processed
	statusStopped                      // < execution stopped with a STOP
	statusReverted                     // < execution stopped with a REVERT
	statusReturned                     // < execution stopped with a RETURN
	statusSelfDestructed               // < execution stopped with a SELF-DESTRUCT
	statusFailed                       // < execution stopped with a logic error
)

// context is the execution environment of an interpreter run. It contains all
// the necessary state to execute a contract, including input parameters, the
// contract code, and internal execution state such as the program counter,
// stack, and memory. For each contract execution, a new context is created.
type context struct {
	// Inputs
	params    aurora.Parameters
	context   aurora.RunContext
	cfg       *aurora.RevisionConfig
	code      []byte
	jumpDests jumpDestBitmap

	// Execution state
	pc     int32
	gas    aurora.Gas
	refund aurora.Gas
	stack  *stack
	memory *Memory

	// Intermediate data
	returnData []byte // < the result of the last nested contract call
	fault      error  // < the violation that failed the execution, if any

	// Configuration flags
	withShaCache bool
}

// useGas reduces the gas level by the given amount. An error is returned if
// the gas level drops below zero, in which case the caller shall stop the
// execution with a failure status.
func (c *context) useGas(amount aurora.Gas) error {
	if c.gas < 0 || amount < 0 || c.gas < amount {
		return errOutOfGas
	}
	c.gas -= amount
	return nil
}

// isAtLeast returns true if the interpreter is running at least at the given
// revision or newer, false otherwise.
func (c *context) isAtLeast(revision aurora.Revision) bool {
	return c.params.Revision >= revision
}

func run(
	config config,
	params aurora.Parameters,
	code []byte,
	jumpDests jumpDestBitmap,
) (aurora.Result, error) {
	// Don't bother with the execution if there's no code.
	if len(code) == 0 {
		return aurora.Result{
			Output:  nil,
			GasLeft: params.Gas,
			Success: true,
			Exit:    aurora.ExitStopped,
		}, nil
	}

	var ctxt = context{
		params:       params,
		context:      params.Context,
		cfg:          aurora.GetRevisionConfig(params.Revision),
		gas:          params.Gas,
		stack:        NewStack(),
		memory:       NewMemory(),
		code:         code,
		jumpDests:    jumpDests,
		withShaCache: config.WithShaCache,
	}
	defer ReturnStack(ctxt.stack)

	status := execute(&ctxt, false)
	return generateResult(status, &ctxt)
}

func generateResult(status status, ctxt *context) (aurora.Result, error) {
	switch status {
	case statusStopped:
		return aurora.Result{
			Success:   true,
			Exit:      aurora.ExitStopped,
			GasLeft:   ctxt.gas,
			GasRefund: ctxt.refund,
		}, nil
	case statusSelfDestructed:
		return aurora.Result{
			Success:   true,
			Exit:      aurora.ExitSelfDestructed,
			GasLeft:   ctxt.gas,
			GasRefund: ctxt.refund,
		}, nil
	case statusReturned:
		return aurora.Result{
			Success:   true,
			Exit:      aurora.ExitReturned,
			Output:    ctxt.returnData,
			GasLeft:   ctxt.gas,
			GasRefund: ctxt.refund,
		}, nil
	case statusReverted:
		return aurora.Result{
			Success: false,
			Exit:    aurora.ExitReverted,
			Output:  ctxt.returnData,
			GasLeft: ctxt.gas,
		}, nil
	case statusFailed:
		return aurora.Result{
			Success: false,
			Exit:    exitReasonFor(ctxt.fault),
		}, nil
	default:
		return aurora.Result{}, fmt.Errorf("unexpected error in interpreter, unknown status: %v", status)
	}
}

// execute runs the contract code in the given context. If oneStepOnly is
// true, only the instruction pointed to by the program counter is executed.
// Any execution violation (out of gas, stack underflow, ...) yields
// statusFailed with the triggering fault recorded in the context.
func execute(c *context, oneStepOnly bool) status {
	status, err := steps(c, oneStepOnly)
	if err != nil {
		c.fault = err
		return statusFailed
	}
	return status
}

// steps executes the contract code in the given context. If oneStepOnly is
// true, only the instruction pointed to by the program counter is executed.
// steps returns the status of the execution and an error if the contract
// execution yields an execution violation.
func steps(c *context, oneStepOnly bool) (status, error) {
	staticGasPrices := getStaticGasPrices(c.params.Revision)
	tracer := c.params.Tracer

	status := statusRunning
	for status == statusRunning {
		if int(c.pc) >= len(c.code) {
			return statusStopped, nil
		}

		op := OpCode(c.code[c.pc])

		if tracer != nil {
			tracer.StepStart(int(c.pc), byte(op), c.gas, c.stack.len(), c.memory.length())
		}

		// Check stack boundary for every instruction
		if err := checkStackLimits(c.stack.len(), op); err != nil {
			return status, err
		}

		// Consume static gas price for instruction before execution
		if err := c.useGas(staticGasPrices[op]); err != nil {
			return status, err
		}

		var err error

		// Execute instruction
		switch op {
		case STOP:
			status = statusStopped
		case ADD:
			opAdd(c)
		case MUL:
			opMul(c)
		case SUB:
			opSub(c)
		case DIV:
			opDiv(c)
		case SDIV:
			opSDiv(c)
		case MOD:
			opMod(c)
		case SMOD:
			opSMod(c)
		case ADDMOD:
			opAddMod(c)
		case MULMOD:
			opMulMod(c)
		case EXP:
			err = opExp(c)
		case SIGNEXTEND:
			opSignExtend(c)
		case LT:
			opLt(c)
		case GT:
			opGt(c)
		case SLT:
			opSlt(c)
		case SGT:
			opSgt(c)
		case EQ:
			opEq(c)
		case ISZERO:
			opIszero(c)
		case AND:
			opAnd(c)
		case OR:
			opOr(c)
		case XOR:
			opXor(c)
		case NOT:
			opNot(c)
		case BYTE:
			opByte(c)
		case SHL:
			err = opShl(c)
		case SHR:
			err = opShr(c)
		case SAR:
			err = opSar(c)
		case SHA3:
			err = opSha3(c)
		case ADDRESS:
			opAddress(c)
		case BALANCE:
			err = opBalance(c)
		case ORIGIN:
			opOrigin(c)
		case CALLER:
			opCaller(c)
		case CALLVALUE:
			opCallvalue(c)
		case CALLDATALOAD:
			opCallDataload(c)
		case CALLDATASIZE:
			opCallDatasize(c)
		case CALLDATACOPY:
			err = genericDataCopy(c, c.params.Input)
		case CODESIZE:
			opCodeSize(c)
		case CODECOPY:
			err = genericDataCopy(c, c.params.Code)
		case GASPRICE:
			opGasPrice(c)
		case EXTCODESIZE:
			err = opExtcodesize(c)
		case EXTCODECOPY:
			err = opExtCodeCopy(c)
		case RETURNDATASIZE:
			err = opReturnDataSize(c)
		case RETURNDATACOPY:
			err = opReturnDataCopy(c)
		case EXTCODEHASH:
			err = opExtcodehash(c)
		case BLOCKHASH:
			opBlockhash(c)
		case COINBASE:
			opCoinbase(c)
		case TIMESTAMP:
			opTimestamp(c)
		case NUMBER:
			opNumber(c)
		case PREVRANDAO:
			opPrevRandao(c)
		case GASLIMIT:
			opGasLimit(c)
		case CHAINID:
			err = opChainId(c)
		case SELFBALANCE:
			err = opSelfbalance(c)
		case BASEFEE:
			err = opBaseFee(c)
		case BLOBHASH:
			err = opBlobHash(c)
		case BLOBBASEFEE:
			err = opBlobBaseFee(c)
		case POP:
			opPop(c)
		case MLOAD:
			err = opMload(c)
		case MSTORE:
			err = opMstore(c)
		case MSTORE8:
			err = opMstore8(c)
		case SLOAD:
			err = opSload(c)
		case SSTORE:
			err = opSstore(c)
		case JUMP:
			err = opJump(c)
		case JUMPI:
			err = opJumpi(c)
		case PC:
			opPc(c)
		case MSIZE:
			opMsize(c)
		case GAS:
			opGas(c)
		case JUMPDEST:
			// nothing
		case TLOAD:
			err = opTload(c)
		case TSTORE:
			err = opTstore(c)
		case MCOPY:
			err = opMcopy(c)
		case PUSH0:
			err = opPush0(c)
		case PUSH1:
			opPush1(c)
		case PUSH2, PUSH3, PUSH4, PUSH5, PUSH6, PUSH7, PUSH8,
			PUSH9, PUSH10, PUSH11, PUSH12, PUSH13, PUSH14, PUSH15, PUSH16,
			PUSH17, PUSH18, PUSH19, PUSH20, PUSH21, PUSH22, PUSH23, PUSH24,
			PUSH25, PUSH26, PUSH27, PUSH28, PUSH29, PUSH30, PUSH31, PUSH32:
			opPush(c, op.pushSize())
		case DUP1, DUP2, DUP3, DUP4, DUP5, DUP6, DUP7, DUP8,
			DUP9, DUP10, DUP11, DUP12, DUP13, DUP14, DUP15, DUP16:
			opDup(c, int(op)-int(DUP1)+1)
		case SWAP1, SWAP2, SWAP3, SWAP4, SWAP5, SWAP6, SWAP7, SWAP8,
			SWAP9, SWAP10, SWAP11, SWAP12, SWAP13, SWAP14, SWAP15, SWAP16:
			opSwap(c, int(op)-int(SWAP1)+1)
		case LOG0, LOG1, LOG2, LOG3, LOG4:
			err = opLog(c, int(op)-int(LOG0))
		case CREATE:
			err = genericCreate(c, aurora.Create)
		case CREATE2:
			err = genericCreate(c, aurora.Create2)
		case CALL:
			err = opCall(c)
		case CALLCODE:
			err = opCallCode(c)
		case RETURN:
			err = opEndWithResult(c)
			status = statusReturned
		case DELEGATECALL:
			err = opDelegateCall(c)
		case STATICCALL:
			err = opStaticCall(c)
		case REVERT:
			err = opRevert(c)
			status = statusReverted
		case SELFDESTRUCT:
			status, err = opSelfdestruct(c)
		default:
			err = errInvalidOpCode
		}

		if err != nil {
			return status, err
		}

		c.pc++

		if tracer != nil {
			tracer.StepEnd(int(c.pc), c.gas)
		}

		if oneStepOnly {
			return status, nil
		}
	}
	return status, nil
}
