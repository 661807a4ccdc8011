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

import "github.com/aurora-is-near/aurora-evm/aurora"

const (
	errGasUintOverflow        = aurora.ConstError("gas uint64 overflow")
	errInvalidCode            = aurora.ConstError("invalid code")
	errInvalidJump            = aurora.ConstError("invalid jump destination")
	errInvalidOpCode          = aurora.ConstError("invalid instruction")
	errInvalidRevision        = aurora.ConstError("instruction not available in revision")
	errInitCodeTooLarge       = aurora.ConstError("init code larger than allowed")
	errOutOfGas               = aurora.ConstError("out of gas")
	errOverflow               = aurora.ConstError("operand overflow")
	errReturnDataOutOfBounds  = aurora.ConstError("return data out of bounds")
	errStackOverflow          = aurora.ConstError("stack overflow")
	errStackUnderflow         = aurora.ConstError("stack underflow")
	errStaticContextViolation = aurora.ConstError("static context violation")
)

// exitReasonFor maps a frame-local fault to the ExitReason reported to the
// host. Unknown faults map to the generic error reason.
func exitReasonFor(err error) aurora.ExitReason {
	switch err {
	case errOutOfGas, errGasUintOverflow, errOverflow:
		return aurora.ExitOutOfGas
	case errStackOverflow:
		return aurora.ExitStackOverflow
	case errStackUnderflow:
		return aurora.ExitStackUnderflow
	case errInvalidJump:
		return aurora.ExitInvalidJump
	case errInvalidOpCode, errInvalidRevision:
		return aurora.ExitInvalidOpCode
	case errStaticContextViolation:
		return aurora.ExitWriteProtection
	case errReturnDataOutOfBounds:
		return aurora.ExitReturnDataOutOfBounds
	case errInvalidCode:
		return aurora.ExitInvalidCode
	case errInitCodeTooLarge:
		return aurora.ExitCreateContractLimit
	}
	return aurora.ExitError
}
