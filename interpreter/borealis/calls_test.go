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
	"testing"

	"github.com/aurora-is-near/aurora-evm/aurora"
	"github.com/holiman/uint256"
	"go.uber.org/mock/gomock"
)

// pushCallArguments prepares the stack for a CALL/CALLCODE instruction.
func pushCallArguments(c *context, gas uint64, target aurora.Address, value uint64) {
	c.stack.push(uint256.NewInt(0)) // retSize
	c.stack.push(uint256.NewInt(0)) // retOffset
	c.stack.push(uint256.NewInt(0)) // inSize
	c.stack.push(uint256.NewInt(0)) // inOffset
	c.stack.push(uint256.NewInt(value))
	c.stack.push(new(uint256.Int).SetBytes20(target[:]))
	c.stack.push(uint256.NewInt(gas))
}

func TestCalls_ForwardedGasIsCappedAt63Of64(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := aurora.NewMockRunContext(ctrl)

	target := aurora.Address{0x42}

	c := newTestContext(aurora.R14_Prague, 1000)
	c.context = runContext

	runContext.EXPECT().AccessAccount(target).Return(aurora.WarmAccess)
	runContext.EXPECT().AccountExists(target).Return(true)

	var forwarded aurora.Gas
	runContext.EXPECT().Call(aurora.Call, gomock.Any()).DoAndReturn(
		func(_ aurora.CallKind, params aurora.CallParameters) (aurora.CallResult, error) {
			forwarded = params.Gas
			return aurora.CallResult{Success: true, GasLeft: 300}, nil
		})

	// request far more gas than available
	pushCallArguments(c, 1<<40, target, 0)
	if err := genericCall(c, aurora.Call); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 1000 - 100 warm access = 900 available, 63/64 of that is forwarded
	if want := aurora.Gas(900 - 900/64); forwarded != want {
		t.Errorf("forwarded %d gas, want %d", forwarded, want)
	}
	// the remainder plus the callee's leftover is available again
	if want := aurora.Gas(900/64 + 300); c.gas != want {
		t.Errorf("caller gas is %d, want %d", c.gas, want)
	}
	if got := c.stack.peek().Uint64(); got != 1 {
		t.Errorf("successful call must push 1, got %d", got)
	}
}

func TestCalls_ValueTransferAddsSurchargeAndStipend(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := aurora.NewMockRunContext(ctrl)

	target := aurora.Address{0x42}
	recipient := aurora.Address{0x01}

	c := newTestContext(aurora.R14_Prague, 20_000)
	c.params.Recipient = recipient
	c.context = runContext

	runContext.EXPECT().AccessAccount(target).Return(aurora.WarmAccess)
	runContext.EXPECT().AccountExists(target).Return(true)
	runContext.EXPECT().GetBalance(recipient).Return(aurora.NewValue(1000))

	var forwarded aurora.Gas
	runContext.EXPECT().Call(aurora.Call, gomock.Any()).DoAndReturn(
		func(_ aurora.CallKind, params aurora.CallParameters) (aurora.CallResult, error) {
			forwarded = params.Gas
			if params.Value != aurora.NewValue(5) {
				t.Errorf("unexpected transferred value %v", params.Value)
			}
			return aurora.CallResult{Success: true}, nil
		})

	pushCallArguments(c, 1<<40, target, 5)
	if err := genericCall(c, aurora.Call); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// available: 20000 - 100 (warm) - 9000 (value) = 10900; forwarded is
	// 63/64 of that plus the 2300 stipend
	if want := aurora.Gas(10900-10900/64) + 2300; forwarded != want {
		t.Errorf("forwarded %d gas, want %d", forwarded, want)
	}
}

func TestCalls_NewAccountSurchargeOnlyForValueTransfers(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := aurora.NewMockRunContext(ctrl)

	target := aurora.Address{0x42}
	recipient := aurora.Address{0x01}

	c := newTestContext(aurora.R14_Prague, 50_000)
	c.params.Recipient = recipient
	c.context = runContext

	runContext.EXPECT().AccessAccount(target).Return(aurora.WarmAccess)
	runContext.EXPECT().AccountExists(target).Return(false)
	runContext.EXPECT().GetBalance(recipient).Return(aurora.NewValue(1000))

	var forwarded aurora.Gas
	runContext.EXPECT().Call(aurora.Call, gomock.Any()).DoAndReturn(
		func(_ aurora.CallKind, params aurora.CallParameters) (aurora.CallResult, error) {
			forwarded = params.Gas
			return aurora.CallResult{Success: true}, nil
		})

	pushCallArguments(c, 1<<40, target, 5)
	if err := genericCall(c, aurora.Call); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// available: 50000 - 100 - 9000 - 25000 (new account) = 15900
	if want := aurora.Gas(15900-15900/64) + 2300; forwarded != want {
		t.Errorf("forwarded %d gas, want %d", forwarded, want)
	}
}

func TestCalls_InsufficientBalancePushesZeroWithoutCalling(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := aurora.NewMockRunContext(ctrl)

	target := aurora.Address{0x42}
	recipient := aurora.Address{0x01}

	c := newTestContext(aurora.R14_Prague, 20_000)
	c.params.Recipient = recipient
	c.context = runContext

	runContext.EXPECT().AccessAccount(target).Return(aurora.WarmAccess)
	runContext.EXPECT().AccountExists(target).Return(true)
	runContext.EXPECT().GetBalance(recipient).Return(aurora.NewValue(1))

	pushCallArguments(c, 1<<40, target, 5)
	if err := genericCall(c, aurora.Call); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := c.stack.peek().Uint64(); got != 0 {
		t.Errorf("call without funds must push 0, got %d", got)
	}
}

func TestCalls_DelegateCallKeepsSenderAndValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := aurora.NewMockRunContext(ctrl)

	target := aurora.Address{0x42}
	sender := aurora.Address{0x11}
	recipient := aurora.Address{0x22}

	c := newTestContext(aurora.R14_Prague, 20_000)
	c.params.Sender = sender
	c.params.Recipient = recipient
	c.params.Value = aurora.NewValue(77)
	c.context = runContext

	runContext.EXPECT().AccessAccount(target).Return(aurora.WarmAccess)
	runContext.EXPECT().Call(aurora.DelegateCall, gomock.Any()).DoAndReturn(
		func(_ aurora.CallKind, params aurora.CallParameters) (aurora.CallResult, error) {
			if params.Sender != sender {
				t.Errorf("delegate call changed the sender to %v", params.Sender)
			}
			if params.Recipient != recipient {
				t.Errorf("delegate call changed the recipient to %v", params.Recipient)
			}
			if params.CodeAddress != target {
				t.Errorf("unexpected code address %v", params.CodeAddress)
			}
			if params.Value != aurora.NewValue(77) {
				t.Errorf("delegate call changed the value to %v", params.Value)
			}
			return aurora.CallResult{Success: true}, nil
		})

	// DELEGATECALL takes no value argument
	c.stack.push(uint256.NewInt(0)) // retSize
	c.stack.push(uint256.NewInt(0)) // retOffset
	c.stack.push(uint256.NewInt(0)) // inSize
	c.stack.push(uint256.NewInt(0)) // inOffset
	c.stack.push(new(uint256.Int).SetBytes20(target[:]))
	c.stack.push(uint256.NewInt(5000))

	if err := opDelegateCall(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCalls_StaticCallsWithValueAreRejected(t *testing.T) {
	c := newTestContext(aurora.R14_Prague, 20_000)
	c.params.Static = true
	pushCallArguments(c, 5000, aurora.Address{0x42}, 1)
	if err := opCall(c); err != errStaticContextViolation {
		t.Errorf("expected static violation, got %v", err)
	}
}

func TestCalls_ReturnDataCopyOutOfBoundsFaults(t *testing.T) {
	c := newTestContext(aurora.R14_Prague, 20_000)
	c.returnData = []byte{1, 2, 3, 4, 5}

	c.stack.push(uint256.NewInt(2)) // length
	c.stack.push(uint256.NewInt(4)) // dataOffset -- 4+2 > 5
	c.stack.push(uint256.NewInt(0)) // memOffset

	if err := opReturnDataCopy(c); err != errReturnDataOutOfBounds {
		t.Errorf("expected out-of-bounds fault, got %v", err)
	}
}

func TestCalls_CallsInStaticFramesBecomeStaticCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := aurora.NewMockRunContext(ctrl)

	target := aurora.Address{0x42}

	c := newTestContext(aurora.R14_Prague, 20_000)
	c.params.Static = true
	c.context = runContext

	runContext.EXPECT().AccessAccount(target).Return(aurora.WarmAccess)
	runContext.EXPECT().AccountExists(target).Return(true)
	runContext.EXPECT().Call(aurora.StaticCall, gomock.Any()).Return(aurora.CallResult{Success: true}, nil)

	pushCallArguments(c, 5000, target, 0)
	if err := opCall(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
