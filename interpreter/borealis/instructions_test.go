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

// newTestContext creates an execution context for direct instruction tests.
func newTestContext(revision aurora.Revision, gas aurora.Gas) *context {
	return &context{
		params: aurora.Parameters{
			BlockParameters: aurora.BlockParameters{Revision: revision},
		},
		cfg:    aurora.GetRevisionConfig(revision),
		gas:    gas,
		stack:  &stack{},
		memory: NewMemory(),
	}
}

func fromHexWord(t *testing.T, hex string) *uint256.Int {
	t.Helper()
	value, err := uint256.FromHex(hex)
	if err != nil {
		t.Fatalf("invalid test constant %s: %v", hex, err)
	}
	return value
}

func TestInstructions_ArithmeticEdgeCases(t *testing.T) {
	intMin := "0x8000000000000000000000000000000000000000000000000000000000000000"
	allOnes := "0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"

	tests := map[string]struct {
		op     func(*context)
		stack  []string // bottom to top
		want   string
	}{
		"div_by_zero_is_zero":    {opDiv, []string{"0x0", "0x10"}, "0x0"},
		"mod_by_zero_is_zero":    {opMod, []string{"0x0", "0x10"}, "0x0"},
		"sdiv_min_by_minus_one":  {opSDiv, []string{allOnes, intMin}, intMin},
		"sdiv_by_zero_is_zero":   {opSDiv, []string{"0x0", intMin}, "0x0"},
		"smod_sign_follows_dividend": {
			// -8 smod 3 == -2
			opSMod,
			[]string{"0x3", "0xfffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff8"},
			"0xfffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffe",
		},
		"addmod_mod_zero_is_zero": {
			func(c *context) { opAddMod(c) },
			[]string{"0x0", "0x5", "0x7"},
			"0x0",
		},
		"mulmod_uses_full_width": {
			// (2^255 * 2) mod 7 computed over the 512-bit intermediate
			func(c *context) { opMulMod(c) },
			[]string{"0x7", "0x2", intMin},
			"0x2",
		},
		"signextend_large_index_is_identity": {
			opSignExtend,
			[]string{"0x1234", "0x1f"},
			"0x1234",
		},
		"signextend_byte_zero": {
			opSignExtend,
			[]string{"0xff", "0x0"},
			allOnes,
		},
		"byte_out_of_range_is_zero": {
			opByte,
			[]string{"0x12", "0x20"},
			"0x0",
		},
		"add_wraps_around": {
			opAdd,
			[]string{"0x1", allOnes},
			"0x0",
		},
		"sub_wraps_around": {
			opSub,
			[]string{"0x1", "0x0"},
			allOnes,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestContext(aurora.R14_Prague, 1000)
			for _, value := range test.stack {
				c.stack.push(fromHexWord(t, value))
			}
			test.op(c)
			if want, got := fromHexWord(t, test.want), c.stack.peek(); !want.Eq(got) {
				t.Errorf("unexpected result, wanted %s, got %s", want.Hex(), got.Hex())
			}
		})
	}
}

func TestInstructions_ShiftEdgeCases(t *testing.T) {
	allOnes := "0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"

	tests := map[string]struct {
		op    func(*context) error
		stack []string // bottom to top
		want  string
	}{
		"shl_by_256_clears":        {opShl, []string{"0x1", "0x100"}, "0x0"},
		"shr_by_256_clears":        {opShr, []string{allOnes, "0x100"}, "0x0"},
		"shl_simple":               {opShl, []string{"0x1", "0x4"}, "0x10"},
		"sar_negative_saturates":   {opSar, []string{allOnes, "0x101"}, allOnes},
		"sar_positive_clears":      {opSar, []string{"0x10", "0x101"}, "0x0"},
		"sar_preserves_sign":       {opSar, []string{allOnes, "0x4"}, allOnes},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestContext(aurora.R14_Prague, 1000)
			for _, value := range test.stack {
				c.stack.push(fromHexWord(t, value))
			}
			if err := test.op(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want, got := fromHexWord(t, test.want), c.stack.peek(); !want.Eq(got) {
				t.Errorf("unexpected result, wanted %s, got %s", want.Hex(), got.Hex())
			}
		})
	}
}

func TestInstructions_ShiftsRequireConstantinople(t *testing.T) {
	c := newTestContext(aurora.R04_Byzantium, 1000)
	c.stack.push(uint256.NewInt(1))
	c.stack.push(uint256.NewInt(1))
	if err := opShl(c); err != errInvalidOpCode {
		t.Errorf("expected SHL to be invalid in Byzantium, got %v", err)
	}
}

func TestInstructions_ExpChargesPerExponentByte(t *testing.T) {
	tests := map[string]struct {
		exponent string
		revision aurora.Revision
		want     aurora.Gas
	}{
		"zero_exponent_is_free":    {"0x0", aurora.R14_Prague, 0},
		"one_byte":                 {"0xff", aurora.R14_Prague, 50},
		"two_bytes":                {"0x100", aurora.R14_Prague, 100},
		"full_word":                {"0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff", aurora.R14_Prague, 32 * 50},
		"frontier_charges_10":      {"0xff", aurora.R00_Frontier, 10},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestContext(test.revision, 10000)
			gasBefore := c.gas
			c.stack.push(uint256.NewInt(2))               // base
			c.stack.push(fromHexWord(t, test.exponent))   // exponent
			c.stack.swap(1)                               // order: base on top of exponent
			if err := opExp(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := gasBefore - c.gas; got != test.want {
				t.Errorf("EXP dynamic gas = %d, want %d", got, test.want)
			}
		})
	}
}

func TestInstructions_PushReadsImmediatesWithZeroPadding(t *testing.T) {
	c := newTestContext(aurora.R14_Prague, 1000)
	c.code = []byte{byte(PUSH4), 0xde, 0xad} // truncated immediate
	opPush(c, 4)
	if want, got := fromHexWord(t, "0xdead0000"), c.stack.peek(); !want.Eq(got) {
		t.Errorf("unexpected push result, wanted %s, got %s", want.Hex(), got.Hex())
	}
	if want, got := int32(4), c.pc; want != got {
		t.Errorf("unexpected pc after push, wanted %d, got %d", want, got)
	}
}

func TestInstructions_SloadChargesAccessCosts(t *testing.T) {
	tests := map[string]struct {
		status aurora.AccessStatus
		want   aurora.Gas
	}{
		"cold": {aurora.ColdAccess, 2100},
		"warm": {aurora.WarmAccess, 100},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			runContext := aurora.NewMockRunContext(ctrl)

			addr := aurora.Address{1}
			key := aurora.Key{2}
			value := aurora.Word{3}

			runContext.EXPECT().AccessStorage(addr, key).Return(test.status)
			runContext.EXPECT().GetStorage(addr, key).Return(value)

			c := newTestContext(aurora.R09_Berlin, 10000)
			c.params.Recipient = addr
			c.context = runContext

			gasBefore := c.gas
			c.stack.push(new(uint256.Int).SetBytes32(key[:]))
			if err := opSload(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := gasBefore - c.gas; got != test.want {
				t.Errorf("SLOAD charged %d, want %d", got, test.want)
			}
			if want, got := new(uint256.Int).SetBytes32(value[:]), c.stack.peek(); !want.Eq(got) {
				t.Errorf("unexpected loaded value %s, want %s", got.Hex(), want.Hex())
			}
		})
	}
}

func TestInstructions_SstoreRejectedInStaticFrames(t *testing.T) {
	c := newTestContext(aurora.R14_Prague, 10000)
	c.params.Static = true
	c.stack.push(uint256.NewInt(1))
	c.stack.push(uint256.NewInt(2))
	if err := opSstore(c); err != errStaticContextViolation {
		t.Errorf("expected static violation, got %v", err)
	}
}

func TestInstructions_SstoreEnforcesGasSentry(t *testing.T) {
	c := newTestContext(aurora.R14_Prague, 2300)
	c.stack.push(uint256.NewInt(1))
	c.stack.push(uint256.NewInt(2))
	if err := opSstore(c); err != errOutOfGas {
		t.Errorf("expected sentry violation, got %v", err)
	}
}

func TestInstructions_McopyHandlesOverlappingRegions(t *testing.T) {
	ctrl := gomock.NewController(t)
	runContext := aurora.NewMockRunContext(ctrl)

	c := newTestContext(aurora.R13_Cancun, 10000)
	c.context = runContext

	if err := c.memory.set(0, []byte{1, 2, 3, 4, 5, 6, 7, 8}, c); err != nil {
		t.Fatalf("failed to initialize memory: %v", err)
	}

	// copy [0..6) to [2..8) with forward overlap
	c.stack.push(uint256.NewInt(6)) // size
	c.stack.push(uint256.NewInt(0)) // src
	c.stack.push(uint256.NewInt(2)) // dest
	if err := opMcopy(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []byte{1, 2, 1, 2, 3, 4, 5, 6}
	got, err := c.memory.getSlice(0, 8, c)
	if err != nil {
		t.Fatalf("failed to read memory: %v", err)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("unexpected memory after MCOPY, wanted %x, got %x", want, got)
			break
		}
	}
}
