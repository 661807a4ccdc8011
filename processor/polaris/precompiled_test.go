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
	"bytes"
	"testing"

	"github.com/aurora-is-near/aurora-evm/aurora"
	"github.com/aurora-is-near/aurora-evm/state"
)

func precompileAddress(index byte) aurora.Address {
	return aurora.Address{19: index}
}

func TestPrecompiled_AvailabilityPerRevision(t *testing.T) {
	tests := []struct {
		address  byte
		revision aurora.Revision
		want     bool
	}{
		{0x01, aurora.R00_Frontier, true},  // ecrecover
		{0x04, aurora.R00_Frontier, true},  // identity
		{0x05, aurora.R00_Frontier, false}, // modexp needs Byzantium
		{0x05, aurora.R04_Byzantium, true},
		{0x08, aurora.R04_Byzantium, true}, // bn256 pairing
		{0x09, aurora.R04_Byzantium, false},
		{0x09, aurora.R07_Istanbul, true}, // blake2f
		{0x0a, aurora.R09_Berlin, false},
		{0x0a, aurora.R13_Cancun, true},  // kzg point evaluation
		{0x0b, aurora.R13_Cancun, false}, // bls12-381 needs Prague
		{0x0b, aurora.R14_Prague, true},
		{0x11, aurora.R14_Prague, true},
		{0x12, aurora.R14_Prague, false},
	}

	for _, test := range tests {
		got := isPrecompiled(precompileAddress(test.address), test.revision)
		if got != test.want {
			t.Errorf("precompile 0x%02x at %v: available=%t, want %t",
				test.address, test.revision, got, test.want)
		}
	}
}

func TestPrecompiled_IdentityEchoesInput(t *testing.T) {
	input := aurora.Data{1, 2, 3, 4, 5}
	result, isPrecompile := handlePrecompiledContract(
		aurora.R14_Prague, input, precompileAddress(0x04), 1000)
	if !isPrecompile {
		t.Fatalf("identity contract not recognized")
	}
	if !result.Success {
		t.Fatalf("identity contract failed")
	}
	if !bytes.Equal(result.Output, input) {
		t.Errorf("unexpected output %x, want %x", result.Output, input)
	}
	// identity costs 15 + 3 per word
	if want := aurora.Gas(1000 - 18); result.GasLeft != want {
		t.Errorf("gas left %d, want %d", result.GasLeft, want)
	}
}

func TestPrecompiled_InsufficientGasConsumesAll(t *testing.T) {
	result, isPrecompile := handlePrecompiledContract(
		aurora.R14_Prague, aurora.Data{1}, precompileAddress(0x04), 1)
	if !isPrecompile {
		t.Fatalf("identity contract not recognized")
	}
	if result.Success || result.GasLeft != 0 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestPrecompiled_Sha256ThroughTransaction(t *testing.T) {
	backend := state.NewMemoryBackend()
	sender := fundedSender(backend)
	target := precompileAddress(0x02)

	receipt, _ := runTransaction(t, backend, aurora.Transaction{
		Sender:    sender,
		Recipient: &target,
		Input:     []byte("aurora"),
		GasLimit:  100_000,
	}, aurora.R14_Prague)

	if !receipt.Success {
		t.Fatalf("precompile call failed: %+v", receipt)
	}
	if len(receipt.Output) != 32 {
		t.Errorf("unexpected digest length %d", len(receipt.Output))
	}
}

func TestPrecompiled_AddressListIsNonEmptyAndStable(t *testing.T) {
	addresses := getPrecompiledAddresses(aurora.R14_Prague)
	if len(addresses) < 17 {
		t.Errorf("Prague must provide at least 17 precompiles, got %d", len(addresses))
	}
	for _, address := range addresses {
		if !isPrecompiled(address, aurora.R14_Prague) {
			t.Errorf("listed address %v is not a precompile", address)
		}
	}
}
