// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package aurora

import "math"

// GetStorageStatus obtains the status code to be returned by
// RunContext implementation when mutating a storage slot with
// the given original (=committed), current, and new value.
func GetStorageStatus(original, current, new Word) StorageStatus {
	var zero = Word{}

	if current == new {
		return StorageAssigned
	}

	// 0 -> 0 -> Z
	if original == zero && current == zero && new != zero {
		return StorageAdded
	}

	// X -> X -> 0
	if original != zero && current == original && new == zero {
		return StorageDeleted
	}

	// X -> X -> Z
	if original != zero && current == original && new != zero && new != original {
		return StorageModified
	}

	// X -> 0 -> Z
	if original != zero && current == zero && new != original && new != zero {
		return StorageDeletedAdded
	}

	// X -> Y -> 0
	if original != zero && current != original && current != zero && new == zero {
		return StorageModifiedDeleted
	}

	// X -> 0 -> X
	if original != zero && current == zero && new == original {
		return StorageDeletedRestored
	}

	// 0 -> Y -> 0
	if original == zero && current != zero && new == zero {
		return StorageAddedDeleted
	}

	// X -> Y -> X
	if original != zero && current != original && current != zero && new == original {
		return StorageModifiedRestored
	}

	// Default
	return StorageAssigned
}

// SizeInWords returns the number of words required to store the given size,
// checking that size+31 does not overflow uint64.
func SizeInWords(size uint64) uint64 {
	if size > math.MaxUint64-31 {
		return math.MaxUint64/32 + 1
	}
	return (size + 31) / 32
}

// DelegationPrefix is the 3-byte marker introducing an EIP-7702 delegation
// designator. A delegated account's code is the prefix followed by the
// 20-byte address of the delegation target.
var DelegationPrefix = []byte{0xef, 0x01, 0x00}

// ParseDelegation extracts the delegation target from the given code if it
// is a well-formed EIP-7702 delegation designator.
func ParseDelegation(code Code) (Address, bool) {
	if len(code) != len(DelegationPrefix)+20 {
		return Address{}, false
	}
	for i, b := range DelegationPrefix {
		if code[i] != b {
			return Address{}, false
		}
	}
	var addr Address
	copy(addr[:], code[len(DelegationPrefix):])
	return addr, true
}

// AddressToDelegation produces the delegation designator code pointing at
// the given address.
func AddressToDelegation(addr Address) Code {
	code := make(Code, 0, len(DelegationPrefix)+20)
	code = append(code, DelegationPrefix...)
	return append(code, addr[:]...)
}
