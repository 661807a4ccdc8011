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
	"math"

	"github.com/aurora-is-near/aurora-evm/aurora"
	"github.com/holiman/uint256"
)

// Memory is the byte-addressable scratch space of a single frame. Its length
// is always a multiple of 32 bytes and never shrinks during the frame's
// lifetime. Every growth is charged its quadratic expansion fee before the
// backing store is extended.
type Memory struct {
	store             []byte
	currentMemoryCost aurora.Gas
}

func NewMemory() *Memory {
	return &Memory{}
}

// maxMemoryExpansionSize bounds memory growth such that the expansion cost
// computation cannot overflow int64.
const maxMemoryExpansionSize = 0x1FFFFFFFE0

func toValidMemorySize(size uint64) uint64 {
	fullWordsSize := aurora.SizeInWords(size) * 32
	if size != 0 && fullWordsSize < size {
		return math.MaxUint64
	}
	return fullWordsSize
}

func (m *Memory) length() uint64 {
	return uint64(len(m.store))
}

// getExpansionCosts computes the fee for growing the memory to cover size
// bytes. The fee is the difference between the total cost of the new word
// count (3*w + w*w/512) and the already paid total.
func (m *Memory) getExpansionCosts(size uint64) aurora.Gas {
	if m.length() >= size {
		return 0
	}
	size = toValidMemorySize(size)
	if size > maxMemoryExpansionSize {
		return aurora.Gas(math.MaxInt64)
	}
	words := aurora.SizeInWords(size)
	newCosts := aurora.Gas((words*words)/512 + 3*words)
	return newCosts - m.currentMemoryCost
}

// expandMemory grows the memory to cover [offset, offset+size), charging the
// expansion fee to the given context. A zero size never expands, independent
// of the offset.
func (m *Memory) expandMemory(offset, size uint64, c *context) error {
	if size == 0 {
		return nil
	}
	needed := offset + size
	if needed < offset { // overflow
		return errGasUintOverflow
	}
	if m.length() < needed {
		fee := m.getExpansionCosts(needed)
		if err := c.useGas(fee); err != nil {
			return err
		}
		needed = toValidMemorySize(needed)
		m.currentMemoryCost += fee
		m.store = append(m.store, make([]byte, needed-m.length())...)
	}
	return nil
}

// getSlice obtains a slice of size bytes from the memory at the given offset,
// expanding (and charging) as needed. The returned slice aliases the memory's
// internal store; it is invalidated by any subsequent growth.
func (m *Memory) getSlice(offset, size uint64, c *context) ([]byte, error) {
	if err := m.expandMemory(offset, size, c); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	return m.store[offset : offset+size], nil
}

// readWord reads a 32-byte word at the given offset into target, expanding
// and charging as needed.
func (m *Memory) readWord(offset uint64, target *uint256.Int, c *context) error {
	data, err := m.getSlice(offset, 32, c)
	if err != nil {
		return err
	}
	target.SetBytes32(data)
	return nil
}

// set writes the given bytes at offset, expanding and charging as needed.
func (m *Memory) set(offset uint64, value []byte, c *context) error {
	data, err := m.getSlice(offset, uint64(len(value)), c)
	if err != nil {
		return err
	}
	copy(data, value)
	return nil
}

// copyData copies memory content starting at offset into the target slice,
// zero-padding reads past the current memory size. It never expands.
func (m *Memory) copyData(offset uint64, target []byte) {
	if m.length() < offset {
		clear(target)
		return
	}
	covered := copy(target, m.store[offset:])
	clear(target[covered:])
}
