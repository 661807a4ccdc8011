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

//go:generate mockgen -source tracing.go -destination tracing_mock.go -package aurora

// Tracer is an optional observation port invoked by interpreters and
// processors at step and frame boundaries. Implementations must not mutate
// any of the provided data. A nil tracer disables all hooks; interpreters
// guard every invocation with a single nil check to keep the hot path free
// of tracing costs when disabled.
type Tracer interface {
	// StepStart is invoked before an instruction is executed.
	StepStart(pc int, op byte, gas Gas, stackSize int, memorySize uint64)

	// StepEnd is invoked after an instruction completed without a fault; it
	// is not invoked for an instruction that faults.
	StepEnd(pc int, gas Gas)

	// FrameEnter is invoked when a new call or create frame is opened.
	FrameEnter(kind CallKind, sender, recipient Address, gas Gas, input Data)

	// FrameExit is invoked when a frame is closed. The output is nil for
	// frames that faulted.
	FrameExit(gasLeft Gas, output Data, success bool)

	// StorageRead is invoked for every SLOAD observing the loaded value.
	StorageRead(addr Address, key Key, value Word)

	// StorageWrite is invoked for every SSTORE with the previous and the
	// newly assigned value.
	StorageWrite(addr Address, key Key, prev, value Word)
}
