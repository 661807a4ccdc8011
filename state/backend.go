// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import "github.com/aurora-is-near/aurora-evm/aurora"

// Backend is the narrow read-only port to the world state backing a
// transaction execution. All mutations of a transaction are buffered in a
// StateDB and only surface as a StateDiff; a Backend is never written to.
//
// A Backend must present an immutable snapshot for the duration of a
// transaction; the engine caches reads and assumes repeatable results.
type Backend interface {
	AccountExists(aurora.Address) bool
	GetBalance(aurora.Address) aurora.Value
	GetNonce(aurora.Address) uint64
	GetCode(aurora.Address) aurora.Code
	GetCodeHash(aurora.Address) aurora.Hash
	GetStorage(aurora.Address, aurora.Key) aurora.Word
	GetBlockHash(number int64) aurora.Hash
}

// AccountDiff describes the accumulated modifications of a single account
// within a transaction.
type AccountDiff struct {
	Balance *aurora.Value              `json:"balance,omitempty"`
	Nonce   *uint64                    `json:"nonce,omitempty"`
	Code    aurora.Code                `json:"code,omitempty"`
	Storage map[aurora.Key]aurora.Word `json:"storage,omitempty"`
	Deleted bool                       `json:"deleted,omitempty"`
}

// StateDiff is the set of account modifications produced by a transaction,
// to be committed or discarded by the host.
type StateDiff map[aurora.Address]*AccountDiff
