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

import (
	"github.com/aurora-is-near/aurora-evm/aurora"

	// geth dependencies
	"github.com/ethereum/go-ethereum/crypto"
)

var emptyCodeHash = aurora.Hash(crypto.Keccak256(nil))

func keccak256(data []byte) aurora.Hash {
	return aurora.Hash(crypto.Keccak256(data))
}

// memoryAccount is the in-memory representation of a single account.
type memoryAccount struct {
	balance aurora.Value
	nonce   uint64
	code    aurora.Code
	storage map[aurora.Key]aurora.Word
}

// MemoryBackend is a trivial in-memory Backend implementation used by tests
// and the command line driver. It is not safe for concurrent use.
type MemoryBackend struct {
	accounts    map[aurora.Address]*memoryAccount
	blockHashes map[int64]aurora.Hash
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		accounts:    map[aurora.Address]*memoryAccount{},
		blockHashes: map[int64]aurora.Hash{},
	}
}

func (b *MemoryBackend) account(addr aurora.Address) *memoryAccount {
	if account, found := b.accounts[addr]; found {
		return account
	}
	account := &memoryAccount{storage: map[aurora.Key]aurora.Word{}}
	b.accounts[addr] = account
	return account
}

func (b *MemoryBackend) AccountExists(addr aurora.Address) bool {
	_, found := b.accounts[addr]
	return found
}

func (b *MemoryBackend) GetBalance(addr aurora.Address) aurora.Value {
	if account, found := b.accounts[addr]; found {
		return account.balance
	}
	return aurora.Value{}
}

func (b *MemoryBackend) GetNonce(addr aurora.Address) uint64 {
	if account, found := b.accounts[addr]; found {
		return account.nonce
	}
	return 0
}

func (b *MemoryBackend) GetCode(addr aurora.Address) aurora.Code {
	if account, found := b.accounts[addr]; found {
		return account.code
	}
	return nil
}

func (b *MemoryBackend) GetCodeHash(addr aurora.Address) aurora.Hash {
	if account, found := b.accounts[addr]; found && len(account.code) > 0 {
		return keccak256(account.code)
	}
	if b.AccountExists(addr) {
		return emptyCodeHash
	}
	return aurora.Hash{}
}

func (b *MemoryBackend) GetStorage(addr aurora.Address, key aurora.Key) aurora.Word {
	if account, found := b.accounts[addr]; found {
		return account.storage[key]
	}
	return aurora.Word{}
}

func (b *MemoryBackend) GetBlockHash(number int64) aurora.Hash {
	return b.blockHashes[number]
}

// --- mutators used for test and driver setup ---

func (b *MemoryBackend) SetBalance(addr aurora.Address, balance aurora.Value) {
	b.account(addr).balance = balance
}

func (b *MemoryBackend) SetNonce(addr aurora.Address, nonce uint64) {
	b.account(addr).nonce = nonce
}

func (b *MemoryBackend) SetCode(addr aurora.Address, code aurora.Code) {
	b.account(addr).code = code
}

func (b *MemoryBackend) SetStorage(addr aurora.Address, key aurora.Key, value aurora.Word) {
	b.account(addr).storage[key] = value
}

func (b *MemoryBackend) SetBlockHash(number int64, hash aurora.Hash) {
	b.blockHashes[number] = hash
}

// ApplyDiff commits the given state diff into the backend, making the next
// transaction observe the modified state.
func (b *MemoryBackend) ApplyDiff(diff StateDiff) {
	for addr, account := range diff {
		if account.Deleted {
			delete(b.accounts, addr)
			continue
		}
		trg := b.account(addr)
		if account.Balance != nil {
			trg.balance = *account.Balance
		}
		if account.Nonce != nil {
			trg.nonce = *account.Nonce
		}
		if account.Code != nil {
			trg.code = account.Code
		}
		for key, value := range account.Storage {
			trg.storage[key] = value
		}
	}
}
