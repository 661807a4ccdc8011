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
	"golang.org/x/exp/maps"
)

// StateDB is the transaction-scoped, journaled view of the world state. It
// implements aurora.TransactionContext by buffering all mutations of a
// transaction in write-through caches over a read-only Backend.
//
// A StateDB instance covers exactly one transaction: warm sets, transient
// storage, logs, and the created/destructed bookkeeping are transaction
// state and are discarded with the instance.
//
// Snapshots are cursors into a flat journal of reversible records; restoring
// a snapshot undoes all records made since it was taken.
type StateDB struct {
	backend Backend
	cfg     *aurora.RevisionConfig

	journal journal

	balances map[aurora.Address]aurora.Value
	nonces   map[aurora.Address]uint64
	codes    map[aurora.Address]aurora.Code
	storage  map[slotId]aurora.Word

	transient map[slotId]aurora.Word

	warmAccounts map[aurora.Address]struct{}
	warmSlots    map[slotId]struct{}

	logs []aurora.Log

	created           map[aurora.Address]struct{}
	touched           map[aurora.Address]struct{}
	destructRequested map[aurora.Address]struct{}
	destructed        map[aurora.Address]struct{}
}

// NewStateDB creates a transaction context over the given backend, applying
// the state-handling rules of the given revision.
func NewStateDB(backend Backend, revision aurora.Revision) *StateDB {
	return &StateDB{
		backend:           backend,
		cfg:               aurora.GetRevisionConfig(revision),
		balances:          map[aurora.Address]aurora.Value{},
		nonces:            map[aurora.Address]uint64{},
		codes:             map[aurora.Address]aurora.Code{},
		storage:           map[slotId]aurora.Word{},
		transient:         map[slotId]aurora.Word{},
		warmAccounts:      map[aurora.Address]struct{}{},
		warmSlots:         map[slotId]struct{}{},
		created:           map[aurora.Address]struct{}{},
		touched:           map[aurora.Address]struct{}{},
		destructRequested: map[aurora.Address]struct{}{},
		destructed:        map[aurora.Address]struct{}{},
	}
}

// --- WorldState ---

func (s *StateDB) AccountExists(addr aurora.Address) bool {
	if s.cfg.EmptyConsideredExists {
		if _, found := s.created[addr]; found {
			return true
		}
		if _, found := s.destructed[addr]; found {
			return false
		}
		return s.backend.AccountExists(addr)
	}
	// Since EIP-161, empty accounts are treated as non-existing.
	return s.GetBalance(addr) != (aurora.Value{}) ||
		s.GetNonce(addr) != 0 ||
		s.GetCodeSize(addr) > 0
}

func (s *StateDB) GetBalance(addr aurora.Address) aurora.Value {
	if balance, found := s.balances[addr]; found {
		return balance
	}
	if _, found := s.destructed[addr]; found {
		return aurora.Value{}
	}
	return s.backend.GetBalance(addr)
}

func (s *StateDB) SetBalance(addr aurora.Address, balance aurora.Value) {
	prev, had := s.balances[addr]
	s.journal = append(s.journal, balanceChange{addr: addr, prev: prev, had: had})
	s.balances[addr] = balance
	s.touch(addr)
}

func (s *StateDB) GetNonce(addr aurora.Address) uint64 {
	if nonce, found := s.nonces[addr]; found {
		return nonce
	}
	if _, found := s.destructed[addr]; found {
		return 0
	}
	return s.backend.GetNonce(addr)
}

func (s *StateDB) SetNonce(addr aurora.Address, nonce uint64) {
	prev, had := s.nonces[addr]
	s.journal = append(s.journal, nonceChange{addr: addr, prev: prev, had: had})
	s.nonces[addr] = nonce
}

func (s *StateDB) GetCode(addr aurora.Address) aurora.Code {
	if code, found := s.codes[addr]; found {
		return code
	}
	if _, found := s.destructed[addr]; found {
		return nil
	}
	return s.backend.GetCode(addr)
}

func (s *StateDB) GetCodeHash(addr aurora.Address) aurora.Hash {
	if code, found := s.codes[addr]; found {
		return keccak256(code)
	}
	if _, found := s.destructed[addr]; found {
		return emptyCodeHash
	}
	return s.backend.GetCodeHash(addr)
}

func (s *StateDB) GetCodeSize(addr aurora.Address) int {
	return len(s.GetCode(addr))
}

func (s *StateDB) SetCode(addr aurora.Address, code aurora.Code) {
	prev, had := s.codes[addr]
	s.journal = append(s.journal, codeChange{addr: addr, prev: prev, had: had})
	s.codes[addr] = code
}

func (s *StateDB) GetStorage(addr aurora.Address, key aurora.Key) aurora.Word {
	slot := slotId{addr, key}
	if value, found := s.storage[slot]; found {
		return value
	}
	if _, found := s.destructed[addr]; found {
		return aurora.Word{}
	}
	return s.backend.GetStorage(addr, key)
}

// GetCommittedStorage returns the value the slot held at the beginning of
// the transaction. Since all writes are buffered, this is the backend value,
// unless the account was destructed or created within this transaction, in
// which case it is zero.
func (s *StateDB) GetCommittedStorage(addr aurora.Address, key aurora.Key) aurora.Word {
	if _, found := s.destructed[addr]; found {
		return aurora.Word{}
	}
	if _, found := s.created[addr]; found {
		return aurora.Word{}
	}
	return s.backend.GetStorage(addr, key)
}

func (s *StateDB) SetStorage(addr aurora.Address, key aurora.Key, value aurora.Word) aurora.StorageStatus {
	slot := slotId{addr, key}
	current := s.GetStorage(addr, key)
	original := s.GetCommittedStorage(addr, key)

	prev, had := s.storage[slot]
	s.journal = append(s.journal, storageChange{slot: slot, prev: prev, had: had})
	s.storage[slot] = value

	return aurora.GetStorageStatus(original, current, value)
}

// SelfDestruct transfers the account's balance to the beneficiary and, if
// the active revision permits it, marks the account for removal at the end
// of the transaction. Since EIP-6780 only accounts created in the same
// transaction are removed. The return value indicates whether this is the
// first destruction request for the account in this transaction.
func (s *StateDB) SelfDestruct(addr aurora.Address, beneficiary aurora.Address) bool {
	_, requested := s.destructRequested[addr]

	balance := s.GetBalance(addr)
	destroying := !s.cfg.HasRestrictedSelfdestruct || s.wasCreated(addr)
	if addr != beneficiary {
		s.SetBalance(beneficiary, aurora.Add(s.GetBalance(beneficiary), balance))
		s.SetBalance(addr, aurora.Value{})
	} else if destroying {
		// Funds sent to the destroyed account itself are burned.
		s.SetBalance(addr, aurora.Value{})
	}

	if !requested {
		s.destructRequested[addr] = struct{}{}
		if destroying {
			s.destructed[addr] = struct{}{}
		}
		s.journal = append(s.journal, destructRequested{addr: addr, destroyed: destroying})
	}
	return !requested
}

// --- TransactionContext ---

func (s *StateDB) CreateSnapshot() aurora.Snapshot {
	return aurora.Snapshot(len(s.journal))
}

func (s *StateDB) RestoreSnapshot(snapshot aurora.Snapshot) {
	for len(s.journal) > int(snapshot) {
		entry := s.journal[len(s.journal)-1]
		s.journal = s.journal[:len(s.journal)-1]
		entry.revert(s)
	}
}

func (s *StateDB) GetTransientStorage(addr aurora.Address, key aurora.Key) aurora.Word {
	return s.transient[slotId{addr, key}]
}

func (s *StateDB) SetTransientStorage(addr aurora.Address, key aurora.Key, value aurora.Word) {
	slot := slotId{addr, key}
	prev, had := s.transient[slot]
	s.journal = append(s.journal, transientChange{slot: slot, prev: prev, had: had})
	s.transient[slot] = value
}

func (s *StateDB) AccessAccount(addr aurora.Address) aurora.AccessStatus {
	if _, found := s.warmAccounts[addr]; found {
		return aurora.WarmAccess
	}
	s.warmAccounts[addr] = struct{}{}
	s.journal = append(s.journal, accountAccess{addr: addr})
	return aurora.ColdAccess
}

func (s *StateDB) AccessStorage(addr aurora.Address, key aurora.Key) aurora.AccessStatus {
	slot := slotId{addr, key}
	if _, found := s.warmSlots[slot]; found {
		return aurora.WarmAccess
	}
	s.warmSlots[slot] = struct{}{}
	s.journal = append(s.journal, slotAccess{slot: slot})
	return aurora.ColdAccess
}

func (s *StateDB) IsAddressInAccessList(addr aurora.Address) bool {
	_, found := s.warmAccounts[addr]
	return found
}

func (s *StateDB) IsSlotInAccessList(addr aurora.Address, key aurora.Key) (addressPresent, slotPresent bool) {
	_, addressPresent = s.warmAccounts[addr]
	_, slotPresent = s.warmSlots[slotId{addr, key}]
	return addressPresent, slotPresent
}

func (s *StateDB) HasSelfDestructed(addr aurora.Address) bool {
	_, found := s.destructRequested[addr]
	return found
}

func (s *StateDB) MarkAccountCreated(addr aurora.Address) {
	if _, found := s.created[addr]; found {
		return
	}
	s.created[addr] = struct{}{}
	s.journal = append(s.journal, accountCreated{addr: addr})
}

func (s *StateDB) WasCreatedInCurrentTransaction(addr aurora.Address) bool {
	return s.wasCreated(addr)
}

func (s *StateDB) EmitLog(log aurora.Log) {
	s.journal = append(s.journal, logEmitted{})
	s.logs = append(s.logs, log)
}

func (s *StateDB) GetLogs() []aurora.Log {
	res := make([]aurora.Log, len(s.logs))
	copy(res, s.logs)
	return res
}

func (s *StateDB) GetBlockHash(number int64) aurora.Hash {
	return s.backend.GetBlockHash(number)
}

// --- Host interface ---

// GetStateDiff extracts the accumulated state modifications of the
// transaction for the host to commit. Accounts destroyed by SELFDESTRUCT
// are reported as deleted; empty touched accounts are dropped under the
// EIP-161 rules of the active revision.
func (s *StateDB) GetStateDiff() StateDiff {
	diff := StateDiff{}
	account := func(addr aurora.Address) *AccountDiff {
		if acc, found := diff[addr]; found {
			return acc
		}
		acc := &AccountDiff{}
		diff[addr] = acc
		return acc
	}

	for addr, balance := range s.balances {
		balance := balance
		account(addr).Balance = &balance
	}
	for addr, nonce := range s.nonces {
		nonce := nonce
		account(addr).Nonce = &nonce
	}
	for addr, code := range s.codes {
		account(addr).Code = code
	}
	for slot, value := range s.storage {
		acc := account(slot.addr)
		if acc.Storage == nil {
			acc.Storage = map[aurora.Key]aurora.Word{}
		}
		acc.Storage[slot.key] = value
	}

	for addr := range s.destructed {
		diff[addr] = &AccountDiff{Deleted: true}
	}

	if !s.cfg.EmptyConsideredExists {
		for addr := range s.touched {
			if _, found := s.destructed[addr]; found {
				continue
			}
			if s.isEmpty(addr) {
				diff[addr] = &AccountDiff{Deleted: true}
			}
		}
	}

	return diff
}

// GetTouchedAddresses lists all accounts whose state was modified by the
// ongoing transaction, in no particular order.
func (s *StateDB) GetTouchedAddresses() []aurora.Address {
	return maps.Keys(s.touched)
}

// --- internal ---

func (s *StateDB) touch(addr aurora.Address) {
	if _, found := s.touched[addr]; found {
		return
	}
	s.touched[addr] = struct{}{}
	s.journal = append(s.journal, accountTouched{addr: addr})
}

func (s *StateDB) wasCreated(addr aurora.Address) bool {
	_, found := s.created[addr]
	return found
}

func (s *StateDB) isEmpty(addr aurora.Address) bool {
	return s.GetBalance(addr) == (aurora.Value{}) &&
		s.GetNonce(addr) == 0 &&
		s.GetCodeSize(addr) == 0
}
