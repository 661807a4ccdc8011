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

// journalEntry is a single reversible state mutation. Reverting a frame pops
// entries off the journal in reverse order and undoes each of them, making
// frame rollback O(records-since-snapshot).
type journalEntry interface {
	revert(*StateDB)
}

// journal is a flat list of reversible records. Snapshots are plain cursors
// into the list; nested frames do not allocate scopes of their own.
type journal []journalEntry

type slotId struct {
	addr aurora.Address
	key  aurora.Key
}

type (
	balanceChange struct {
		addr aurora.Address
		prev aurora.Value
		had  bool
	}

	nonceChange struct {
		addr aurora.Address
		prev uint64
		had  bool
	}

	codeChange struct {
		addr aurora.Address
		prev aurora.Code
		had  bool
	}

	storageChange struct {
		slot slotId
		prev aurora.Word
		had  bool
	}

	transientChange struct {
		slot slotId
		prev aurora.Word
		had  bool
	}

	accountAccess struct {
		addr aurora.Address
	}

	slotAccess struct {
		slot slotId
	}

	logEmitted struct{}

	destructRequested struct {
		addr      aurora.Address
		destroyed bool // whether the account was effectively marked for removal
	}

	accountCreated struct {
		addr aurora.Address
	}

	accountTouched struct {
		addr aurora.Address
	}
)

func (e balanceChange) revert(s *StateDB) {
	if e.had {
		s.balances[e.addr] = e.prev
	} else {
		delete(s.balances, e.addr)
	}
}

func (e nonceChange) revert(s *StateDB) {
	if e.had {
		s.nonces[e.addr] = e.prev
	} else {
		delete(s.nonces, e.addr)
	}
}

func (e codeChange) revert(s *StateDB) {
	if e.had {
		s.codes[e.addr] = e.prev
	} else {
		delete(s.codes, e.addr)
	}
}

func (e storageChange) revert(s *StateDB) {
	if e.had {
		s.storage[e.slot] = e.prev
	} else {
		delete(s.storage, e.slot)
	}
}

func (e transientChange) revert(s *StateDB) {
	if e.had {
		s.transient[e.slot] = e.prev
	} else {
		delete(s.transient, e.slot)
	}
}

func (e accountAccess) revert(s *StateDB) {
	delete(s.warmAccounts, e.addr)
}

func (e slotAccess) revert(s *StateDB) {
	delete(s.warmSlots, e.slot)
}

func (e logEmitted) revert(s *StateDB) {
	s.logs = s.logs[:len(s.logs)-1]
}

func (e destructRequested) revert(s *StateDB) {
	delete(s.destructRequested, e.addr)
	if e.destroyed {
		delete(s.destructed, e.addr)
	}
}

func (e accountCreated) revert(s *StateDB) {
	delete(s.created, e.addr)
}

func (e accountTouched) revert(s *StateDB) {
	delete(s.touched, e.addr)
}
