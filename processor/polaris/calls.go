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
	"fmt"

	"github.com/aurora-is-near/aurora-evm/aurora"
)

// canTransferValue checks that the sender can afford the transfer and that
// the receiver balance does not overflow. A nil recipient stands for a yet
// unknown creation target.
func canTransferValue(
	context aurora.TransactionContext,
	value aurora.Value,
	sender aurora.Address,
	recipient *aurora.Address,
) bool {
	if value == (aurora.Value{}) {
		return true
	}

	senderBalance := context.GetBalance(sender)
	if senderBalance.Cmp(value) < 0 {
		return false
	}

	if recipient == nil || sender == *recipient {
		return true
	}

	receiverBalance := context.GetBalance(*recipient)
	updatedBalance := aurora.Add(receiverBalance, value)
	if updatedBalance.Cmp(receiverBalance) < 0 || updatedBalance.Cmp(value) < 0 {
		return false
	}

	return true
}

// transferValue moves the given value between the two accounts. Only to be
// called after canTransferValue.
func transferValue(
	context aurora.TransactionContext,
	value aurora.Value,
	sender aurora.Address,
	recipient aurora.Address,
) {
	if value == (aurora.Value{}) {
		return
	}
	if sender == recipient {
		return
	}

	senderBalance := context.GetBalance(sender)
	receiverBalance := context.GetBalance(recipient)

	context.SetBalance(sender, aurora.Sub(senderBalance, value))
	context.SetBalance(recipient, aurora.Add(receiverBalance, value))
}

func incrementNonce(context aurora.TransactionContext, address aurora.Address) error {
	nonce := context.GetNonce(address)
	if nonce+1 < nonce {
		return fmt.Errorf("nonce overflow")
	}
	context.SetNonce(address, nonce+1)
	return nil
}
