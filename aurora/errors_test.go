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

import (
	"errors"
	"testing"
)

func TestConstError_Error(t *testing.T) {
	const myError = ConstError("this is a constant error")

	if myError.Error() != "this is a constant error" {
		t.Errorf("expected 'this is a constant error', got '%s'", myError.Error())
	}

	if !errors.Is(myError, ConstError("this is a constant error")) {
		t.Errorf("expected true, got false")
	}
}

func TestExitReason_Classification(t *testing.T) {
	tests := map[string]struct {
		reason    ExitReason
		succeeded bool
		fault     bool
	}{
		"stopped":         {ExitStopped, true, false},
		"returned":        {ExitReturned, true, false},
		"self_destructed": {ExitSelfDestructed, true, false},
		"reverted":        {ExitReverted, false, false},
		"out_of_gas":      {ExitOutOfGas, false, true},
		"stack_overflow":  {ExitStackOverflow, false, true},
		"invalid_jump":    {ExitInvalidJump, false, true},
		"max_nonce":       {ExitMaxNonce, false, true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := test.reason.Succeeded(); got != test.succeeded {
				t.Errorf("Succeeded() = %t, want %t", got, test.succeeded)
			}
			if got := test.reason.IsFault(); got != test.fault {
				t.Errorf("IsFault() = %t, want %t", got, test.fault)
			}
		})
	}
}

func TestExitReason_AllReasonsHaveNames(t *testing.T) {
	for reason := ExitStopped; reason <= ExitError; reason++ {
		if reason.String() == "unknown" {
			t.Errorf("missing name for exit reason %d", reason)
		}
	}
}
