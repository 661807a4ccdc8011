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
	"math/big"
	"testing"

	"github.com/aurora-is-near/aurora-evm/aurora"
	"github.com/aurora-is-near/aurora-evm/state"
	"github.com/ethereum/go-ethereum/crypto"
)

// signAuthorization produces a signed authorization for the account behind
// the given private key seed.
func signAuthorization(
	t *testing.T,
	seed byte,
	chainID aurora.Word,
	target aurora.Address,
	nonce uint64,
) (aurora.SetCodeAuthorization, aurora.Address) {
	t.Helper()

	seedBytes := bytes.Repeat([]byte{seed}, 32)
	key, err := crypto.ToECDSA(seedBytes)
	if err != nil {
		t.Fatalf("failed to derive test key: %v", err)
	}
	authority := aurora.Address(crypto.PubkeyToAddress(key.PublicKey))

	authorization := aurora.SetCodeAuthorization{
		ChainID: chainID,
		Address: target,
		Nonce:   nonce,
	}

	// sign the same payload the recovery path hashes
	unsigned := authorization
	unsigned.R = aurora.Word{}
	unsigned.S = aurora.Word{}
	sigHash, err := authorizationSigningHash(unsigned)
	if err != nil {
		t.Fatalf("failed to compute signing hash: %v", err)
	}
	signature, err := crypto.Sign(sigHash, key)
	if err != nil {
		t.Fatalf("failed to sign authorization: %v", err)
	}

	copy(authorization.R[:], signature[0:32])
	copy(authorization.S[:], signature[32:64])
	authorization.V = signature[64]
	return authorization, authority
}

func TestAuthorizations_RecoverAuthorityRoundTrip(t *testing.T) {
	target := aurora.Address{0x42}
	authorization, authority := signAuthorization(t, 1, aurora.Word{31: 1}, target, 7)

	recovered, err := recoverAuthority(authorization)
	if err != nil {
		t.Fatalf("failed to recover authority: %v", err)
	}
	if recovered != authority {
		t.Errorf("recovered %v, want %v", recovered, authority)
	}
}

func TestAuthorizations_RecoverRejectsMalleableSignatures(t *testing.T) {
	authorization, _ := signAuthorization(t, 1, aurora.Word{}, aurora.Address{0x42}, 0)

	// push S into the upper half of the curve order
	var order aurora.Word
	orderBytes := crypto.S256().Params().N.Bytes()
	copy(order[32-len(orderBytes):], orderBytes)
	s := new(big.Int).Sub(new(big.Int).SetBytes(order[:]), new(big.Int).SetBytes(authorization.S[:]))
	sBytes := s.Bytes()
	authorization.S = aurora.Word{}
	copy(authorization.S[32-len(sBytes):], sBytes)

	if _, err := recoverAuthority(authorization); err == nil {
		t.Errorf("expected high-S signature to be rejected")
	}
}

func TestAuthorizations_ApplyInstallsDelegation(t *testing.T) {
	chainID := aurora.Word{31: 1}
	target := aurora.Address{0x42}
	authorization, authority := signAuthorization(t, 2, chainID, target, 0)

	db := state.NewStateDB(state.NewMemoryBackend(), aurora.R14_Prague)
	cfg := aurora.GetRevisionConfig(aurora.R14_Prague)

	existed := applySetCodeAuthorization(authorization, db, chainID, cfg)
	if existed {
		t.Errorf("fresh authority reported as existing")
	}

	code := db.GetCode(authority)
	delegate, isDelegation := aurora.ParseDelegation(code)
	if !isDelegation || delegate != target {
		t.Errorf("unexpected code %x installed for authority", code)
	}
	if got := db.GetNonce(authority); got != 1 {
		t.Errorf("authority nonce is %d, want 1", got)
	}
	if !db.IsAddressInAccessList(authority) {
		t.Errorf("authority was not warmed")
	}
}

func TestAuthorizations_SkipRules(t *testing.T) {
	chainID := aurora.Word{31: 1}
	otherChain := aurora.Word{31: 9}
	target := aurora.Address{0x42}

	tests := map[string]struct {
		prepare func(*testing.T, *state.StateDB) aurora.SetCodeAuthorization
		applied bool
	}{
		"wrong_chain_id": {
			func(t *testing.T, db *state.StateDB) aurora.SetCodeAuthorization {
				authorization, _ := signAuthorization(t, 3, otherChain, target, 0)
				return authorization
			},
			false,
		},
		"wildcard_chain_id": {
			func(t *testing.T, db *state.StateDB) aurora.SetCodeAuthorization {
				authorization, _ := signAuthorization(t, 3, aurora.Word{}, target, 0)
				return authorization
			},
			true,
		},
		"nonce_mismatch": {
			func(t *testing.T, db *state.StateDB) aurora.SetCodeAuthorization {
				authorization, _ := signAuthorization(t, 3, chainID, target, 5)
				return authorization
			},
			false,
		},
		"authority_with_regular_code": {
			func(t *testing.T, db *state.StateDB) aurora.SetCodeAuthorization {
				authorization, authority := signAuthorization(t, 3, chainID, target, 0)
				db.SetCode(authority, aurora.Code{0x60, 0x00})
				return authorization
			},
			false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			db := state.NewStateDB(state.NewMemoryBackend(), aurora.R14_Prague)
			cfg := aurora.GetRevisionConfig(aurora.R14_Prague)

			authorization := test.prepare(t, db)
			applySetCodeAuthorization(authorization, db, chainID, cfg)

			recovered, err := recoverAuthority(authorization)
			if err != nil {
				t.Fatalf("failed to recover authority: %v", err)
			}
			_, isDelegation := aurora.ParseDelegation(db.GetCode(recovered))
			if isDelegation != test.applied {
				t.Errorf("delegation applied=%t, want %t", isDelegation, test.applied)
			}
		})
	}
}

func TestAuthorizations_ReusedAuthorityYieldsRefund(t *testing.T) {
	chainID := aurora.Word{31: 1}
	target := aurora.Address{0x42}

	authorization, authority := signAuthorization(t, 4, chainID, target, 3)

	backend := state.NewMemoryBackend()
	backend.SetBalance(authority, aurora.NewValue(1)) // the authority exists
	backend.SetNonce(authority, 3)
	db := state.NewStateDB(backend, aurora.R14_Prague)
	cfg := aurora.GetRevisionConfig(aurora.R14_Prague)

	refund := processAuthorizationList(
		[]aurora.SetCodeAuthorization{authorization}, db, chainID, cfg)
	if want := cfg.GasPerEmptyAccount - cfg.GasPerAuthBase; refund != want {
		t.Errorf("refund is %d, want %d", refund, want)
	}
	if got := db.GetNonce(authority); got != 4 {
		t.Errorf("authority nonce is %d, want 4", got)
	}
}

func TestAuthorizations_ClearingDelegationWithZeroAddress(t *testing.T) {
	chainID := aurora.Word{31: 1}
	authorization, authority := signAuthorization(t, 5, chainID, aurora.Address{}, 0)

	backend := state.NewMemoryBackend()
	backend.SetCode(authority, aurora.AddressToDelegation(aurora.Address{0x42}))
	db := state.NewStateDB(backend, aurora.R14_Prague)
	cfg := aurora.GetRevisionConfig(aurora.R14_Prague)

	applySetCodeAuthorization(authorization, db, chainID, cfg)
	if got := db.GetCode(authority); len(got) != 0 {
		t.Errorf("delegation not cleared, code is %x", got)
	}
}
