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
	"fmt"
	"math/big"

	"github.com/aurora-is-near/aurora-evm/aurora"

	// geth dependencies
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// setCodeAuthorizationMagic is the domain-separation prefix of the EIP-7702
// authorization signing payload.
const setCodeAuthorizationMagic = byte(0x05)

// secp256k1nHalf is half the order of the secp256k1 curve. Authorization
// signatures with a larger S value are rejected (EIP-2 malleability rule).
var secp256k1nHalf = new(big.Int).Rsh(crypto.S256().Params().N, 1)

// processAuthorizationList applies the EIP-7702 authorization tuples of a
// transaction before its interpretation starts. Each valid tuple installs a
// delegation designator as the authority's code, bumps its nonce, and warms
// it. Invalid tuples are skipped without failing the transaction. The
// returned gas is the refund accumulated for authorities that already
// existed in the state.
func processAuthorizationList(
	authorizations []aurora.SetCodeAuthorization,
	context aurora.TransactionContext,
	chainID aurora.Word,
	cfg *aurora.RevisionConfig,
) aurora.Gas {
	refund := aurora.Gas(0)
	for _, authorization := range authorizations {
		if applySetCodeAuthorization(authorization, context, chainID, cfg) {
			refund += cfg.GasPerEmptyAccount - cfg.GasPerAuthBase
		}
	}
	return refund
}

// applySetCodeAuthorization validates and applies a single authorization.
// It reports whether the authority account was already in existence, in
// which case part of the intrinsic charge is refunded.
func applySetCodeAuthorization(
	authorization aurora.SetCodeAuthorization,
	context aurora.TransactionContext,
	chainID aurora.Word,
	cfg *aurora.RevisionConfig,
) bool {
	// Chain ID zero is a wildcard valid on every chain.
	if authorization.ChainID != (aurora.Word{}) && authorization.ChainID != chainID {
		return false
	}
	if authorization.Nonce+1 < authorization.Nonce {
		return false
	}

	authority, err := recoverAuthority(authorization)
	if err != nil {
		return false
	}

	// The authority is warmed even if the authorization turns out to be
	// unusable.
	context.AccessAccount(authority)

	// Only accounts without code, or with an existing delegation, can
	// delegate.
	code := context.GetCode(authority)
	if _, isDelegated := aurora.ParseDelegation(code); len(code) > 0 && !isDelegated {
		return false
	}

	if context.GetNonce(authority) != authorization.Nonce {
		return false
	}

	existed := context.AccountExists(authority)

	// Delegation to the zero address clears an installed delegation.
	if authorization.Address == (aurora.Address{}) {
		context.SetCode(authority, nil)
	} else {
		context.SetCode(authority, aurora.AddressToDelegation(authorization.Address))
	}
	context.SetNonce(authority, authorization.Nonce+1)

	return existed
}

// authorizationSigningHash computes the digest an authority signs:
// keccak256(0x05 || rlp([chain_id, address, nonce])).
func authorizationSigningHash(authorization aurora.SetCodeAuthorization) ([]byte, error) {
	payload := struct {
		ChainID *big.Int
		Address common.Address
		Nonce   uint64
	}{
		ChainID: new(big.Int).SetBytes(authorization.ChainID[:]),
		Address: common.Address(authorization.Address),
		Nonce:   authorization.Nonce,
	}

	var buffer bytes.Buffer
	buffer.WriteByte(setCodeAuthorizationMagic)
	if err := rlp.Encode(&buffer, &payload); err != nil {
		return nil, err
	}
	return crypto.Keccak256(buffer.Bytes()), nil
}

// recoverAuthority recovers the signer of the given authorization.
func recoverAuthority(authorization aurora.SetCodeAuthorization) (aurora.Address, error) {
	s := new(big.Int).SetBytes(authorization.S[:])
	if s.Cmp(secp256k1nHalf) > 0 {
		return aurora.Address{}, fmt.Errorf("authorization signature S value too high")
	}
	if authorization.V > 1 {
		return aurora.Address{}, fmt.Errorf("invalid authorization signature y-parity: %d", authorization.V)
	}

	sigHash, err := authorizationSigningHash(authorization)
	if err != nil {
		return aurora.Address{}, err
	}

	var signature [65]byte
	copy(signature[0:32], authorization.R[:])
	copy(signature[32:64], authorization.S[:])
	signature[64] = authorization.V

	pub, err := crypto.SigToPub(sigHash, signature[:])
	if err != nil {
		return aurora.Address{}, err
	}
	return aurora.Address(crypto.PubkeyToAddress(*pub)), nil
}
