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
	"sync"

	"github.com/aurora-is-near/aurora-evm/aurora"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/sha3"
)

// keccakState augments hash.Hash with the Read method offered by the sha3
// implementation, which obtains the hash without the copy done by Sum.
type keccakState interface {
	Write([]byte) (int, error)
	Read([]byte) (int, error)
	Reset()
}

var keccakPool = sync.Pool{
	New: func() any {
		return sha3.NewLegacyKeccak256().(keccakState)
	},
}

// Keccak256 computes the keccak256 hash of the given data.
func Keccak256(data []byte) aurora.Hash {
	res := aurora.Hash{}
	hasher := keccakPool.Get().(keccakState)
	hasher.Reset()
	hasher.Write(data)
	hasher.Read(res[:])
	keccakPool.Put(hasher)
	return res
}

// maxCachedHashInputLength bounds the inputs retained in the SHA3 result
// cache. Solidity's storage layout hashes 32- and 64-byte inputs almost
// exclusively, and identical inputs are re-hashed frequently.
const maxCachedHashInputLength = 64

// sha3HashCache memorizes recently computed keccak256 hashes of short
// inputs. It is safe for concurrent use.
type sha3HashCache struct {
	entries *lru.Cache[string, aurora.Hash]
}

func newSha3HashCache(capacity int) *sha3HashCache {
	entries, err := lru.New[string, aurora.Hash](capacity)
	if err != nil {
		panic(err) // only triggered by a non-positive constant capacity
	}
	return &sha3HashCache{entries: entries}
}

func (c *sha3HashCache) hash(data []byte) aurora.Hash {
	if len(data) > maxCachedHashInputLength {
		return Keccak256(data)
	}
	if hash, found := c.entries.Get(string(data)); found {
		return hash
	}
	hash := Keccak256(data)
	c.entries.Add(string(data), hash)
	return hash
}
