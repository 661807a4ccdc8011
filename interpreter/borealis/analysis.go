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
	"github.com/aurora-is-near/aurora-evm/aurora"
	lru "github.com/hashicorp/golang-lru/v2"
)

// jumpDestBitmap marks the byte positions of a code that are valid JUMP
// targets. A position is valid iff it holds a JUMPDEST byte that is not part
// of the immediate data of any preceding PUSH instruction.
type jumpDestBitmap []uint64

// isValid reports whether pos is a valid jump destination.
func (b jumpDestBitmap) isValid(pos uint64) bool {
	idx := pos / 64
	return idx < uint64(len(b)) && b[idx]&(1<<(pos%64)) != 0
}

func (b jumpDestBitmap) mark(pos int) {
	b[pos/64] |= 1 << (uint64(pos) % 64)
}

// analyzeCode computes the JUMPDEST bitmap of the given code in a single
// pass over the byte stream.
func analyzeCode(code []byte) jumpDestBitmap {
	bitmap := make(jumpDestBitmap, (len(code)+63)/64)
	for i := 0; i < len(code); i++ {
		op := OpCode(code[i])
		if op == JUMPDEST {
			bitmap.mark(i)
		} else if op.isPush() {
			i += op.pushSize()
		}
	}
	return bitmap
}

// AnalysisConfig contains a set of configuration options for the code
// analysis cache.
type AnalysisConfig struct {
	// CacheSize is the maximum number of code analyses retained. If set to
	// 0, a default size is used. If negative, no cache is used.
	CacheSize int
}

// analyzer computes and caches JUMPDEST bitmaps keyed by code hash.
type analyzer struct {
	cache *lru.Cache[aurora.Hash, jumpDestBitmap]
}

func newAnalyzer(config AnalysisConfig) (*analyzer, error) {
	if config.CacheSize == 0 {
		config.CacheSize = 1 << 14
	}
	var cache *lru.Cache[aurora.Hash, jumpDestBitmap]
	if config.CacheSize > 0 {
		var err error
		cache, err = lru.New[aurora.Hash, jumpDestBitmap](config.CacheSize)
		if err != nil {
			return nil, err
		}
	}
	return &analyzer{cache: cache}, nil
}

// maxCachedCodeLength is the maximum length of a code in bytes whose
// analysis is retained in the cache. On-chain codes are bounded by this
// limit; only init codes can be longer, and those carry no code hash to key
// the cache with anyway.
const maxCachedCodeLength = 24_576

// analyze obtains the JUMPDEST bitmap for the given code. If the provided
// code hash is not nil, it is assumed to be a valid hash of the code and is
// used to cache the analysis result.
func (a *analyzer) analyze(code []byte, codeHash *aurora.Hash) jumpDestBitmap {
	if a.cache == nil || codeHash == nil || len(code) > maxCachedCodeLength {
		return analyzeCode(code)
	}
	if res, exists := a.cache.Get(*codeHash); exists {
		return res
	}
	res := analyzeCode(code)
	a.cache.Add(*codeHash, res)
	return res
}
