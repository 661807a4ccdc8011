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
	"testing"

	"github.com/aurora-is-near/aurora-evm/aurora"
)

func TestAnalyzeCode_MarksJumpDests(t *testing.T) {
	tests := map[string]struct {
		code  []byte
		valid []uint64
	}{
		"empty": {nil, nil},
		"single_jumpdest": {
			[]byte{byte(JUMPDEST)},
			[]uint64{0},
		},
		"jumpdest_behind_push": {
			[]byte{byte(PUSH1), 0x00, byte(JUMPDEST)},
			[]uint64{2},
		},
		"jumpdest_in_push_data_is_invalid": {
			[]byte{byte(PUSH2), byte(JUMPDEST), 0x00, byte(JUMPDEST)},
			[]uint64{3},
		},
		"jumpdest_in_push32_data_is_invalid": {
			append(append([]byte{byte(PUSH32)}, make([]byte, 32)...), byte(JUMPDEST)),
			[]uint64{33},
		},
		"truncated_push_covers_rest": {
			[]byte{byte(JUMPDEST), byte(PUSH4), byte(JUMPDEST)},
			[]uint64{0},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			bitmap := analyzeCode(test.code)

			validPositions := map[uint64]bool{}
			for _, pos := range test.valid {
				validPositions[pos] = true
			}
			for pos := uint64(0); pos < uint64(len(test.code))+5; pos++ {
				if want, got := validPositions[pos], bitmap.isValid(pos); want != got {
					t.Errorf("position %d: valid = %t, want %t", pos, got, want)
				}
			}
		})
	}
}

func TestAnalyzer_CachesResultsByCodeHash(t *testing.T) {
	analyzer, err := newAnalyzer(AnalysisConfig{})
	if err != nil {
		t.Fatalf("failed to create analyzer: %v", err)
	}

	code := []byte{byte(JUMPDEST), byte(STOP)}
	hash := Keccak256(code)

	first := analyzer.analyze(code, &hash)
	second := analyzer.analyze(code, &hash)
	if &first[0] != &second[0] {
		t.Errorf("expected cached analysis to be reused")
	}
}

func TestAnalyzer_SkipsCacheWithoutCodeHash(t *testing.T) {
	analyzer, err := newAnalyzer(AnalysisConfig{})
	if err != nil {
		t.Fatalf("failed to create analyzer: %v", err)
	}

	code := []byte{byte(JUMPDEST), byte(STOP)}
	first := analyzer.analyze(code, nil)
	second := analyzer.analyze(code, nil)
	if len(first) > 0 && len(second) > 0 && &first[0] == &second[0] {
		t.Errorf("analysis without code hash must not be cached")
	}
}

func TestAnalyzer_DisabledCacheStillAnalyzes(t *testing.T) {
	analyzer, err := newAnalyzer(AnalysisConfig{CacheSize: -1})
	if err != nil {
		t.Fatalf("failed to create analyzer: %v", err)
	}
	code := []byte{byte(JUMPDEST)}
	hash := Keccak256(code)
	if !analyzer.analyze(code, &hash).isValid(0) {
		t.Errorf("cache-less analyzer produced wrong bitmap")
	}
}

func TestKeccak256_MatchesKnownValue(t *testing.T) {
	var want aurora.Hash
	if err := want.UnmarshalText([]byte(
		"0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")); err != nil {
		t.Fatalf("failed to parse reference hash: %v", err)
	}
	if got := Keccak256(nil); got != want {
		t.Errorf("Keccak256(nil) = %v, want %v", got, want)
	}
}

func TestSha3HashCache_ProducesSameHashes(t *testing.T) {
	cache := newSha3HashCache(16)
	inputs := [][]byte{nil, {1}, {1, 2, 3}, make([]byte, 32), make([]byte, 100)}
	for _, input := range inputs {
		if want, got := Keccak256(input), cache.hash(input); want != got {
			t.Errorf("cached hash of %x is %v, want %v", input, got, want)
		}
		// repeated lookups hit the cache and must be stable
		if want, got := Keccak256(input), cache.hash(input); want != got {
			t.Errorf("second cached hash of %x is %v, want %v", input, got, want)
		}
	}
}
