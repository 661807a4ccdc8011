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
	"fmt"

	"github.com/aurora-is-near/aurora-evm/aurora"
)

// Registers the borealis EVM as a possible interpreter implementation.
func init() {
	configs := map[string]Config{
		// This is the officially supported interpreter configuration to be
		// used for production purposes.
		"borealis": {
			WithShaCache: true,
		},
		"borealis-no-sha-cache": {},
		"borealis-no-code-cache": {
			AnalysisConfig: AnalysisConfig{CacheSize: -1},
			WithShaCache:   true,
		},
	}

	for name, config := range configs {
		config := config
		err := aurora.RegisterInterpreterFactory(name, func(any) (aurora.Interpreter, error) {
			return NewVm(config)
		})
		if err != nil {
			panic(err)
		}
	}
}

type Config struct {
	AnalysisConfig
	WithShaCache bool
}

// config carries the per-run switches derived from the Config above.
type config struct {
	WithShaCache bool
}

type borealis struct {
	config   Config
	analyzer *analyzer
}

func NewVm(config Config) (*borealis, error) {
	analyzer, err := newAnalyzer(config.AnalysisConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create code analyzer: %w", err)
	}
	return &borealis{config: config, analyzer: analyzer}, nil
}

// Defines the newest supported revision for this interpreter implementation
const newestSupportedRevision = aurora.R14_Prague

func (v *borealis) Run(params aurora.Parameters) (aurora.Result, error) {
	if params.Revision > newestSupportedRevision && params.Revision != aurora.R99_UnknownNextRevision {
		return aurora.Result{}, &aurora.ErrUnsupportedRevision{Revision: params.Revision}
	}

	jumpDests := v.analyzer.analyze(params.Code, params.CodeHash)

	return run(config{
		WithShaCache: v.config.WithShaCache,
	}, params, params.Code, jumpDests)
}
