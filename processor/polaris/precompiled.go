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
	"github.com/aurora-is-near/aurora-evm/aurora"
	"github.com/ethereum/go-ethereum/common"
	geth "github.com/ethereum/go-ethereum/core/vm"
	"golang.org/x/exp/maps"
)

// handlePrecompiledContract executes the precompiled contract registered for
// the given address, if any. The gas function of the contract is evaluated
// before its body; insufficient gas consumes all of it. The contract's
// algorithms are opaque to this engine; only dispatch and pricing are
// handled here.
func handlePrecompiledContract(revision aurora.Revision, input aurora.Data, address aurora.Address, gas aurora.Gas) (aurora.CallResult, bool) {
	contract, ok := precompiledContract(address, revision)
	if !ok {
		return aurora.CallResult{}, false
	}
	gasCost := contract.RequiredGas(input)
	if gasCost > uint64(gas) {
		return aurora.CallResult{}, true
	}
	gas -= aurora.Gas(gasCost)
	output, err := contract.Run(input)

	return aurora.CallResult{
		Success: err == nil, // precompiled contracts only return errors on invalid input
		Output:  output,
		GasLeft: gas,
	}, true
}

// isPrecompiled indicates whether the given address hosts a precompiled
// contract under the given revision.
func isPrecompiled(address aurora.Address, revision aurora.Revision) bool {
	_, found := precompiledContract(address, revision)
	return found
}

// getPrecompiledAddresses lists the precompiled contract addresses active in
// the given revision. The result is in no particular order.
func getPrecompiledAddresses(revision aurora.Revision) []aurora.Address {
	set := precompiledContracts(revision)
	res := make([]aurora.Address, 0, len(set))
	for _, addr := range maps.Keys(set) {
		res = append(res, aurora.Address(addr))
	}
	return res
}

func precompiledContract(address aurora.Address, revision aurora.Revision) (geth.PrecompiledContract, bool) {
	contract, ok := precompiledContracts(revision)[common.Address(address)]
	return contract, ok
}

func precompiledContracts(revision aurora.Revision) map[common.Address]geth.PrecompiledContract {
	switch {
	case revision >= aurora.R14_Prague:
		return geth.PrecompiledContractsPrague
	case revision >= aurora.R13_Cancun:
		return geth.PrecompiledContractsCancun
	case revision >= aurora.R09_Berlin:
		return geth.PrecompiledContractsBerlin
	case revision >= aurora.R07_Istanbul:
		return geth.PrecompiledContractsIstanbul
	case revision >= aurora.R04_Byzantium:
		return geth.PrecompiledContractsByzantium
	default:
		return geth.PrecompiledContractsHomestead
	}
}
