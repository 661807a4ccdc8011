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
	"github.com/holiman/uint256"
)

func TestStaticGasPrices_SelectedValues(t *testing.T) {
	tests := []struct {
		op       OpCode
		revision aurora.Revision
		want     aurora.Gas
	}{
		{PUSH1, aurora.R00_Frontier, 3},
		{PUSH32, aurora.R14_Prague, 3},
		{ADD, aurora.R14_Prague, 3},
		{MUL, aurora.R14_Prague, 5},
		{EXP, aurora.R14_Prague, 10},
		{SHA3, aurora.R14_Prague, 30},
		{JUMPDEST, aurora.R14_Prague, 1},
		{LOG0, aurora.R14_Prague, 375},
		{LOG4, aurora.R14_Prague, 375 * 5},
		{CREATE, aurora.R14_Prague, 32000},
		{STOP, aurora.R14_Prague, 0},

		// re-priced state accesses
		{BALANCE, aurora.R00_Frontier, 20},
		{BALANCE, aurora.R02_TangerineWhistle, 400},
		{BALANCE, aurora.R07_Istanbul, 700},
		{BALANCE, aurora.R09_Berlin, 0},
		{SLOAD, aurora.R00_Frontier, 50},
		{SLOAD, aurora.R02_TangerineWhistle, 200},
		{SLOAD, aurora.R07_Istanbul, 800},
		{SLOAD, aurora.R09_Berlin, 0},
		{CALL, aurora.R00_Frontier, 40},
		{CALL, aurora.R02_TangerineWhistle, 700},
		{CALL, aurora.R09_Berlin, 0},
		{SELFDESTRUCT, aurora.R00_Frontier, 0},
		{SELFDESTRUCT, aurora.R02_TangerineWhistle, 5000},
	}

	for _, test := range tests {
		prices := getStaticGasPrices(test.revision)
		if got := prices[test.op]; got != test.want {
			t.Errorf("static gas of %v at %v is %d, want %d",
				test.op, test.revision, got, test.want)
		}
	}
}

func TestCallGas_AppliesThe63to64Rule(t *testing.T) {
	cfgPrague := aurora.GetRevisionConfig(aurora.R14_Prague)
	cfgFrontier := aurora.GetRevisionConfig(aurora.R00_Frontier)

	tests := map[string]struct {
		cfg       *aurora.RevisionConfig
		available aurora.Gas
		requested uint64
		want      aurora.Gas
		fails     bool
	}{
		"requested_below_limit":    {cfgPrague, 6400, 100, 100, false},
		"requested_above_limit":    {cfgPrague, 6400, 1 << 40, 6300, false},
		"all_forwardable_pre_150":  {cfgFrontier, 6400, 6400, 6400, false},
		"too_much_fails_pre_150":   {cfgFrontier, 6400, 6401, 0, true},
		"exact_one_64th_remainder": {cfgPrague, 64, 64, 63, false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := callGas(test.available, uint256.NewInt(test.requested), test.cfg)
			if test.fails {
				if err == nil {
					t.Errorf("expected gas computation to fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != test.want {
				t.Errorf("callGas(%d, %d) = %d, want %d",
					test.available, test.requested, got, test.want)
			}
		})
	}
}

func TestSstoreGas_PricingPerRegime(t *testing.T) {
	tests := map[string]struct {
		revision aurora.Revision
		status   aurora.StorageStatus
		want     aurora.Gas
	}{
		// original two-tier pricing
		"legacy_set":    {aurora.R00_Frontier, aurora.StorageAdded, 20000},
		"legacy_reset":  {aurora.R00_Frontier, aurora.StorageModified, 5000},
		"legacy_delete": {aurora.R00_Frontier, aurora.StorageDeleted, 5000},
		"legacy_recreate_charges_set": {aurora.R00_Frontier, aurora.StorageDeletedAdded, 20000},

		// EIP-2200 net metering
		"istanbul_set":   {aurora.R07_Istanbul, aurora.StorageAdded, 20000},
		"istanbul_reset": {aurora.R07_Istanbul, aurora.StorageModified, 5000},
		"istanbul_dirty": {aurora.R07_Istanbul, aurora.StorageAssigned, 800},

		// EIP-2929 access lists
		"berlin_set":    {aurora.R09_Berlin, aurora.StorageAdded, 20000},
		"berlin_reset":  {aurora.R09_Berlin, aurora.StorageModified, 2900},
		"berlin_delete": {aurora.R09_Berlin, aurora.StorageDeleted, 2900},
		"berlin_dirty":  {aurora.R09_Berlin, aurora.StorageAssigned, 100},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := aurora.GetRevisionConfig(test.revision)
			if got := getDynamicCostsForSstore(cfg, test.status); got != test.want {
				t.Errorf("sstore %v at %v costs %d, want %d",
					test.status, test.revision, got, test.want)
			}
		})
	}
}

func TestSstoreGas_RefundsPerRegime(t *testing.T) {
	tests := map[string]struct {
		revision aurora.Revision
		status   aurora.StorageStatus
		want     aurora.Gas
	}{
		"legacy_delete":           {aurora.R00_Frontier, aurora.StorageDeleted, 15000},
		"legacy_noop_no_refund":   {aurora.R00_Frontier, aurora.StorageAssigned, 0},
		"istanbul_delete":         {aurora.R07_Istanbul, aurora.StorageDeleted, 15000},
		"istanbul_undo_delete":    {aurora.R07_Istanbul, aurora.StorageDeletedAdded, -15000},
		"berlin_delete":           {aurora.R09_Berlin, aurora.StorageDeleted, 15000},
		"london_delete":           {aurora.R10_London, aurora.StorageDeleted, 4800},
		"london_dirty_delete":     {aurora.R10_London, aurora.StorageModifiedDeleted, 4800},
		"london_undo_delete":      {aurora.R10_London, aurora.StorageDeletedAdded, -4800},
		"london_restore_deleted":  {aurora.R10_London, aurora.StorageDeletedRestored, -4800 + 2900 - 100},
		"london_restore_added":    {aurora.R10_London, aurora.StorageAddedDeleted, 20000 - 100},
		"london_restore_modified": {aurora.R10_London, aurora.StorageModifiedRestored, 2900 - 100},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := aurora.GetRevisionConfig(test.revision)
			if got := getRefundForSstore(cfg, test.status); got != test.want {
				t.Errorf("sstore refund for %v at %v is %d, want %d",
					test.status, test.revision, got, test.want)
			}
		})
	}
}
