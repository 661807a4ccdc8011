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

// RevisionConfig is a pure per-revision feature matrix. A single instance is
// resolved per execution and passed by reference on fork-sensitive
// decisions; it carries no mutable state.
type RevisionConfig struct {
	Revision Revision

	// --- base gas prices that were re-priced across revisions ---

	GasExtCode          Gas // EXTCODESIZE/EXTCODECOPY base cost
	GasExtCodeHash      Gas // EXTCODEHASH base cost
	GasBalance          Gas // BALANCE base cost
	GasSload            Gas // SLOAD base cost (warm cost from Berlin on)
	GasSloadCold        Gas // additional cold SLOAD cost (EIP-2929)
	GasSstoreSet        Gas // SSTORE clean zero -> non-zero
	GasSstoreReset      Gas // SSTORE clean non-zero -> other
	GasCall             Gas // CALL-family base cost
	GasExpByte          Gas // per byte of EXP exponent
	GasSelfdestruct     Gas // SELFDESTRUCT base cost
	GasSelfdestructNew  Gas // SELFDESTRUCT to a non-existing beneficiary
	GasAccountAccess    Gas // cold account access (EIP-2929)
	GasWarmStorageRead  Gas // warm storage/account access (EIP-2929)
	GasAccessListAddr   Gas // per access-list address (EIP-2930)
	GasAccessListKey    Gas // per access-list storage key (EIP-2930)
	GasTxCreate         Gas // intrinsic cost of a creation transaction
	GasTxZeroData       Gas // intrinsic cost per zero calldata byte
	GasTxNonZeroData    Gas // intrinsic cost per non-zero calldata byte
	RefundSstoreClears  Gas // refund for clearing a storage slot
	MaxRefundQuotient   Gas // refund cap divisor (2 pre-London, 5 after)
	GasPerEmptyAccount  Gas // EIP-7702 PER_EMPTY_ACCOUNT_COST
	GasPerAuthBase      Gas // EIP-7702 PER_AUTH_BASE_COST
	TotalCostFloorToken Gas // EIP-7623 TOTAL_COST_FLOOR_PER_TOKEN

	// --- resource limits ---

	StackLimit          int
	CallStackLimit      int
	MaxCodeSize         int
	MaxInitCodeSize     int // 0 if EIP-3860 is not active
	CallStipend         Gas

	// --- feature switches ---

	SstoreGasMetering          bool // net gas metering (EIP-2200)
	IncreaseStateAccessGas     bool // warm/cold access lists (EIP-2929)
	DecreaseClearsRefund       bool // reduced refunds (EIP-3529)
	DisallowExecutableFormat   bool // reject 0xEF code (EIP-3541)
	WarmCoinbaseAddress        bool // coinbase pre-warmed (EIP-3651)
	EmptyConsideredExists      bool // pre-EIP-161 empty-account semantics
	CreateIncreaseNonce        bool // creations bump the creator nonce
	ErrOnCallWithMoreGas       bool // pre-EIP-150: requesting more gas than available faults
	CallL64AfterGas            bool // EIP-150: cap forwarded gas at 63/64 of the remainder
	HasDelegateCall            bool
	HasCreate2                 bool
	HasRevert                  bool
	HasReturnData              bool
	HasBitwiseShifting         bool
	HasChainID                 bool
	HasSelfBalance             bool
	HasExtCodeHash             bool
	HasBaseFee                 bool // EIP-3198
	HasPush0                   bool // EIP-3855
	HasBlobBaseFee             bool // EIP-7516
	HasBlobHashes              bool // EIP-4844
	HasTransientStorage        bool // EIP-1153
	HasMcopy                   bool // EIP-5656
	HasRestrictedSelfdestruct  bool // EIP-6780
	HasAuthorizationList       bool // EIP-7702
	HasFloorGas                bool // EIP-7623
	HasPrevRandao              bool // EIP-4399 (DIFFICULTY -> PREVRANDAO)
}

// revisionConfigs holds one immutable config per known revision, built once
// at package initialization.
var revisionConfigs [numRevisions]RevisionConfig

func init() {
	for _, revision := range GetAllKnownRevisions() {
		revisionConfigs[revision] = makeRevisionConfig(revision)
	}
}

// GetRevisionConfig resolves the feature matrix of the given revision.
// Unknown future revisions resolve to the latest known configuration.
func GetRevisionConfig(revision Revision) *RevisionConfig {
	if revision >= Revision(numRevisions) {
		return &revisionConfigs[MaxKnownRevision()]
	}
	if revision == R07_Istanbul+1 { // the gap left for Muir Glacier
		return &revisionConfigs[R07_Istanbul]
	}
	return &revisionConfigs[revision]
}

func makeRevisionConfig(revision Revision) RevisionConfig {
	at := func(r Revision) bool { return revision >= r }

	cfg := RevisionConfig{
		Revision:       revision,
		StackLimit:     1024,
		CallStackLimit: 1024,
		CallStipend:    2300,

		GasSstoreSet:       20000,
		GasSstoreReset:     5000,
		RefundSstoreClears: 15000,
		MaxRefundQuotient:  2,
		GasExpByte:         10,
		GasTxCreate:        21000,
		GasTxZeroData:      4,
		GasTxNonZeroData:   68,
		GasExtCode:         20,
		GasExtCodeHash:     20,
		GasBalance:         20,
		GasSload:           50,
		GasCall:            40,

		EmptyConsideredExists: true,
		ErrOnCallWithMoreGas:  true,
	}

	if at(R01_Homestead) {
		cfg.HasDelegateCall = true
	}
	if at(R02_TangerineWhistle) {
		cfg.GasExtCode = 700
		cfg.GasExtCodeHash = 700
		cfg.GasBalance = 400
		cfg.GasSload = 200
		cfg.GasCall = 700
		cfg.GasSelfdestruct = 5000
		cfg.GasSelfdestructNew = 25000
		cfg.ErrOnCallWithMoreGas = false
		cfg.CallL64AfterGas = true
	}
	if at(R03_SpuriousDragon) {
		cfg.GasExpByte = 50
		cfg.GasTxCreate = 53000
		cfg.EmptyConsideredExists = false
		cfg.CreateIncreaseNonce = true
		cfg.MaxCodeSize = 24576
	}
	if at(R04_Byzantium) {
		cfg.HasRevert = true
		cfg.HasReturnData = true
	}
	if at(R05_Constantinople) {
		cfg.HasCreate2 = true
		cfg.HasBitwiseShifting = true
		cfg.HasExtCodeHash = true
	}
	if at(R07_Istanbul) {
		cfg.GasBalance = 700
		cfg.GasSload = 800
		cfg.GasTxNonZeroData = 16
		cfg.SstoreGasMetering = true
		cfg.HasChainID = true
		cfg.HasSelfBalance = true
	}
	if at(R09_Berlin) {
		cfg.IncreaseStateAccessGas = true
		cfg.GasWarmStorageRead = 100
		cfg.GasSloadCold = 2100
		cfg.GasAccountAccess = 2600
		cfg.GasAccessListAddr = 2400
		cfg.GasAccessListKey = 1900
		cfg.GasSload = 100
		cfg.GasSstoreReset = 5000 - cfg.GasSloadCold
		cfg.GasExtCode = 0
		cfg.GasExtCodeHash = 0
		cfg.GasBalance = 0
		cfg.GasCall = 0
	}
	if at(R10_London) {
		cfg.DecreaseClearsRefund = true
		cfg.RefundSstoreClears = cfg.GasSstoreReset + cfg.GasAccessListKey // = 4800
		cfg.MaxRefundQuotient = 5
		cfg.DisallowExecutableFormat = true
		cfg.HasBaseFee = true
	}
	if at(R11_Paris) {
		cfg.HasPrevRandao = true
	}
	if at(R12_Shanghai) {
		cfg.HasPush0 = true
		cfg.WarmCoinbaseAddress = true
		cfg.MaxInitCodeSize = 2 * cfg.MaxCodeSize
	}
	if at(R13_Cancun) {
		cfg.HasBlobBaseFee = true
		cfg.HasBlobHashes = true
		cfg.HasTransientStorage = true
		cfg.HasMcopy = true
		cfg.HasRestrictedSelfdestruct = true
	}
	if at(R14_Prague) {
		cfg.HasAuthorizationList = true
		cfg.GasPerEmptyAccount = 25000
		cfg.GasPerAuthBase = 12500
		cfg.HasFloorGas = true
		cfg.TotalCostFloorToken = 10
	}

	return cfg
}
