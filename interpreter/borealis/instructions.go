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
	"bytes"
	"math"

	"github.com/aurora-is-near/aurora-evm/aurora"
	"github.com/holiman/uint256"
)

// --- Control flow ---

func opEndWithResult(c *context) error {
	offset := *c.stack.pop()
	size := *c.stack.pop()
	if err := checkSizeOffsetUint64Overflow(&offset, &size); err != nil {
		return err
	}
	var err error
	c.returnData, err = c.memory.getSlice(offset.Uint64(), size.Uint64(), c)
	return err
}

func opRevert(c *context) error {
	if !c.cfg.HasRevert {
		return errInvalidOpCode
	}
	return opEndWithResult(c)
}

func opPc(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(c.pc))
}

func (c *context) jumpTo(destination *uint256.Int) error {
	// overflow check
	if !destination.IsUint64() || destination.Uint64() > math.MaxInt32 {
		return errInvalidJump
	}
	if !c.jumpDests.isValid(destination.Uint64()) {
		return errInvalidJump
	}
	// Jump to the destination -1 since the interpreter increments the PC
	// by one afterward.
	c.pc = int32(destination.Uint64()) - 1
	return nil
}

func opJump(c *context) error {
	return c.jumpTo(c.stack.pop())
}

func opJumpi(c *context) error {
	destination := c.stack.pop()
	condition := c.stack.pop()
	if condition.IsZero() {
		return nil
	}
	return c.jumpTo(destination)
}

// --- Stack operations ---

func opPop(c *context) {
	c.stack.pop()
}

func opPush0(c *context) error {
	if !c.cfg.HasPush0 {
		return errInvalidRevision
	}
	c.stack.pushUndefined().Clear()
	return nil
}

func opPush1(c *context) {
	z := c.stack.pushUndefined()
	z[3], z[2], z[1] = 0, 0, 0
	if int(c.pc)+1 < len(c.code) {
		z[0] = uint64(c.code[c.pc+1])
	} else {
		z[0] = 0
	}
	c.pc += 1
}

// opPush pushes the n immediate bytes following the opcode. Immediates
// reaching past the end of the code read as zero.
func opPush(c *context, n int) {
	z := c.stack.pushUndefined()
	var value [32]byte
	start := int(c.pc) + 1
	for i := 0; i < n; i++ {
		if start+i < len(c.code) {
			value[i] = c.code[start+i]
		}
	}
	z.SetBytes(value[:n])
	c.pc += int32(n)
}

func opDup(c *context, pos int) {
	c.stack.dup(pos - 1)
}

func opSwap(c *context, pos int) {
	c.stack.swap(pos)
}

// --- Memory operations ---

func opMload(c *context) error {
	var trg = c.stack.peek()
	var addr = *trg

	if !addr.IsUint64() {
		return errOverflow
	}
	return c.memory.readWord(addr.Uint64(), trg, c)
}

func opMstore(c *context) error {
	var addr = c.stack.pop()
	var value = c.stack.pop()

	offset, overflow := addr.Uint64WithOverflow()
	if overflow {
		return errOverflow
	}
	data := value.Bytes32()
	return c.memory.set(offset, data[:], c)
}

func opMstore8(c *context) error {
	var addr = c.stack.pop()
	var value = c.stack.pop()

	offset, overflow := addr.Uint64WithOverflow()
	if overflow {
		return errOverflow
	}
	return c.memory.set(offset, []byte{byte(value.Uint64())}, c)
}

func opMsize(c *context) {
	c.stack.pushUndefined().SetUint64(c.memory.length())
}

func opMcopy(c *context) error {
	if !c.cfg.HasMcopy {
		return errInvalidRevision
	}

	var destAddr = c.stack.pop()
	var srcAddr = c.stack.pop()
	var sizeU256 = c.stack.pop()

	if sizeU256.IsZero() {
		// zero size skips expansions although offsets may be out of bounds
		return nil
	}

	destOffset, destOverflow := destAddr.Uint64WithOverflow()
	srcOffset, srcOverflow := srcAddr.Uint64WithOverflow()
	if destOverflow || srcOverflow || !sizeU256.IsUint64() {
		return errOverflow
	}

	size := sizeU256.Uint64()
	if err := c.useGas(aurora.Gas(3 * aurora.SizeInWords(size))); err != nil {
		return err
	}

	data, err := c.memory.getSlice(srcOffset, size, c)
	if err != nil {
		return err
	}
	// The destination expansion may grow the backing store; copy the source
	// out first so overlapping regions behave as copy-through-temporary.
	return c.memory.set(destOffset, bytes.Clone(data), c)
}

// --- Storage operations ---

func opSload(c *context) error {
	var top = c.stack.peek()

	addr := c.params.Recipient
	slot := aurora.Key(top.Bytes32())
	if c.cfg.IncreaseStateAccessGas {
		costs := WarmStorageReadCost
		if c.context.AccessStorage(addr, slot) == aurora.ColdAccess {
			costs = ColdSloadCost
		}
		if err := c.useGas(costs); err != nil {
			return err
		}
	}
	value := c.context.GetStorage(addr, slot)
	if tracer := c.params.Tracer; tracer != nil {
		tracer.StorageRead(addr, slot, value)
	}
	top.SetBytes32(value[:])
	return nil
}

func opSstore(c *context) error {
	// SSTORE is a write instruction, it shall not be executed in static mode.
	if c.params.Static {
		return errStaticContextViolation
	}

	// EIP-2200 demands that more than 2300 gas is available for SSTORE.
	if c.cfg.SstoreGasMetering && c.gas <= SstoreSentryGas {
		return errOutOfGas
	}

	var key = aurora.Key(c.stack.pop().Bytes32())
	var value = aurora.Word(c.stack.pop().Bytes32())

	cost := aurora.Gas(0)
	if c.cfg.IncreaseStateAccessGas &&
		c.context.AccessStorage(c.params.Recipient, key) == aurora.ColdAccess {
		cost += ColdSloadCost
	}

	if tracer := c.params.Tracer; tracer != nil {
		prev := c.context.GetStorage(c.params.Recipient, key)
		tracer.StorageWrite(c.params.Recipient, key, prev, value)
	}

	storageStatus := c.context.SetStorage(c.params.Recipient, key, value)

	cost += getDynamicCostsForSstore(c.cfg, storageStatus)
	if err := c.useGas(cost); err != nil {
		return err
	}

	c.refund += getRefundForSstore(c.cfg, storageStatus)
	return nil
}

func opTload(c *context) error {
	if !c.cfg.HasTransientStorage {
		return errInvalidRevision
	}

	top := c.stack.peek()
	key := aurora.Key(top.Bytes32())
	value := c.context.GetTransientStorage(c.params.Recipient, key)
	top.SetBytes32(value[:])
	return nil
}

func opTstore(c *context) error {
	if !c.cfg.HasTransientStorage {
		return errInvalidRevision
	}

	// Transient writes are state mutations and are rejected in static mode.
	if c.params.Static {
		return errStaticContextViolation
	}

	key := aurora.Key(c.stack.pop().Bytes32())
	value := aurora.Word(c.stack.pop().Bytes32())
	c.context.SetTransientStorage(c.params.Recipient, key, value)
	return nil
}

// --- Environment ---

func opAddress(c *context) {
	c.stack.pushUndefined().SetBytes20(c.params.Recipient[:])
}

func opOrigin(c *context) {
	origin := c.params.Origin
	c.stack.pushUndefined().SetBytes20(origin[:])
}

func opCaller(c *context) {
	c.stack.pushUndefined().SetBytes20(c.params.Sender[:])
}

func opCallvalue(c *context) {
	c.stack.pushUndefined().SetBytes32(c.params.Value[:])
}

func opCallDataload(c *context) {
	top := c.stack.peek()
	if !top.IsUint64() {
		top.Clear()
		return
	}

	offset := top.Uint64()
	input := c.params.Input
	var value [32]byte
	for i := 0; i < 32; i++ {
		pos := i + int(offset)
		if pos < 0 {
			top.Clear()
			return
		}
		if pos < len(input) {
			value[i] = input[pos]
		}
	}
	top.SetBytes(value[:])
}

func opCallDatasize(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(len(c.params.Input)))
}

// genericDataCopy implements CALLDATACOPY and CODECOPY, copying a region of
// the given source into memory with zero-padding past its end.
func genericDataCopy(c *context, src []byte) error {
	var (
		memOffset  = c.stack.pop()
		dataOffset = c.stack.pop()
		length     = c.stack.pop()
	)

	if err := checkSizeOffsetUint64Overflow(memOffset, length); err != nil {
		return err
	}

	dataOffset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOffset64 = math.MaxUint64
	}

	// Charge for the copy costs
	words := aurora.SizeInWords(length.Uint64())
	if err := c.useGas(aurora.Gas(3 * words)); err != nil {
		return err
	}

	data, err := c.memory.getSlice(memOffset.Uint64(), length.Uint64(), c)
	if err != nil {
		return err
	}
	copy(data, getData(src, dataOffset64, length.Uint64()))
	return nil
}

func opCodeSize(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(len(c.params.Code)))
}

func opGasPrice(c *context) {
	price := c.params.GasPrice
	c.stack.pushUndefined().SetBytes32(price[:])
}

func opExtcodesize(c *context) error {
	top := c.stack.peek()
	address := aurora.Address(top.Bytes20())
	if c.cfg.IncreaseStateAccessGas {
		if err := c.useGas(getAccessCost(c.context.AccessAccount(address))); err != nil {
			return err
		}
	}
	top.SetUint64(uint64(c.context.GetCodeSize(address)))
	return nil
}

func opExtCodeCopy(c *context) error {
	var (
		stack      = c.stack
		a          = stack.pop()
		memOffset  = stack.pop()
		codeOffset = stack.pop()
		length     = stack.pop()
	)
	if err := checkSizeOffsetUint64Overflow(memOffset, length); err != nil {
		return err
	}

	// Charge for length of copied code
	words := aurora.SizeInWords(length.Uint64())
	if err := c.useGas(aurora.Gas(3 * words)); err != nil {
		return err
	}

	address := aurora.Address(a.Bytes20())
	if c.cfg.IncreaseStateAccessGas {
		if err := c.useGas(getAccessCost(c.context.AccessAccount(address))); err != nil {
			return err
		}
	}
	var uint64CodeOffset uint64
	if codeOffset.IsUint64() {
		uint64CodeOffset = codeOffset.Uint64()
	} else {
		uint64CodeOffset = math.MaxUint64
	}

	data, err := c.memory.getSlice(memOffset.Uint64(), length.Uint64(), c)
	if err != nil {
		return err
	}
	copy(data, getData(c.context.GetCode(address), uint64CodeOffset, length.Uint64()))
	return nil
}

func opExtcodehash(c *context) error {
	if !c.cfg.HasExtCodeHash {
		return errInvalidRevision
	}
	slot := c.stack.peek()
	address := aurora.Address(slot.Bytes20())
	if c.cfg.IncreaseStateAccessGas {
		if err := c.useGas(getAccessCost(c.context.AccessAccount(address))); err != nil {
			return err
		}
	}
	if !c.context.AccountExists(address) {
		slot.Clear()
	} else {
		hash := c.context.GetCodeHash(address)
		slot.SetBytes32(hash[:])
	}
	return nil
}

func opReturnDataSize(c *context) error {
	if !c.cfg.HasReturnData {
		return errInvalidOpCode
	}
	c.stack.pushUndefined().SetUint64(uint64(len(c.returnData)))
	return nil
}

func opReturnDataCopy(c *context) error {
	if !c.cfg.HasReturnData {
		return errInvalidOpCode
	}
	var (
		memOffset  = c.stack.pop()
		dataOffset = c.stack.pop()
		length     = c.stack.pop()
	)

	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		return errReturnDataOutOfBounds
	}
	var end = dataOffset
	end.Add(dataOffset, length)
	end64, overflow := end.Uint64WithOverflow()
	if overflow {
		return errReturnDataOutOfBounds
	}

	if uint64(len(c.returnData)) < end64 {
		return errReturnDataOutOfBounds
	}

	if err := checkSizeOffsetUint64Overflow(memOffset, length); err != nil {
		return err
	}

	words := aurora.SizeInWords(length.Uint64())
	if err := c.useGas(aurora.Gas(3 * words)); err != nil {
		return err
	}

	return c.memory.set(memOffset.Uint64(), c.returnData[offset64:end64], c)
}

func opBalance(c *context) error {
	slot := c.stack.peek()
	address := aurora.Address(slot.Bytes20())
	if c.cfg.IncreaseStateAccessGas {
		if err := c.useGas(getAccessCost(c.context.AccessAccount(address))); err != nil {
			return err
		}
	}
	balance := c.context.GetBalance(address)
	slot.SetBytes32(balance[:])
	return nil
}

func opSelfbalance(c *context) error {
	if !c.cfg.HasSelfBalance {
		return errInvalidRevision
	}
	balance := c.context.GetBalance(c.params.Recipient)
	c.stack.pushUndefined().SetBytes32(balance[:])
	return nil
}

// --- Block context ---

func opBlockhash(c *context) {
	num := c.stack.peek()
	num64, overflow := num.Uint64WithOverflow()

	if overflow {
		num.Clear()
		return
	}
	var upper, lower uint64
	upper = uint64(c.params.BlockNumber)
	if upper < 257 {
		lower = 0
	} else {
		lower = upper - 256
	}
	if num64 >= lower && num64 < upper {
		hash := c.context.GetBlockHash(int64(num64))
		num.SetBytes(hash[:])
	} else {
		num.Clear()
	}
}

func opCoinbase(c *context) {
	coinbase := c.params.Coinbase
	c.stack.pushUndefined().SetBytes20(coinbase[:])
}

func opTimestamp(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(c.params.Timestamp))
}

func opNumber(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(c.params.BlockNumber))
}

// opPrevRandao also serves DIFFICULTY; the PrevRandao input carries the
// difficulty value for pre-Paris revisions.
func opPrevRandao(c *context) {
	prevRandao := c.params.PrevRandao
	c.stack.pushUndefined().SetBytes32(prevRandao[:])
}

func opGasLimit(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(c.params.GasLimit))
}

func opChainId(c *context) error {
	if !c.cfg.HasChainID {
		return errInvalidRevision
	}
	id := c.params.ChainID
	c.stack.pushUndefined().SetBytes32(id[:])
	return nil
}

func opBaseFee(c *context) error {
	if !c.cfg.HasBaseFee {
		return errInvalidRevision
	}
	fee := c.params.BaseFee
	c.stack.pushUndefined().SetBytes32(fee[:])
	return nil
}

func opBlobHash(c *context) error {
	if !c.cfg.HasBlobHashes {
		return errInvalidRevision
	}

	index := c.stack.peek()
	blobHashesLength := uint64(len(c.params.BlobHashes))
	if index.IsUint64() && index.Uint64() < blobHashesLength {
		index.SetBytes32(c.params.BlobHashes[index.Uint64()][:])
	} else {
		index.Clear()
	}
	return nil
}

func opBlobBaseFee(c *context) error {
	if !c.cfg.HasBlobBaseFee {
		return errInvalidRevision
	}
	fee := c.params.BlobBaseFee
	c.stack.pushUndefined().SetBytes32(fee[:])
	return nil
}

func opGas(c *context) {
	c.stack.pushUndefined().SetUint64(uint64(c.gas))
}

// --- Arithmetic and logic ---

func opAdd(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Add(a, b)
}

func opSub(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Sub(a, b)
}

func opMul(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Mul(a, b)
}

func opDiv(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Div(a, b)
}

func opSDiv(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.SDiv(a, b)
}

func opMod(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Mod(a, b)
}

func opSMod(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.SMod(a, b)
}

func opAddMod(c *context) {
	a := c.stack.pop()
	b := c.stack.pop()
	n := c.stack.peek()
	n.AddMod(a, b, n)
}

func opMulMod(c *context) {
	a := c.stack.pop()
	b := c.stack.pop()
	n := c.stack.peek()
	n.MulMod(a, b, n)
}

func opExp(c *context) error {
	base, exponent := c.stack.pop(), c.stack.peek()
	if err := c.useGas(c.cfg.GasExpByte * aurora.Gas(exponent.ByteLen())); err != nil {
		return err
	}
	exponent.Exp(base, exponent)
	return nil
}

func opSignExtend(c *context) {
	back, num := c.stack.pop(), c.stack.peek()
	num.ExtendSign(num, back)
}

func opLt(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	if a.Lt(b) {
		b.SetOne()
	} else {
		b.Clear()
	}
}

func opGt(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	if a.Gt(b) {
		b.SetOne()
	} else {
		b.Clear()
	}
}

func opSlt(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	if a.Slt(b) {
		b.SetOne()
	} else {
		b.Clear()
	}
}

func opSgt(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	if a.Sgt(b) {
		b.SetOne()
	} else {
		b.Clear()
	}
}

func opEq(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	if a.Eq(b) {
		b.SetOne()
	} else {
		b.Clear()
	}
}

func opIszero(c *context) {
	top := c.stack.peek()
	if top.IsZero() {
		top.SetOne()
	} else {
		top.Clear()
	}
}

func opAnd(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.And(a, b)
}

func opOr(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Or(a, b)
}

func opXor(c *context) {
	a := c.stack.pop()
	b := c.stack.peek()
	b.Xor(a, b)
}

func opNot(c *context) {
	a := c.stack.peek()
	a.Not(a)
}

func opByte(c *context) {
	th, val := c.stack.pop(), c.stack.peek()
	val.Byte(th)
}

func opShl(c *context) error {
	if !c.cfg.HasBitwiseShifting {
		return errInvalidOpCode
	}
	a := c.stack.pop()
	b := c.stack.peek()
	if a.LtUint64(256) {
		b.Lsh(b, uint(a.Uint64()))
	} else {
		b.Clear()
	}
	return nil
}

func opShr(c *context) error {
	if !c.cfg.HasBitwiseShifting {
		return errInvalidOpCode
	}
	a := c.stack.pop()
	b := c.stack.peek()
	if a.LtUint64(256) {
		b.Rsh(b, uint(a.Uint64()))
	} else {
		b.Clear()
	}
	return nil
}

func opSar(c *context) error {
	if !c.cfg.HasBitwiseShifting {
		return errInvalidOpCode
	}
	a := c.stack.pop()
	b := c.stack.peek()
	if a.GtUint64(256) {
		if b.Sign() >= 0 {
			b.Clear()
		} else {
			b.SetAllOne()
		}
		return nil
	}
	b.SRsh(b, uint(a.Uint64()))
	return nil
}

func opSha3(c *context) error {
	offset, size := c.stack.pop(), c.stack.peek()

	if checkSizeOffsetUint64Overflow(offset, size) != nil {
		return errOverflow
	}

	data, err := c.memory.getSlice(offset.Uint64(), size.Uint64(), c)
	if err != nil {
		return err
	}

	// charge dynamic gas price
	words := aurora.SizeInWords(size.Uint64())
	if err := c.useGas(aurora.Gas(6 * words)); err != nil {
		return err
	}
	var hash aurora.Hash
	if c.withShaCache {
		// Cache hashes since identical values are frequently re-hashed.
		hash = sha3Cache.hash(data)
	} else {
		hash = Keccak256(data)
	}

	size.SetBytes32(hash[:])
	return nil
}

// Evaluations on mainnet traces show a >90% hit rate for this configuration.
var sha3Cache = newSha3HashCache(1 << 16)

// --- Logging ---

func opLog(c *context, size int) error {
	// LogN op codes are write instructions, they shall not be executed in static mode.
	if c.params.Static {
		return errStaticContextViolation
	}

	topics := make([]aurora.Hash, size)
	stack := c.stack
	mStart, mSize := stack.pop(), stack.pop()

	if err := checkSizeOffsetUint64Overflow(mStart, mSize); err != nil {
		return err
	}

	for i := 0; i < size; i++ {
		addr := stack.pop()
		topics[i] = addr.Bytes32()
	}

	start := mStart.Uint64()
	logSize := mSize.Uint64()

	// charge for log size
	if err := c.useGas(aurora.Gas(8 * logSize)); err != nil {
		return err
	}

	data, err := c.memory.getSlice(start, logSize, c)
	if err != nil {
		return err
	}

	// make a copy of the data to disconnect from memory
	c.context.EmitLog(aurora.Log{
		Address: c.params.Recipient,
		Topics:  topics,
		Data:    bytes.Clone(data),
	})
	return nil
}

// --- Account destruction ---

func opSelfdestruct(c *context) (status, error) {
	// SELFDESTRUCT is a write instruction, it shall not be executed in static mode.
	if c.params.Static {
		return statusStopped, errStaticContextViolation
	}

	beneficiary := aurora.Address(c.stack.pop().Bytes20())
	cost := aurora.Gas(0)
	if c.cfg.IncreaseStateAccessGas {
		// selfdestruct does not charge for warm access
		if accessStatus := c.context.AccessAccount(beneficiary); accessStatus != aurora.WarmAccess {
			cost += getAccessCost(accessStatus)
		}
	}
	cost += selfDestructNewAccountCost(c.cfg, c.context.AccountExists(beneficiary),
		c.context.GetBalance(c.params.Recipient))
	if err := c.useGas(cost); err != nil {
		return statusStopped, err
	}

	destructed := c.context.SelfDestruct(c.params.Recipient, beneficiary)
	c.refund += selfDestructRefund(c.cfg, destructed)
	return statusSelfDestructed, nil
}

// --- Contract creation ---

func genericCreate(c *context, kind aurora.CallKind) error {
	// Create is a write instruction, it shall not be executed in static mode.
	if c.params.Static {
		return errStaticContextViolation
	}
	if kind == aurora.Create2 && !c.cfg.HasCreate2 {
		return errInvalidOpCode
	}

	var (
		value  = c.stack.pop()
		offset = c.stack.pop()
		size   = c.stack.pop()
		salt   = aurora.Hash{}
	)
	if kind == aurora.Create2 {
		salt = c.stack.pop().Bytes32()
	}

	if checkSizeOffsetUint64Overflow(offset, size) != nil {
		return errOverflow
	}

	sizeU64 := size.Uint64()
	input, err := c.memory.getSlice(offset.Uint64(), sizeU64, c)
	if err != nil {
		return err
	}

	if c.cfg.MaxInitCodeSize > 0 {
		initCodeCost, err := computeInitCodeSizeCost(sizeU64, c.cfg)
		if err != nil {
			return err
		}
		if err = c.useGas(initCodeCost); err != nil {
			return err
		}
	}

	if kind == aurora.Create2 {
		// Charge for hashing the init code to compute the target address.
		words := aurora.SizeInWords(sizeU64)
		if err := c.useGas(aurora.Gas(6 * words)); err != nil {
			return err
		}
	}

	if !value.IsZero() {
		balance := c.context.GetBalance(c.params.Recipient)
		if value.Gt(balance.ToUint256()) {
			c.stack.pushUndefined().Clear()
			c.returnData = nil
			return nil
		}
	}

	// All but one 64th of the remaining gas is passed to the nested creation.
	gas := c.gas
	if c.cfg.CallL64AfterGas {
		gas -= gas / 64
	}
	if err := c.useGas(gas); err != nil {
		return err
	}

	res, err := c.context.Call(kind, aurora.CallParameters{
		Sender: c.params.Recipient,
		Value:  aurora.Value(value.Bytes32()),
		Input:  bytes.Clone(input),
		Gas:    gas,
		Salt:   salt,
	})

	// Push item on the stack based on the returned error.
	success := c.stack.pushUndefined()
	if !res.Success || err != nil {
		success.Clear()
	} else {
		success.SetBytes20(res.CreatedAddress[:])
	}

	if !res.Success && err == nil {
		c.returnData = res.Output
	} else {
		c.returnData = nil
	}
	c.gas += res.GasLeft
	c.refund += res.GasRefund
	return err
}

// computeInitCodeSizeCost checks the size of the init code against the
// EIP-3860 limit and yields the per-word charge for hashing it.
func computeInitCodeSizeCost(size uint64, cfg *aurora.RevisionConfig) (aurora.Gas, error) {
	if size > uint64(cfg.MaxInitCodeSize) {
		return 0, errInitCodeTooLarge
	}
	const initCodeWordGas = 2
	return aurora.Gas(initCodeWordGas * aurora.SizeInWords(size)), nil
}

// --- Recursive calls ---

func genericCall(c *context, kind aurora.CallKind) error {
	stack := c.stack
	value := uint256.NewInt(0)

	// Pop call parameters.
	providedGas, addr := stack.pop(), stack.pop()
	if kind == aurora.Call || kind == aurora.CallCode {
		value = stack.pop()
	}
	inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop()

	toAddr := aurora.Address(addr.Bytes20())

	if checkSizeOffsetUint64Overflow(inOffset, inSize) != nil {
		return errOverflow
	}
	if checkSizeOffsetUint64Overflow(retOffset, retSize) != nil {
		return errOverflow
	}

	// Get arguments from the memory.
	args, err := c.memory.getSlice(inOffset.Uint64(), inSize.Uint64(), c)
	if err != nil {
		return err
	}
	output, err := c.memory.getSlice(retOffset.Uint64(), retSize.Uint64(), c)
	if err != nil {
		return err
	}

	// From Berlin onwards the access cost depends on warm/cold status.
	if c.cfg.IncreaseStateAccessGas {
		if err := c.useGas(getAccessCost(c.context.AccessAccount(toAddr))); err != nil {
			return err
		}
	}

	// Charge for transferring value to a new address
	if !value.IsZero() {
		if err := c.useGas(CallValueTransferGas); err != nil {
			return err
		}
	}

	// EIP-158 states that non-zero value calls that create a new account
	// should be charged an additional gas fee; before it, any call to a
	// non-existing account was.
	if kind == aurora.Call && !c.context.AccountExists(toAddr) &&
		(c.cfg.EmptyConsideredExists || !value.IsZero()) {
		if err := c.useGas(CallNewAccountGas); err != nil {
			return err
		}
	}

	nestedCallGas, err := callGas(c.gas, providedGas, c.cfg)
	if err != nil {
		return err
	}
	if err := c.useGas(nestedCallGas); err != nil {
		return err
	}

	if !value.IsZero() {
		nestedCallGas += c.cfg.CallStipend
	}

	// Check that the caller has enough balance to transfer the requested value.
	if (kind == aurora.Call || kind == aurora.CallCode) && !value.IsZero() {
		balance := c.context.GetBalance(c.params.Recipient)
		if balance.ToUint256().Lt(value) {
			c.stack.pushUndefined().Clear()
			c.returnData = nil
			c.gas += nestedCallGas // the gas sent to the nested contract is returned
			return nil
		}
	}

	// In static mode, recursive calls are to be treated like static calls.
	if c.params.Static && kind == aurora.Call {
		kind = aurora.StaticCall
	}

	// Prepare arguments, depending on call kind
	callParams := aurora.CallParameters{
		Input: bytes.Clone(args),
		Gas:   nestedCallGas,
		Value: aurora.Value(value.Bytes32()),
	}

	switch kind {
	case aurora.Call, aurora.StaticCall:
		callParams.Sender = c.params.Recipient
		callParams.Recipient = toAddr

	case aurora.CallCode:
		callParams.Sender = c.params.Recipient
		callParams.Recipient = c.params.Recipient
		callParams.CodeAddress = toAddr

	case aurora.DelegateCall:
		callParams.Sender = c.params.Sender
		callParams.Recipient = c.params.Recipient
		callParams.CodeAddress = toAddr
		callParams.Value = c.params.Value
	}

	// Perform the call.
	ret, err := c.context.Call(kind, callParams)

	if err == nil {
		copy(output, ret.Output)
	}

	success := stack.pushUndefined()
	if err != nil || !ret.Success {
		success.Clear()
	} else {
		success.SetOne()
	}
	c.gas += ret.GasLeft
	c.refund += ret.GasRefund
	c.returnData = ret.Output
	return err
}

func opCall(c *context) error {
	value := c.stack.peekN(2)
	// In a static call, no value must be transferred.
	if c.params.Static && !value.IsZero() {
		return errStaticContextViolation
	}
	return genericCall(c, aurora.Call)
}

func opCallCode(c *context) error {
	return genericCall(c, aurora.CallCode)
}

func opStaticCall(c *context) error {
	if !c.isAtLeast(aurora.R04_Byzantium) {
		return errInvalidOpCode
	}
	return genericCall(c, aurora.StaticCall)
}

func opDelegateCall(c *context) error {
	if !c.cfg.HasDelegateCall {
		return errInvalidOpCode
	}
	return genericCall(c, aurora.DelegateCall)
}

// --- Helpers ---

func getData(data []byte, start uint64, size uint64) []byte {
	length := uint64(len(data))
	if start > length {
		start = length
	}
	end := start + size
	if end > length {
		end = length
	}
	// Apply some right-padding to the result.
	res := make([]byte, int(size))
	copy(res, data[start:end])
	return res
}

func checkSizeOffsetUint64Overflow(offset, size *uint256.Int) error {
	if size.IsZero() {
		return nil
	}
	if !offset.IsUint64() || !size.IsUint64() || offset.Uint64()+size.Uint64() < offset.Uint64() {
		return errOverflow
	}
	return nil
}
