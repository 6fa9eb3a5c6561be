// Package cpu implements the Ricoh 2A03 instruction-set interpreter:
// the register file, the eleven addressing-mode resolvers, the
// 256-opcode dispatcher, and the arithmetic/logic primitives that back
// them, including the documented illegal-opcode composites. It knows
// nothing about the PPU, APU, controller input, or cycle timing; those
// are a host's concern, not the interpreter's.
package cpu

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ricoh2a03/core/irq"
	"github.com/ricoh2a03/core/memory"
)

// Vector addresses the CPU reads a new PC from on reset and interrupt.
const (
	NMIVector   = 0xFFFA
	ResetVector = 0xFFFC
	IRQVector   = 0xFFFE
)

// Bits of the derived status byte P, LSB to MSB: C, Z, I, D, B, U, V, N.
const (
	FlagC = 1 << 0
	FlagZ = 1 << 1
	FlagI = 1 << 2
	FlagD = 1 << 3
	FlagB = 1 << 4
	FlagU = 1 << 5
	FlagV = 1 << 6
	FlagN = 1 << 7
)

// Memory windows that read as zero and discard writes. The real chips
// behind these addresses (PPU registers, APU/IO registers) aren't
// implemented here; the core only needs to recognise the windows.
const (
	ppuWindowLo = 0x2000
	ppuWindowHi = 0x3FFF
	apuWindowLo = 0x4000
	apuWindowHi = 0x401F
)

// CPU is the single mutable entity the core operates on: the register
// file plus a reference to caller-owned backing memory. It is not safe
// for concurrent use; Step is the only mutator during normal execution.
type CPU struct {
	A, X, Y, SP uint8
	PC          uint16

	// Flags. B has no live representation (see P/setPFromPulled); it
	// only ever appears, forced, as bit 4 of a byte actually pushed to
	// the stack.
	C, Z, I, D, V, N bool

	mem memory.Bank

	// NMI and IRQ are optional interrupt lines a host can wire up; the
	// core never polls them on its own. See NMIInterrupt/IRQInterrupt.
	NMI irq.Sender
	IRQ irq.Sender
}

// InvalidCPUState represents a construction-time or programmer-error
// misconfiguration of the CPU.
type InvalidCPUState struct {
	Reason string
}

// Error implements the interface for error types.
func (e InvalidCPUState) Error() string {
	return fmt.Sprintf("invalid CPU state: %s", e.Reason)
}

// New returns a CPU backed by mem. mem must be non-nil; the CPU never
// allocates its own backing store.
func New(mem memory.Bank) (*CPU, error) {
	if mem == nil {
		return nil, InvalidCPUState{"mem is nil"}
	}
	return &CPU{mem: mem}, nil
}

// P returns the derived status byte: C, Z, I, D, B, U, V, N packed LSB
// to MSB. B always reads back as 0 and U always reads back as 1 from
// live state; only a pushed copy ever carries B=1.
func (c *CPU) P() uint8 {
	var p uint8
	p |= b2u8(c.C) << 0
	p |= b2u8(c.Z) << 1
	p |= b2u8(c.I) << 2
	p |= b2u8(c.D) << 3
	p |= 1 << 5 // U
	p |= b2u8(c.V) << 6
	p |= b2u8(c.N) << 7
	return p
}

// setPFromPulled restores C, Z, I, D, V, N from a byte popped off the
// stack (PLP/RTI). Bits 4 (B) and 5 (U) are ignored; U is never stored
// live and always reads back as 1 via P().
func (c *CPU) setPFromPulled(p uint8) {
	c.C = p&FlagC != 0
	c.Z = p&FlagZ != 0
	c.I = p&FlagI != 0
	c.D = p&FlagD != 0
	c.V = p&FlagV != 0
	c.N = p&FlagN != 0
}

func b2u8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Reset brings the CPU to its defined power-up execution point: SP is
// set to $FD, every flag but I is cleared (I is set), and PC is loaded
// from the reset vector.
func (c *CPU) Reset() {
	c.SP = 0xFD
	c.C, c.Z, c.D, c.V, c.N = false, false, false, false, false
	c.I = true
	c.PC = c.readWord(ResetVector)
}

// Randomize seeds every register and writable flag with an arbitrary
// value, for differential testing against a reference implementation.
// U has no live state and is unaffected.
func (c *CPU) Randomize() {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	c.A = uint8(rnd.Intn(256))
	c.X = uint8(rnd.Intn(256))
	c.Y = uint8(rnd.Intn(256))
	c.SP = uint8(rnd.Intn(256))
	c.PC = uint16(rnd.Intn(1 << 16))
	c.C = rnd.Intn(2) == 1
	c.Z = rnd.Intn(2) == 1
	c.I = rnd.Intn(2) == 1
	c.D = rnd.Intn(2) == 1
	c.V = rnd.Intn(2) == 1
	c.N = rnd.Intn(2) == 1
}

// NMIInterrupt services a non-maskable interrupt: pushes PC and P
// (with B=0 in the pushed byte), sets I, and vectors through $FFFA.
// Unlike IRQInterrupt this is never masked by the I flag.
func (c *CPU) NMIInterrupt() {
	c.pushWord(c.PC)
	c.push8(c.P())
	c.I = true
	c.PC = c.readWord(NMIVector)
}

// IRQInterrupt services a maskable interrupt identically to
// NMIInterrupt but vectors through $FFFE, and is a no-op while I is
// set.
func (c *CPU) IRQInterrupt() {
	if c.I {
		return
	}
	c.pushWord(c.PC)
	c.push8(c.P())
	c.I = true
	c.PC = c.readWord(IRQVector)
}

// read8 applies the I/O-window mirroring policy before indexing the
// backing memory.
func (c *CPU) read8(addr uint16) uint8 {
	if addr >= ppuWindowLo && addr <= ppuWindowHi {
		return 0
	}
	if addr >= apuWindowLo && addr <= apuWindowHi {
		return 0
	}
	return c.mem.Read(addr)
}

// write8 applies the I/O-window mirroring policy before writing the
// backing memory; writes into a stub window are silently discarded.
func (c *CPU) write8(addr uint16, val uint8) {
	if addr >= ppuWindowLo && addr <= ppuWindowHi {
		return
	}
	if addr >= apuWindowLo && addr <= apuWindowHi {
		return
	}
	c.mem.Write(addr, val)
}

// readWord performs an ordinary little-endian 16-bit read at addr and
// addr+1 (mod 65536). This must NOT replicate the indirect-JMP page
// bug; that bug is confined to addrIndirect below.
func (c *CPU) readWord(addr uint16) uint16 {
	lo := c.read8(addr)
	hi := c.read8(addr + 1)
	return uint16(lo) | uint16(hi)<<8
}

// push8/pop8 go directly through the backing memory at $0100+SP; stack
// accesses are never subject to the I/O windows (they never alias them
// anyway, but the accessor intentionally bypasses read8/write8).
func (c *CPU) push8(v uint8) {
	c.mem.Write(0x0100+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pop8() uint8 {
	c.SP++
	return c.mem.Read(0x0100 + uint16(c.SP))
}

// pushWord pushes the high byte then the low byte, matching JSR/BRK.
func (c *CPU) pushWord(v uint16) {
	c.push8(uint8(v >> 8))
	c.push8(uint8(v))
}

// popWord pops the low byte then the high byte, matching RTS/RTI.
func (c *CPU) popWord() uint16 {
	lo := c.pop8()
	hi := c.pop8()
	return uint16(hi)<<8 | uint16(lo)
}

// --- Addressing-mode resolvers ---
//
// Each resolver advances PC past its operand bytes and returns an
// address: the address of the immediate operand itself for
// addrImmediate, or the effective address for everything else. Callers
// read or write through that address with read8/write8.

func (c *CPU) addrImmediate() uint16 {
	a := c.PC
	c.PC++
	return a
}

func (c *CPU) addrZeroPage() uint16 {
	a := uint16(c.read8(c.PC))
	c.PC++
	return a
}

func (c *CPU) addrZeroPageX() uint16 {
	a := uint16(c.read8(c.PC) + c.X)
	c.PC++
	return a
}

func (c *CPU) addrZeroPageY() uint16 {
	a := uint16(c.read8(c.PC) + c.Y)
	c.PC++
	return a
}

func (c *CPU) addrAbsolute() uint16 {
	a := c.readWord(c.PC)
	c.PC += 2
	return a
}

func (c *CPU) addrAbsoluteX() uint16 {
	return c.addrAbsolute() + uint16(c.X)
}

func (c *CPU) addrAbsoluteY() uint16 {
	return c.addrAbsolute() + uint16(c.Y)
}

// addrIndirect implements JMP (indirect) including the documented
// hardware bug: when the pointer's low byte is $FF, the high byte is
// fetched from the start of the same page rather than the next one.
func (c *CPU) addrIndirect() uint16 {
	ptr := c.readWord(c.PC)
	c.PC += 2
	lo := c.read8(ptr)
	hi := c.read8((ptr & 0xFF00) | ((ptr + 1) & 0x00FF))
	return uint16(lo) | uint16(hi)<<8
}

// addrIndexedIndirect implements (zp,X): the pointer byte is indexed
// by X within the zero page (wrapping), then the effective address is
// assembled from two zero-page bytes (also wrapping).
func (c *CPU) addrIndexedIndirect() uint16 {
	zp := c.read8(c.PC) + c.X
	c.PC++
	lo := c.read8(uint16(zp))
	hi := c.read8(uint16(zp + 1))
	return uint16(lo) | uint16(hi)<<8
}

// addrIndirectIndexed implements (zp),Y: the base address is assembled
// from two zero-page bytes (wrapping), then Y is added with full
// 16-bit wraparound.
func (c *CPU) addrIndirectIndexed() uint16 {
	zp := c.read8(c.PC)
	c.PC++
	lo := c.read8(uint16(zp))
	hi := c.read8(uint16(zp + 1))
	base := uint16(lo) | uint16(hi)<<8
	return base + uint16(c.Y)
}

// addrRelative decodes the signed branch offset and returns the target
// PC, computed modulo 65536. PC is advanced past the offset byte first,
// regardless of whether the branch is ultimately taken.
func (c *CPU) addrRelative() uint16 {
	off := int8(c.read8(c.PC))
	c.PC++
	return c.PC + uint16(int16(off))
}

// --- Flag derivation and ALU primitives ---

func (c *CPU) setNZ(v uint8) {
	c.Z = v == 0
	c.N = v&0x80 != 0
}

func (c *CPU) adc(v uint8) {
	sum := uint16(c.A) + uint16(v) + uint16(b2u8(c.C))
	result := uint8(sum)
	c.V = (c.A^v)&0x80 == 0 && (c.A^result)&0x80 != 0
	c.C = sum > 0xFF
	c.A = result
	c.setNZ(c.A)
}

// sbc is ADC with the operand's bits inverted, per the Ricoh variant's
// simplified (non-BCD) subtract.
func (c *CPU) sbc(v uint8) {
	c.adc(^v)
}

func (c *CPU) compare(reg, v uint8) {
	r := reg - v
	c.C = reg >= v
	c.Z = reg == v
	c.N = r&0x80 != 0
}

func (c *CPU) asl(v uint8) uint8 {
	c.C = v&0x80 != 0
	r := v << 1
	c.setNZ(r)
	return r
}

func (c *CPU) lsr(v uint8) uint8 {
	c.C = v&0x01 != 0
	r := v >> 1
	c.setNZ(r)
	return r
}

func (c *CPU) rol(v uint8) uint8 {
	carryIn := b2u8(c.C)
	c.C = v&0x80 != 0
	r := (v << 1) | carryIn
	c.setNZ(r)
	return r
}

func (c *CPU) ror(v uint8) uint8 {
	carryIn := b2u8(c.C)
	c.C = v&0x01 != 0
	r := (v >> 1) | (carryIn << 7)
	c.setNZ(r)
	return r
}

func (c *CPU) incVal(v uint8) uint8 {
	r := v + 1
	c.setNZ(r)
	return r
}

func (c *CPU) decVal(v uint8) uint8 {
	r := v - 1
	c.setNZ(r)
	return r
}

// rmw reads addr, applies f, writes the result back, and returns it.
// Composite illegal opcodes build their ALU side effect on top of this
// return value, preserving the documented read-modify-write-then-ALU
// ordering.
func (c *CPU) rmw(addr uint16, f func(uint8) uint8) uint8 {
	v := f(c.read8(addr))
	c.write8(addr, v)
	return v
}

// branch reads the offset unconditionally (so PC always advances past
// it) and only takes the jump if cond holds.
func (c *CPU) branch(cond bool) {
	target := c.addrRelative()
	if cond {
		c.PC = target
	}
}

// Step executes exactly one instruction: it reads the opcode at PC,
// advances PC by one, and dispatches. There is no cycle accounting and
// Step never returns an error; undefined opcodes are absorbed into a
// no-op of the correct operand width (see the cases below).
func (c *CPU) Step() {
	op := c.read8(c.PC)
	c.PC++

	switch op {
	// --- 0x00-0x0F ---
	case 0x00: // BRK
		c.PC++
		c.pushWord(c.PC)
		c.push8(c.P() | FlagB)
		c.I = true
		c.PC = c.readWord(IRQVector)
	case 0x01: // ORA (ind,X)
		c.A |= c.read8(c.addrIndexedIndirect())
		c.setNZ(c.A)
	case 0x02, 0x12, 0x22, 0x32, 0x42, 0x52, 0x62, 0x72, 0x92, 0xB2, 0xD2, 0xF2:
		// JAM/HLT: real silicon locks up; here it's a no-op, since the
		// core never halts to its caller.
	case 0x03: // SLO (ind,X)
		c.slo(c.addrIndexedIndirect())
	case 0x04, 0x44, 0x64: // illegal NOP zp
		c.addrZeroPage()
	case 0x05: // ORA zp
		c.A |= c.read8(c.addrZeroPage())
		c.setNZ(c.A)
	case 0x06: // ASL zp
		c.rmw(c.addrZeroPage(), c.asl)
	case 0x07: // SLO zp
		c.slo(c.addrZeroPage())
	case 0x08: // PHP
		c.push8(c.P() | FlagB)
	case 0x09: // ORA imm
		c.A |= c.read8(c.addrImmediate())
		c.setNZ(c.A)
	case 0x0A: // ASL A
		c.A = c.asl(c.A)
	case 0x0B, 0x2B: // ANC imm
		c.anc(c.addrImmediate())
	case 0x0C: // illegal NOP abs
		c.addrAbsolute()
	case 0x0D: // ORA abs
		c.A |= c.read8(c.addrAbsolute())
		c.setNZ(c.A)
	case 0x0E: // ASL abs
		c.rmw(c.addrAbsolute(), c.asl)
	case 0x0F: // SLO abs
		c.slo(c.addrAbsolute())

	// --- 0x10-0x1F ---
	case 0x10: // BPL
		c.branch(!c.N)
	case 0x11: // ORA (ind),Y
		c.A |= c.read8(c.addrIndirectIndexed())
		c.setNZ(c.A)
	case 0x13: // SLO (ind),Y
		c.slo(c.addrIndirectIndexed())
	case 0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4: // illegal NOP zp,X
		c.addrZeroPageX()
	case 0x15: // ORA zp,X
		c.A |= c.read8(c.addrZeroPageX())
		c.setNZ(c.A)
	case 0x16: // ASL zp,X
		c.rmw(c.addrZeroPageX(), c.asl)
	case 0x17: // SLO zp,X
		c.slo(c.addrZeroPageX())
	case 0x18: // CLC
		c.C = false
	case 0x19: // ORA abs,Y
		c.A |= c.read8(c.addrAbsoluteY())
		c.setNZ(c.A)
	case 0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA: // illegal NOP implied
	case 0x1B: // SLO abs,Y
		c.slo(c.addrAbsoluteY())
	case 0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC: // illegal NOP abs,X
		c.addrAbsoluteX()
	case 0x1D: // ORA abs,X
		c.A |= c.read8(c.addrAbsoluteX())
		c.setNZ(c.A)
	case 0x1E: // ASL abs,X
		c.rmw(c.addrAbsoluteX(), c.asl)
	case 0x1F: // SLO abs,X
		c.slo(c.addrAbsoluteX())

	// --- 0x20-0x2F ---
	case 0x20: // JSR abs
		addr := c.addrAbsolute()
		c.pushWord(c.PC - 1)
		c.PC = addr
	case 0x21: // AND (ind,X)
		c.A &= c.read8(c.addrIndexedIndirect())
		c.setNZ(c.A)
	case 0x23: // RLA (ind,X)
		c.rla(c.addrIndexedIndirect())
	case 0x24: // BIT zp
		c.bit(c.addrZeroPage())
	case 0x25: // AND zp
		c.A &= c.read8(c.addrZeroPage())
		c.setNZ(c.A)
	case 0x26: // ROL zp
		c.rmw(c.addrZeroPage(), c.rol)
	case 0x27: // RLA zp
		c.rla(c.addrZeroPage())
	case 0x28: // PLP
		c.setPFromPulled(c.pop8())
	case 0x29: // AND imm
		c.A &= c.read8(c.addrImmediate())
		c.setNZ(c.A)
	case 0x2A: // ROL A
		c.A = c.rol(c.A)
	case 0x2C: // BIT abs
		c.bit(c.addrAbsolute())
	case 0x2D: // AND abs
		c.A &= c.read8(c.addrAbsolute())
		c.setNZ(c.A)
	case 0x2E: // ROL abs
		c.rmw(c.addrAbsolute(), c.rol)
	case 0x2F: // RLA abs
		c.rla(c.addrAbsolute())

	// --- 0x30-0x3F ---
	case 0x30: // BMI
		c.branch(c.N)
	case 0x31: // AND (ind),Y
		c.A &= c.read8(c.addrIndirectIndexed())
		c.setNZ(c.A)
	case 0x33: // RLA (ind),Y
		c.rla(c.addrIndirectIndexed())
	case 0x35: // AND zp,X
		c.A &= c.read8(c.addrZeroPageX())
		c.setNZ(c.A)
	case 0x36: // ROL zp,X
		c.rmw(c.addrZeroPageX(), c.rol)
	case 0x37: // RLA zp,X
		c.rla(c.addrZeroPageX())
	case 0x38: // SEC
		c.C = true
	case 0x39: // AND abs,Y
		c.A &= c.read8(c.addrAbsoluteY())
		c.setNZ(c.A)
	case 0x3B: // RLA abs,Y
		c.rla(c.addrAbsoluteY())
	case 0x3D: // AND abs,X
		c.A &= c.read8(c.addrAbsoluteX())
		c.setNZ(c.A)
	case 0x3E: // ROL abs,X
		c.rmw(c.addrAbsoluteX(), c.rol)
	case 0x3F: // RLA abs,X
		c.rla(c.addrAbsoluteX())

	// --- 0x40-0x4F ---
	case 0x40: // RTI
		c.setPFromPulled(c.pop8())
		c.PC = c.popWord()
	case 0x41: // EOR (ind,X)
		c.A ^= c.read8(c.addrIndexedIndirect())
		c.setNZ(c.A)
	case 0x43: // SRE (ind,X)
		c.sre(c.addrIndexedIndirect())
	case 0x45: // EOR zp
		c.A ^= c.read8(c.addrZeroPage())
		c.setNZ(c.A)
	case 0x46: // LSR zp
		c.rmw(c.addrZeroPage(), c.lsr)
	case 0x47: // SRE zp
		c.sre(c.addrZeroPage())
	case 0x48: // PHA
		c.push8(c.A)
	case 0x49: // EOR imm
		c.A ^= c.read8(c.addrImmediate())
		c.setNZ(c.A)
	case 0x4A: // LSR A
		c.A = c.lsr(c.A)
	case 0x4B: // ALR imm
		c.alr(c.addrImmediate())
	case 0x4C: // JMP abs
		c.PC = c.addrAbsolute()
	case 0x4D: // EOR abs
		c.A ^= c.read8(c.addrAbsolute())
		c.setNZ(c.A)
	case 0x4E: // LSR abs
		c.rmw(c.addrAbsolute(), c.lsr)
	case 0x4F: // SRE abs
		c.sre(c.addrAbsolute())

	// --- 0x50-0x5F ---
	case 0x50: // BVC
		c.branch(!c.V)
	case 0x51: // EOR (ind),Y
		c.A ^= c.read8(c.addrIndirectIndexed())
		c.setNZ(c.A)
	case 0x53: // SRE (ind),Y
		c.sre(c.addrIndirectIndexed())
	case 0x55: // EOR zp,X
		c.A ^= c.read8(c.addrZeroPageX())
		c.setNZ(c.A)
	case 0x56: // LSR zp,X
		c.rmw(c.addrZeroPageX(), c.lsr)
	case 0x57: // SRE zp,X
		c.sre(c.addrZeroPageX())
	case 0x58: // CLI
		c.I = false
	case 0x59: // EOR abs,Y
		c.A ^= c.read8(c.addrAbsoluteY())
		c.setNZ(c.A)
	case 0x5B: // SRE abs,Y
		c.sre(c.addrAbsoluteY())
	case 0x5D: // EOR abs,X
		c.A ^= c.read8(c.addrAbsoluteX())
		c.setNZ(c.A)
	case 0x5E: // LSR abs,X
		c.rmw(c.addrAbsoluteX(), c.lsr)
	case 0x5F: // SRE abs,X
		c.sre(c.addrAbsoluteX())

	// --- 0x60-0x6F ---
	case 0x60: // RTS
		c.PC = c.popWord() + 1
	case 0x61: // ADC (ind,X)
		c.adc(c.read8(c.addrIndexedIndirect()))
	case 0x63: // RRA (ind,X)
		c.rra(c.addrIndexedIndirect())
	case 0x65: // ADC zp
		c.adc(c.read8(c.addrZeroPage()))
	case 0x66: // ROR zp
		c.rmw(c.addrZeroPage(), c.ror)
	case 0x67: // RRA zp
		c.rra(c.addrZeroPage())
	case 0x68: // PLA
		c.A = c.pop8()
		c.setNZ(c.A)
	case 0x69: // ADC imm
		c.adc(c.read8(c.addrImmediate()))
	case 0x6A: // ROR A
		c.A = c.ror(c.A)
	case 0x6B: // ARR imm
		c.arr(c.addrImmediate())
	case 0x6C: // JMP (ind), with the page-wrap bug
		c.PC = c.addrIndirect()
	case 0x6D: // ADC abs
		c.adc(c.read8(c.addrAbsolute()))
	case 0x6E: // ROR abs
		c.rmw(c.addrAbsolute(), c.ror)
	case 0x6F: // RRA abs
		c.rra(c.addrAbsolute())

	// --- 0x70-0x7F ---
	case 0x70: // BVS
		c.branch(c.V)
	case 0x71: // ADC (ind),Y
		c.adc(c.read8(c.addrIndirectIndexed()))
	case 0x73: // RRA (ind),Y
		c.rra(c.addrIndirectIndexed())
	case 0x75: // ADC zp,X
		c.adc(c.read8(c.addrZeroPageX()))
	case 0x76: // ROR zp,X
		c.rmw(c.addrZeroPageX(), c.ror)
	case 0x77: // RRA zp,X
		c.rra(c.addrZeroPageX())
	case 0x78: // SEI
		c.I = true
	case 0x79: // ADC abs,Y
		c.adc(c.read8(c.addrAbsoluteY()))
	case 0x7B: // RRA abs,Y
		c.rra(c.addrAbsoluteY())
	case 0x7D: // ADC abs,X
		c.adc(c.read8(c.addrAbsoluteX()))
	case 0x7E: // ROR abs,X
		c.rmw(c.addrAbsoluteX(), c.ror)
	case 0x7F: // RRA abs,X
		c.rra(c.addrAbsoluteX())

	// --- 0x80-0x8F ---
	case 0x80, 0x82, 0x89, 0xC2, 0xE2: // illegal NOP imm
		c.addrImmediate()
	case 0x81: // STA (ind,X)
		c.write8(c.addrIndexedIndirect(), c.A)
	case 0x83: // SAX (ind,X)
		addr := c.addrIndexedIndirect()
		c.write8(addr, c.A&c.X)
	case 0x84: // STY zp
		c.write8(c.addrZeroPage(), c.Y)
	case 0x85: // STA zp
		c.write8(c.addrZeroPage(), c.A)
	case 0x86: // STX zp
		c.write8(c.addrZeroPage(), c.X)
	case 0x87: // SAX zp
		addr := c.addrZeroPage()
		c.write8(addr, c.A&c.X)
	case 0x88: // DEY
		c.Y = c.decVal(c.Y)
	case 0x8A: // TXA
		c.A = c.X
		c.setNZ(c.A)
	case 0x8B: // unstable ANE/XAA imm: consume the operand, do nothing
		c.addrImmediate()
	case 0x8C: // STY abs
		c.write8(c.addrAbsolute(), c.Y)
	case 0x8D: // STA abs
		c.write8(c.addrAbsolute(), c.A)
	case 0x8E: // STX abs
		c.write8(c.addrAbsolute(), c.X)
	case 0x8F: // SAX abs
		addr := c.addrAbsolute()
		c.write8(addr, c.A&c.X)

	// --- 0x90-0x9F ---
	case 0x90: // BCC
		c.branch(!c.C)
	case 0x91: // STA (ind),Y
		c.write8(c.addrIndirectIndexed(), c.A)
	case 0x93: // unstable SHA/AHX (ind),Y
		c.addrIndirectIndexed()
	case 0x94: // STY zp,X
		c.write8(c.addrZeroPageX(), c.Y)
	case 0x95: // STA zp,X
		c.write8(c.addrZeroPageX(), c.A)
	case 0x96: // STX zp,Y
		c.write8(c.addrZeroPageY(), c.X)
	case 0x97: // SAX zp,Y
		addr := c.addrZeroPageY()
		c.write8(addr, c.A&c.X)
	case 0x98: // TYA
		c.A = c.Y
		c.setNZ(c.A)
	case 0x99: // STA abs,Y
		c.write8(c.addrAbsoluteY(), c.A)
	case 0x9A: // TXS
		c.SP = c.X
	case 0x9B: // unstable TAS abs,Y
		c.addrAbsoluteY()
	case 0x9C: // unstable SHY abs,X
		c.addrAbsoluteX()
	case 0x9D: // STA abs,X
		c.write8(c.addrAbsoluteX(), c.A)
	case 0x9E: // unstable SHX abs,Y
		c.addrAbsoluteY()
	case 0x9F: // unstable SHA/AHX abs,Y
		c.addrAbsoluteY()

	// --- 0xA0-0xAF ---
	case 0xA0: // LDY imm
		c.Y = c.read8(c.addrImmediate())
		c.setNZ(c.Y)
	case 0xA1: // LDA (ind,X)
		c.A = c.read8(c.addrIndexedIndirect())
		c.setNZ(c.A)
	case 0xA2: // LDX imm
		c.X = c.read8(c.addrImmediate())
		c.setNZ(c.X)
	case 0xA3: // LAX (ind,X)
		c.lax(c.addrIndexedIndirect())
	case 0xA4: // LDY zp
		c.Y = c.read8(c.addrZeroPage())
		c.setNZ(c.Y)
	case 0xA5: // LDA zp
		c.A = c.read8(c.addrZeroPage())
		c.setNZ(c.A)
	case 0xA6: // LDX zp
		c.X = c.read8(c.addrZeroPage())
		c.setNZ(c.X)
	case 0xA7: // LAX zp
		c.lax(c.addrZeroPage())
	case 0xA8: // TAY
		c.Y = c.A
		c.setNZ(c.Y)
	case 0xA9: // LDA imm
		c.A = c.read8(c.addrImmediate())
		c.setNZ(c.A)
	case 0xAA: // TAX
		c.X = c.A
		c.setNZ(c.X)
	case 0xAB: // unstable LXA/OAL imm
		c.addrImmediate()
	case 0xAC: // LDY abs
		c.Y = c.read8(c.addrAbsolute())
		c.setNZ(c.Y)
	case 0xAD: // LDA abs
		c.A = c.read8(c.addrAbsolute())
		c.setNZ(c.A)
	case 0xAE: // LDX abs
		c.X = c.read8(c.addrAbsolute())
		c.setNZ(c.X)
	case 0xAF: // LAX abs
		c.lax(c.addrAbsolute())

	// --- 0xB0-0xBF ---
	case 0xB0: // BCS
		c.branch(c.C)
	case 0xB1: // LDA (ind),Y
		c.A = c.read8(c.addrIndirectIndexed())
		c.setNZ(c.A)
	case 0xB3: // LAX (ind),Y
		c.lax(c.addrIndirectIndexed())
	case 0xB4: // LDY zp,X
		c.Y = c.read8(c.addrZeroPageX())
		c.setNZ(c.Y)
	case 0xB5: // LDA zp,X
		c.A = c.read8(c.addrZeroPageX())
		c.setNZ(c.A)
	case 0xB6: // LDX zp,Y
		c.X = c.read8(c.addrZeroPageY())
		c.setNZ(c.X)
	case 0xB7: // LAX zp,Y
		c.lax(c.addrZeroPageY())
	case 0xB8: // CLV
		c.V = false
	case 0xB9: // LDA abs,Y
		c.A = c.read8(c.addrAbsoluteY())
		c.setNZ(c.A)
	case 0xBA: // TSX
		c.X = c.SP
		c.setNZ(c.X)
	case 0xBB: // LAS abs,Y
		c.las(c.addrAbsoluteY())
	case 0xBC: // LDY abs,X
		c.Y = c.read8(c.addrAbsoluteX())
		c.setNZ(c.Y)
	case 0xBD: // LDA abs,X
		c.A = c.read8(c.addrAbsoluteX())
		c.setNZ(c.A)
	case 0xBE: // LDX abs,Y
		c.X = c.read8(c.addrAbsoluteY())
		c.setNZ(c.X)
	case 0xBF: // LAX abs,Y
		c.lax(c.addrAbsoluteY())

	// --- 0xC0-0xCF ---
	case 0xC0: // CPY imm
		c.compare(c.Y, c.read8(c.addrImmediate()))
	case 0xC1: // CMP (ind,X)
		c.compare(c.A, c.read8(c.addrIndexedIndirect()))
	case 0xC3: // DCP (ind,X)
		c.dcp(c.addrIndexedIndirect())
	case 0xC4: // CPY zp
		c.compare(c.Y, c.read8(c.addrZeroPage()))
	case 0xC5: // CMP zp
		c.compare(c.A, c.read8(c.addrZeroPage()))
	case 0xC6: // DEC zp
		c.rmw(c.addrZeroPage(), c.decVal)
	case 0xC7: // DCP zp
		c.dcp(c.addrZeroPage())
	case 0xC8: // INY
		c.Y = c.incVal(c.Y)
	case 0xC9: // CMP imm
		c.compare(c.A, c.read8(c.addrImmediate()))
	case 0xCA: // DEX
		c.X = c.decVal(c.X)
	case 0xCB: // AXS/SBX imm
		c.axs(c.addrImmediate())
	case 0xCC: // CPY abs
		c.compare(c.Y, c.read8(c.addrAbsolute()))
	case 0xCD: // CMP abs
		c.compare(c.A, c.read8(c.addrAbsolute()))
	case 0xCE: // DEC abs
		c.rmw(c.addrAbsolute(), c.decVal)
	case 0xCF: // DCP abs
		c.dcp(c.addrAbsolute())

	// --- 0xD0-0xDF ---
	case 0xD0: // BNE
		c.branch(!c.Z)
	case 0xD1: // CMP (ind),Y
		c.compare(c.A, c.read8(c.addrIndirectIndexed()))
	case 0xD3: // DCP (ind),Y
		c.dcp(c.addrIndirectIndexed())
	case 0xD5: // CMP zp,X
		c.compare(c.A, c.read8(c.addrZeroPageX()))
	case 0xD6: // DEC zp,X
		c.rmw(c.addrZeroPageX(), c.decVal)
	case 0xD7: // DCP zp,X
		c.dcp(c.addrZeroPageX())
	case 0xD8: // CLD
		c.D = false
	case 0xD9: // CMP abs,Y
		c.compare(c.A, c.read8(c.addrAbsoluteY()))
	case 0xDB: // DCP abs,Y
		c.dcp(c.addrAbsoluteY())
	case 0xDD: // CMP abs,X
		c.compare(c.A, c.read8(c.addrAbsoluteX()))
	case 0xDE: // DEC abs,X
		c.rmw(c.addrAbsoluteX(), c.decVal)
	case 0xDF: // DCP abs,X
		c.dcp(c.addrAbsoluteX())

	// --- 0xE0-0xEF ---
	case 0xE0: // CPX imm
		c.compare(c.X, c.read8(c.addrImmediate()))
	case 0xE1: // SBC (ind,X)
		c.sbc(c.read8(c.addrIndexedIndirect()))
	case 0xE3: // ISC (ind,X)
		c.isc(c.addrIndexedIndirect())
	case 0xE4: // CPX zp
		c.compare(c.X, c.read8(c.addrZeroPage()))
	case 0xE5: // SBC zp
		c.sbc(c.read8(c.addrZeroPage()))
	case 0xE6: // INC zp
		c.rmw(c.addrZeroPage(), c.incVal)
	case 0xE7: // ISC zp
		c.isc(c.addrZeroPage())
	case 0xE8: // INX
		c.X = c.incVal(c.X)
	case 0xE9: // SBC imm
		c.sbc(c.read8(c.addrImmediate()))
	case 0xEA: // NOP
	case 0xEB: // illegal SBC imm, identical to 0xE9
		c.sbc(c.read8(c.addrImmediate()))
	case 0xEC: // CPX abs
		c.compare(c.X, c.read8(c.addrAbsolute()))
	case 0xED: // SBC abs
		c.sbc(c.read8(c.addrAbsolute()))
	case 0xEE: // INC abs
		c.rmw(c.addrAbsolute(), c.incVal)
	case 0xEF: // ISC abs
		c.isc(c.addrAbsolute())

	// --- 0xF0-0xFF ---
	case 0xF0: // BEQ
		c.branch(c.Z)
	case 0xF1: // SBC (ind),Y
		c.sbc(c.read8(c.addrIndirectIndexed()))
	case 0xF3: // ISC (ind),Y
		c.isc(c.addrIndirectIndexed())
	case 0xF5: // SBC zp,X
		c.sbc(c.read8(c.addrZeroPageX()))
	case 0xF6: // INC zp,X
		c.rmw(c.addrZeroPageX(), c.incVal)
	case 0xF7: // ISC zp,X
		c.isc(c.addrZeroPageX())
	case 0xF8: // SED
		c.D = true
	case 0xF9: // SBC abs,Y
		c.sbc(c.read8(c.addrAbsoluteY()))
	case 0xFB: // ISC abs,Y
		c.isc(c.addrAbsoluteY())
	case 0xFD: // SBC abs,X
		c.sbc(c.read8(c.addrAbsoluteX()))
	case 0xFE: // INC abs,X
		c.rmw(c.addrAbsoluteX(), c.incVal)
	case 0xFF: // ISC abs,X
		c.isc(c.addrAbsoluteX())
	}
}

// bit implements BIT: Z is (A & M == 0); N and V copy bits 7 and 6 of M
// directly, regardless of A's value.
func (c *CPU) bit(addr uint16) {
	v := c.read8(addr)
	c.Z = c.A&v == 0
	c.N = v&0x80 != 0
	c.V = v&0x40 != 0
}

// --- Composite illegal opcodes: a read-modify-write on memory, then an
// ALU effect fed from the new memory value. Both effects, and both
// flag effects, happen in that order. ---

func (c *CPU) slo(addr uint16) {
	v := c.rmw(addr, c.asl)
	c.A |= v
	c.setNZ(c.A)
}

func (c *CPU) rla(addr uint16) {
	v := c.rmw(addr, c.rol)
	c.A &= v
	c.setNZ(c.A)
}

func (c *CPU) sre(addr uint16) {
	v := c.rmw(addr, c.lsr)
	c.A ^= v
	c.setNZ(c.A)
}

func (c *CPU) rra(addr uint16) {
	v := c.rmw(addr, c.ror)
	c.adc(v)
}

func (c *CPU) dcp(addr uint16) {
	v := c.rmw(addr, c.decVal)
	c.compare(c.A, v)
}

func (c *CPU) isc(addr uint16) {
	v := c.rmw(addr, c.incVal)
	c.sbc(v)
}

func (c *CPU) lax(addr uint16) {
	v := c.read8(addr)
	c.A = v
	c.X = v
	c.setNZ(v)
}

// --- Stable single-effect undocumented opcodes ---

// anc: AND, then copy the resulting N into C (as if the result had
// been shifted into a 9th bit).
func (c *CPU) anc(addr uint16) {
	c.A &= c.read8(addr)
	c.setNZ(c.A)
	c.C = c.N
}

// alr: AND, then LSR A.
func (c *CPU) alr(addr uint16) {
	c.A &= c.read8(addr)
	c.A = c.lsr(c.A)
}

// arr: AND, then ROR A, with C and V derived from the rotated result
// rather than from the rotate itself.
func (c *CPU) arr(addr uint16) {
	t := c.A & c.read8(addr)
	carryIn := b2u8(c.C)
	r := (t >> 1) | (carryIn << 7)
	c.A = r
	c.setNZ(r)
	c.C = r&0x40 != 0
	c.V = ((r>>6)&1)^((r>>5)&1) != 0
}

// axs (SBX): (A & X) - M, no borrow in, result to X.
func (c *CPU) axs(addr uint16) {
	v := c.read8(addr)
	t := c.A & c.X
	r := t - v
	c.C = t >= v
	c.X = r
	c.setNZ(r)
}

// las: AND the operand with SP; the result goes to A, X, and SP alike.
func (c *CPU) las(addr uint16) {
	v := c.read8(addr) & c.SP
	c.A = v
	c.X = v
	c.SP = v
	c.setNZ(v)
}
