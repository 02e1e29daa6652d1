// cpu_z80.go - Z80 context, cycle scheduler and interrupt/reset controller

package main

import (
	"fmt"
	"math"
	"os"
)

// CycleNever marks an absent cycle timestamp (no pending pulse edge).
const CycleNever = uint32(0xFFFFFFFF)

const (
	z80PrefixNone byte = iota
	z80PrefixDD
	z80PrefixFD
)

// Z80Options is the bus-side configuration shared by every context the
// composing system creates: the memory and I/O chunk tables, the ratio
// between master-clock cycles and CPU T-states, and the mask applied
// to port numbers on output.
type Z80Options struct {
	Memmap        []MemmapChunk
	IOMap         []MemmapChunk
	ClockDivider  uint32
	AddressMask   uint32
	IOAddressMask uint32
}

func NewZ80Options(chunks, ioChunks []MemmapChunk, clockDivider, ioAddressMask uint32) *Z80Options {
	if clockDivider == 0 {
		clockDivider = 1
	}
	return &Z80Options{
		Memmap:        chunks,
		IOMap:         ioChunks,
		ClockDivider:  clockDivider,
		AddressMask:   0xFFFF,
		IOAddressMask: ioAddressMask,
	}
}

type Z80 struct {
	// Hot path registers (most frequently accessed)
	A  byte
	F  byte
	B  byte
	C  byte
	D  byte
	E  byte
	H  byte
	L  byte
	A2 byte
	F2 byte
	B2 byte
	C2 byte
	D2 byte
	E2 byte
	H2 byte
	L2 byte

	IX uint16
	IY uint16
	SP uint16
	PC uint16

	I  byte
	R  byte
	r2 byte // bit 7 of R as last written by LD R,A
	IM byte
	WZ uint16

	IFF1 bool
	IFF2 bool

	Halted bool

	// Absolute position on the master clock. Run advances it up to (or
	// just past) the requested target; the overshoot of the last
	// instruction is carried into the next call.
	CurrentCycle uint32

	// Interrupt pulse window on the master clock, supplied by
	// NextIntPulse. IM2Vector is the data-bus byte for mode 2;
	// IM0Vector holds up to three opcode bytes for mode 0.
	IntPulseStart uint32
	IntPulseEnd   uint32
	IM2Vector     byte
	IM0Vector     uint32
	NextIntPulse  func(*Z80)

	icount     int32
	afterEI    bool
	afterLDAIR bool
	ea         uint16
	prefixMode byte

	nmiStart uint32
	reset    bool
	busreq   bool
	busack   bool

	ccOp   *[256]uint8
	ccCB   *[256]uint8
	ccED   *[256]uint8
	ccXY   *[256]uint8
	ccXYCB *[256]uint8
	ccEX   *[256]uint8

	opts        *Z80Options
	memmap      []MemmapChunk
	iomap       []MemmapChunk
	memPointers [numMemPointers][]byte
	readBanks   [8][]byte
	writeBanks  [8][]byte

	fault error
}

func NewZ80(opts *Z80Options) *Z80 {
	flagTablesOnce.Do(buildFlagTables)
	z80OpsOnce.Do(initZ80Ops)

	z := &Z80{
		opts:   opts,
		memmap: opts.Memmap,
		iomap:  opts.IOMap,
	}
	z.SetCycleTables(nil, nil, nil, nil, nil, nil)
	z.deriveBanks()

	// Power-on register pattern: index registers float high, only the
	// zero flag is defined.
	z.IX = 0xFFFF
	z.IY = 0xFFFF
	z.F = flagZ
	z.IntPulseStart = CycleNever
	z.IntPulseEnd = CycleNever
	z.nmiStart = CycleNever
	z.IM0Vector = 0xFF
	return z
}

// Register pair accessors.

func (z *Z80) AF() uint16     { return uint16(z.A)<<8 | uint16(z.F) }
func (z *Z80) SetAF(v uint16) { z.A = byte(v >> 8); z.F = byte(v) }
func (z *Z80) BC() uint16     { return uint16(z.B)<<8 | uint16(z.C) }
func (z *Z80) SetBC(v uint16) { z.B = byte(v >> 8); z.C = byte(v) }
func (z *Z80) DE() uint16     { return uint16(z.D)<<8 | uint16(z.E) }
func (z *Z80) SetDE(v uint16) { z.D = byte(v >> 8); z.E = byte(v) }
func (z *Z80) HL() uint16     { return uint16(z.H)<<8 | uint16(z.L) }
func (z *Z80) SetHL(v uint16) { z.H = byte(v >> 8); z.L = byte(v) }

func (z *Z80) AF2() uint16     { return uint16(z.A2)<<8 | uint16(z.F2) }
func (z *Z80) SetAF2(v uint16) { z.A2 = byte(v >> 8); z.F2 = byte(v) }
func (z *Z80) BC2() uint16     { return uint16(z.B2)<<8 | uint16(z.C2) }
func (z *Z80) SetBC2(v uint16) { z.B2 = byte(v >> 8); z.C2 = byte(v) }
func (z *Z80) DE2() uint16     { return uint16(z.D2)<<8 | uint16(z.E2) }
func (z *Z80) SetDE2(v uint16) { z.D2 = byte(v >> 8); z.E2 = byte(v) }
func (z *Z80) HL2() uint16     { return uint16(z.H2)<<8 | uint16(z.L2) }
func (z *Z80) SetHL2(v uint16) { z.H2 = byte(v >> 8); z.L2 = byte(v) }

// idx returns the active index register for the DD/FD opcode space.
func (z *Z80) idx() *uint16 {
	if z.prefixMode == z80PrefixFD {
		return &z.IY
	}
	return &z.IX
}

func (z *Z80) getIdxH() byte  { return byte(*z.idx() >> 8) }
func (z *Z80) getIdxL() byte  { return byte(*z.idx()) }
func (z *Z80) setIdxH(v byte) { p := z.idx(); *p = *p&0x00FF | uint16(v)<<8 }
func (z *Z80) setIdxL(v byte) { p := z.idx(); *p = *p&0xFF00 | uint16(v) }

// Memory access. Opcode and operand fetches share the data path; the
// 8KB bank tables cover linear RAM/ROM, everything else funnels
// through the chunk walk.

func (z *Z80) readByte(addr uint16) byte {
	if p := z.readBanks[addr>>bankShift]; p != nil {
		return p[addr&(bankSize-1)]
	}
	return z.busRead(z.memmap, uint32(addr)&z.opts.AddressMask)
}

func (z *Z80) writeByte(addr uint16, val byte) {
	if p := z.writeBanks[addr>>bankShift]; p != nil {
		p[addr&(bankSize-1)] = val
		return
	}
	z.busWrite(z.memmap, uint32(addr)&z.opts.AddressMask, val)
}

func (z *Z80) readWord(addr uint16) uint16 {
	lo := z.readByte(addr)
	hi := z.readByte(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (z *Z80) writeWord(addr uint16, val uint16) {
	z.writeByte(addr, byte(val))
	z.writeByte(addr+1, byte(val>>8))
}

// Port access bypasses the fast banks and resolves against the I/O
// chunk table. Reads present the full 16-bit port on the bus; writes
// fold it by the configured port mask first.
func (z *Z80) ioRead(port uint16) byte {
	return z.busRead(z.iomap, uint32(port))
}

func (z *Z80) ioWrite(port uint16, val byte) {
	z.busWrite(z.iomap, uint32(port)&z.opts.IOAddressMask, val)
}

func (z *Z80) fetchOp() byte {
	op := z.readByte(z.PC)
	z.PC++
	return op
}

func (z *Z80) fetchArg() byte {
	v := z.readByte(z.PC)
	z.PC++
	return v
}

func (z *Z80) fetchArg16() uint16 {
	lo := z.readByte(z.PC)
	hi := z.readByte(z.PC + 1)
	z.PC += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (z *Z80) push16(v uint16) {
	z.SP -= 2
	z.writeWord(z.SP, v)
}

func (z *Z80) pop16() uint16 {
	v := z.readWord(z.SP)
	z.SP += 2
	return v
}

// Run executes instructions until CurrentCycle reaches targetCycle on
// the master clock. Instructions are atomic: the last one may overshoot
// the target and the surplus is carried into the next call. While reset
// or bus-acknowledge is active the core only advances its clock.
func (z *Z80) Run(targetCycle uint32) {
	if z.busack || z.reset {
		z.CurrentCycle = targetCycle
		return
	}
	if z.CurrentCycle >= targetCycle {
		return
	}
	if z.NextIntPulse != nil && (z.IntPulseEnd < z.CurrentCycle || z.IntPulseEnd == CycleNever) {
		z.NextIntPulse(z)
	}
	div := z.opts.ClockDivider
	z.icount = int32((targetCycle - z.CurrentCycle + div - 1) / div)
	intIcount := z.pulseIcount(z.IntPulseStart, targetCycle)
	for {
		if z.nmiStart != CycleNever && z.icount <= z.pulseIcount(z.nmiStart, targetCycle) {
			z.takeNMI()
			z.nmiStart = CycleNever
		} else if z.icount <= intIcount && z.IFF1 && !z.afterEI {
			z.takeInterrupt()
			z.CurrentCycle = cycleAt(targetCycle, z.icount, div)
			if z.NextIntPulse != nil {
				z.NextIntPulse(z)
			} else {
				// A window installed by hand is one-shot.
				z.IntPulseStart = CycleNever
				z.IntPulseEnd = CycleNever
			}
			intIcount = z.pulseIcount(z.IntPulseStart, targetCycle)
		}

		z.afterEI = false
		z.afterLDAIR = false

		z.R++
		op := z.fetchOp()
		z.icount -= int32(z.ccOp[op])
		z80BaseOps[op](z)

		if z.fault != nil {
			z.icount = 0
		}
		if z.busreq {
			z.busack = true
			z.icount = 0
		}
		if z.icount <= 0 {
			break
		}
	}
	z.CurrentCycle = cycleAt(targetCycle, z.icount, div)
}

// cycleAt converts a (possibly negative) remaining T-state count back
// into an absolute master-clock position relative to the run target.
func cycleAt(target uint32, icount int32, div uint32) uint32 {
	return uint32(int64(target) - int64(icount)*int64(div))
}

// pulseIcount converts a pulse edge into the icount threshold at which
// the edge becomes visible within the current run.
func (z *Z80) pulseIcount(start, target uint32) int32 {
	if start >= target {
		return math.MinInt32
	}
	if start < z.CurrentCycle {
		return z.icount
	}
	div := z.opts.ClockDivider
	return int32((start - z.CurrentCycle + div - 1) / div)
}

func (z *Z80) haltInstr() {
	z.PC--
	z.Halted = true
}

func (z *Z80) leaveHalt() {
	if z.Halted {
		z.Halted = false
		z.PC++
	}
}

func (z *Z80) takeInterrupt() {
	z.leaveHalt()
	z.IFF1 = false
	z.IFF2 = false

	switch z.IM {
	case 2:
		// All 8 vector bits take part; real parts do not force the
		// low bit even though the datasheet says they should.
		vector := uint16(z.I)<<8 | uint16(z.IM2Vector)
		z.push16(z.PC)
		z.PC = z.readWord(vector)
		z.icount -= int32(z.ccOp[0xCD]) + int32(z.ccEX[0xFF])
	case 1:
		z.push16(z.PC)
		z.PC = 0x0038
		z.icount -= int32(z.ccOp[0xFF]) + int32(z.ccEX[0xFF])
	default:
		// Mode 0 executes whatever the requester jams on the bus.
		// CALL and JP are recognized; anything else is treated as a
		// single-byte RST.
		if v := z.IM0Vector; v != 0 {
			switch v & 0xFF0000 {
			case 0xCD0000:
				z.push16(z.PC)
				z.PC = uint16(v)
				z.icount -= int32(z.ccOp[0xCD])
			case 0xC30000:
				z.PC = uint16(v)
				z.icount -= int32(z.ccOp[0xC3])
			default:
				z.push16(z.PC)
				z.PC = uint16(v) & 0x0038
				z.icount -= int32(z.ccOp[0xFF])
			}
		}
		z.icount -= int32(z.ccEX[0xFF])
	}
	z.WZ = z.PC
}

func (z *Z80) takeNMI() {
	z.leaveHalt()
	z.IFF1 = false
	z.push16(z.PC)
	z.PC = 0x0066
	z.WZ = z.PC
	z.icount -= 11
}

// AssertNMI latches a non-maskable interrupt edge at the given cycle.
// The scheduler samples the latch ahead of the maskable path.
func (z *Z80) AssertNMI(cycle uint32) {
	z.nmiStart = cycle
}

// AssertReset runs the core up to the given cycle and then holds it in
// reset; Run calls only advance the clock until the line clears.
func (z *Z80) AssertReset(cycle uint32) {
	z.Run(cycle)
	z.reset = true
}

// ClearReset releases the reset line. Only the program counter, the
// refresh counters and the interrupt flip-flops are initialized; the
// general registers keep whatever pattern they held.
func (z *Z80) ClearReset(cycle uint32) {
	if !z.reset {
		return
	}
	z.Run(cycle)
	z.PC = 0x0000
	z.I = 0
	z.R = 0
	z.r2 = 0
	z.afterEI = false
	z.afterLDAIR = false
	z.IFF1 = false
	z.IFF2 = false
	z.reset = false
	z.WZ = z.PC
}

func (z *Z80) AssertBusreq(cycle uint32) {
	z.busreq = true
}

func (z *Z80) ClearBusreq(cycle uint32) {
	z.busreq = false
	z.busack = false
}

// GetBusack runs the core up to the given cycle and reports whether the
// bus has been handed over.
func (z *Z80) GetBusack(cycle uint32) bool {
	z.Run(cycle)
	return z.busack
}

// AdjustCycles rebases the context after the composing system rolls its
// master clock backwards (frame boundaries and the like). The pulse
// window keeps its width; edges that would go negative clamp to zero.
func (z *Z80) AdjustCycles(deduction uint32) {
	if z.CurrentCycle < deduction {
		fmt.Fprintf(os.Stderr, "z80: deduction of %d cycles when cycle counter is only %d\n", deduction, z.CurrentCycle)
		z.CurrentCycle = 0
	} else {
		z.CurrentCycle -= deduction
	}
	if z.nmiStart != CycleNever {
		if z.nmiStart < deduction {
			z.nmiStart = 0
		} else {
			z.nmiStart -= deduction
		}
	}
	if z.IntPulseStart != CycleNever {
		if z.IntPulseEnd < deduction {
			z.IntPulseStart = CycleNever
			z.IntPulseEnd = CycleNever
		} else {
			if z.IntPulseEnd != CycleNever {
				z.IntPulseEnd -= deduction
			}
			if z.IntPulseStart < deduction {
				z.IntPulseStart = 0
			} else {
				z.IntPulseStart -= deduction
			}
		}
	}
}
