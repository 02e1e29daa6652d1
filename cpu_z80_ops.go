// cpu_z80_ops.go - Opcode dispatch tables and handlers for all six opcode spaces

package main

import (
	"fmt"
	"os"
	"sync"
)

// The dispatch tables are immutable after construction and shared by
// every context in the process.
var (
	z80BaseOps [256]func(*Z80)
	z80CBOps   [256]func(*Z80)
	z80EDOps   [256]func(*Z80)
	z80XYOps   [256]func(*Z80)
	z80XYCBOps [256]func(*Z80)

	z80OpsOnce sync.Once
)

// Register selectors in opcode encoding order: B C D E H L (HL) A.
// Slot 6 is nil; handlers that can touch (HL) special-case it.
var z80RegGet = [8]func(*Z80) byte{
	func(z *Z80) byte { return z.B },
	func(z *Z80) byte { return z.C },
	func(z *Z80) byte { return z.D },
	func(z *Z80) byte { return z.E },
	func(z *Z80) byte { return z.H },
	func(z *Z80) byte { return z.L },
	nil,
	func(z *Z80) byte { return z.A },
}

var z80RegSet = [8]func(*Z80, byte){
	func(z *Z80, v byte) { z.B = v },
	func(z *Z80, v byte) { z.C = v },
	func(z *Z80, v byte) { z.D = v },
	func(z *Z80, v byte) { z.E = v },
	func(z *Z80, v byte) { z.H = v },
	func(z *Z80, v byte) { z.L = v },
	nil,
	func(z *Z80, v byte) { z.A = v },
}

// Index-space selectors: H and L are replaced by the high/low halves of
// the active index register.
var z80XYRegGet = [8]func(*Z80) byte{
	func(z *Z80) byte { return z.B },
	func(z *Z80) byte { return z.C },
	func(z *Z80) byte { return z.D },
	func(z *Z80) byte { return z.E },
	(*Z80).getIdxH,
	(*Z80).getIdxL,
	nil,
	func(z *Z80) byte { return z.A },
}

var z80XYRegSet = [8]func(*Z80, byte){
	func(z *Z80, v byte) { z.B = v },
	func(z *Z80, v byte) { z.C = v },
	func(z *Z80, v byte) { z.D = v },
	func(z *Z80, v byte) { z.E = v },
	(*Z80).setIdxH,
	(*Z80).setIdxL,
	nil,
	func(z *Z80, v byte) { z.A = v },
}

// ALU column order for opcodes 0x80-0xBF: ADD ADC SUB SBC AND XOR OR CP.
var z80ALUOps = [8]func(*Z80, byte){
	(*Z80).addA,
	(*Z80).adcA,
	(*Z80).subA,
	(*Z80).sbcA,
	(*Z80).andA,
	(*Z80).xorA,
	(*Z80).orA,
	(*Z80).cpA,
}

// CB row order for opcodes 0x00-0x3F: RLC RRC RL RR SLA SRA SLL SRL.
var z80ShiftOps = [8]func(*Z80, byte) byte{
	(*Z80).rlc8,
	(*Z80).rrc8,
	(*Z80).rl8,
	(*Z80).rr8,
	(*Z80).sla8,
	(*Z80).sra8,
	(*Z80).sll8,
	(*Z80).srl8,
}

func initZ80Ops() {
	initZ80BaseOps()
	initZ80CBOps()
	initZ80EDOps()
	initZ80XYOps()
	initZ80XYCBOps()
}

// Prefix dispatch. Costs for the second opcode byte come from the
// table of the space being entered.

func (z *Z80) execCB() {
	op := z.fetchOp()
	z.icount -= int32(z.ccCB[op])
	z80CBOps[op](z)
}

func (z *Z80) execED() {
	op := z.fetchOp()
	z.icount -= int32(z.ccED[op])
	z80EDOps[op](z)
}

func (z *Z80) execXY(prefix byte) {
	op := z.fetchOp()
	z.icount -= int32(z.ccXY[op])
	prev := z.prefixMode
	z.prefixMode = prefix
	z80XYOps[op](z)
	z.prefixMode = prev
}

func (z *Z80) execXYCB() {
	z.loadEA()
	op := z.fetchArg()
	z.icount -= int32(z.ccXYCB[op])
	z80XYCBOps[op](z)
}

// loadEA resolves the indexed effective address once per instruction;
// the handlers reference the latch instead of recomputing it.
func (z *Z80) loadEA() {
	z.ea = *z.idx() + uint16(int16(int8(z.fetchArg())))
	z.WZ = z.ea
}

// A DD/FD prefix in front of an opcode with no indexed meaning: the
// prefix is reported and the unprefixed handler runs.
func (z *Z80) illegal1() {
	fmt.Fprintf(os.Stderr, "z80: index prefix has no effect on opcode at %04X\n", z.PC-1)
}

// Unrecognized ED opcode: reported, otherwise behaves as two NOPs.
func (z *Z80) illegal2() {
	fmt.Fprintf(os.Stderr, "z80: illegal ED-prefixed opcode at %04X\n", z.PC-1)
}

func initZ80BaseOps() {
	t := &z80BaseOps

	t[0x00] = func(z *Z80) {}
	t[0x01] = func(z *Z80) { z.SetBC(z.fetchArg16()) }
	t[0x02] = func(z *Z80) {
		z.writeByte(z.BC(), z.A)
		z.WZ = (z.BC()+1)&0x00FF | uint16(z.A)<<8
	}
	t[0x03] = func(z *Z80) { z.SetBC(z.BC() + 1) }
	t[0x06] = func(z *Z80) { z.B = z.fetchArg() }
	t[0x07] = (*Z80).rlca
	t[0x08] = (*Z80).exAF
	t[0x09] = func(z *Z80) { z.SetHL(z.add16(z.HL(), z.BC())) }
	t[0x0A] = func(z *Z80) { z.A = z.readByte(z.BC()); z.WZ = z.BC() + 1 }
	t[0x0B] = func(z *Z80) { z.SetBC(z.BC() - 1) }
	t[0x0E] = func(z *Z80) { z.C = z.fetchArg() }
	t[0x0F] = (*Z80).rrca

	t[0x10] = func(z *Z80) { z.B--; z.jrCond(z.B != 0, 0x10) }
	t[0x11] = func(z *Z80) { z.SetDE(z.fetchArg16()) }
	t[0x12] = func(z *Z80) {
		z.writeByte(z.DE(), z.A)
		z.WZ = (z.DE()+1)&0x00FF | uint16(z.A)<<8
	}
	t[0x13] = func(z *Z80) { z.SetDE(z.DE() + 1) }
	t[0x16] = func(z *Z80) { z.D = z.fetchArg() }
	t[0x17] = (*Z80).rla
	t[0x18] = (*Z80).jr
	t[0x19] = func(z *Z80) { z.SetHL(z.add16(z.HL(), z.DE())) }
	t[0x1A] = func(z *Z80) { z.A = z.readByte(z.DE()); z.WZ = z.DE() + 1 }
	t[0x1B] = func(z *Z80) { z.SetDE(z.DE() - 1) }
	t[0x1E] = func(z *Z80) { z.E = z.fetchArg() }
	t[0x1F] = (*Z80).rra

	t[0x20] = func(z *Z80) { z.jrCond(z.F&flagZ == 0, 0x20) }
	t[0x21] = func(z *Z80) { z.SetHL(z.fetchArg16()) }
	t[0x22] = func(z *Z80) {
		z.ea = z.fetchArg16()
		z.writeWord(z.ea, z.HL())
		z.WZ = z.ea + 1
	}
	t[0x23] = func(z *Z80) { z.SetHL(z.HL() + 1) }
	t[0x26] = func(z *Z80) { z.H = z.fetchArg() }
	t[0x27] = (*Z80).daa
	t[0x28] = func(z *Z80) { z.jrCond(z.F&flagZ != 0, 0x28) }
	t[0x29] = func(z *Z80) { z.SetHL(z.add16(z.HL(), z.HL())) }
	t[0x2A] = func(z *Z80) {
		z.ea = z.fetchArg16()
		z.SetHL(z.readWord(z.ea))
		z.WZ = z.ea + 1
	}
	t[0x2B] = func(z *Z80) { z.SetHL(z.HL() - 1) }
	t[0x2E] = func(z *Z80) { z.L = z.fetchArg() }
	t[0x2F] = func(z *Z80) {
		z.A ^= 0xFF
		z.F = z.F&(flagS|flagZ|flagP|flagC) | flagH | flagN | z.A&(flagY|flagX)
	}

	t[0x30] = func(z *Z80) { z.jrCond(z.F&flagC == 0, 0x30) }
	t[0x31] = func(z *Z80) { z.SP = z.fetchArg16() }
	t[0x32] = func(z *Z80) {
		z.ea = z.fetchArg16()
		z.writeByte(z.ea, z.A)
		z.WZ = (z.ea+1)&0x00FF | uint16(z.A)<<8
	}
	t[0x33] = func(z *Z80) { z.SP++ }
	t[0x34] = func(z *Z80) { z.writeByte(z.HL(), z.inc8(z.readByte(z.HL()))) }
	t[0x35] = func(z *Z80) { z.writeByte(z.HL(), z.dec8(z.readByte(z.HL()))) }
	t[0x36] = func(z *Z80) { z.writeByte(z.HL(), z.fetchArg()) }
	t[0x37] = func(z *Z80) {
		z.F = z.F&(flagS|flagZ|flagY|flagX|flagP) | flagC | z.A&(flagY|flagX)
	}
	t[0x38] = func(z *Z80) { z.jrCond(z.F&flagC != 0, 0x38) }
	t[0x39] = func(z *Z80) { z.SetHL(z.add16(z.HL(), z.SP)) }
	t[0x3A] = func(z *Z80) {
		z.ea = z.fetchArg16()
		z.A = z.readByte(z.ea)
		z.WZ = z.ea + 1
	}
	t[0x3B] = func(z *Z80) { z.SP-- }
	t[0x3E] = func(z *Z80) { z.A = z.fetchArg() }
	t[0x3F] = func(z *Z80) {
		z.F = (z.F&(flagS|flagZ|flagY|flagX|flagP|flagC) | (z.F&flagC)<<4 | z.A&(flagY|flagX)) ^ flagC
	}

	// INC r / DEC r columns of rows 0x00-0x3F.
	for r := 0; r < 8; r++ {
		if r == 6 {
			continue
		}
		get, set := z80RegGet[r], z80RegSet[r]
		t[0x04+r*8] = func(z *Z80) { set(z, z.inc8(get(z))) }
		t[0x05+r*8] = func(z *Z80) { set(z, z.dec8(get(z))) }
	}

	// LD r,r' block.
	for dst := 0; dst < 8; dst++ {
		for src := 0; src < 8; src++ {
			op := 0x40 + dst*8 + src
			switch {
			case dst == 6 && src == 6:
				t[op] = (*Z80).haltInstr
			case dst == 6:
				get := z80RegGet[src]
				t[op] = func(z *Z80) { z.writeByte(z.HL(), get(z)) }
			case src == 6:
				set := z80RegSet[dst]
				t[op] = func(z *Z80) { set(z, z.readByte(z.HL())) }
			default:
				get, set := z80RegGet[src], z80RegSet[dst]
				t[op] = func(z *Z80) { set(z, get(z)) }
			}
		}
	}

	// ALU A,r block.
	for col := 0; col < 8; col++ {
		alu := z80ALUOps[col]
		for src := 0; src < 8; src++ {
			op := 0x80 + col*8 + src
			if src == 6 {
				t[op] = func(z *Z80) { alu(z, z.readByte(z.HL())) }
			} else {
				get := z80RegGet[src]
				t[op] = func(z *Z80) { alu(z, get(z)) }
			}
		}
		// ALU A,n immediate column.
		t[0xC6+col*8] = func(z *Z80) { alu(z, z.fetchArg()) }
	}

	t[0xC0] = func(z *Z80) { z.retCond(z.F&flagZ == 0, 0xC0) }
	t[0xC1] = func(z *Z80) { z.SetBC(z.pop16()) }
	t[0xC2] = func(z *Z80) { z.jpCond(z.F&flagZ == 0) }
	t[0xC3] = (*Z80).jp
	t[0xC4] = func(z *Z80) { z.callCond(z.F&flagZ == 0, 0xC4) }
	t[0xC5] = func(z *Z80) { z.push16(z.BC()) }
	t[0xC7] = func(z *Z80) { z.rst(0x00) }
	t[0xC8] = func(z *Z80) { z.retCond(z.F&flagZ != 0, 0xC8) }
	t[0xC9] = func(z *Z80) { z.PC = z.pop16(); z.WZ = z.PC }
	t[0xCA] = func(z *Z80) { z.jpCond(z.F&flagZ != 0) }
	t[0xCB] = func(z *Z80) { z.R++; z.execCB() }
	t[0xCC] = func(z *Z80) { z.callCond(z.F&flagZ != 0, 0xCC) }
	t[0xCD] = (*Z80).call
	t[0xCF] = func(z *Z80) { z.rst(0x08) }

	t[0xD0] = func(z *Z80) { z.retCond(z.F&flagC == 0, 0xD0) }
	t[0xD1] = func(z *Z80) { z.SetDE(z.pop16()) }
	t[0xD2] = func(z *Z80) { z.jpCond(z.F&flagC == 0) }
	t[0xD3] = func(z *Z80) {
		n := uint16(z.fetchArg()) | uint16(z.A)<<8
		z.ioWrite(n, z.A)
		z.WZ = uint16(byte(n)+1) | uint16(z.A)<<8
	}
	t[0xD4] = func(z *Z80) { z.callCond(z.F&flagC == 0, 0xD4) }
	t[0xD5] = func(z *Z80) { z.push16(z.DE()) }
	t[0xD7] = func(z *Z80) { z.rst(0x10) }
	t[0xD8] = func(z *Z80) { z.retCond(z.F&flagC != 0, 0xD8) }
	t[0xD9] = (*Z80).exx
	t[0xDA] = func(z *Z80) { z.jpCond(z.F&flagC != 0) }
	t[0xDB] = func(z *Z80) {
		n := uint16(z.fetchArg()) | uint16(z.A)<<8
		z.A = z.ioRead(n)
		z.WZ = n + 1
	}
	t[0xDC] = func(z *Z80) { z.callCond(z.F&flagC != 0, 0xDC) }
	t[0xDD] = func(z *Z80) { z.R++; z.execXY(z80PrefixDD) }
	t[0xDF] = func(z *Z80) { z.rst(0x18) }

	t[0xE0] = func(z *Z80) { z.retCond(z.F&flagP == 0, 0xE0) }
	t[0xE1] = func(z *Z80) { z.SetHL(z.pop16()) }
	t[0xE2] = func(z *Z80) { z.jpCond(z.F&flagP == 0) }
	t[0xE3] = (*Z80).exSPHL
	t[0xE4] = func(z *Z80) { z.callCond(z.F&flagP == 0, 0xE4) }
	t[0xE5] = func(z *Z80) { z.push16(z.HL()) }
	t[0xE7] = func(z *Z80) { z.rst(0x20) }
	t[0xE8] = func(z *Z80) { z.retCond(z.F&flagP != 0, 0xE8) }
	t[0xE9] = func(z *Z80) { z.PC = z.HL() }
	t[0xEA] = func(z *Z80) { z.jpCond(z.F&flagP != 0) }
	t[0xEB] = (*Z80).exDEHL
	t[0xEC] = func(z *Z80) { z.callCond(z.F&flagP != 0, 0xEC) }
	t[0xED] = func(z *Z80) { z.R++; z.execED() }
	t[0xEF] = func(z *Z80) { z.rst(0x28) }

	t[0xF0] = func(z *Z80) { z.retCond(z.F&flagS == 0, 0xF0) }
	t[0xF1] = func(z *Z80) { z.SetAF(z.pop16()) }
	t[0xF2] = func(z *Z80) { z.jpCond(z.F&flagS == 0) }
	t[0xF3] = func(z *Z80) { z.IFF1 = false; z.IFF2 = false }
	t[0xF4] = func(z *Z80) { z.callCond(z.F&flagS == 0, 0xF4) }
	t[0xF5] = func(z *Z80) { z.push16(z.AF()) }
	t[0xF7] = func(z *Z80) { z.rst(0x30) }
	t[0xF8] = func(z *Z80) { z.retCond(z.F&flagS != 0, 0xF8) }
	t[0xF9] = func(z *Z80) { z.SP = z.HL() }
	t[0xFA] = func(z *Z80) { z.jpCond(z.F&flagS != 0) }
	t[0xFB] = (*Z80).ei
	t[0xFC] = func(z *Z80) { z.callCond(z.F&flagS != 0, 0xFC) }
	t[0xFD] = func(z *Z80) { z.R++; z.execXY(z80PrefixFD) }
	t[0xFF] = func(z *Z80) { z.rst(0x38) }
}

func initZ80CBOps() {
	t := &z80CBOps

	// Rotate/shift rows.
	for row := 0; row < 8; row++ {
		shift := z80ShiftOps[row]
		for r := 0; r < 8; r++ {
			op := row*8 + r
			if r == 6 {
				t[op] = func(z *Z80) { z.writeByte(z.HL(), shift(z, z.readByte(z.HL()))) }
			} else {
				get, set := z80RegGet[r], z80RegSet[r]
				t[op] = func(z *Z80) { set(z, shift(z, get(z))) }
			}
		}
	}

	// BIT / RES / SET rows.
	for b := 0; b < 8; b++ {
		bit := b
		for r := 0; r < 8; r++ {
			mask := byte(1 << bit)
			if r == 6 {
				t[0x40+b*8+r] = func(z *Z80) { z.bitHL(bit, z.readByte(z.HL())) }
				t[0x80+b*8+r] = func(z *Z80) {
					z.writeByte(z.HL(), z.readByte(z.HL())&^mask)
				}
				t[0xC0+b*8+r] = func(z *Z80) {
					z.writeByte(z.HL(), z.readByte(z.HL())|mask)
				}
				continue
			}
			get, set := z80RegGet[r], z80RegSet[r]
			t[0x40+b*8+r] = func(z *Z80) { z.bit(bit, get(z)) }
			t[0x80+b*8+r] = func(z *Z80) { set(z, get(z)&^mask) }
			t[0xC0+b*8+r] = func(z *Z80) { set(z, get(z)|mask) }
		}
	}
}

func initZ80EDOps() {
	t := &z80EDOps

	for i := range t {
		t[i] = (*Z80).illegal2
	}

	// IN r,(C) / OUT (C),r columns. Slot 6 only sets flags on input and
	// drives zero on output (the undocumented forms).
	for r := 0; r < 8; r++ {
		inOp, outOp := 0x40+r*8, 0x41+r*8
		if r == 6 {
			t[inOp] = func(z *Z80) {
				res := z.ioRead(z.BC())
				z.F = z.F&flagC | szpFlags[res]
			}
			t[outOp] = func(z *Z80) { z.ioWrite(z.BC(), 0) }
			continue
		}
		get, set := z80RegGet[r], z80RegSet[r]
		t[inOp] = func(z *Z80) {
			v := z.ioRead(z.BC())
			set(z, v)
			z.F = z.F&flagC | szpFlags[v]
		}
		t[outOp] = func(z *Z80) { z.ioWrite(z.BC(), get(z)) }
	}
	t[0x78] = func(z *Z80) {
		z.A = z.ioRead(z.BC())
		z.F = z.F&flagC | szpFlags[z.A]
		z.WZ = z.BC() + 1
	}
	t[0x79] = func(z *Z80) {
		z.ioWrite(z.BC(), z.A)
		z.WZ = z.BC() + 1
	}

	// 16-bit arithmetic and absolute pair loads/stores.
	pairGet := [4]func(*Z80) uint16{(*Z80).BC, (*Z80).DE, (*Z80).HL, func(z *Z80) uint16 { return z.SP }}
	pairSet := [4]func(*Z80, uint16){(*Z80).SetBC, (*Z80).SetDE, (*Z80).SetHL, func(z *Z80, v uint16) { z.SP = v }}
	for p := 0; p < 4; p++ {
		get, set := pairGet[p], pairSet[p]
		t[0x42+p*16] = func(z *Z80) { z.sbcHL(get(z)) }
		t[0x4A+p*16] = func(z *Z80) { z.adcHL(get(z)) }
		t[0x43+p*16] = func(z *Z80) {
			z.ea = z.fetchArg16()
			z.writeWord(z.ea, get(z))
			z.WZ = z.ea + 1
		}
		t[0x4B+p*16] = func(z *Z80) {
			z.ea = z.fetchArg16()
			set(z, z.readWord(z.ea))
			z.WZ = z.ea + 1
		}
	}

	for _, op := range []int{0x44, 0x4C, 0x54, 0x5C, 0x64, 0x6C, 0x74, 0x7C} {
		t[op] = (*Z80).neg
	}
	for _, op := range []int{0x45, 0x55, 0x65, 0x75} {
		t[op] = (*Z80).retn
	}
	for _, op := range []int{0x4D, 0x5D, 0x6D, 0x7D} {
		t[op] = (*Z80).reti
	}
	for _, op := range []int{0x46, 0x4E, 0x66, 0x6E} {
		t[op] = func(z *Z80) { z.IM = 0 }
	}
	for _, op := range []int{0x56, 0x76} {
		t[op] = func(z *Z80) { z.IM = 1 }
	}
	for _, op := range []int{0x5E, 0x7E} {
		t[op] = func(z *Z80) { z.IM = 2 }
	}

	t[0x47] = func(z *Z80) { z.I = z.A }
	t[0x4F] = func(z *Z80) { z.R = z.A; z.r2 = z.A & 0x80 }
	t[0x57] = (*Z80).ldAI
	t[0x5F] = (*Z80).ldAR
	t[0x67] = (*Z80).rrd
	t[0x6F] = (*Z80).rld

	t[0xA0] = (*Z80).ldi
	t[0xA1] = (*Z80).cpi
	t[0xA2] = (*Z80).ini
	t[0xA3] = (*Z80).outi
	t[0xA8] = (*Z80).ldd
	t[0xA9] = (*Z80).cpd
	t[0xAA] = (*Z80).ind
	t[0xAB] = (*Z80).outd
	t[0xB0] = (*Z80).ldir
	t[0xB1] = (*Z80).cpir
	t[0xB2] = (*Z80).inir
	t[0xB3] = (*Z80).otir
	t[0xB8] = (*Z80).lddr
	t[0xB9] = (*Z80).cpdr
	t[0xBA] = (*Z80).indr
	t[0xBB] = (*Z80).otdr
}

func initZ80XYOps() {
	t := &z80XYOps

	// Default: prefix has no indexed meaning, report and fall through
	// to the unprefixed handler (already charged at prefix cost).
	for i := range t {
		op := i
		t[i] = func(z *Z80) {
			z.illegal1()
			z80BaseOps[op](z)
		}
	}

	// 16-bit arithmetic on the index register.
	t[0x09] = func(z *Z80) { p := z.idx(); *p = z.add16(*p, z.BC()) }
	t[0x19] = func(z *Z80) { p := z.idx(); *p = z.add16(*p, z.DE()) }
	t[0x29] = func(z *Z80) { p := z.idx(); *p = z.add16(*p, *p) }
	t[0x39] = func(z *Z80) { p := z.idx(); *p = z.add16(*p, z.SP) }

	t[0x21] = func(z *Z80) { *z.idx() = z.fetchArg16() }
	t[0x22] = func(z *Z80) {
		z.ea = z.fetchArg16()
		z.writeWord(z.ea, *z.idx())
		z.WZ = z.ea + 1
	}
	t[0x23] = func(z *Z80) { *z.idx()++ }
	t[0x2A] = func(z *Z80) {
		z.ea = z.fetchArg16()
		*z.idx() = z.readWord(z.ea)
		z.WZ = z.ea + 1
	}
	t[0x2B] = func(z *Z80) { *z.idx()-- }

	// INC/DEC/LD n on the index halves and the indexed cell.
	t[0x24] = func(z *Z80) { z.setIdxH(z.inc8(z.getIdxH())) }
	t[0x25] = func(z *Z80) { z.setIdxH(z.dec8(z.getIdxH())) }
	t[0x26] = func(z *Z80) { z.setIdxH(z.fetchArg()) }
	t[0x2C] = func(z *Z80) { z.setIdxL(z.inc8(z.getIdxL())) }
	t[0x2D] = func(z *Z80) { z.setIdxL(z.dec8(z.getIdxL())) }
	t[0x2E] = func(z *Z80) { z.setIdxL(z.fetchArg()) }
	t[0x34] = func(z *Z80) { z.loadEA(); z.writeByte(z.ea, z.inc8(z.readByte(z.ea))) }
	t[0x35] = func(z *Z80) { z.loadEA(); z.writeByte(z.ea, z.dec8(z.readByte(z.ea))) }
	t[0x36] = func(z *Z80) { z.loadEA(); z.writeByte(z.ea, z.fetchArg()) }

	// LD block: H/L selectors become the index halves, the (HL) column
	// becomes the indexed cell with real H/L as transfer partners.
	for dst := 0; dst < 8; dst++ {
		for src := 0; src < 8; src++ {
			op := 0x40 + dst*8 + src
			switch {
			case dst == 6 && src == 6:
				// halt, stays on the fallback path
			case dst == 6:
				get := z80RegGet[src]
				t[op] = func(z *Z80) { z.loadEA(); z.writeByte(z.ea, get(z)) }
			case src == 6:
				set := z80RegSet[dst]
				t[op] = func(z *Z80) { z.loadEA(); set(z, z.readByte(z.ea)) }
			case dst >= 4 && dst <= 5 || src >= 4 && src <= 5:
				get, set := z80XYRegGet[src], z80XYRegSet[dst]
				t[op] = func(z *Z80) { set(z, get(z)) }
			}
		}
	}

	// ALU block on index halves and the indexed cell.
	for col := 0; col < 8; col++ {
		alu := z80ALUOps[col]
		t[0x84+col*8] = func(z *Z80) { alu(z, z.getIdxH()) }
		t[0x85+col*8] = func(z *Z80) { alu(z, z.getIdxL()) }
		t[0x86+col*8] = func(z *Z80) { z.loadEA(); alu(z, z.readByte(z.ea)) }
	}

	t[0xCB] = func(z *Z80) { z.R++; z.execXYCB() }
	t[0xE1] = func(z *Z80) { *z.idx() = z.pop16() }
	t[0xE3] = (*Z80).exSPIdx
	t[0xE5] = func(z *Z80) { z.push16(*z.idx()) }
	t[0xE9] = func(z *Z80) { z.PC = *z.idx() }
	t[0xF9] = func(z *Z80) { z.SP = *z.idx() }
}

func initZ80XYCBOps() {
	t := &z80XYCBOps

	// Rotate/shift rows always hit memory at the latched address; a
	// non-(HL) selector additionally copies the result into that
	// register (the undocumented store-back forms).
	for row := 0; row < 8; row++ {
		shift := z80ShiftOps[row]
		for r := 0; r < 8; r++ {
			op := row*8 + r
			if r == 6 {
				t[op] = func(z *Z80) { z.writeByte(z.ea, shift(z, z.readByte(z.ea))) }
			} else {
				set := z80RegSet[r]
				t[op] = func(z *Z80) {
					v := shift(z, z.readByte(z.ea))
					set(z, v)
					z.writeByte(z.ea, v)
				}
			}
		}
	}

	for b := 0; b < 8; b++ {
		bit := b
		// The BIT rows ignore the register selector entirely: all
		// eight column entries alias to the same memory test.
		for r := 0; r < 8; r++ {
			t[0x40+b*8+r] = func(z *Z80) { z.bitXY(bit, z.readByte(z.ea)) }
		}
		mask := byte(1 << bit)
		for r := 0; r < 8; r++ {
			op := 0x80 + b*8 + r
			setOp := 0xC0 + b*8 + r
			if r == 6 {
				t[op] = func(z *Z80) { z.writeByte(z.ea, z.readByte(z.ea)&^mask) }
				t[setOp] = func(z *Z80) { z.writeByte(z.ea, z.readByte(z.ea)|mask) }
				continue
			}
			set := z80RegSet[r]
			t[op] = func(z *Z80) {
				v := z.readByte(z.ea) &^ mask
				set(z, v)
				z.writeByte(z.ea, v)
			}
			t[setOp] = func(z *Z80) {
				v := z.readByte(z.ea) | mask
				set(z, v)
				z.writeByte(z.ea, v)
			}
		}
	}
}
