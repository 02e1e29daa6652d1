// cpu_z80_alu.go - ALU primitives, control-flow helpers and block instructions

package main

// 8-bit arithmetic goes through the precomputed tables indexed by
// carry-in, pre-operation accumulator and result; that reproduces the
// undocumented bit 5/3 behavior without per-call branching.

func (z *Z80) addA(value byte) {
	ah := uint32(z.A) << 8
	res := uint32(z.A + value)
	z.F = addFlags[ah|res]
	z.A = byte(res)
}

func (z *Z80) adcA(value byte) {
	c := uint32(z.F & flagC)
	ah := uint32(z.A) << 8
	res := uint32(z.A + value + byte(c))
	z.F = addFlags[c<<16|ah|res]
	z.A = byte(res)
}

func (z *Z80) subA(value byte) {
	ah := uint32(z.A) << 8
	res := uint32(z.A - value)
	z.F = subFlags[ah|res]
	z.A = byte(res)
}

func (z *Z80) sbcA(value byte) {
	c := uint32(z.F & flagC)
	ah := uint32(z.A) << 8
	res := uint32(z.A - value - byte(c))
	z.F = subFlags[c<<16|ah|res]
	z.A = byte(res)
}

func (z *Z80) andA(value byte) {
	z.A &= value
	z.F = szpFlags[z.A] | flagH
}

func (z *Z80) xorA(value byte) {
	z.A ^= value
	z.F = szpFlags[z.A]
}

func (z *Z80) orA(value byte) {
	z.A |= value
	z.F = szpFlags[z.A]
}

// cpA keeps the accumulator but takes the undocumented bits from the
// operand rather than the difference.
func (z *Z80) cpA(value byte) {
	ah := uint32(z.A) << 8
	res := uint32(z.A - value)
	z.F = subFlags[ah|res]&^(flagY|flagX) | value&(flagY|flagX)
}

func (z *Z80) neg() {
	value := z.A
	z.A = 0
	z.subA(value)
}

func (z *Z80) inc8(value byte) byte {
	res := value + 1
	z.F = z.F&flagC | incFlags[res]
	return res
}

func (z *Z80) dec8(value byte) byte {
	res := value - 1
	z.F = z.F&flagC | decFlags[res]
	return res
}

func (z *Z80) daa() {
	a := z.A
	if z.F&flagN != 0 {
		if z.F&flagH != 0 || z.A&0x0F > 9 {
			a -= 6
		}
		if z.F&flagC != 0 || z.A > 0x99 {
			a -= 0x60
		}
	} else {
		if z.F&flagH != 0 || z.A&0x0F > 9 {
			a += 6
		}
		if z.F&flagC != 0 || z.A > 0x99 {
			a += 0x60
		}
	}
	f := z.F & (flagC | flagN)
	if z.A > 0x99 {
		f |= flagC
	}
	f |= (z.A ^ a) & flagH
	f |= szpFlags[a]
	z.F = f
	z.A = a
}

// Accumulator rotates keep S/Z/P and take the undocumented bits from
// the rotated result.

func (z *Z80) rlca() {
	z.A = z.A<<1 | z.A>>7
	z.F = z.F&(flagS|flagZ|flagP) | z.A&(flagY|flagX|flagC)
}

func (z *Z80) rrca() {
	z.F = z.F&(flagS|flagZ|flagP) | z.A&flagC
	z.A = z.A>>1 | z.A<<7
	z.F |= z.A & (flagY | flagX)
}

func (z *Z80) rla() {
	res := z.A<<1 | z.F&flagC
	var c byte
	if z.A&0x80 != 0 {
		c = flagC
	}
	z.F = z.F&(flagS|flagZ|flagP) | c | res&(flagY|flagX)
	z.A = res
}

func (z *Z80) rra() {
	res := z.A>>1 | z.F<<7
	var c byte
	if z.A&0x01 != 0 {
		c = flagC
	}
	z.F = z.F&(flagS|flagZ|flagP) | c | res&(flagY|flagX)
	z.A = res
}

// CB-space rotates and shifts.

func (z *Z80) rlc8(value byte) byte {
	c := value >> 7 & flagC
	res := value<<1 | value>>7
	z.F = szpFlags[res] | c
	return res
}

func (z *Z80) rrc8(value byte) byte {
	c := value & flagC
	res := value>>1 | value<<7
	z.F = szpFlags[res] | c
	return res
}

func (z *Z80) rl8(value byte) byte {
	c := value >> 7 & flagC
	res := value<<1 | z.F&flagC
	z.F = szpFlags[res] | c
	return res
}

func (z *Z80) rr8(value byte) byte {
	c := value & flagC
	res := value>>1 | z.F<<7
	z.F = szpFlags[res] | c
	return res
}

func (z *Z80) sla8(value byte) byte {
	c := value >> 7 & flagC
	res := value << 1
	z.F = szpFlags[res] | c
	return res
}

func (z *Z80) sra8(value byte) byte {
	c := value & flagC
	res := value>>1 | value&0x80
	z.F = szpFlags[res] | c
	return res
}

func (z *Z80) sll8(value byte) byte {
	c := value >> 7 & flagC
	res := value<<1 | 0x01
	z.F = szpFlags[res] | c
	return res
}

func (z *Z80) srl8(value byte) byte {
	c := value & flagC
	res := value >> 1
	z.F = szpFlags[res] | c
	return res
}

// BIT takes the undocumented bits from the operand for registers, from
// the address latch high byte for (HL), and from the effective-address
// high byte for the indexed forms.

func (z *Z80) bit(bit int, value byte) {
	z.F = z.F&flagC | flagH | szBitFlags[value&byte(1<<bit)]&^(flagY|flagX) | value&(flagY|flagX)
}

func (z *Z80) bitHL(bit int, value byte) {
	z.F = z.F&flagC | flagH | szBitFlags[value&byte(1<<bit)]&^(flagY|flagX) | byte(z.WZ>>8)&(flagY|flagX)
}

func (z *Z80) bitXY(bit int, value byte) {
	z.F = z.F&flagC | flagH | szBitFlags[value&byte(1<<bit)]&^(flagY|flagX) | byte(z.ea>>8)&(flagY|flagX)
}

func (z *Z80) rrd() {
	n := z.readByte(z.HL())
	z.WZ = z.HL() + 1
	z.writeByte(z.HL(), n>>4|z.A<<4)
	z.A = z.A&0xF0 | n&0x0F
	z.F = z.F&flagC | szpFlags[z.A]
}

func (z *Z80) rld() {
	n := z.readByte(z.HL())
	z.WZ = z.HL() + 1
	z.writeByte(z.HL(), n<<4|z.A&0x0F)
	z.A = z.A&0xF0 | n>>4
	z.F = z.F&flagC | szpFlags[z.A]
}

// 16-bit arithmetic computes flags algebraically: half-carry out of
// bit 11, carry out of bit 15, overflow from the sign-bit mismatch.

func (z *Z80) add16(dst, src uint16) uint16 {
	res := uint32(dst) + uint32(src)
	z.WZ = dst + 1
	z.F = z.F&(flagS|flagZ|flagP) |
		byte((uint32(dst)^res^uint32(src))>>8)&flagH |
		byte(res>>16)&flagC |
		byte(res>>8)&(flagY|flagX)
	return uint16(res)
}

func (z *Z80) adcHL(val uint16) {
	hl := uint32(z.HL())
	res := hl + uint32(val) + uint32(z.F&flagC)
	z.WZ = z.HL() + 1
	f := byte((hl^res^uint32(val))>>8) & flagH
	f |= byte(res>>16) & flagC
	f |= byte(res>>8) & (flagS | flagY | flagX)
	if res&0xFFFF == 0 {
		f |= flagZ
	}
	f |= byte(((uint32(val) ^ hl ^ 0x8000) & (uint32(val) ^ res) & 0x8000) >> 13)
	z.F = f
	z.SetHL(uint16(res))
}

func (z *Z80) sbcHL(val uint16) {
	hl := uint32(z.HL())
	res := hl - uint32(val) - uint32(z.F&flagC)
	z.WZ = z.HL() + 1
	f := byte((hl^res^uint32(val))>>8)&flagH | flagN
	f |= byte(res>>16) & flagC
	f |= byte(res>>8) & (flagS | flagY | flagX)
	if res&0xFFFF == 0 {
		f |= flagZ
	}
	f |= byte(((uint32(val) ^ hl) & (hl ^ res) & 0x8000) >> 13)
	z.F = f
	z.SetHL(uint16(res))
}

// Exchanges.

func (z *Z80) exAF() {
	z.A, z.A2 = z.A2, z.A
	z.F, z.F2 = z.F2, z.F
}

func (z *Z80) exDEHL() {
	z.D, z.H = z.H, z.D
	z.E, z.L = z.L, z.E
}

func (z *Z80) exx() {
	z.B, z.B2 = z.B2, z.B
	z.C, z.C2 = z.C2, z.C
	z.D, z.D2 = z.D2, z.D
	z.E, z.E2 = z.E2, z.E
	z.H, z.H2 = z.H2, z.H
	z.L, z.L2 = z.L2, z.L
}

func (z *Z80) exSPHL() {
	tmp := z.readWord(z.SP)
	z.writeWord(z.SP, z.HL())
	z.SetHL(tmp)
	z.WZ = tmp
}

func (z *Z80) exSPIdx() {
	p := z.idx()
	tmp := z.readWord(z.SP)
	z.writeWord(z.SP, *p)
	*p = tmp
	z.WZ = tmp
}

// Control flow. Conditional forms charge the extra-cycle table entry
// for their own opcode when the branch is taken.

func (z *Z80) jr() {
	d := int8(z.fetchArg())
	z.PC += uint16(int16(d))
	z.WZ = z.PC
}

func (z *Z80) jrCond(cond bool, opcode byte) {
	if cond {
		z.jr()
		z.icount -= int32(z.ccEX[opcode])
	} else {
		z.PC++
	}
}

func (z *Z80) jp() {
	z.PC = z.fetchArg16()
	z.WZ = z.PC
}

func (z *Z80) jpCond(cond bool) {
	if cond {
		z.jp()
	} else {
		z.WZ = z.fetchArg16()
	}
}

func (z *Z80) call() {
	z.ea = z.fetchArg16()
	z.WZ = z.ea
	z.push16(z.PC)
	z.PC = z.ea
}

func (z *Z80) callCond(cond bool, opcode byte) {
	if cond {
		z.call()
		z.icount -= int32(z.ccEX[opcode])
	} else {
		z.WZ = z.fetchArg16()
	}
}

func (z *Z80) retCond(cond bool, opcode byte) {
	if cond {
		z.PC = z.pop16()
		z.WZ = z.PC
		z.icount -= int32(z.ccEX[opcode])
	}
}

func (z *Z80) rst(addr uint16) {
	z.push16(z.PC)
	z.PC = addr
	z.WZ = z.PC
}

// RETN and RETI both restore the first flip-flop from the second (this
// is what makes NMI nesting work).
func (z *Z80) retn() {
	z.PC = z.pop16()
	z.WZ = z.PC
	z.IFF1 = z.IFF2
}

func (z *Z80) reti() {
	z.PC = z.pop16()
	z.WZ = z.PC
	z.IFF1 = z.IFF2
}

// EI enables with a one-instruction shadow: an interrupt cannot be
// accepted until the instruction after EI has run.
func (z *Z80) ei() {
	z.IFF1 = true
	z.IFF2 = true
	z.afterEI = true
}

func (z *Z80) ldAI() {
	z.A = z.I
	z.F = z.F&flagC | szFlags[z.A] | iffBit(z.IFF2)
	z.afterLDAIR = true
}

func (z *Z80) ldAR() {
	z.A = z.R&0x7F | z.r2
	z.F = z.F&flagC | szFlags[z.A] | iffBit(z.IFF2)
	z.afterLDAIR = true
}

func iffBit(iff bool) byte {
	if iff {
		return flagP
	}
	return 0
}

// Block transfer/search/IO. The repeating forms re-run the single-step
// form, and while the termination condition is unmet rewind the
// program counter over their own two bytes and charge the extra-cycle
// entry, so each Run iteration stays one instruction.

func (z *Z80) ldi() {
	io := z.readByte(z.HL())
	z.writeByte(z.DE(), io)
	z.F &= flagS | flagZ | flagC
	if (z.A+io)&0x02 != 0 {
		z.F |= flagY
	}
	if (z.A+io)&0x08 != 0 {
		z.F |= flagX
	}
	z.SetHL(z.HL() + 1)
	z.SetDE(z.DE() + 1)
	z.SetBC(z.BC() - 1)
	if z.BC() != 0 {
		z.F |= flagP
	}
}

func (z *Z80) ldd() {
	io := z.readByte(z.HL())
	z.writeByte(z.DE(), io)
	z.F &= flagS | flagZ | flagC
	if (z.A+io)&0x02 != 0 {
		z.F |= flagY
	}
	if (z.A+io)&0x08 != 0 {
		z.F |= flagX
	}
	z.SetHL(z.HL() - 1)
	z.SetDE(z.DE() - 1)
	z.SetBC(z.BC() - 1)
	if z.BC() != 0 {
		z.F |= flagP
	}
}

func (z *Z80) cpi() {
	val := z.readByte(z.HL())
	res := z.A - val
	z.WZ++
	z.SetHL(z.HL() + 1)
	z.SetBC(z.BC() - 1)
	z.F = z.F&flagC | szFlags[res]&^(flagY|flagX) | (z.A^val^res)&flagH | flagN
	if z.F&flagH != 0 {
		res--
	}
	if res&0x02 != 0 {
		z.F |= flagY
	}
	if res&0x08 != 0 {
		z.F |= flagX
	}
	if z.BC() != 0 {
		z.F |= flagP
	}
}

func (z *Z80) cpd() {
	val := z.readByte(z.HL())
	res := z.A - val
	z.WZ--
	z.SetHL(z.HL() - 1)
	z.SetBC(z.BC() - 1)
	z.F = z.F&flagC | szFlags[res]&^(flagY|flagX) | (z.A^val^res)&flagH | flagN
	if z.F&flagH != 0 {
		res--
	}
	if res&0x02 != 0 {
		z.F |= flagY
	}
	if res&0x08 != 0 {
		z.F |= flagX
	}
	if z.BC() != 0 {
		z.F |= flagP
	}
}

func (z *Z80) ini() {
	io := z.ioRead(z.BC())
	z.WZ = z.BC() + 1
	z.B--
	z.writeByte(z.HL(), io)
	z.SetHL(z.HL() + 1)
	f := szFlags[z.B]
	t := uint16(z.C+1) + uint16(io)
	if io&flagS != 0 {
		f |= flagN
	}
	if t&0x100 != 0 {
		f |= flagH | flagC
	}
	z.F = f | szpFlags[byte(t)&0x07^z.B]&flagP
}

func (z *Z80) ind() {
	io := z.ioRead(z.BC())
	z.WZ = z.BC() - 1
	z.B--
	z.writeByte(z.HL(), io)
	z.SetHL(z.HL() - 1)
	f := szFlags[z.B]
	t := uint16(z.C-1) + uint16(io)
	if io&flagS != 0 {
		f |= flagN
	}
	if t&0x100 != 0 {
		f |= flagH | flagC
	}
	z.F = f | szpFlags[byte(t)&0x07^z.B]&flagP
}

func (z *Z80) outi() {
	io := z.readByte(z.HL())
	z.B--
	z.WZ = z.BC() + 1
	z.ioWrite(z.BC(), io)
	z.SetHL(z.HL() + 1)
	f := szFlags[z.B]
	t := uint16(z.L) + uint16(io)
	if io&flagS != 0 {
		f |= flagN
	}
	if t&0x100 != 0 {
		f |= flagH | flagC
	}
	z.F = f | szpFlags[byte(t)&0x07^z.B]&flagP
}

func (z *Z80) outd() {
	io := z.readByte(z.HL())
	z.B--
	z.WZ = z.BC() - 1
	z.ioWrite(z.BC(), io)
	z.SetHL(z.HL() - 1)
	f := szFlags[z.B]
	t := uint16(z.L) + uint16(io)
	if io&flagS != 0 {
		f |= flagN
	}
	if t&0x100 != 0 {
		f |= flagH | flagC
	}
	z.F = f | szpFlags[byte(t)&0x07^z.B]&flagP
}

func (z *Z80) ldir() {
	z.ldi()
	if z.BC() != 0 {
		z.PC -= 2
		z.WZ = z.PC + 1
		z.icount -= int32(z.ccEX[0xB0])
	}
}

func (z *Z80) lddr() {
	z.ldd()
	if z.BC() != 0 {
		z.PC -= 2
		z.WZ = z.PC + 1
		z.icount -= int32(z.ccEX[0xB8])
	}
}

func (z *Z80) cpir() {
	z.cpi()
	if z.BC() != 0 && z.F&flagZ == 0 {
		z.PC -= 2
		z.WZ = z.PC + 1
		z.icount -= int32(z.ccEX[0xB1])
	}
}

func (z *Z80) cpdr() {
	z.cpd()
	if z.BC() != 0 && z.F&flagZ == 0 {
		z.PC -= 2
		z.WZ = z.PC + 1
		z.icount -= int32(z.ccEX[0xB9])
	}
}

func (z *Z80) inir() {
	z.ini()
	if z.B != 0 {
		z.PC -= 2
		z.icount -= int32(z.ccEX[0xB2])
	}
}

func (z *Z80) indr() {
	z.ind()
	if z.B != 0 {
		z.PC -= 2
		z.icount -= int32(z.ccEX[0xBA])
	}
}

func (z *Z80) otir() {
	z.outi()
	if z.B != 0 {
		z.PC -= 2
		z.icount -= int32(z.ccEX[0xB3])
	}
}

func (z *Z80) otdr() {
	z.outd()
	if z.B != 0 {
		z.PC -= 2
		z.icount -= int32(z.ccEX[0xBB])
	}
}
