package main

import "testing"

func TestZ80IndexRegisterLoads(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{
		0xFD, 0x21, 0x34, 0x12, // LD IY,0x1234
		0xFD, 0x22, 0x00, 0x81, // LD (0x8100),IY
		0xFD, 0x2A, 0x00, 0x81, // LD IY,(0x8100)
		0xFD, 0xE5, // PUSH IY
		0xFD, 0xE1, // POP IY
		0xFD, 0xF9, // LD SP,IY
	})
	rig.cpu.SP = 0x9000

	rig.cpu.Step()
	requireZ80EqualU16(t, "IY", rig.cpu.IY, 0x1234)

	rig.cpu.Step()
	requireZ80EqualU8(t, "mem lo", rig.bus.mem[0x8100], 0x34)
	requireZ80EqualU8(t, "mem hi", rig.bus.mem[0x8101], 0x12)
	requireZ80EqualU16(t, "WZ", rig.cpu.WZ, 0x8101)

	rig.cpu.IY = 0x0000
	rig.cpu.Step()
	requireZ80EqualU16(t, "IY", rig.cpu.IY, 0x1234)

	rig.cpu.Step()
	requireZ80EqualU16(t, "SP", rig.cpu.SP, 0x8FFE)
	rig.cpu.IY = 0x0000
	rig.cpu.Step()
	requireZ80EqualU16(t, "IY", rig.cpu.IY, 0x1234)
	requireZ80EqualU16(t, "SP", rig.cpu.SP, 0x9000)

	rig.cpu.Step()
	requireZ80EqualU16(t, "SP", rig.cpu.SP, 0x1234)

	if rig.cpu.Cycles != 14+20+20+15+14+10 {
		t.Fatalf("Cycles = %d, want 93", rig.cpu.Cycles)
	}
}

func TestZ80IndexedNegativeDisplacement(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{
		0xDD, 0x36, 0xFE, 0x5C, // LD (IX-2),0x5C
		0xDD, 0x34, 0xFE, // INC (IX-2)
	})
	rig.cpu.IX = 0x2000

	rig.cpu.Step()
	requireZ80EqualU8(t, "mem", rig.bus.mem[0x1FFE], 0x5C)
	requireZ80EqualU16(t, "WZ", rig.cpu.WZ, 0x1FFE)
	if rig.cpu.Cycles != 19 {
		t.Fatalf("Cycles = %d, want 19", rig.cpu.Cycles)
	}

	rig.cpu.Step()
	requireZ80EqualU8(t, "mem", rig.bus.mem[0x1FFE], 0x5D)
	requireZ80EqualU8(t, "F", rig.cpu.F, flagX)
	if rig.cpu.Cycles != 19+23 {
		t.Fatalf("Cycles = %d, want 42", rig.cpu.Cycles)
	}
}

func TestZ80DDCBRotateStoresBackToRegister(t *testing.T) {
	// Non-BIT rows write the shifted byte to memory and copy it into the
	// register the low three bits select.
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{
		0xDD, 0xCB, 0x03, 0x02, // RLC (IX+3) -> D
	})
	rig.cpu.IX = 0x3000
	rig.bus.mem[0x3003] = 0x81
	rig.cpu.D = 0x00

	rig.cpu.Step()

	requireZ80EqualU8(t, "mem", rig.bus.mem[0x3003], 0x03)
	requireZ80EqualU8(t, "D", rig.cpu.D, 0x03)
	requireZ80EqualU8(t, "F", rig.cpu.F, flagP|flagC)
	requireZ80EqualU16(t, "WZ", rig.cpu.WZ, 0x3003)
	if rig.cpu.Cycles != 23 {
		t.Fatalf("Cycles = %d, want 23", rig.cpu.Cycles)
	}
}

func TestZ80DDCBBitSelectorColumnsAlias(t *testing.T) {
	// The BIT row ignores the register selector: every column reads
	// memory only, and Y/X report the effective address high byte.
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{
		0xDD, 0xCB, 0x01, 0x4A, // BIT 1,(IX+1), selector D
		0xDD, 0xCB, 0x01, 0x4E, // BIT 1,(IX+1), canonical column
	})
	rig.cpu.IX = 0x4000
	rig.bus.mem[0x4001] = 0x02
	rig.cpu.D = 0xEE

	rig.cpu.Step()
	requireZ80EqualU8(t, "F", rig.cpu.F, flagH)
	requireZ80EqualU8(t, "D", rig.cpu.D, 0xEE)
	requireZ80EqualU8(t, "mem", rig.bus.mem[0x4001], 0x02)
	if rig.cpu.Cycles != 20 {
		t.Fatalf("Cycles = %d, want 20", rig.cpu.Cycles)
	}

	rig.cpu.Step()
	requireZ80EqualU8(t, "F", rig.cpu.F, flagH)
	if rig.cpu.Cycles != 40 {
		t.Fatalf("Cycles = %d, want 40", rig.cpu.Cycles)
	}
}

func TestZ80FDCBSetMemoryAndRegisterCopy(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{
		0xFD, 0xCB, 0x05, 0xF7, // SET 6,(IY+5) -> A
	})
	rig.cpu.IY = 0x5000
	rig.bus.mem[0x5005] = 0x01
	rig.cpu.F = flagC

	rig.cpu.Step()

	requireZ80EqualU8(t, "mem", rig.bus.mem[0x5005], 0x41)
	requireZ80EqualU8(t, "A", rig.cpu.A, 0x41)
	// SET leaves flags alone.
	requireZ80EqualU8(t, "F", rig.cpu.F, flagC)
	if rig.cpu.Cycles != 23 {
		t.Fatalf("Cycles = %d, want 23", rig.cpu.Cycles)
	}
}

func TestZ80DDCBUndocumentedShift(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{
		0xDD, 0xCB, 0x01, 0x36, // SLL (IX+1) -> fills bit 0 with one
	})
	rig.cpu.IX = 0x6000
	rig.bus.mem[0x6001] = 0x80

	rig.cpu.Step()

	requireZ80EqualU8(t, "mem", rig.bus.mem[0x6001], 0x01)
	requireZ80EqualU8(t, "F", rig.cpu.F, flagC)
	if rig.cpu.Cycles != 23 {
		t.Fatalf("Cycles = %d, want 23", rig.cpu.Cycles)
	}
}
