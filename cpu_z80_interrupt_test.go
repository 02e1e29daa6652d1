package main

import "testing"

// Pulse windows opened at or after the current cycle only become
// visible on the next Run call, and the core always executes one
// instruction after vectoring. The tests below open the window during
// one Step and observe the interrupt on the following one.

func TestZ80IM1Interrupt(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x1000, []byte{0x00, 0x00})
	rig.cpu.PC = 0x1000
	rig.cpu.SP = 0xFF00
	rig.cpu.IM = 1
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true

	rig.cpu.Step() // NOP at 0x1000
	rig.cpu.IntPulseStart = 2
	rig.cpu.IntPulseEnd = 100

	rig.cpu.Step() // vector to 0x0038, then the NOP there

	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0039)
	if rig.cpu.SP != 0xFEFE {
		t.Fatalf("SP = 0x%04X, want 0xFEFE", rig.cpu.SP)
	}
	if rig.bus.mem[0xFEFE] != 0x01 || rig.bus.mem[0xFEFF] != 0x10 {
		t.Fatalf("stack push incorrect: %02X %02X", rig.bus.mem[0xFEFE], rig.bus.mem[0xFEFF])
	}
	if rig.cpu.IFF1 || rig.cpu.IFF2 {
		t.Fatalf("IRQ should clear IFF1/IFF2")
	}
	// 4 for the first NOP, 13 for the mode 1 response, 4 for the NOP
	// at the vector.
	if rig.cpu.Cycles != 21 {
		t.Fatalf("Cycles = %d, want 21", rig.cpu.Cycles)
	}
	// A window installed by hand is consumed by the acknowledge.
	if rig.cpu.IntPulseStart != CycleNever || rig.cpu.IntPulseEnd != CycleNever {
		t.Fatalf("pulse window should be cleared after acknowledge")
	}
}

func TestZ80IM2InterruptVector(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x3000, []byte{0x00})
	rig.cpu.PC = 0x3000
	rig.cpu.SP = 0xFF00
	rig.cpu.IM = 2
	rig.cpu.I = 0x12
	rig.cpu.IM2Vector = 0x34
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true
	rig.bus.mem[0x1234] = 0x78
	rig.bus.mem[0x1235] = 0x56

	rig.cpu.Step()
	rig.cpu.IntPulseStart = 2
	rig.cpu.IntPulseEnd = 100

	rig.cpu.Step()

	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x5679)
	if rig.cpu.SP != 0xFEFE {
		t.Fatalf("SP = 0x%04X, want 0xFEFE", rig.cpu.SP)
	}
	if rig.bus.mem[0xFEFE] != 0x01 || rig.bus.mem[0xFEFF] != 0x30 {
		t.Fatalf("stack push incorrect: %02X %02X", rig.bus.mem[0xFEFE], rig.bus.mem[0xFEFF])
	}
	requireZ80EqualU16(t, "WZ", rig.cpu.WZ, 0x5678)
	// 4 + 19 for the mode 2 response + 4 at the handler.
	if rig.cpu.Cycles != 27 {
		t.Fatalf("Cycles = %d, want 27", rig.cpu.Cycles)
	}
}

func TestZ80IM0RSTVector(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x4000, []byte{0x00})
	rig.cpu.PC = 0x4000
	rig.cpu.SP = 0xFF00
	rig.cpu.IM = 0
	rig.cpu.IM0Vector = 0xC7 // RST 00H on the bus
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true

	rig.cpu.Step()
	rig.cpu.IntPulseStart = 2
	rig.cpu.IntPulseEnd = 100

	rig.cpu.Step()

	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0001)
	if rig.bus.mem[0xFEFE] != 0x01 || rig.bus.mem[0xFEFF] != 0x40 {
		t.Fatalf("stack push incorrect: %02X %02X", rig.bus.mem[0xFEFE], rig.bus.mem[0xFEFF])
	}
	if rig.cpu.Cycles != 21 {
		t.Fatalf("Cycles = %d, want 21", rig.cpu.Cycles)
	}
}

func TestZ80IM0CallVector(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x4000, []byte{0x00})
	rig.cpu.PC = 0x4000
	rig.cpu.SP = 0xFF00
	rig.cpu.IM = 0
	rig.cpu.IM0Vector = 0xCD2000 // CALL 0x2000 on the bus
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true

	rig.cpu.Step()
	rig.cpu.IntPulseStart = 2
	rig.cpu.IntPulseEnd = 100

	rig.cpu.Step()

	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x2001)
	if rig.bus.mem[0xFEFE] != 0x01 || rig.bus.mem[0xFEFF] != 0x40 {
		t.Fatalf("stack push incorrect: %02X %02X", rig.bus.mem[0xFEFE], rig.bus.mem[0xFEFF])
	}
	// 4 + (17+2) for the jammed CALL + 4 at the handler.
	if rig.cpu.Cycles != 27 {
		t.Fatalf("Cycles = %d, want 27", rig.cpu.Cycles)
	}
}

func TestZ80NMIInterrupt(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x2000, []byte{0x00, 0x00})
	rig.cpu.PC = 0x2000
	rig.cpu.SP = 0xFF00
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true

	rig.cpu.Step()
	rig.cpu.AssertNMI(2)

	rig.cpu.Step()

	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0067)
	if rig.cpu.SP != 0xFEFE {
		t.Fatalf("SP = 0x%04X, want 0xFEFE", rig.cpu.SP)
	}
	if rig.bus.mem[0xFEFE] != 0x01 || rig.bus.mem[0xFEFF] != 0x20 {
		t.Fatalf("stack push incorrect: %02X %02X", rig.bus.mem[0xFEFE], rig.bus.mem[0xFEFF])
	}
	if rig.cpu.IFF1 {
		t.Fatalf("NMI should clear IFF1")
	}
	if !rig.cpu.IFF2 {
		t.Fatalf("NMI should preserve IFF2")
	}
	// 4 + 11 for the NMI response + 4 at the handler.
	if rig.cpu.Cycles != 19 {
		t.Fatalf("Cycles = %d, want 19", rig.cpu.Cycles)
	}
}

func TestZ80NMIBeatsMaskable(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x2000, []byte{0x00, 0x00})
	rig.cpu.PC = 0x2000
	rig.cpu.SP = 0xFF00
	rig.cpu.IM = 1
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true
	rig.bus.mem[0x0066] = 0xED // RETN
	rig.bus.mem[0x0067] = 0x45

	rig.cpu.Step()
	rig.cpu.AssertNMI(2)
	rig.cpu.IntPulseStart = 2
	rig.cpu.IntPulseEnd = 1000

	// NMI wins; the RETN at 0x0066 runs in the same slice and restores
	// IFF1 from IFF2.
	rig.cpu.Step()
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x2001)
	if !rig.cpu.IFF1 {
		t.Fatalf("RETN should restore IFF1 from IFF2")
	}
	if rig.cpu.Cycles != 4+11+14 {
		t.Fatalf("Cycles = %d, want %d", rig.cpu.Cycles, 4+11+14)
	}

	// The maskable window is still open and fires next.
	rig.cpu.Step()
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0039)
}

func TestZ80EIShadow(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x1000, []byte{
		0xF3, // DI
		0xFB, // EI
		0x00, // NOP
		0x00, // NOP
	})
	rig.cpu.PC = 0x1000
	rig.cpu.SP = 0xFF00
	rig.cpu.IM = 1
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true

	rig.cpu.Step() // DI
	if rig.cpu.IFF1 || rig.cpu.IFF2 {
		t.Fatalf("DI should clear IFF1/IFF2")
	}
	rig.cpu.IntPulseStart = 2
	rig.cpu.IntPulseEnd = 1000

	rig.cpu.Step() // EI - interrupts blocked, flip-flops set
	if !rig.cpu.IFF1 || !rig.cpu.IFF2 {
		t.Fatalf("EI should set IFF1/IFF2")
	}

	// The instruction after EI still runs uninterrupted.
	rig.cpu.Step()
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x1003)

	// Now the pending window is honored.
	rig.cpu.Step()
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0039)
}

func TestZ80HALTInterruptExit(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x1000, []byte{0x76}) // HALT
	rig.cpu.PC = 0x1000
	rig.cpu.SP = 0xFF00
	rig.cpu.IM = 1
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true

	rig.cpu.Step()
	if !rig.cpu.Halted {
		t.Fatalf("HALT should latch the halted state")
	}
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x1000)

	rig.cpu.IntPulseStart = 2
	rig.cpu.IntPulseEnd = 100

	rig.cpu.Step()
	if rig.cpu.Halted {
		t.Fatalf("HALT should exit on interrupt")
	}
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0039)
	// Resumption address past the HALT is what got pushed.
	if rig.bus.mem[0xFEFE] != 0x01 || rig.bus.mem[0xFEFF] != 0x10 {
		t.Fatalf("stack push incorrect: %02X %02X", rig.bus.mem[0xFEFE], rig.bus.mem[0xFEFF])
	}
}
