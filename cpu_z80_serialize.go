// cpu_z80_serialize.go - Z80 context persistence for save/load and backstep

package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	z80StateMagic   = "Z80S"
	z80StateVersion = 1
)

// z80State is the on-disk register file. Memory contents are owned by
// the machine, not the context, so they are saved separately.
type z80State struct {
	A, F, B, C, D, E, H, L         byte
	A2, F2, B2, C2, D2, E2, H2, L2 byte
	IX, IY, SP, PC, WZ             uint16
	I, R, R2, IM                   byte
	IFF1, IFF2, Halted             byte
	Reset, Busreq, Busack          byte
	AfterEI, AfterLDAIR            byte
	CurrentCycle                   uint32
	IntPulseStart                  uint32
	IntPulseEnd                    uint32
	NMIStart                       uint32
	IM2Vector                      byte
	IM0Vector                      uint32
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Serialize writes the context's register file and bus lines. Cycle
// tables, the memory map and callbacks are configuration, not state,
// and are expected to be rebuilt by the caller before Deserialize.
func (z *Z80) Serialize(w io.Writer) error {
	st := z80State{
		A: z.A, F: z.F, B: z.B, C: z.C, D: z.D, E: z.E, H: z.H, L: z.L,
		A2: z.A2, F2: z.F2, B2: z.B2, C2: z.C2, D2: z.D2, E2: z.E2, H2: z.H2, L2: z.L2,
		IX: z.IX, IY: z.IY, SP: z.SP, PC: z.PC, WZ: z.WZ,
		I: z.I, R: z.R, R2: z.r2, IM: z.IM,
		IFF1: boolByte(z.IFF1), IFF2: boolByte(z.IFF2), Halted: boolByte(z.Halted),
		Reset: boolByte(z.reset), Busreq: boolByte(z.busreq), Busack: boolByte(z.busack),
		AfterEI: boolByte(z.afterEI), AfterLDAIR: boolByte(z.afterLDAIR),
		CurrentCycle:  z.CurrentCycle,
		IntPulseStart: z.IntPulseStart,
		IntPulseEnd:   z.IntPulseEnd,
		NMIStart:      z.nmiStart,
		IM2Vector:     z.IM2Vector,
		IM0Vector:     z.IM0Vector,
	}

	var buf bytes.Buffer
	buf.WriteString(z80StateMagic)
	binary.Write(&buf, binary.LittleEndian, uint32(z80StateVersion))
	binary.Write(&buf, binary.LittleEndian, &st)

	_, err := w.Write(buf.Bytes())
	return err
}

// DeserializeZ80 restores a previously serialized register file into z.
// The context keeps its memory map, cycle tables and callbacks.
func DeserializeZ80(r io.Reader, z *Z80) error {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("reading magic: %w", err)
	}
	if string(magic) != z80StateMagic {
		return fmt.Errorf("invalid state magic: %q", string(magic))
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("reading version: %w", err)
	}
	if version != z80StateVersion {
		return fmt.Errorf("unsupported state version: %d", version)
	}

	var st z80State
	if err := binary.Read(r, binary.LittleEndian, &st); err != nil {
		return fmt.Errorf("reading register file: %w", err)
	}

	z.A, z.F, z.B, z.C, z.D, z.E, z.H, z.L = st.A, st.F, st.B, st.C, st.D, st.E, st.H, st.L
	z.A2, z.F2, z.B2, z.C2 = st.A2, st.F2, st.B2, st.C2
	z.D2, z.E2, z.H2, z.L2 = st.D2, st.E2, st.H2, st.L2
	z.IX, z.IY, z.SP, z.PC, z.WZ = st.IX, st.IY, st.SP, st.PC, st.WZ
	z.I, z.R, z.r2, z.IM = st.I, st.R, st.R2, st.IM
	z.IFF1 = st.IFF1 != 0
	z.IFF2 = st.IFF2 != 0
	z.Halted = st.Halted != 0
	z.reset = st.Reset != 0
	z.busreq = st.Busreq != 0
	z.busack = st.Busack != 0
	z.afterEI = st.AfterEI != 0
	z.afterLDAIR = st.AfterLDAIR != 0
	z.CurrentCycle = st.CurrentCycle
	z.IntPulseStart = st.IntPulseStart
	z.IntPulseEnd = st.IntPulseEnd
	z.nmiStart = st.NMIStart
	z.IM2Vector = st.IM2Vector
	z.IM0Vector = st.IM0Vector
	return nil
}
