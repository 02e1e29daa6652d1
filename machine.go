// machine.go - Harness machine: 64KB RAM, console ports, run control, snapshots

package main

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	machineSnapshotMagic   = "ZMSN"
	machineSnapshotVersion = 1
)

// Machine wires one Z80 context to 64KB of flat RAM and the console
// device. The console sits on ports 0-2; every other port reads as open
// bus. Port writes fold to their low byte so OUT (n),A lands on the
// device regardless of what A puts on the upper address lines.
type Machine struct {
	CPU     *Z80
	Console *ConsoleDevice
	RAM     []byte
}

func NewMachine() *Machine {
	m := &Machine{
		Console: NewConsoleDevice(),
		RAM:     make([]byte, 0x10000),
	}
	chunks := []MemmapChunk{
		{Start: 0x0000, End: 0x10000, Flags: ChunkRead | ChunkWrite | ChunkCode, Buffer: m.RAM},
	}
	ioChunks := append(m.Console.IOChunks(), MemmapChunk{
		Start: ConsoleCtrlPort + 1, End: 0x10000,
		Flags: ChunkRead | ChunkWrite | ChunkFuncNull,
	})
	m.CPU = NewZ80(NewZ80Options(chunks, ioChunks, 1, 0x00FF))
	return m
}

// LoadProgramAt copies a raw binary into RAM at origin and points PC
// at it.
func (m *Machine) LoadProgramAt(path string, origin uint16) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading program: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("empty program: %s", path)
	}
	if int(origin)+len(data) > len(m.RAM) {
		return fmt.Errorf("program does not fit: %d bytes at 0x%04X", len(data), origin)
	}
	copy(m.RAM[origin:], data)
	m.CPU.PC = origin
	return nil
}

func (m *Machine) LoadProgram(path string) error {
	return m.LoadProgramAt(path, 0x0000)
}

// RunFor advances the machine by the given number of T-states. The
// last instruction may overshoot; the surplus carries into the next
// slice.
func (m *Machine) RunFor(tstates uint32) {
	m.CPU.Run(m.CPU.CurrentCycle + tstates)
}

// Stopped reports whether guest code requested a halt through the
// console control port, the CPU executed HALT with interrupts off, or
// the context faulted.
func (m *Machine) Stopped() bool {
	if m.Console.StopRequested() || m.CPU.Fault() != nil {
		return true
	}
	return m.CPU.Halted && !m.CPU.IFF1
}

// Reset pulses the reset line at the current cycle.
func (m *Machine) Reset() {
	m.CPU.AssertReset(m.CPU.CurrentCycle)
	m.CPU.ClearReset(m.CPU.CurrentCycle)
}

// SaveSnapshot writes the CPU register file and gzip-compressed RAM.
func (m *Machine) SaveSnapshot(path string) error {
	var buf bytes.Buffer
	buf.WriteString(machineSnapshotMagic)
	binary.Write(&buf, binary.LittleEndian, uint32(machineSnapshotVersion))

	var cpuState bytes.Buffer
	if err := m.CPU.Serialize(&cpuState); err != nil {
		return fmt.Errorf("serializing cpu: %w", err)
	}
	binary.Write(&buf, binary.LittleEndian, uint32(cpuState.Len()))
	buf.Write(cpuState.Bytes())

	binary.Write(&buf, binary.LittleEndian, uint32(len(m.RAM)))
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(m.RAM); err != nil {
		return fmt.Errorf("compressing memory: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("closing gzip: %w", err)
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}

// LoadSnapshot restores a machine image saved by SaveSnapshot. The
// memory map and console wiring stay as built by NewMachine.
func (m *Machine) LoadSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	r := bytes.NewReader(data)

	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("reading magic: %w", err)
	}
	if string(magic) != machineSnapshotMagic {
		return fmt.Errorf("invalid snapshot magic: %q", string(magic))
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("reading version: %w", err)
	}
	if version != machineSnapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %d", version)
	}

	var cpuLen uint32
	if err := binary.Read(r, binary.LittleEndian, &cpuLen); err != nil {
		return fmt.Errorf("reading cpu state length: %w", err)
	}
	cpuState := make([]byte, cpuLen)
	if _, err := io.ReadFull(r, cpuState); err != nil {
		return fmt.Errorf("reading cpu state: %w", err)
	}
	if err := DeserializeZ80(bytes.NewReader(cpuState), m.CPU); err != nil {
		return err
	}

	var memLen uint32
	if err := binary.Read(r, binary.LittleEndian, &memLen); err != nil {
		return fmt.Errorf("reading memory length: %w", err)
	}
	if int(memLen) != len(m.RAM) {
		return fmt.Errorf("snapshot memory size %d does not match machine RAM %d", memLen, len(m.RAM))
	}
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("opening gzip reader: %w", err)
	}
	defer gz.Close()
	if _, err := io.ReadFull(gz, m.RAM); err != nil {
		return fmt.Errorf("decompressing memory: %w", err)
	}
	return nil
}
