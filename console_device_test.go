package main

import "testing"

func TestConsoleDeviceQueueAndStatus(t *testing.T) {
	cd := NewConsoleDevice()

	if cd.InputPending() {
		t.Fatalf("fresh console should have no input")
	}
	if got := cd.handleRead(ConsoleStatusPort); got != 2 {
		t.Fatalf("status = %02X, want 02 (output ready only)", got)
	}

	cd.EnqueueByte('h')
	cd.EnqueueByte('i')
	if got := cd.handleRead(ConsoleStatusPort); got != 3 {
		t.Fatalf("status = %02X, want 03", got)
	}
	if got := cd.handleRead(ConsoleDataPort); got != 'h' {
		t.Fatalf("data = %02X, want %02X", got, 'h')
	}
	if got := cd.handleRead(ConsoleDataPort); got != 'i' {
		t.Fatalf("data = %02X, want %02X", got, 'i')
	}
	// Reading an empty queue yields zero.
	if got := cd.handleRead(ConsoleDataPort); got != 0 {
		t.Fatalf("data = %02X, want 00", got)
	}

	cd.handleWrite(ConsoleDataPort, 'o')
	cd.handleWrite(ConsoleDataPort, 'k')
	if got := cd.DrainOutput(); got != "ok" {
		t.Fatalf("output = %q, want %q", got, "ok")
	}
	if got := cd.DrainOutput(); got != "" {
		t.Fatalf("drain should clear the buffer, got %q", got)
	}
}

func TestConsoleDeviceCallbacksAndStop(t *testing.T) {
	cd := NewConsoleDevice()

	var got []byte
	cd.SetCharOutputCallback(func(b byte) { got = append(got, b) })
	stops := 0
	cd.OnStop(func() { stops++ })

	cd.handleWrite(ConsoleDataPort, 'x')
	if string(got) != "x" {
		t.Fatalf("callback output = %q, want %q", got, "x")
	}
	if cd.DrainOutput() != "" {
		t.Fatalf("callback mode should bypass the buffer")
	}

	cd.handleWrite(ConsoleCtrlPort, 1)
	if stops != 1 || !cd.StopRequested() {
		t.Fatalf("stop write should latch and fire once")
	}
	// The latch is one-shot.
	cd.handleWrite(ConsoleCtrlPort, 1)
	if stops != 1 {
		t.Fatalf("second stop write should not re-fire, stops = %d", stops)
	}
	if got := cd.handleRead(ConsoleCtrlPort); got != 1 {
		t.Fatalf("ctrl = %02X, want 01", got)
	}
}

// Drive the console from guest code through the I/O map.
func TestConsoleDeviceThroughPorts(t *testing.T) {
	cd := NewConsoleDevice()
	mem := make([]byte, 0x10000)
	copy(mem, []byte{
		0x3E, 0x41, // LD A,'A'
		0xD3, 0x00, // OUT (0),A
		0x01, 0x01, 0x00, // LD BC,0x0001
		0xED, 0x78, // IN A,(C)     status
		0x0D,       // DEC C
		0xED, 0x78, // IN A,(C)     data
		0x76, // HALT
	})

	io := append(cd.IOChunks(), MemmapChunk{
		Start: ConsoleCtrlPort + 1, End: 0x10000,
		Flags: ChunkRead | ChunkWrite | ChunkFuncNull,
	})
	opts := NewZ80Options([]MemmapChunk{
		{Start: 0x0000, End: 0x10000, Flags: ChunkRead | ChunkWrite | ChunkCode, Buffer: mem},
	}, io, 1, 0x00FF)
	cpu := NewZ80(opts)
	cd.EnqueueByte('Z')

	for i := 0; i < 16 && !cpu.Halted; i++ {
		cpu.Run(cpu.CurrentCycle + 1)
	}
	if !cpu.Halted {
		t.Fatalf("program did not halt")
	}
	if cpu.Fault() != nil {
		t.Fatalf("fault: %v", cpu.Fault())
	}
	if got := cd.DrainOutput(); got != "A" {
		t.Fatalf("output = %q, want %q", got, "A")
	}
	requireZ80EqualU8(t, "A", cpu.A, 'Z')
	if cd.InputPending() {
		t.Fatalf("input should be consumed")
	}
}
