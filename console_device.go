// console_device.go - Port-mapped console device for the harness machine

package main

import "sync"

// Console port assignments on the Z80 I/O bus.
const (
	ConsoleDataPort   = 0x00 // write: emit byte; read: dequeue input byte
	ConsoleStatusPort = 0x01 // bit 0: input available, bit 1: output ready
	ConsoleCtrlPort   = 0x02 // bit 0: stop request latch (write 1 to halt the machine)
)

// ConsoleDevice is a pure state-machine console behind three I/O ports.
// It owns an input ring buffer and an output buffer. Tests inject
// characters via EnqueueByte(); the host adapter (TerminalHost) feeds
// stdin bytes through the same method.
type ConsoleDevice struct {
	mu sync.Mutex

	inputBuf  [1024]byte
	inputHead int
	inputTail int
	inputLen  int

	// Output buffer (drained by tests or host adapter).
	outputBuf []byte

	// onCharOutput, when set, receives data-port bytes immediately
	// instead of buffering. Invoked outside the mutex.
	onCharOutput func(byte)

	// onStop is called when the control port's stop bit is written.
	// Typically wired to stop the machine's run loop.
	onStop      func()
	stopLatched bool
}

// NewConsoleDevice creates a console device with an empty input queue.
func NewConsoleDevice() *ConsoleDevice {
	return &ConsoleDevice{
		outputBuf: make([]byte, 0, 256),
	}
}

// OnStop registers a callback invoked when guest code writes the stop
// bit to the control port.
func (cd *ConsoleDevice) OnStop(fn func()) {
	cd.mu.Lock()
	cd.onStop = fn
	cd.mu.Unlock()
}

// SetCharOutputCallback registers a callback for data-port writes.
// When set, output bytes are delivered directly to fn and not buffered.
func (cd *ConsoleDevice) SetCharOutputCallback(fn func(byte)) {
	cd.mu.Lock()
	cd.onCharOutput = fn
	cd.mu.Unlock()
}

// IOChunks returns the I/O map entries exposing the device's ports.
func (cd *ConsoleDevice) IOChunks() []MemmapChunk {
	return []MemmapChunk{
		{
			Start: ConsoleDataPort, End: ConsoleCtrlPort + 1,
			Flags:  ChunkRead | ChunkWrite,
			Read8:  cd.handleRead,
			Write8: cd.handleWrite,
		},
	}
}

func (cd *ConsoleDevice) handleRead(addr uint32) uint8 {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	switch addr {
	case ConsoleDataPort:
		if cd.inputLen == 0 {
			return 0
		}
		b := cd.inputBuf[cd.inputHead]
		cd.inputHead = (cd.inputHead + 1) % len(cd.inputBuf)
		cd.inputLen--
		return b

	case ConsoleStatusPort:
		var status uint8
		if cd.inputLen > 0 {
			status |= 1 // bit 0: input available
		}
		status |= 2 // bit 1: output ready (always)
		return status

	case ConsoleCtrlPort:
		if cd.stopLatched {
			return 1
		}
		return 0

	default:
		return 0
	}
}

func (cd *ConsoleDevice) handleWrite(addr uint32, val uint8) {
	var stopFn func()
	var charFn func(byte)

	cd.mu.Lock()
	switch addr {
	case ConsoleDataPort:
		if cd.onCharOutput != nil {
			charFn = cd.onCharOutput
		} else {
			cd.outputBuf = append(cd.outputBuf, val)
		}

	case ConsoleCtrlPort:
		if val&1 != 0 && !cd.stopLatched {
			cd.stopLatched = true
			stopFn = cd.onStop
		}
	}
	cd.mu.Unlock()

	if stopFn != nil {
		stopFn()
	}
	if charFn != nil {
		charFn(val)
	}
}

// EnqueueByte adds a byte to the input ring buffer. Bytes beyond the
// buffer capacity are dropped.
func (cd *ConsoleDevice) EnqueueByte(b byte) {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	if cd.inputLen >= len(cd.inputBuf) {
		return
	}
	cd.inputBuf[cd.inputTail] = b
	cd.inputTail = (cd.inputTail + 1) % len(cd.inputBuf)
	cd.inputLen++
}

// InputPending reports whether the guest has unread input.
func (cd *ConsoleDevice) InputPending() bool {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return cd.inputLen > 0
}

// StopRequested reports whether guest code latched the stop bit.
func (cd *ConsoleDevice) StopRequested() bool {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return cd.stopLatched
}

// DrainOutput returns and clears the accumulated output buffer.
func (cd *ConsoleDevice) DrainOutput() string {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	s := string(cd.outputBuf)
	cd.outputBuf = cd.outputBuf[:0]
	return s
}
