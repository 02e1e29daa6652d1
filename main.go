// main.go - Command line entry point

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Guest T-states executed per scheduling slice in interactive mode.
const runSlice = 20000

func parseUint16Flag(value string) (uint16, error) {
	v, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("value %q is not a 16-bit address", value)
	}
	return uint16(v), nil
}

func runMachine(m *Machine, cycles uint32, interactive bool) error {
	var host *TerminalHost
	if interactive {
		host = NewTerminalHost(m.Console)
		host.Start()
		defer host.Stop()
	} else {
		m.Console.SetCharOutputCallback(func(b byte) {
			os.Stdout.Write([]byte{b})
		})
	}

	target := m.CPU.CurrentCycle + cycles
	for !m.Stopped() {
		if cycles != 0 && m.CPU.CurrentCycle >= target {
			break
		}
		m.RunFor(runSlice)
		if host != nil {
			host.PrintOutput()
			time.Sleep(time.Millisecond)
		}
	}
	if host != nil {
		host.PrintOutput()
	}
	return m.CPU.Fault()
}

func main() {
	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	orgFlag := flagSet.String("org", "0x0000", "load and entry address for the program image")
	cyclesFlag := flagSet.Uint("cycles", 0, "T-state budget (0 runs until the program stops)")
	scriptFlag := flagSet.String("script", "", "Lua control script to run instead of a program image")
	loadSnapFlag := flagSet.String("load-snapshot", "", "restore machine state from a snapshot before running")
	saveSnapFlag := flagSet.String("save-snapshot", "", "write machine state to a snapshot after the run")
	interactiveFlag := flagSet.Bool("interactive", false, "attach the host terminal to the console ports")

	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [options] [program.bin]\n\n", os.Args[0])
		flagSet.SetOutput(os.Stderr)
		flagSet.PrintDefaults()
		flagSet.SetOutput(io.Discard)
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.Usage()
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		flagSet.Usage()
		os.Exit(2)
	}

	m := NewMachine()

	if *scriptFlag != "" {
		if flagSet.NArg() != 0 || *interactiveFlag {
			fmt.Fprintln(os.Stderr, "-script cannot be combined with a program image or -interactive")
			os.Exit(2)
		}
		if err := m.RunScript(*scriptFlag); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	switch {
	case *loadSnapFlag != "":
		if err := m.LoadSnapshot(*loadSnapFlag); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case flagSet.NArg() == 1:
		org, err := parseUint16Flag(*orgFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -org: %v\n", err)
			os.Exit(2)
		}
		if err := m.LoadProgramAt(flagSet.Arg(0), org); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	default:
		flagSet.Usage()
		os.Exit(2)
	}

	if err := runMachine(m, uint32(*cyclesFlag), *interactiveFlag); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *saveSnapFlag != "" {
		if err := m.SaveSnapshot(*saveSnapFlag); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
