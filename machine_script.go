// machine_script.go - Lua scripting interface for machine control

package main

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// RunScript executes a Lua control script with the machine bound to a
// set of global functions. Errors from the machine surface as Lua
// errors so scripts can pcall() around risky steps.
func (m *Machine) RunScript(path string) error {
	L := lua.NewState()
	defer L.Close()
	m.registerScriptAPI(L)
	return L.DoFile(path)
}

func (m *Machine) registerScriptAPI(L *lua.LState) {
	L.SetGlobal("load_program", L.NewFunction(func(L *lua.LState) int {
		path := L.CheckString(1)
		origin := uint16(0)
		if L.GetTop() >= 2 {
			origin = uint16(L.CheckInt(2))
		}
		if err := m.LoadProgramAt(path, origin); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))

	L.SetGlobal("run", L.NewFunction(func(L *lua.LState) int {
		m.RunFor(uint32(L.CheckInt(1)))
		if err := m.CPU.Fault(); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))

	L.SetGlobal("step", L.NewFunction(func(L *lua.LState) int {
		m.CPU.Run(m.CPU.CurrentCycle + 1)
		if err := m.CPU.Fault(); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))

	L.SetGlobal("reg", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		v, ok := m.regValue(name)
		if !ok {
			L.RaiseError("unknown register %q", name)
		}
		L.Push(lua.LNumber(v))
		return 1
	}))

	L.SetGlobal("set_reg", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if !m.setRegValue(name, uint32(L.CheckInt(2))) {
			L.RaiseError("unknown register %q", name)
		}
		return 0
	}))

	L.SetGlobal("peek", L.NewFunction(func(L *lua.LState) int {
		addr := uint16(L.CheckInt(1))
		L.Push(lua.LNumber(m.RAM[addr]))
		return 1
	}))

	L.SetGlobal("poke", L.NewFunction(func(L *lua.LState) int {
		addr := uint16(L.CheckInt(1))
		m.RAM[addr] = byte(L.CheckInt(2))
		return 0
	}))

	L.SetGlobal("reset", L.NewFunction(func(L *lua.LState) int {
		m.Reset()
		return 0
	}))

	L.SetGlobal("feed", L.NewFunction(func(L *lua.LState) int {
		for _, b := range []byte(L.CheckString(1)) {
			m.Console.EnqueueByte(b)
		}
		return 0
	}))

	L.SetGlobal("output", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(m.Console.DrainOutput()))
		return 1
	}))

	L.SetGlobal("stopped", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(m.Stopped()))
		return 1
	}))

	L.SetGlobal("save_snapshot", L.NewFunction(func(L *lua.LState) int {
		if err := m.SaveSnapshot(L.CheckString(1)); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))

	L.SetGlobal("load_snapshot", L.NewFunction(func(L *lua.LState) int {
		if err := m.LoadSnapshot(L.CheckString(1)); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))
}

func (m *Machine) regValue(name string) (uint32, bool) {
	z := m.CPU
	switch strings.ToUpper(name) {
	case "A":
		return uint32(z.A), true
	case "F":
		return uint32(z.F), true
	case "B":
		return uint32(z.B), true
	case "C":
		return uint32(z.C), true
	case "D":
		return uint32(z.D), true
	case "E":
		return uint32(z.E), true
	case "H":
		return uint32(z.H), true
	case "L":
		return uint32(z.L), true
	case "AF":
		return uint32(z.AF()), true
	case "BC":
		return uint32(z.BC()), true
	case "DE":
		return uint32(z.DE()), true
	case "HL":
		return uint32(z.HL()), true
	case "AF'":
		return uint32(z.AF2()), true
	case "BC'":
		return uint32(z.BC2()), true
	case "DE'":
		return uint32(z.DE2()), true
	case "HL'":
		return uint32(z.HL2()), true
	case "IX":
		return uint32(z.IX), true
	case "IY":
		return uint32(z.IY), true
	case "SP":
		return uint32(z.SP), true
	case "PC":
		return uint32(z.PC), true
	case "I":
		return uint32(z.I), true
	case "R":
		return uint32(z.R), true
	case "IM":
		return uint32(z.IM), true
	}
	return 0, false
}

func (m *Machine) setRegValue(name string, v uint32) bool {
	z := m.CPU
	switch strings.ToUpper(name) {
	case "A":
		z.A = byte(v)
	case "F":
		z.F = byte(v)
	case "B":
		z.B = byte(v)
	case "C":
		z.C = byte(v)
	case "D":
		z.D = byte(v)
	case "E":
		z.E = byte(v)
	case "H":
		z.H = byte(v)
	case "L":
		z.L = byte(v)
	case "AF":
		z.SetAF(uint16(v))
	case "BC":
		z.SetBC(uint16(v))
	case "DE":
		z.SetDE(uint16(v))
	case "HL":
		z.SetHL(uint16(v))
	case "AF'":
		z.SetAF2(uint16(v))
	case "BC'":
		z.SetBC2(uint16(v))
	case "DE'":
		z.SetDE2(uint16(v))
	case "HL'":
		z.SetHL2(uint16(v))
	case "IX":
		z.IX = uint16(v)
	case "IY":
		z.IY = uint16(v)
	case "SP":
		z.SP = uint16(v)
	case "PC":
		z.PC = uint16(v)
	case "I":
		z.I = byte(v)
	case "R":
		z.R = byte(v)
	case "IM":
		z.IM = byte(v)
	default:
		return false
	}
	return true
}
