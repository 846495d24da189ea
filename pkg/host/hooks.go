package host

import "github.com/stopnoanime/16TTAC-sim/pkg/cpu"

// Hooks builds the CPU hook set for a front-end. Any function may be nil.
func Hooks(in *Input, output func(uint16), halt func(), bad func(addr uint16)) cpu.Hooks {
	h := cpu.Hooks{
		Output:         output,
		Halt:           halt,
		BadInstruction: bad,
	}
	if in != nil {
		h.Input = in.Read
		h.InputAvailable = in.Available
	}
	return h
}
