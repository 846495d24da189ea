package cpu

// Instruction is a decoded instruction word.
//
//	15       9 8        2   1   0
//	[ source ][ dest     ][ C ][ Z ]
type Instruction struct {
	Source      uint8
	Destination uint8
	Carry       bool // execute only when the carry flag is set
	Zero        bool // execute only when the zero flag is set
}

func EncodeInstruction(src, dst uint8, carry, zero bool) uint16 {
	w := uint16(src&0x7F)<<9 | uint16(dst&0x7F)<<2
	if carry {
		w |= 0x2
	}
	if zero {
		w |= 0x1
	}
	return w
}

func Decode(w uint16) Instruction {
	return Instruction{
		Source:      uint8(w >> 9 & 0x7F),
		Destination: uint8(w >> 2 & 0x7F),
		Carry:       w&0x2 != 0,
		Zero:        w&0x1 != 0,
	}
}

func (i Instruction) Encode() uint16 {
	return EncodeInstruction(i.Source, i.Destination, i.Carry, i.Zero)
}
