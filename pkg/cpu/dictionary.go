package cpu

// DefaultDictionary returns a fresh copy of the built-in instruction set.
// Opcodes follow dictionary order, so OP is source 3 and ACC is destination 0.
func DefaultDictionary() []Entry {
	return []Entry{
		{Role: Source, Name: "ACC", Read: func(c *CPU) (uint16, bool) { return c.ACC, true }},
		{Role: Source, Name: "ADR", Read: func(c *CPU) (uint16, bool) { return c.ADR, true }},
		{Role: Source, Name: "MEM", Read: func(c *CPU) (uint16, bool) { return c.Memory[c.ADR], true }},
		{Role: Source, Name: "OP", IsOperand: true, Read: func(c *CPU) (uint16, bool) {
			c.PC++
			return c.Memory[c.PC], true
		}},
		{Role: Source, Name: "IN", Read: func(c *CPU) (uint16, bool) {
			if !c.inputAvailable() {
				return 0, false
			}
			return c.input(), true
		}},
		{Role: Source, Name: "IN_AV", Read: func(c *CPU) (uint16, bool) {
			if c.inputAvailable() {
				return 0xFFFF, true
			}
			return 0, true
		}},
		{Role: Source, Name: "POP", Read: func(c *CPU) (uint16, bool) { return c.Pop(), true }},
		{Role: Source, Name: "NULL", Read: func(c *CPU) (uint16, bool) { return 0, true }},

		{Role: Destination, Name: "ACC", Write: func(c *CPU, n, _ uint16) { c.ACC = n }},
		{Role: Destination, Name: "ADR", Write: func(c *CPU, n, _ uint16) { c.ADR = n }},
		{Role: Destination, Name: "MEM", Write: func(c *CPU, n, _ uint16) { c.Memory[c.ADR] = n }},
		{Role: Destination, Name: "ADD", Write: opAdd},
		{Role: Destination, Name: "SUB", Write: opSub},
		{Role: Destination, Name: "ADD_S", Write: opAddSigned},
		{Role: Destination, Name: "SUB_S", Write: opSubSigned},
		{Role: Destination, Name: "MUL", Write: func(c *CPU, n, _ uint16) {
			res := uint32(c.ACC) * uint32(n)
			c.Carry = res > 0xFFFF
			c.ACC = uint16(res)
		}},
		{Role: Destination, Name: "DIV", Write: func(c *CPU, n, _ uint16) {
			if n == 0 {
				c.ACC = 0
				return
			}
			c.ACC /= n
		}},
		{Role: Destination, Name: "DIV_S", Write: func(c *CPU, n, _ uint16) {
			if n == 0 {
				c.ACC = 0
				return
			}
			c.ACC = uint16(int32(int16(c.ACC)) / int32(int16(n)))
		}},
		{Role: Destination, Name: "MOD", Write: func(c *CPU, n, _ uint16) {
			if n == 0 {
				c.ACC = 0
				return
			}
			c.ACC %= n
		}},
		{Role: Destination, Name: "MOD_S", Write: func(c *CPU, n, _ uint16) {
			if n == 0 {
				c.ACC = 0
				return
			}
			c.ACC = uint16(int32(int16(c.ACC)) % int32(int16(n)))
		}},
		{Role: Destination, Name: "SHIFT_L", Write: func(c *CPU, n, _ uint16) {
			if n >= 16 {
				c.ACC = 0
				return
			}
			c.ACC <<= n
		}},
		{Role: Destination, Name: "SHIFT_R", Write: func(c *CPU, n, _ uint16) {
			if n >= 16 {
				c.ACC = 0
				return
			}
			c.ACC >>= n
		}},
		{Role: Destination, Name: "AND", Write: func(c *CPU, n, _ uint16) { c.ACC &= n }},
		{Role: Destination, Name: "OR", Write: func(c *CPU, n, _ uint16) { c.ACC |= n }},
		{Role: Destination, Name: "XOR", Write: func(c *CPU, n, _ uint16) { c.ACC ^= n }},
		{Role: Destination, Name: "CMP", Write: func(c *CPU, n, _ uint16) {
			c.Carry = c.ACC < n
			c.SetZero(c.ACC == n)
		}},
		{Role: Destination, Name: "CMP_S", Write: func(c *CPU, n, _ uint16) {
			c.Carry = int16(c.ACC) < int16(n)
			c.SetZero(c.ACC == n)
		}},
		{Role: Destination, Name: "CARRY", Write: func(c *CPU, n, _ uint16) { c.Carry = n != 0 }},
		{Role: Destination, Name: "ZERO", Write: func(c *CPU, n, _ uint16) { c.SetZero(n != 0) }},
		{Role: Destination, Name: "OUT", Write: func(c *CPU, n, _ uint16) { c.output(n) }},
		{Role: Destination, Name: "PC", Write: func(c *CPU, n, _ uint16) { c.PC = n }},
		{Role: Destination, Name: "CALL", Write: func(c *CPU, n, _ uint16) {
			c.Push(c.PC)
			c.PC = n
		}},
		{Role: Destination, Name: "PUSH", Write: func(c *CPU, n, _ uint16) { c.Push(n) }},
		{Role: Destination, Name: "HALT", Write: func(c *CPU, _, length uint16) {
			// Leave PC on the HALT instruction itself.
			c.PC -= length
			c.halt()
		}},
		{Role: Destination, Name: "NULL", Write: func(c *CPU, _, _ uint16) {}},
	}
}

// DefaultRegistry builds the registry for DefaultDictionary.
func DefaultRegistry() *Registry {
	return MustRegistry(DefaultDictionary())
}

func carryIn(c *CPU) uint32 {
	if c.Carry {
		return 1
	}
	return 0
}

func opAdd(c *CPU, n, _ uint16) {
	res := uint32(c.ACC) + uint32(n) + carryIn(c)
	c.Carry = res > 0xFFFF
	c.ACC = uint16(res)
}

func opSub(c *CPU, n, _ uint16) {
	sub := uint32(n) + carryIn(c)
	c.Carry = uint32(c.ACC) < sub
	c.ACC = uint16(uint32(c.ACC) - sub)
}

func opAddSigned(c *CPU, n, _ uint16) {
	res := int32(int16(c.ACC)) + int32(int16(n)) + int32(carryIn(c))
	c.Carry = res < -32768 || res > 32767
	c.ACC = uint16(res)
}

func opSubSigned(c *CPU, n, _ uint16) {
	res := int32(int16(c.ACC)) - int32(int16(n)) - int32(carryIn(c))
	c.Carry = res < -32768 || res > 32767
	c.ACC = uint16(res)
}
