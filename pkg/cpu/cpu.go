package cpu

import "fmt"

const (
	MemorySize = 65536
	StackSize  = 256
)

// Hooks connect the CPU to the outside world. Any of them may be nil, in
// which case it does nothing (Input then reads 0, InputAvailable reports
// false).
type Hooks struct {
	Output         func(n uint16)
	Input          func() uint16
	InputAvailable func() bool
	Halt           func()
	BadInstruction func(addr uint16)
}

type CPU struct {
	ACC uint16
	ADR uint16
	PC  uint16

	Carry bool
	Zero  bool

	Memory [MemorySize]uint16

	// Stack is circular: SP is the next write slot and wraps, so the 257th
	// push overwrites the oldest entry.
	Stack [StackSize]uint16
	SP    uint8

	// Halted is set by the HALT destination and cleared by Reset. Step does
	// not look at it; hosts decide when to stop stepping.
	Halted bool

	Hooks Hooks

	registry *Registry
	zeroSet  bool
}

// NewCPU creates a CPU that decodes with reg.
func NewCPU(reg *Registry, hooks Hooks) *CPU {
	c := &CPU{
		registry: reg,
		Hooks:    hooks,
	}
	c.Reset()
	return c
}

func (c *CPU) Registry() *Registry {
	return c.registry
}

// Reset clears registers, flags and the stack. Memory is left alone.
func (c *CPU) Reset() {
	c.ACC = 0
	c.ADR = 0
	c.PC = 0
	c.Carry = false
	c.Zero = false
	c.Stack = [StackSize]uint16{}
	c.SP = 0
	c.Halted = false
	c.zeroSet = false
}

// Load clears memory and copies image to address 0.
func (c *CPU) Load(image []uint16) error {
	if len(image) > MemorySize {
		return fmt.Errorf("image too large for memory: %d words > %d words", len(image), MemorySize)
	}
	c.Memory = [MemorySize]uint16{}
	copy(c.Memory[:], image)
	return nil
}

func (c *CPU) Push(n uint16) {
	c.Stack[c.SP] = n
	c.SP++
}

func (c *CPU) Pop() uint16 {
	c.SP--
	return c.Stack[c.SP]
}

// SetZero sets the zero flag and keeps it for the current step instead of
// recomputing it from ACC.
func (c *CPU) SetZero(v bool) {
	c.Zero = v
	c.zeroSet = true
}

// Peek returns the top of the stack without popping it.
func (c *CPU) Peek() uint16 {
	return c.Stack[c.SP-1]
}

// InstructionLength returns the length in words of the instruction at addr.
func (c *CPU) InstructionLength(addr uint16) uint16 {
	if Decode(c.Memory[addr]).Source == c.registry.operandOpcode {
		return 2
	}
	return 1
}

// Step executes one instruction. A gated instruction whose flag is clear is
// skipped, an opcode without behavior is reported and skipped, and a source
// that is not available leaves the CPU untouched so the step can be retried.
func (c *CPU) Step() {
	pc := c.PC
	ins := Decode(c.Memory[pc])

	length := uint16(1)
	if ins.Source == c.registry.operandOpcode {
		length = 2
	}

	if (ins.Zero && !c.Zero) || (ins.Carry && !c.Carry) {
		c.PC += length
		return
	}

	read := c.registry.source(ins.Source)
	write := c.registry.destination(ins.Destination)
	if read == nil || write == nil {
		if c.Hooks.BadInstruction != nil {
			c.Hooks.BadInstruction(pc)
		}
		c.PC += length
		return
	}

	n, ok := read(c)
	if !ok {
		c.PC = pc
		return
	}
	c.PC++

	c.zeroSet = false
	write(c, n, length)
	if !c.zeroSet {
		c.Zero = c.ACC == 0
	}
	c.zeroSet = false
}

// RunUntilHalt steps until HALT is executed or maxSteps steps have run
// (maxSteps <= 0 means no limit). It returns the number of steps taken.
func (c *CPU) RunUntilHalt(maxSteps int) int {
	steps := 0
	for !c.Halted {
		if maxSteps > 0 && steps >= maxSteps {
			break
		}
		c.Step()
		steps++
	}
	return steps
}

func (c *CPU) output(n uint16) {
	if c.Hooks.Output != nil {
		c.Hooks.Output(n)
	}
}

func (c *CPU) inputAvailable() bool {
	return c.Hooks.InputAvailable != nil && c.Hooks.InputAvailable()
}

func (c *CPU) input() uint16 {
	if c.Hooks.Input == nil {
		return 0
	}
	return c.Hooks.Input()
}

func (c *CPU) halt() {
	c.Halted = true
	if c.Hooks.Halt != nil {
		c.Hooks.Halt()
	}
}
