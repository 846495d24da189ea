package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/stopnoanime/16TTAC-sim/pkg/asm"
	"github.com/stopnoanime/16TTAC-sim/pkg/cpu"
	"github.com/stopnoanime/16TTAC-sim/pkg/host"
)

const (
	memoryRows  = 16
	memoryCols  = 8
	disasmLines = 24
	stackLines  = 16

	// Steps per tick while running.
	runBatch = 5000
)

type Debugger struct {
	app  *tview.Application
	root *tview.Flex

	memoryView *tview.Table
	regsView   *tview.TextView
	stackView  *tview.TextView
	disasmView *tview.TextView
	outputView *tview.TextView
	inputField *tview.InputField

	vm      *cpu.CPU
	input   *host.Input
	image   []uint16
	output  strings.Builder
	log     []string
	running bool
	steps   int

	ctx    context.Context
	cancel context.CancelFunc
}

func newMachine(d *Debugger, image []uint16) error {
	d.input = &host.Input{}
	d.image = image
	d.vm = cpu.NewCPU(cpu.DefaultRegistry(), host.Hooks(d.input, d.out, d.halted, d.badInstruction))
	return d.vm.Load(image)
}

func (d *Debugger) out(n uint16) {
	d.output.WriteString(host.Translate(n, false))
}

func (d *Debugger) halted() {
	d.running = false
	d.logf("halted at 0x%04X after %d steps", d.vm.PC, d.steps)
}

func (d *Debugger) badInstruction(addr uint16) {
	d.logf("bad instruction 0x%04X at 0x%04X", d.vm.Memory[addr], addr)
}

func (d *Debugger) logf(format string, args ...any) {
	d.log = append(d.log, fmt.Sprintf(format, args...))
}

// step executes up to n instructions and stops early on halt or when the
// CPU waits for input.
func (d *Debugger) step(n int) {
	for i := 0; i < n && !d.vm.Halted; i++ {
		pc := d.vm.PC
		d.vm.Step()
		d.steps++
		if d.vm.PC == pc && !d.vm.Halted {
			return
		}
	}
}

// reset reloads the original image and clears all machine and host state.
func (d *Debugger) reset() {
	d.running = false
	d.steps = 0
	d.output.Reset()
	d.input.Clear()
	d.vm.Reset()
	if err := d.vm.Load(d.image); err != nil {
		d.logf("reload: %v", err)
	}
	d.logf("reset")
}

func formatRegisters(c *cpu.CPU, steps int) string {
	flag := func(b bool) string {
		if b {
			return "[green]1[-]"
		}
		return "0"
	}
	state := "running"
	if c.Halted {
		state = "[red]halted[-]"
	}
	return fmt.Sprintf("ACC  0x%04X  %d\nADR  0x%04X\nPC   0x%04X\nSP   0x%02X\nC %s  Z %s\n\nsteps %d\n%s",
		c.ACC, int16(c.ACC), c.ADR, c.PC, c.SP, flag(c.Carry), flag(c.Zero), steps, state)
}

// formatStack lists the most recent pushes, top first.
func formatStack(c *cpu.CPU, n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		sp := c.SP - uint8(i)
		fmt.Fprintf(&b, "%02X  0x%04X\n", sp, c.Stack[sp])
	}
	return b.String()
}

// formatDisassembly decodes n instructions starting at the PC and
// highlights the current one.
func formatDisassembly(c *cpu.CPU, n int) string {
	var b strings.Builder
	addr := int(c.PC)
	for i := 0; i < n && addr < cpu.MemorySize; i++ {
		l := asm.DisassembleAt(c.Memory[:], addr, c.Registry())
		if i == 0 {
			fmt.Fprintf(&b, "[black:yellow]%s[-:-]\n", tview.Escape(l.String()))
		} else {
			fmt.Fprintf(&b, "%s\n", tview.Escape(l.String()))
		}
		addr += len(l.Words)
	}
	return b.String()
}

// memoryBase returns the first address of the memory window, aligned so
// that ADR is always visible.
func memoryBase(adr uint16) int {
	base := int(adr) / memoryCols * memoryCols
	base -= memoryRows / 2 * memoryCols
	return max(0, min(base, cpu.MemorySize-memoryRows*memoryCols))
}

func newDebugger(ctx context.Context, image []uint16) (*Debugger, error) {
	newTextView := func(title string) *tview.TextView {
		v := tview.NewTextView().SetDynamicColors(true)
		v.SetTitle(title).SetBorder(true)
		return v
	}

	d := &Debugger{
		app:        tview.NewApplication(),
		memoryView: tview.NewTable().SetBorders(false),
		regsView:   newTextView("Registers"),
		stackView:  newTextView("Stack"),
		disasmView: newTextView("Code"),
		outputView: newTextView("Output"),
		inputField: tview.NewInputField().SetLabel("Input: "),
	}
	d.memoryView.SetTitle("Memory at ADR").SetBorder(true)
	d.outputView.ScrollToEnd()
	d.inputField.SetBorder(true)
	d.ctx, d.cancel = context.WithCancel(ctx)

	if err := newMachine(d, image); err != nil {
		return nil, err
	}

	d.inputField.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			d.input.PushBytes([]byte(d.inputField.GetText()))
			d.input.Push('\r')
			d.inputField.SetText("")
		}
		d.app.SetFocus(d.disasmView)
	})

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.disasmView, 0, 3, true).
		AddItem(d.memoryView, memoryRows+2, 0, false)
	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.regsView, 10, 0, false).
		AddItem(d.stackView, 0, 1, false)
	top := tview.NewFlex().
		AddItem(left, 0, 3, true).
		AddItem(right, 30, 0, false)
	help := tview.NewTextView().SetText(" n step   space run/pause   i input   r reset   q quit")

	d.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(top, 0, 3, true).
		AddItem(d.outputView, 0, 1, false).
		AddItem(d.inputField, 3, 0, false).
		AddItem(help, 1, 0, false)

	d.root.SetInputCapture(d.handleKey)
	d.Draw()
	return d, nil
}

func (d *Debugger) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if d.app.GetFocus() == d.inputField {
		return event
	}
	switch event.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		d.Stop()
		return nil
	}
	switch event.Rune() {
	case 'n':
		d.running = false
		d.step(1)
	case ' ':
		d.running = !d.running && !d.vm.Halted
	case 'r':
		d.reset()
	case 'i':
		d.app.SetFocus(d.inputField)
	case 'q':
		d.Stop()
		return nil
	default:
		return event
	}
	d.Draw()
	return nil
}

func (d *Debugger) Stop() {
	d.app.Stop()
	d.cancel()
}

func (d *Debugger) Draw() {
	d.regsView.SetText(formatRegisters(d.vm, d.steps))
	d.stackView.SetText(formatStack(d.vm, stackLines))
	d.disasmView.SetText(formatDisassembly(d.vm, disasmLines))

	out := tview.Escape(d.output.String())
	if len(d.log) > 0 {
		out += "\n[yellow]" + tview.Escape(strings.Join(d.log, "\n")) + "[-]"
	}
	d.outputView.SetText(out)

	base := memoryBase(d.vm.ADR)
	for r := 0; r < memoryRows; r++ {
		addr := base + r*memoryCols
		d.memoryView.SetCell(r, 0, tview.NewTableCell(fmt.Sprintf("%04X:", addr)).SetTextColor(tcell.ColorDimGray))
		for col := 0; col < memoryCols; col++ {
			a := addr + col
			cell := tview.NewTableCell(fmt.Sprintf("%04X", d.vm.Memory[a]))
			if a == int(d.vm.ADR) {
				cell.SetAttributes(tcell.AttrReverse)
			} else if d.vm.Memory[a] == 0 {
				cell.SetTextColor(tcell.ColorDimGray)
			}
			d.memoryView.SetCell(r, col+1, cell)
		}
	}
}

// tick runs a batch while the program is running. The application calls
// it on its own goroutine so the CPU is never shared.
func (d *Debugger) tick() {
	if !d.running {
		return
	}
	d.step(runBatch)
	d.Draw()
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: debugger <source|image.bin|image.hex>")
		os.Exit(2)
	}

	image, err := asm.LoadFile(os.Args[1], cpu.DefaultRegistry())
	if err != nil {
		log.Fatalf("Failed to load program: %v", err)
	}
	d, err := newDebugger(context.Background(), image)
	if err != nil {
		log.Fatalf("Failed to load program: %v", err)
	}

	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.app.QueueUpdateDraw(d.tick)
			case <-d.ctx.Done():
				return
			}
		}
	}()

	if err := d.app.SetRoot(d.root, true).SetFocus(d.disasmView).Run(); err != nil {
		log.Fatal(err)
	}
}
