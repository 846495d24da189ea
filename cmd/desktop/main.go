package main

import (
	"fmt"
	"image/color"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/stopnoanime/16TTAC-sim/pkg/asm"
	"github.com/stopnoanime/16TTAC-sim/pkg/cpu"
	"github.com/stopnoanime/16TTAC-sim/pkg/grid"
	"github.com/stopnoanime/16TTAC-sim/pkg/host"
)

const (
	cols       = 80
	rows       = 30
	charWidth  = 7
	charHeight = 13

	// Steps per frame, about 6 MHz at 60 fps.
	stepsPerFrame = 100_000
)

var (
	fontFace  = text.NewGoXFace(basicfont.Face7x13)
	textColor = color.RGBA{R: 0xCC, G: 0xCC, B: 0xCC, A: 0xFF}
)

type Game struct {
	vm     *cpu.CPU
	input  *host.Input
	screen *grid.Screen
	frames int
}

func newGame(words []uint16) (*Game, error) {
	g := &Game{
		input:  &host.Input{},
		screen: grid.NewScreen(cols, rows),
	}
	g.vm = cpu.NewCPU(cpu.DefaultRegistry(), host.Hooks(g.input, g.screen.Put, g.halted, g.badInstruction))
	if err := g.vm.Load(words); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Game) halted() {
	g.screen.Write("\n\nHalting")
}

func (g *Game) badInstruction(addr uint16) {
	log.Printf("bad instruction 0x%04X at 0x%04X", g.vm.Memory[addr], addr)
}

func (g *Game) Update() error {
	for _, r := range ebiten.AppendInputChars(nil) {
		g.input.Push(uint16(r))
	}
	// Same bytes a raw terminal sends.
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.input.Push('\r')
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.input.Push(0x7F)
	}

	g.frames++
	g.run(stepsPerFrame)
	return nil
}

// run steps until the budget is spent, the program halts or it stops
// making progress (waiting for input).
func (g *Game) run(budget int) {
	for i := 0; i < budget && !g.vm.Halted; i++ {
		pc := g.vm.PC
		g.vm.Step()
		if g.vm.PC == pc && !g.vm.Halted {
			break
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	for y, line := range g.screen.Lines() {
		if line == "" {
			continue
		}
		op := &text.DrawOptions{}
		op.GeoM.Translate(0, float64(y*charHeight))
		op.ColorScale.ScaleWithColor(textColor)
		text.Draw(screen, line, fontFace, op)
	}

	// Blinking cursor while the program runs.
	if g.vm.Halted || g.frames/30%2 == 1 {
		return
	}
	x, y := grid.GetGridCoords(g.screen.Cursor(), cols)
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x*charWidth), float64(y*charHeight))
	op.ColorScale.ScaleWithColor(textColor)
	text.Draw(screen, "_", fontFace, op)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cols * charWidth, rows * charHeight
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: desktop <source|image.bin|image.hex>")
		os.Exit(2)
	}

	words, err := asm.LoadFile(os.Args[1], cpu.DefaultRegistry())
	if err != nil {
		log.Fatalf("Failed to load program: %v", err)
	}
	game, err := newGame(words)
	if err != nil {
		log.Fatalf("Failed to load program: %v", err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(2*cols*charWidth, 2*rows*charHeight)
	ebiten.SetWindowTitle("16TTAC")

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
