package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/tebeka/atexit"

	"github.com/stopnoanime/16TTAC-sim/pkg/cpu"
	"github.com/stopnoanime/16TTAC-sim/pkg/host"
)

// session is one run of a program with console input and output.
type session struct {
	cpu     *cpu.CPU
	input   *host.Input
	console *host.Console
	config  host.Config

	// stdin is read in the background when it is not a terminal.
	stdin io.Reader
	raw   bool
}

func newSession(reg *cpu.Registry, stdin io.Reader, stdout io.Writer, raw bool, config host.Config) *session {
	s := &session{
		input:   &host.Input{},
		console: host.NewConsole(stdout, raw),
		config:  config,
		stdin:   stdin,
		raw:     raw,
	}
	s.cpu = cpu.NewCPU(reg, host.Hooks(s.input, s.console.Output, s.halted, s.badInstruction))
	return s
}

// newInteractiveSession attaches the process terminal, in raw mode when
// stdin is a TTY.
func newInteractiveSession(reg *cpu.Registry) *session {
	return newSession(reg, os.Stdin, os.Stdout, host.IsTerminal(), cfg)
}

func (s *session) halted() {
	s.console.Println("\nHalting")
}

func (s *session) badInstruction(addr uint16) {
	log.Printf("Bad instruction at address: 0x%04X (word 0x%04X)", addr, s.cpu.Memory[addr])
}

// run executes the loaded program until it halts or the user interrupts
// it. An interrupt is not an error.
func (s *session) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.raw {
		term := host.NewTerminal(s.input, cancel)
		if err := term.Start(); err != nil {
			return err
		}
		atexit.Register(term.Stop)
		defer term.Stop()
		log.SetOutput(host.CRLF(os.Stderr))
		defer log.SetOutput(os.Stderr)
	} else {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		if s.stdin != nil {
			go func() {
				if _, err := s.input.ReadFrom(s.stdin); err != nil {
					log.Printf("reading input: %v", err)
				}
			}()
		}
	}

	err := host.NewRunner(s.cpu, s.config).Run(ctx)
	if cerr := s.console.Err(); cerr != nil {
		return errors.Join(err, cerr)
	}
	if err == context.Canceled {
		return nil
	}
	return err
}
