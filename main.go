package main

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/stopnoanime/16TTAC-sim/pkg/asm"
	"github.com/stopnoanime/16TTAC-sim/pkg/cpu"
	"github.com/stopnoanime/16TTAC-sim/pkg/host"
)

var cfg = host.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "16ttac <source>",
	Short: "Simulator and compiler for the 16TTAC",
	Long: `16ttac compiles and runs programs for the 16TTAC, a 16-bit transport
triggered CPU. Given a source file it compiles it and runs it with the
terminal attached: key presses are queued for the IN source and OUT writes
to the screen. Ctrl-C stops the program.

Files ending in .bin or .hex are loaded as compiled images.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := cpu.DefaultRegistry()
		words, err := asm.LoadFile(args[0], reg)
		if err != nil {
			return err
		}
		s := newInteractiveSession(reg)
		if err := s.cpu.Load(words); err != nil {
			return err
		}
		return s.run(cmd.Context())
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.IntVar(&cfg.Batch, "batch", host.DefaultBatch, "steps between checks for input and interrupts")
	flags.IntVar(&cfg.MaxSteps, "max-steps", 0, "stop after this many steps (0 means no limit)")
	flags.StringVar(&cfg.SaveState, "save-state", "", "write a snapshot of the machine to this file when the run ends")
}

func main() {
	log.SetFlags(0)
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
