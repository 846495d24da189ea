package main

import (
	"fmt"
	"io"
	"os"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stopnoanime/16TTAC-sim/pkg/asm"
	"github.com/stopnoanime/16TTAC-sim/pkg/cpu"
	"github.com/stopnoanime/16TTAC-sim/pkg/parser"
	"github.com/stopnoanime/16TTAC-sim/pkg/utils"
)

var compileHex bool

var compileCmd = &cobra.Command{
	Use:   "compile <source> [binary]",
	Short: "Compile a source file to a binary or hex image",
	Long: `Compile writes the memory image of a program. The default output is the
source path with a .bin extension, or .hex with --hex. A hex image holds
one word per line as four uppercase hex digits.`,
	Args:         cobra.RangeArgs(1, 2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		words, _, err := asm.Assemble(string(src), cpu.DefaultRegistry())
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		output := outputPath(args, compileHex)
		if err := asm.WriteImageFile(output, words, compileHex); err != nil {
			return fmt.Errorf("failed to write image %q: %w", output, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "compiled %d words -> %s\n", len(words), output)
		return nil
	},
}

func outputPath(args []string, hex bool) string {
	if len(args) > 1 {
		return args[1]
	}
	if hex {
		return utils.ReplaceExt(args[0], ".hex")
	}
	return utils.ReplaceExt(args[0], ".bin")
}

var runHex bool

var runCmd = &cobra.Command{
	Use:          "run <binary>",
	Short:        "Run a compiled image",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		words, err := readImage(args[0], runHex)
		if err != nil {
			return err
		}
		reg := cpu.DefaultRegistry()
		s := newInteractiveSession(reg)
		if err := s.cpu.Load(words); err != nil {
			return err
		}
		return s.run(cmd.Context())
	},
}

// readImage loads a binary image, or a hex one when hex is set or the file
// ends in .hex.
func readImage(path string, hex bool) ([]uint16, error) {
	return asm.ReadImageFile(path, hex || utils.DetectFormat(path) == utils.FormatHex)
}

var parseCmd = &cobra.Command{
	Use:          "parse <source>",
	Short:        "Print the parsed program",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		prog, err := parser.Parse(string(src), cpu.DefaultRegistry())
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		out := cmd.OutOrStdout()
		printer := pp.New()
		printer.SetOutput(out)
		printer.SetColoringEnabled(isTerminal(out))
		_, err = printer.Println(prog)
		return err
	},
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var disasmHex bool

var disasmCmd = &cobra.Command{
	Use:          "disasm <binary>",
	Short:        "Disassemble a compiled image",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		words, err := readImage(args[0], disasmHex)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, l := range asm.Disassemble(words, cpu.DefaultRegistry()) {
			fmt.Fprintln(out, l)
		}
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <snapshot>",
	Short: "Continue a machine saved with --save-state",
	Long: `Resume restores the registers, memory and stack written by --save-state
and keeps running from where the machine stopped. A snapshot taken after
HALT resumes on the HALT instruction and stops again right away.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newInteractiveSession(cpu.DefaultRegistry())
		if err := s.cpu.RestoreFromFile(args[0]); err != nil {
			return fmt.Errorf("failed to restore %q: %w", args[0], err)
		}
		s.cpu.Halted = false
		return s.run(cmd.Context())
	},
}

func init() {
	compileCmd.Flags().BoolVarP(&compileHex, "hex", "x", false, "save the image in hex instead of binary format")
	runCmd.Flags().BoolVarP(&runHex, "hex", "x", false, "read the image in hex format")
	disasmCmd.Flags().BoolVarP(&disasmHex, "hex", "x", false, "read the image in hex format")

	rootCmd.AddCommand(compileCmd, runCmd, parseCmd, disasmCmd, resumeCmd)
}
