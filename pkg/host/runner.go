package host

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/stopnoanime/16TTAC-sim/pkg/cpu"
)

// ErrStepLimit is returned by Run when Config.MaxSteps steps ran without a
// halt.
var ErrStepLimit = errors.New("step limit reached")

// Config holds the runtime settings shared by the front-ends.
type Config struct {
	Batch     int    // steps between checks for cancellation
	MaxSteps  int    // 0 means no limit
	SaveState string // snapshot written when Run returns, if set
}

const DefaultBatch = 100_000

func DefaultConfig() Config {
	return Config{Batch: DefaultBatch}
}

// Runner drives a CPU until it halts.
type Runner struct {
	CPU    *cpu.CPU
	Config Config

	// Steps counts every Step call made by Run, including suspended ones.
	Steps int
}

func NewRunner(c *cpu.CPU, cfg Config) *Runner {
	return &Runner{CPU: c, Config: cfg}
}

// Run steps the CPU in batches until it halts, the context is cancelled or
// the step limit is hit. A batch that ends with the CPU stuck on one
// instruction (usually waiting for input) sleeps briefly instead of
// spinning.
func (r *Runner) Run(ctx context.Context) error {
	batch := r.Config.Batch
	if batch <= 0 {
		batch = DefaultBatch
	}

	for !r.CPU.Halted {
		select {
		case <-ctx.Done():
			return r.finish(ctx.Err())
		default:
		}

		stalled := false
		for i := 0; i < batch && !r.CPU.Halted; i++ {
			if r.Config.MaxSteps > 0 && r.Steps >= r.Config.MaxSteps {
				return r.finish(ErrStepLimit)
			}
			pc := r.CPU.PC
			r.CPU.Step()
			r.Steps++
			if r.CPU.PC == pc && !r.CPU.Halted {
				stalled = true
				break
			}
		}

		if stalled {
			time.Sleep(time.Millisecond)
		} else {
			runtime.Gosched()
		}
	}
	return r.finish(nil)
}

func (r *Runner) finish(err error) error {
	if r.Config.SaveState == "" {
		return err
	}
	if serr := r.CPU.HibernateToFile(r.Config.SaveState); serr != nil {
		return errors.Join(err, fmt.Errorf("save state: %w", serr))
	}
	return err
}
