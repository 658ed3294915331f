// Command transactron elaborates a small demo transaction schedule and
// streams its per-cycle scheduling trace, the way the host library's
// own cmd/main.go wires up and steps a toy circuit.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/db47h/transactron"
	"github.com/db47h/transactron/translib"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		mode       string
		cycles     int
		workers    int
		drivePath  string
	)

	cmd := &cobra.Command{
		Use:   "transactron",
		Short: "Elaborate and run a demo transaction schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := transactron.Config{}
			if configPath != "" {
				loaded, err := transactron.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if mode != "" {
				parsed, err := transactron.ParseSchedulerMode(mode)
				if err != nil {
					return err
				}
				cfg.Mode = parsed
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			return runDemo(cfg, cycles, drivePath)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML Config file")
	flags.StringVar(&mode, "mode", "", "scheduler mode override: greedy or round-robin")
	flags.IntVar(&cycles, "cycles", 16, "number of clock cycles to run")
	flags.IntVar(&workers, "workers", 0, "override Config.Workers")
	flags.StringVar(&drivePath, "drive", "", "path to a stimulus script, one \"name=true/false\" line per cycle")

	return cmd
}

// runDemo builds a producer/consumer pair around a depth-4 BasicFifo:
// one transaction writes a fixed byte whenever the queue has room,
// another drains it whenever it isn't empty. It is not meant to model
// anything real, only to exercise elaboration, scheduling, and the
// diagnostics artifacts end to end.
func runDemo(cfg transactron.Config, cycles int, drivePath string) error {
	if cfg.StepsPerCycle == 0 {
		cfg.StepsPerCycle = 4
	}
	ctx := transactron.NewContext(cfg)

	layout := transactron.Layout{{Name: "v", Bits: 8}}
	fifo, err := translib.NewBasicFifo(ctx, "queue", layout, 4)
	if err != nil {
		return err
	}

	payload := make(transactron.Bus, 8)
	for i := range payload {
		payload[i] = ctx.Const((42>>i)&1 == 1)
	}

	produceReq, consumeReq := ctx.Var(), ctx.Var()
	_, err = ctx.DefineTransaction("produce", produceReq, func(b *transactron.BodyCtx) {
		if _, err := b.Call(fifo.Write, payload, ctx.Const(true)); err != nil {
			panic(err)
		}
	})
	if err != nil {
		return err
	}

	consume, err := ctx.DefineTransaction("consume", consumeReq, func(b *transactron.BodyCtx) {
		if _, err := b.Call(fifo.Read, nil, ctx.Const(true)); err != nil {
			panic(err)
		}
	})
	if err != nil {
		return err
	}

	if err := ctx.Elaborate(); err != nil {
		return err
	}

	report, err := ctx.Report()
	if err != nil {
		return err
	}
	report.Log(ctx.Log())

	cir, err := ctx.BuildCircuit(cfg.Workers, cfg.StepsPerCycle)
	if err != nil {
		return err
	}
	defer cir.Dispose()

	var script []string
	if drivePath != "" {
		data, err := os.ReadFile(drivePath)
		if err != nil {
			return err
		}
		script = strings.Split(strings.TrimSpace(string(data)), "\n")
	}
	stim := transactron.NewStimulus(ctx)

	profiler := transactron.NewProfiler(ctx, cir, os.Stdout)
	for i := 0; i < cycles; i++ {
		if i < len(script) && strings.TrimSpace(script[i]) != "" {
			if err := stim.Drive(cir, script[i]); err != nil {
				return err
			}
		} else {
			cir.Set(int(produceReq), true)
			cir.Set(int(consumeReq), true)
		}
		cir.TickTock()
		if err := profiler.Sample(); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "ran %d cycles; consume granted in final cycle: %v\n", cycles, cir.Get(int(consume.Grant())))
	return nil
}
