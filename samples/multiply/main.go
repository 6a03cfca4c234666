package main

import (
	_ "embed"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/chronal/api"
	"github.com/sarchlab/chronal/core"
	"github.com/sarchlab/chronal/isa"
	"github.com/tebeka/atexit"
)

// multiplyKernel leaves r0 * r1 in r2 by repeated addition.
//
//go:embed multiply.chr
var multiplyKernel string

func multiply(driver api.Driver, a, b int64, optimize bool) (api.Result, error) {
	prog, err := driver.Load(multiplyKernel)
	if err != nil {
		return api.Result{}, err
	}

	return driver.Run(prog, nil, isa.FromInt64s(a, b), optimize)
}

func main() {
	a := flag.Int64("a", 1234, "multiplicand")
	b := flag.Int64("b", 5678, "multiplier, not negative")
	useMonitor := flag.Bool("monitor", false, "serve the akita monitor")
	flag.Parse()

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: core.LevelTrace,
	})
	slog.SetDefault(slog.New(handler))

	engine := sim.NewSerialEngine()
	builder := api.NewDriverBuilder().
		WithEngine(engine).
		WithFreq(1 * sim.GHz)

	var monitor *monitoring.Monitor
	if *useMonitor {
		monitor = monitoring.NewMonitor()
		builder = builder.WithMonitor(monitor)
	}

	driver := builder.Build("Driver")

	if monitor != nil {
		monitor.StartServer()
	}

	for _, optimize := range []bool{false, true} {
		res, err := multiply(driver, *a, *b, optimize)
		if err != nil {
			fmt.Println("Run failed:", err)
			atexit.Exit(1)
		}

		fmt.Printf("optimize=%v: %d * %d = %d (%d instructions, %d blocks, %d hits)\n",
			optimize, *a, *b, res.Registers.Int64(2), res.Executed,
			res.Stats.Blocks, res.Stats.Hits)
	}

	atexit.Exit(0)
}
