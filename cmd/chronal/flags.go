package main

import (
	"gopkg.in/urfave/cli.v1"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "YAML or TOML run configuration file",
	}
	samplesFlag = cli.StringFlag{
		Name:  "samples",
		Usage: "sample file used to infer the opcode table",
	}
	registersFlag = cli.IntFlag{
		Name:  "registers",
		Usage: "size of the register file",
		Value: 6,
	}
	initialFlag = cli.Int64SliceFlag{
		Name:  "initial",
		Usage: "initial register value, repeat for following registers",
	}
	noOptimizeFlag = cli.BoolFlag{
		Name:  "no-optimize",
		Usage: "interpret every instruction instead of running compiled blocks",
	}
	incrementFlag = cli.BoolFlag{
		Name:  "increment-after-jump",
		Usage: "advance past values written into the instruction pointer register",
	}
	budgetFlag = cli.Uint64Flag{
		Name:  "budget",
		Usage: "stop after this many instructions, 0 for no limit",
	}
	monitorFlag = cli.BoolFlag{
		Name:  "monitor",
		Usage: "serve the akita monitor while the program runs",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "debug, trace, info, warn or error",
	}

	machineFlags = []cli.Flag{
		configFlag,
		samplesFlag,
		registersFlag,
		initialFlag,
		incrementFlag,
		budgetFlag,
		logLevelFlag,
	}
)
