// Command chronal runs register-machine programs, infers opcode tables from
// samples and checks that compiled blocks agree with plain interpretation.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"
	"gopkg.in/urfave/cli.v1"

	"github.com/sarchlab/chronal/config"
)

func main() {
	app := cli.NewApp()
	app.Name = "chronal"
	app.Usage = "run and inspect chronal register-machine programs"
	app.Version = "0.1.0"
	app.Commands = []cli.Command{
		runCommand,
		inferCommand,
		lintCommand,
		verifyCommand,
		blocksCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)

		code := 1
		var se *statusError
		if errors.As(err, &se) {
			code = se.code
		}
		atexit.Exit(code)
	}

	atexit.Exit(0)
}

// statusError carries the exit status of a command. It does not implement
// cli.ExitCoder, which would exit before the atexit handlers run.
type statusError struct {
	err  error
	code int
}

func (e *statusError) Error() string {
	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

// loadConfig reads the configuration file, if any, and applies the command
// line flags over it. The first argument names the program.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg := config.Default()

	if path := ctx.String(configFlag.Name); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}

	if ctx.NArg() > 0 {
		cfg.Program = ctx.Args().First()
	}

	if ctx.IsSet(samplesFlag.Name) {
		cfg.Samples = ctx.String(samplesFlag.Name)
	}

	if ctx.IsSet(registersFlag.Name) {
		cfg.Registers = ctx.Int(registersFlag.Name)
	}

	if ctx.IsSet(initialFlag.Name) {
		cfg.Initial = ctx.Int64Slice(initialFlag.Name)
	}

	if ctx.Bool(noOptimizeFlag.Name) {
		cfg.Optimize = false
	}

	if ctx.Bool(incrementFlag.Name) {
		cfg.IncrementAfterJump = true
	}

	if ctx.IsSet(budgetFlag.Name) {
		cfg.Budget = ctx.Uint64(budgetFlag.Name)
	}

	if ctx.IsSet(logLevelFlag.Name) {
		cfg.Log.Level = ctx.String(logLevelFlag.Name)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	setupLogging(cfg.Log)

	return cfg, nil
}

func setupLogging(l config.Log) {
	w := os.Stderr

	if l.File != "" {
		f, err := os.Create(l.File)
		if err != nil {
			atexit.Fatalf("cannot create log file: %v", err)
		}

		atexit.Register(func() { f.Close() })
		w = f
	}

	handler, err := l.NewHandler(w)
	if err != nil {
		atexit.Fatal(err)
	}

	slog.SetDefault(slog.New(handler))
}
