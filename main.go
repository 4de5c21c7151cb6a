package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"pptx-translator/internal/config"
	"pptx-translator/internal/logger"
	"pptx-translator/internal/types"
)

const usage = `pptx-translator - translate PowerPoint presentations with an LLM

Usage:
  pptx-translator [global options] <command> [arguments]

Commands:
  extract    <source.pptx> [-o content.json]
  translate  <content.json> -lang <language> [-o translated.json]
  reassemble <source.pptx> <translated.json> [-o output.pptx]
  run        <source.pptx> -lang <language> [-o output.pptx]
  report     <content.json> <translated.json> [-o records.xlsx]
  info       <content.json>

Global options:
  -config <path>  configuration file (default ~/.config/pptx-translator/pptx-translator-config.json)
  -env <path>     .env file with OPENAI_API_KEY etc. (default .env)
  -v              verbose: debug logging mirrored to the console

Examples:
  pptx-translator run deck.pptx -lang Arabic
  pptx-translator extract deck.pptx
  pptx-translator translate deck_extracted.json -lang French
  pptx-translator reassemble deck.pptx deck_translated.json -o deck-fr.pptx
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code: 0 on
// success, 1 on a failed stage, 2 on a usage error.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("pptx-translator", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := global.String("config", "", "configuration file")
	envFile := global.String("env", config.DefaultEnvFile, ".env file")
	verbose := global.Bool("v", false, "verbose output")
	if err := global.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if global.NArg() == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	app, err := NewApp(*configPath)
	if err != nil {
		fail(stderr, err)
		return 1
	}
	app.config.SetEnvFile(*envFile)
	app.SetOutput(stdout)
	loadErr := app.startup(ctx)
	closeLog := initLogger(app.config.GetConfig(), *verbose, stderr)
	defer closeLog()
	app.log = logger.Named("app")
	if loadErr != nil {
		app.log.Warn("failed to load config, using defaults", logger.Err(loadErr))
		fmt.Fprintf(stderr, "warning: %v; using defaults\n", loadErr)
	}
	app.log.Debug("application started",
		logger.String("configPath", app.config.GetConfigPath()),
		logger.String("runID", app.errs.RunID()))

	cmd, rest := global.Arg(0), global.Args()[1:]
	if err := dispatch(app, cmd, rest, stderr); err != nil {
		if err == errUsage {
			return 2
		}
		fail(stderr, err)
		return 1
	}
	return 0
}

var errUsage = errors.New("usage error")

func dispatch(app *App, cmd string, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("o", "", "output path")

	switch cmd {
	case "extract":
		pos, err := parseArgs(fs, args, 1)
		if err != nil {
			return err
		}
		_, err = app.Extract(pos[0], *out)
		return err

	case "translate":
		topts := translateFlags(fs)
		pos, err := parseArgs(fs, args, 1)
		if err != nil {
			return err
		}
		_, err = app.Translate(pos[0], *out, *topts)
		return err

	case "reassemble":
		ropts := reassembleFlags(fs)
		pos, err := parseArgs(fs, args, 2)
		if err != nil {
			return err
		}
		_, err = app.Reassemble(pos[0], pos[1], *out, *ropts)
		return err

	case "run":
		topts := translateFlags(fs)
		ropts := reassembleFlags(fs)
		pos, err := parseArgs(fs, args, 1)
		if err != nil {
			return err
		}
		return app.Run(pos[0], *out, *topts, *ropts)

	case "report":
		pos, err := parseArgs(fs, args, 2)
		if err != nil {
			return err
		}
		_, err = app.Report(pos[0], pos[1], *out)
		return err

	case "info":
		pos, err := parseArgs(fs, args, 1)
		if err != nil {
			return err
		}
		return app.Info(pos[0])

	case "help":
		fmt.Fprint(stderr, usage)
		return nil

	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return errUsage
	}
}

func translateFlags(fs *flag.FlagSet) *TranslateOptions {
	o := &TranslateOptions{}
	fs.StringVar(&o.Language, "lang", "", "target language name or tag (default from config)")
	fs.IntVar(&o.Concurrency, "concurrency", 0, "batches in flight (default from config)")
	fs.IntVar(&o.BatchMaxChars, "batch-chars", 0, "character budget per request (default from config)")
	fs.BoolVar(&o.NoCache, "no-cache", false, "do not read or write the translation cache")
	return o
}

func reassembleFlags(fs *flag.FlagSet) *ReassembleOptions {
	o := &ReassembleOptions{}
	fs.BoolVar(&o.RTL, "rtl", false, "force right-to-left paragraphs and runs")
	fs.BoolVar(&o.ShrinkToFit, "shrink", true, "shrink text on overflow in frames that receive translations")
	return o
}

// parseArgs accepts flags before, between and after positional arguments
// and requires exactly n positionals.
func parseArgs(fs *flag.FlagSet, args []string, n int) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, errUsage
		}
		if fs.NArg() == 0 {
			break
		}
		pos = append(pos, fs.Arg(0))
		args = fs.Args()[1:]
	}
	if len(pos) != n {
		fmt.Fprintf(fs.Output(), "%s: expected %d arguments, got %d\n\n%s", fs.Name(), n, len(pos), usage)
		return nil, errUsage
	}
	return pos, nil
}

// initLogger starts the file logger; -v adds debug level and console output.
func initLogger(cfg *types.Config, verbose bool, stderr io.Writer) func() {
	lc := logger.DefaultConfig()
	if cfg.LogFilePath != "" {
		lc.LogFilePath = cfg.LogFilePath
	}
	if level, err := logger.ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = level
	}
	if verbose {
		lc.Level = logger.LevelDebug
		lc.EnableConsole = true
	}
	if err := logger.Init(lc); err != nil {
		fmt.Fprintf(stderr, "warning: logging disabled: %v\n", err)
		return func() {}
	}
	return func() { logger.Close() }
}

func fail(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprint(w, "error: ")
	fmt.Fprintln(w, err)
	if code := types.CodeOf(err); code == types.ErrConfig {
		fmt.Fprintln(w, "set OPENAI_API_KEY in the environment or a .env file, or openai_api_key in the config file")
	}
}
