package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/funvibe/dispatchlab/internal/config"
	"github.com/funvibe/dispatchlab/internal/scenario"
	"github.com/funvibe/dispatchlab/internal/trace"
)

const usage = `Usage:
  dispatchlab [flags] [scenario|script.yaml ...]   run built-in scenarios (default: all) or scripts
  dispatchlab annotate <trace.yaml>                annotate a saved event log

Flags:
  -f <path>     run a YAML scenario script (repeatable)
  -trace        print every dispatched call after the transcript
  -annotate     print call-site annotations after the transcript
  -yaml         write the event log as YAML instead of the transcript
  -v            debug logging on stderr
  -no-color     disable colour
  -h, --help    show this help
`

type options struct {
	targets  []string
	trace    bool
	annotate bool
	yaml     bool
	verbose  bool
	noColor  bool
}

func main() {
	if os.Getenv("DISPATCHLAB_TEST_MODE") == "1" {
		config.IsTestMode = true
	}
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	errPaint := painter{enabled: colorEnabled(stderr)}
	fail := func(err error) int {
		fmt.Fprintf(stderr, "%s %s\n", errPaint.red("Error:"), err)
		return 1
	}

	if len(args) >= 1 && args[0] == "annotate" {
		if len(args) != 2 {
			fmt.Fprint(stderr, usage)
			return 2
		}
		if err := annotateLog(args[1], stdout); err != nil {
			return fail(err)
		}
		return 0
	}

	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n\n%s", err, usage)
		return 2
	}
	if opts == nil {
		fmt.Fprint(stdout, usage)
		return 0
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.verbose {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	paint := painter{enabled: !opts.noColor && colorEnabled(stdout)}

	programs, err := loadPrograms(opts.targets)
	if err != nil {
		return fail(err)
	}

	driver := scenario.NewDriver(scenario.WithLogger(logger))
	for i, p := range programs {
		report, runErr := driver.Run(p)
		if opts.yaml {
			if i > 0 {
				fmt.Fprintln(stdout, "---")
			}
			if err := trace.NewLog(report).Encode(stdout); err != nil {
				return fail(err)
			}
		} else {
			printReport(stdout, paint, report, opts, len(programs) > 1)
		}
		if runErr != nil {
			return fail(fmt.Errorf("%s: %w", p.Name, runErr))
		}
	}
	return 0
}

// parseArgs returns nil options when help was requested.
func parseArgs(args []string) (*options, error) {
	opts := &options{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-h", "-help", "--help":
			return nil, nil
		case "-f", "--file":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a path", arg)
			}
			i++
			opts.targets = append(opts.targets, args[i])
		case "-trace", "--trace":
			opts.trace = true
		case "-annotate", "--annotate":
			opts.annotate = true
		case "-yaml", "--yaml":
			opts.yaml = true
		case "-v", "--verbose":
			opts.verbose = true
		case "-no-color", "--no-color":
			opts.noColor = true
		default:
			if strings.HasPrefix(arg, "-") {
				return nil, fmt.Errorf("unknown flag %s", arg)
			}
			opts.targets = append(opts.targets, arg)
		}
	}
	if len(opts.targets) == 0 {
		opts.targets = scenario.Names()
	}
	return opts, nil
}

// isScriptFile checks if a target names a scenario script
func isScriptFile(path string) bool {
	for _, ext := range config.ScriptFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func loadPrograms(targets []string) ([]*scenario.Program, error) {
	programs := make([]*scenario.Program, 0, len(targets))
	for _, t := range targets {
		var (
			p   *scenario.Program
			err error
		)
		if isScriptFile(t) {
			p, err = scenario.LoadScript(t)
		} else {
			p, err = scenario.Builtin(t)
		}
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, nil
}

func printReport(w io.Writer, paint painter, report *scenario.Report, opts *options, header bool) {
	if header {
		fmt.Fprintln(w, paint.bold("== "+report.Scenario+" =="))
	}
	for _, line := range report.Transcript {
		fmt.Fprintln(w, line)
	}
	if opts.trace && len(report.Events) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, paint.bold("Calls:"))
		for _, ev := range report.Events {
			fmt.Fprintln(w, paint.dim(ev.String()))
		}
	}
	if opts.annotate && len(report.Events) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, paint.bold("Annotations:"))
		fmt.Fprint(w, trace.Annotate(report.Events).Render())
	}
}

func annotateLog(path string, w io.Writer) error {
	l, err := trace.ReadLog(path)
	if err != nil {
		return err
	}
	events, err := l.CallEvents()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprint(w, trace.Annotate(events).Render())
	return nil
}
