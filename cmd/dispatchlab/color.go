package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/dispatchlab/internal/config"
)

// colorEnabled reports whether w should receive ANSI escapes.
func colorEnabled(w io.Writer) bool {
	if config.IsTestMode {
		return false
	}
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

type painter struct {
	enabled bool
}

func (p painter) wrap(code, s string) string {
	if !p.enabled {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

func (p painter) bold(s string) string { return p.wrap("1", s) }
func (p painter) dim(s string) string  { return p.wrap("2", s) }
func (p painter) red(s string) string  { return p.wrap("31", s) }
