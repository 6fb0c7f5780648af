package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"compdb/internal/compdb"
)

// progressPrinter renders build progress. On a terminal it redraws one line;
// otherwise it prints a line every time another tenth of the units is done.
type progressPrinter struct {
	out         io.Writer
	interactive bool
	lastDecile  int
	width       int
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	interactive := false
	if f, ok := out.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &progressPrinter{out: out, interactive: interactive, lastDecile: -1}
}

func (p *progressPrinter) OnProgress(percent float64, status string) {
	if p.interactive {
		line := fmt.Sprintf("[%5.1f%%] %s", percent, status)
		pad := ""
		if n := p.width - len(line); n > 0 {
			pad = strings.Repeat(" ", n)
		}
		p.width = len(line)
		fmt.Fprintf(p.out, "\r%s%s", line, pad)
		return
	}
	decile := int(percent) / 10
	if decile == p.lastDecile {
		return
	}
	p.lastDecile = decile
	fmt.Fprintf(p.out, "[%3.0f%%] %s\n", percent, status)
}

func (p *progressPrinter) OnCompleted(db *compdb.CompilationDatabase) {
	p.endLine()
	fmt.Fprintf(p.out, "Wrote %d commands to %s\n", len(db.Commands), db.OutputPath())
}

func (p *progressPrinter) OnCancelled() {
	p.endLine()
	fmt.Fprintln(p.out, "Build cancelled")
}

func (p *progressPrinter) endLine() {
	if p.interactive && p.width > 0 {
		fmt.Fprintln(p.out)
		p.width = 0
	}
}
