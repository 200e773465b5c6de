package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"pixel-basket/internal/indexer"
)

// progressLine renders job events. On a terminal it redraws one status
// line; otherwise only failures and the final summary are printed.
type progressLine struct {
	out   io.Writer
	fd    int
	tty   bool
	quiet bool

	mu     sync.Mutex
	found  int
	total  int
	done   int
	failed int
}

func newProgressLine(f *os.File, quiet bool) *progressLine {
	fd := int(f.Fd())
	return &progressLine{out: f, fd: fd, tty: term.IsTerminal(fd), quiet: quiet}
}

// Handle is an indexer progress callback.
func (p *progressLine) Handle(e indexer.Event) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Kind {
	case indexer.EventFileCount:
		p.found = e.Count
	case indexer.EventTaskCount:
		p.total, p.done, p.failed = e.Count, 0, 0
	case indexer.EventTaskDone:
		p.done++
	case indexer.EventTaskFailed:
		p.failed++
		p.clear()
		fmt.Fprintf(p.out, "failed: %s: %s\n", e.Path, e.Error)
	case indexer.EventDone:
		p.clear()
		if e.Summary != nil {
			fmt.Fprintln(p.out, formatSummary(*e.Summary))
		}
		return
	}

	if p.tty {
		p.clear()
		fmt.Fprint(p.out, p.truncate(p.status()))
	}
}

func (p *progressLine) status() string {
	if p.total == 0 {
		return fmt.Sprintf("discovered %d files", p.found)
	}
	return fmt.Sprintf("scanning %d/%d (%d failed)", p.done+p.failed, p.total, p.failed)
}

func (p *progressLine) clear() {
	if p.tty {
		fmt.Fprint(p.out, "\r\033[K")
	}
}

func (p *progressLine) truncate(s string) string {
	width, _, err := term.GetSize(p.fd)
	if err != nil || width <= 1 || len(s) < width {
		return s
	}
	return s[:width-1]
}

func formatSummary(s indexer.Summary) string {
	return fmt.Sprintf("%d files in %d folders, %d queued: %d added, %d duplicates, %d failed, %d cancelled (%v)",
		s.Discovered, s.Folders, s.Enqueued, s.Inserted, s.Duplicates, s.Failed, s.Cancelled, s.Duration.Round(1e6))
}
