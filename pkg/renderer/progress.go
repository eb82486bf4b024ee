package renderer

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/term"
	"golang.org/x/time/rate"
)

// ProgressFunc is called after each finished row. It may be called concurrently.
type ProgressFunc func(rowsDone, totalRows int)

// ProgressReporter prints rate limited render progress. On a terminal it redraws
// a single status line; otherwise it logs through glog.
type ProgressReporter struct {
	out         io.Writer
	interactive bool
	limiter     *rate.Limiter
	start       time.Time

	lock     sync.Mutex
	lastRows int // rows in the most recent update, 0 before the first
}

// NewProgressReporter creates a reporter emitting at most perSecond updates per second.
// The first and final updates are always reported.
func NewProgressReporter(out io.Writer, interactive bool, perSecond float64) *ProgressReporter {
	return &ProgressReporter{
		out:         out,
		interactive: interactive,
		limiter:     rate.NewLimiter(rate.Limit(perSecond), 1),
		start:       time.Now(),
	}
}

// NewTerminalProgressReporter reports to f, redrawing in place when f is a terminal
func NewTerminalProgressReporter(f *os.File) *ProgressReporter {
	return NewProgressReporter(f, term.IsTerminal(int(f.Fd())), 4)
}

// Report implements ProgressFunc. Updates arriving out of order are dropped.
func (p *ProgressReporter) Report(rowsDone, totalRows int) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if rowsDone <= p.lastRows {
		return
	}
	if p.lastRows == 0 {
		// Spend the initial token so the next update is throttled
		p.limiter.Allow()
	} else if rowsDone < totalRows && !p.limiter.Allow() {
		return
	}
	p.lastRows = rowsDone

	percent := 100 * float64(rowsDone) / float64(totalRows)
	elapsed := time.Since(p.start).Round(time.Millisecond)
	if !p.interactive {
		glog.Infof("Rendered %d/%d rows (%.0f%%) in %v", rowsDone, totalRows, percent, elapsed)
		return
	}

	fmt.Fprintf(p.out, "\rRendering %d/%d rows (%.0f%%) %v ", rowsDone, totalRows, percent, elapsed)
	if rowsDone == totalRows {
		fmt.Fprintln(p.out)
	}
}
