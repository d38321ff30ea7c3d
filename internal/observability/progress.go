package observability

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Progress is a counter shared by concurrent tasks. Each Inc prints one line of the form
// "<label> [<elapsed>] [<done>/<total>]".
type Progress struct {
	label string
	total int64
	done  atomic.Int64
	start time.Time

	mu  sync.Mutex
	out io.Writer
}

// NewProgress creates a counter for total steps. A nil writer prints nothing.
func NewProgress(out io.Writer, label string, total int) *Progress {
	return &Progress{
		label: label,
		total: int64(total),
		start: time.Now(),
		out:   out,
	}
}

// Inc records one finished step.
func (p *Progress) Inc() {
	if p == nil {
		return
	}
	n := p.done.Add(1)
	if p.out == nil {
		return
	}

	elapsed := time.Since(p.start).Truncate(time.Second)
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, "%s [%s] [%d/%d]\n", p.label, elapsed, n, p.total)
}

// Done returns the number of finished steps.
func (p *Progress) Done() int {
	if p == nil {
		return 0
	}
	return int(p.done.Load())
}

// Total returns the expected number of steps.
func (p *Progress) Total() int {
	if p == nil {
		return 0
	}
	return int(p.total)
}
