// Package progressbar implements functionality of printing a progress
// bar to a terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressBar implements a concurrent progress bar. Increment may be
// called from any goroutine, and the bar is redrawn both on every
// Increment and at a regular interval until the bar is closed.
type ProgressBar struct {
	out io.Writer

	// width determines the number of characters wide that the progress
	// bar should be
	width int

	// maxProgress determines the number of times Increment() should
	// be called before the progress bar reaches 100%.
	maxProgress int

	mu              sync.Mutex
	currentProgress int
	start           time.Time
	closed          bool

	updateEvery time.Duration
	done        chan struct{}
	wg          sync.WaitGroup
}

// NewProgressBar returns a new progress bar that is width characters
// wide, reaches 100% capacity after max Increment() calls, and is
// written to out.
func NewProgressBar(out io.Writer, width, max int,
	updateEvery time.Duration) *ProgressBar {
	if width < 1 {
		width = 1
	}
	if max < 1 {
		max = 1
	}
	return &ProgressBar{
		out:         out,
		width:       width,
		maxProgress: max,
		updateEvery: updateEvery,
		done:        make(chan struct{}),
	}
}

// Increment increments the internal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.currentProgress >= p.maxProgress {
		return
	}
	p.currentProgress++
	p.draw()
}

// Progress returns the number of times Increment has counted
func (p *ProgressBar) Progress() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentProgress
}

// Display starts redrawing the progress bar every updateEvery. It
// should only be called once.
func (p *ProgressBar) Display() {
	p.mu.Lock()
	p.start = time.Now()
	p.draw()
	p.mu.Unlock()

	if p.updateEvery <= 0 {
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		tick := time.NewTicker(p.updateEvery)
		defer tick.Stop()

		for {
			select {
			case <-tick.C:
				p.mu.Lock()
				p.draw()
				p.mu.Unlock()

			case <-p.done:
				return
			}
		}
	}()
}

// Close stops the progress bar so that it will no longer be redrawn and
// moves the output to the next line. Calling Close more than once has
// no effect.
func (p *ProgressBar) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	p.wg.Wait()
	fmt.Fprintln(p.out)
}

// draw writes the progress bar, p.mu must be held
func (p *ProgressBar) draw() {
	if p.closed {
		return
	}
	fmt.Fprintf(p.out, "\r\033[K%v", p.render())
}

// render returns the current rendering of the progress bar without any
// terminal control characters. p.mu must be held.
func (p *ProgressBar) render() string {
	filled := p.currentProgress * p.width / p.maxProgress

	var bar strings.Builder
	bar.WriteString("|")
	bar.WriteString(strings.Repeat("█", filled))
	bar.WriteString(strings.Repeat(" ", p.width-filled))

	var elapsed time.Duration
	if !p.start.IsZero() {
		elapsed = time.Since(p.start).Round(time.Second)
	}
	fmt.Fprintf(&bar, "| [%.2f%% | %v/%v | elapsed: %v]",
		float64(p.currentProgress)/float64(p.maxProgress)*100,
		p.currentProgress, p.maxProgress, elapsed)

	return bar.String()
}
