package main

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

const (
	progressUpdateInterval = 100 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

// ProgressPrinter displays the current phase of a command with elapsed time.
//
// Usage:
//
//	p := NewProgressPrinter(w, "Inspecting aa:bb:cc:dd:ee:ff", "Waiting for radio")
//	p.Start()
//	defer p.Stop()
//	p.SetPhase("Connecting")
//
// A ProgressPrinter is single-use. Stop is safe to call more than once and
// from any goroutine; the caller must call it to release the goroutine.
type ProgressPrinter struct {
	out       io.Writer
	prefix    string
	phase     atomic.Value // string
	startTime time.Time
	ticker    atomic.Pointer[time.Ticker]
	stopChan  chan struct{}
	done      chan struct{}
	started   atomic.Bool
}

// NewProgressPrinter creates a printer writing to out
func NewProgressPrinter(out io.Writer, prefix, phase string) *ProgressPrinter {
	p := &ProgressPrinter{out: out, prefix: prefix}
	p.phase.Store(phase)
	return p
}

// Start begins displaying progress updates in a background goroutine.
// Panics if called more than once on the same ProgressPrinter instance.
func (p *ProgressPrinter) Start() {
	if !p.started.CompareAndSwap(false, true) {
		panic("ProgressPrinter.Start called more than once")
	}

	p.done = make(chan struct{})
	p.stopChan = make(chan struct{})
	p.startTime = time.Now()
	ticker := time.NewTicker(progressUpdateInterval)
	p.ticker.Store(ticker)

	fmt.Fprintf(p.out, "\r%s (%s...)   ", p.prefix, p.Phase())

	go func() {
		defer close(p.done)
		for {
			select {
			case <-p.stopChan:
				return
			case <-ticker.C:
				seconds := int(time.Since(p.startTime).Seconds())
				fmt.Fprintf(p.out, "\r%s (%s %ds)   ", p.prefix, p.Phase(), seconds)
			}
		}
	}()
}

// SetPhase changes the phase shown on the next tick
func (p *ProgressPrinter) SetPhase(phase string) {
	p.phase.Store(phase)
}

// Phase returns the current phase
func (p *ProgressPrinter) Phase() string {
	return p.phase.Load().(string)
}

// Stop stops the progress display and clears the line.
// Only the first call waits for the goroutine and clears the line.
func (p *ProgressPrinter) Stop() {
	ticker := p.ticker.Swap(nil)
	if ticker == nil {
		return // Already stopped or never started
	}

	ticker.Stop()
	close(p.stopChan)
	<-p.done

	fmt.Fprint(p.out, clearLineSequence)
}
