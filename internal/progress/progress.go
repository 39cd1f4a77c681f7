// Package progress shows a spinner while a search runs.
//
// The indicator never touches the search itself: it only watches a done
// channel that the search closes when it returns.
package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/text/message"

	"github.com/gauthierbraillon/kufarwatch/internal/clock"
)

const (
	// DefaultInterval is how often the indicator polls and redraws.
	DefaultInterval = 500 * time.Millisecond
	// DefaultFactEvery is how long each fact stays on screen.
	DefaultFactEvery = 7 * time.Second

	clearLine = "\r\x1b[2K"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Option configures an Indicator.
type Option func(*Indicator)

// WithInterval sets the redraw interval.
func WithInterval(d time.Duration) Option {
	return func(ind *Indicator) {
		if d > 0 {
			ind.interval = d
		}
	}
}

// WithFacts sets the rotating facts and how long each one is shown.
func WithFacts(facts []string, every time.Duration) Option {
	return func(ind *Indicator) {
		ind.facts = facts
		if every > 0 {
			ind.factEvery = every
		}
	}
}

// WithPrinter sets the printer used to translate indicator text.
func WithPrinter(p *message.Printer) Option {
	return func(ind *Indicator) {
		ind.printer = p
	}
}

// WithClock sets the clock used to measure elapsed time.
func WithClock(c clock.Clock) Option {
	return func(ind *Indicator) {
		ind.clock = c
	}
}

// Indicator draws spinner frames with the elapsed time until a search finishes.
type Indicator struct {
	out       io.Writer
	label     string
	interval  time.Duration
	factEvery time.Duration
	facts     []string
	printer   *message.Printer
	clock     clock.Clock
}

// New creates an indicator for a search described by label.
func New(out io.Writer, label string, opts ...Option) *Indicator {
	ind := &Indicator{
		out:       out,
		label:     label,
		interval:  DefaultInterval,
		factEvery: DefaultFactEvery,
		printer:   message.NewPrinter(message.MatchLanguage("en")),
		clock:     clock.Real{},
	}

	for _, opt := range opts {
		opt(ind)
	}

	return ind
}

// Run redraws the indicator every interval until done is closed, then
// prints a completion line. It returns ctx.Err() if ctx ends first.
func (ind *Indicator) Run(ctx context.Context, done <-chan struct{}) error {
	start := ind.clock.Now()
	ticker := time.NewTicker(ind.interval)
	defer ticker.Stop()

	tick := 0
	ind.draw(tick, 0)

	for {
		select {
		case <-done:
			elapsed := ind.clock.Now().Sub(start)
			_, err := fmt.Fprint(ind.out, clearLine+ind.printer.Sprintf("Search finished in %.1fs", elapsed.Seconds())+"\n")
			return err
		case <-ctx.Done():
			_, _ = fmt.Fprint(ind.out, clearLine)
			return ctx.Err()
		case <-ticker.C:
			tick++
			ind.draw(tick, ind.clock.Now().Sub(start))
		}
	}
}

func (ind *Indicator) draw(tick int, elapsed time.Duration) {
	_, _ = fmt.Fprint(ind.out, clearLine+ind.Frame(tick, elapsed))
}

// Frame renders the indicator line for the given tick and elapsed time.
func (ind *Indicator) Frame(tick int, elapsed time.Duration) string {
	spinner := spinnerFrames[tick%len(spinnerFrames)]
	line := ind.printer.Sprintf("Searching %s %s (%ds)", spinner, ind.label, int(elapsed.Seconds()))

	if len(ind.facts) == 0 {
		return line
	}

	i := int(elapsed/ind.factEvery) % len(ind.facts)
	return line + " | " + ind.printer.Sprintf("Did you know? %s", ind.printer.Sprintf(ind.facts[i]))
}
