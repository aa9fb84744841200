// Package profiling records named timing spans and CPU or heap profiles
// for CLI runs.
package profiling

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stopper ends a timed span.
type Stopper interface {
	Stop()
}

// span is a single timed operation. Spans started while another is open
// on the same profiler become its children.
type span struct {
	name     string
	start    time.Time
	duration time.Duration
	children []*span
	profiler *Profiler
}

// Stop completes the timing for this span.
func (s *span) Stop() {
	s.profiler.endSpan(s)
}

// Profiler manages a profiling session with nested timing spans.
type Profiler struct {
	mu        sync.Mutex
	enabled   bool
	root      *span
	spanStack []*span
}

var defaultProfiler = &Profiler{}

// Enable turns on the global profiler. Calling it again is a no-op.
func Enable(name string) {
	defaultProfiler.enable(name)
}

// Enabled reports whether the global profiler records spans.
func Enabled() bool {
	defaultProfiler.mu.Lock()
	defer defaultProfiler.mu.Unlock()
	return defaultProfiler.enabled
}

// Start begins a span on the global profiler, typically stopped via defer.
func Start(name string) Stopper {
	return defaultProfiler.startSpan(name)
}

// Summarize prints the span tree of the global profiler to w.
func Summarize(w io.Writer) {
	defaultProfiler.summarize(w)
}

func (p *Profiler) enable(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.enabled {
		return
	}
	p.enabled = true
	p.root = &span{name: name, start: time.Now(), profiler: p}
	p.spanStack = []*span{p.root}
}

func (p *Profiler) startSpan(name string) Stopper {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return noopStopper{}
	}

	parent := p.spanStack[len(p.spanStack)-1]
	s := &span{name: name, start: time.Now(), profiler: p}
	parent.children = append(parent.children, s)
	p.spanStack = append(p.spanStack, s)
	return s
}

func (p *Profiler) endSpan(s *span) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s.duration = time.Since(s.start)
	// Spans may end out of order when started from several goroutines
	for i := len(p.spanStack) - 1; i > 0; i-- {
		if p.spanStack[i] == s {
			p.spanStack = append(p.spanStack[:i], p.spanStack[i+1:]...)
			return
		}
	}
}

func (p *Profiler) summarize(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled || p.root == nil {
		return
	}
	if p.root.duration == 0 {
		p.root.duration = time.Since(p.root.start)
	}

	fmt.Fprintf(w, "\n--- Timing Profile: %s (%v) ---\n", p.root.name, p.root.duration.Round(100*time.Microsecond))
	for _, child := range sortedChildren(p.root) {
		printSpan(w, child, 0, p.root.duration)
	}
	fmt.Fprintln(w, "--------------------")
}

// printSpan is a recursive helper to print the span tree.
func printSpan(w io.Writer, s *span, depth int, total time.Duration) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(s.duration) / float64(total) * 100
	}
	fmt.Fprintf(w, "%s- %s (%v, %.1f%%)\n", strings.Repeat("  ", depth), s.name, s.duration.Round(100*time.Microsecond), percentage)

	for _, child := range sortedChildren(s) {
		printSpan(w, child, depth+1, total)
	}
}

// sortedChildren orders children by start time to keep call order.
func sortedChildren(s *span) []*span {
	children := append([]*span(nil), s.children...)
	sort.Slice(children, func(i, j int) bool {
		return children[i].start.Before(children[j].start)
	})
	return children
}

// noopStopper is used when the profiler is disabled.
type noopStopper struct{}

func (noopStopper) Stop() {}
