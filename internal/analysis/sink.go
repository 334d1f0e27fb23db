package analysis

import "sync"

// Sink receives accepted diagnostics. Implementations must be safe for
// concurrent use when shared between units.
type Sink interface {
	Accept(d Diagnostic)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Diagnostic)

func (f SinkFunc) Accept(d Diagnostic) { f(d) }

// MemorySink collects diagnostics in arrival order.
type MemorySink struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func (s *MemorySink) Accept(d Diagnostic) {
	s.mu.Lock()
	s.diags = append(s.diags, d)
	s.mu.Unlock()
}

// Diagnostics returns a copy of what has been accepted so far.
func (s *MemorySink) Diagnostics() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Diagnostic, len(s.diags))
	copy(out, s.diags)
	return out
}

func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.diags)
}

// Reset drops everything collected.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	s.diags = nil
	s.mu.Unlock()
}
