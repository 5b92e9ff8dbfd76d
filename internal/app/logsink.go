package app

import (
	"strings"
	"sync"
)

// lineSink is an io.Writer that forwards complete lines to fn. It lets the
// zerolog console writer feed the log pane.
type lineSink struct {
	mu      sync.Mutex
	pending string
	fn      func(string)
}

func (l *lineSink) Write(p []byte) (int, error) {
	l.mu.Lock()
	text := l.pending + strings.ReplaceAll(string(p), "\r\n", "\n")
	parts := strings.Split(text, "\n")
	l.pending = parts[len(parts)-1]
	lines := parts[:len(parts)-1]

	fn := l.fn
	l.mu.Unlock()

	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" && fn != nil {
			fn(line)
		}
	}
	return len(p), nil
}

func (l *lineSink) setFunc(fn func(string)) {
	l.mu.Lock()
	l.fn = fn
	l.mu.Unlock()
}
