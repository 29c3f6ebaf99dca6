// Package logger provides the logging interface used by every parkdl
// component, with zerolog backends for the console and log files and a
// recording backend for tests.
package logger

import (
	"fmt"
	"sync"
)

// Logger is the printf-style logger passed to every component.
// Messages must never contain cookie values or token strings.
type Logger interface {
	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
	// Close releases the backend's writer, if it owns one. Safe to call
	// more than once.
	Close() error
}

type NopLogger struct{}

func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}
func (n *NopLogger) Close() error                               { return nil }

type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// Entry is one message captured by MockLogger.
type Entry struct {
	Level Level
	Msg   string
}

// MockLogger records every message for assertions. Session refreshes log
// from several goroutines, so it is safe for concurrent use.
type MockLogger struct {
	mu      sync.Mutex
	entries []Entry
	closed  bool
}

func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) record(lvl Level, format string, args []interface{}) {
	msg := fmt.Sprintf(format, args...)
	m.mu.Lock()
	m.entries = append(m.entries, Entry{Level: lvl, Msg: msg})
	m.mu.Unlock()
}

func (m *MockLogger) Info(format string, args ...interface{}) {
	m.record(LevelInfo, format, args)
}

func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.record(LevelWarning, format, args)
}

func (m *MockLogger) Error(format string, args ...interface{}) {
	m.record(LevelError, format, args)
}

func (m *MockLogger) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (m *MockLogger) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Entries returns every recorded message in order.
func (m *MockLogger) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

func (m *MockLogger) messages(lvl Level) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.entries {
		if e.Level == lvl {
			out = append(out, e.Msg)
		}
	}
	return out
}

func (m *MockLogger) Infos() []string    { return m.messages(LevelInfo) }
func (m *MockLogger) Warnings() []string { return m.messages(LevelWarning) }
func (m *MockLogger) Errors() []string   { return m.messages(LevelError) }

var (
	_ Logger = (*NopLogger)(nil)
	_ Logger = (*MockLogger)(nil)
)
