package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("x")
	l.Warning("x")
	l.Error("x")
	if err := l.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

func TestMockLogger_ConcurrentRecording(t *testing.T) {
	m := NewMockLogger()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Info("info %d", i)
			m.Warning("warn %d", i)
			m.Error("err %d", i)
		}(i)
	}
	wg.Wait()
	if len(m.Infos()) != 50 || len(m.Warnings()) != 50 || len(m.Errors()) != 50 {
		t.Fatalf("got %d/%d/%d calls, want 50 each", len(m.Infos()), len(m.Warnings()), len(m.Errors()))
	}
	if got := len(m.Entries()); got != 150 {
		t.Fatalf("entries = %d, want 150", got)
	}
	_ = m.Close()
	if !m.Closed() {
		t.Error("Close not recorded")
	}
}

func TestZerologLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewZerologLogger(buf, false)
	l.Info("hidden info")
	l.Warning("visible warning")
	out := buf.String()
	if strings.Contains(out, "hidden info") {
		t.Errorf("info should be filtered without debug, got: %s", out)
	}
	if !strings.Contains(out, "visible warning") {
		t.Errorf("expected warning in output, got: %s", out)
	}

	buf.Reset()
	l = NewZerologLogger(buf, true)
	l.Info("shown info %d", 1)
	if !strings.Contains(buf.String(), "shown info 1") {
		t.Errorf("expected info with debug enabled, got: %s", buf.String())
	}
}

type closeRecorder struct {
	bytes.Buffer
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestZerologJSONLogger_WritesJSONAndClosesOnce(t *testing.T) {
	w := &closeRecorder{}
	l := NewZerologJSONLogger(w)
	l.Error("upstream %d", 503)

	var line map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(w.Bytes()), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, w.String())
	}
	if line["level"] != "error" || line["message"] != "upstream 503" {
		t.Errorf("unexpected line: %v", line)
	}

	_ = l.Close()
	_ = l.Close()
	if w.closed != 1 {
		t.Errorf("writer closed %d times, want 1", w.closed)
	}
}

type failingCloseLogger struct {
	NopLogger
	err error
}

func (f *failingCloseLogger) Close() error { return f.err }

func TestMultiLogger_BroadcastsAndSkipsNil(t *testing.T) {
	a, b := NewMockLogger(), NewMockLogger()
	m := NewMultiLogger(a, nil, b)
	m.Info("hello %s", "dlr")
	m.Warning("w")
	m.Error("e")
	for i, l := range []*MockLogger{a, b} {
		if got := l.Infos(); len(got) != 1 || got[0] != "hello dlr" {
			t.Errorf("logger %d infos = %v", i, got)
		}
		if len(l.Warnings()) != 1 || len(l.Errors()) != 1 {
			t.Errorf("logger %d missed warning or error", i)
		}
	}
}

func TestMultiLogger_Close_JoinsErrors(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	tail := NewMockLogger()
	m := NewMultiLogger(&failingCloseLogger{err: first}, &failingCloseLogger{err: second}, tail)
	err := m.Close()
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Errorf("Close() = %v, want both errors", err)
	}
	if !tail.Closed() {
		t.Error("expected every backend to be closed")
	}
}
