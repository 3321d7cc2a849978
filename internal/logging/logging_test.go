package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func newBufferedLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := log.New(&buf, "", 0)
	return &Logger{infoLog: l, warnLog: l, errLog: l, dbgLog: l}, &buf
}

func TestInfoWritesPlainMessage(t *testing.T) {
	l, buf := newBufferedLogger()
	l.Info("starting up")
	if got := buf.String(); strings.TrimSpace(got) != "starting up" {
		t.Errorf("Info output = %q, want %q", got, "starting up")
	}
}

func TestInfoFormatsArgs(t *testing.T) {
	l, buf := newBufferedLogger()
	l.Info("indexed %d files", 3)
	if got := strings.TrimSpace(buf.String()); got != "indexed 3 files" {
		t.Errorf("Info output = %q, want %q", got, "indexed 3 files")
	}
}

func TestDebugSuppressedWhenNotVerbose(t *testing.T) {
	l, buf := newBufferedLogger()
	l.verbose = false
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output from Debug when verbose=false, got %q", buf.String())
	}
}

func TestDebugEmitsWhenVerbose(t *testing.T) {
	l, buf := newBufferedLogger()
	l.verbose = true
	l.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected Debug output to contain %q, got %q", "visible", buf.String())
	}
}

func TestInfoFieldsFormatsKeyValuePairs(t *testing.T) {
	l, buf := newBufferedLogger()
	l.InfoFields("reindex complete", Field{Key: "files_indexed", Value: 5}, Field{Key: "snapshot", Value: "abc-123"})
	got := strings.TrimSpace(buf.String())
	want := "reindex complete files_indexed=5 snapshot=abc-123"
	if got != want {
		t.Errorf("InfoFields output = %q, want %q", got, want)
	}
}

func TestInfoFieldsQuotesValuesWithSpaces(t *testing.T) {
	l, buf := newBufferedLogger()
	l.InfoFields("event", Field{Key: "msg", Value: "hello world"})
	got := strings.TrimSpace(buf.String())
	want := `event msg="hello world"`
	if got != want {
		t.Errorf("InfoFields output = %q, want %q", got, want)
	}
}

func TestErrorFieldsAppendsErrorField(t *testing.T) {
	l, buf := newBufferedLogger()
	l.ErrorFields("build failed", errBoom{})
	got := strings.TrimSpace(buf.String())
	want := `build failed error="boom"`
	if got != want {
		t.Errorf("ErrorFields output = %q, want %q", got, want)
	}
}

func TestErrorFieldsOmitsErrorFieldWhenNil(t *testing.T) {
	l, buf := newBufferedLogger()
	l.ErrorFields("build failed", nil)
	got := strings.TrimSpace(buf.String())
	want := "build failed"
	if got != want {
		t.Errorf("ErrorFields output = %q, want %q", got, want)
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
