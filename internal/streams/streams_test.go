package streams

import (
	"bytes"
	"testing"
)

func TestPrefixWriterPrefixesFullLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewPrefixWriter(&buf, "sequential", "www")

	for _, msg := range []string{"hello\n", "world\n"} {
		if _, err := w.Write([]byte(msg)); err != nil {
			t.Fatalf("Write(%q) err=%v", msg, err)
		}
	}

	tag := Prefix("sequential", "www")
	want := tag + "hello\n" + tag + "world\n"
	if got := buf.String(); got != want {
		t.Fatalf("output=%q, want %q", got, want)
	}
}

func TestPrefixWriterContinuation(t *testing.T) {
	var buf bytes.Buffer
	w := NewPrefixWriter(&buf, "sequential", "www")

	for _, msg := range []string{"partial", " continued\n", "next\n"} {
		if _, err := w.Write([]byte(msg)); err != nil {
			t.Fatalf("Write(%q) err=%v", msg, err)
		}
	}

	tag := Prefix("sequential", "www")
	want := tag + "partial continued\n" + tag + "next\n"
	if got := buf.String(); got != want {
		t.Fatalf("output=%q, want %q", got, want)
	}
}

func TestCorrelateIndependentState(t *testing.T) {
	var out, errBuf bytes.Buffer
	s := Correlate(Streams{Out: &out, Err: &errBuf}, "parallel", "blog")

	// A partial line on stdout must not suppress the stderr prefix.
	if _, err := s.Out.Write([]byte("partial")); err != nil {
		t.Fatalf("out write err=%v", err)
	}
	if _, err := s.Err.Write([]byte("failed\n")); err != nil {
		t.Fatalf("err write err=%v", err)
	}

	tag := Prefix("parallel", "blog")
	if got, want := out.String(), tag+"partial"; got != want {
		t.Fatalf("stdout=%q, want %q", got, want)
	}
	if got, want := errBuf.String(), tag+"failed\n"; got != want {
		t.Fatalf("stderr=%q, want %q", got, want)
	}
}
