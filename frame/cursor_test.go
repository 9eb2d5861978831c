package frame

import (
	"errors"
	"testing"
)

func TestCursorTypedAccessors(t *testing.T) {
	f := NewArray(Text("say"), Text("A"), Number(1), Text("hi"))
	c, err := NewCursor(f)
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	tag, err := c.NextString()
	if err != nil || tag != "say" {
		t.Fatalf("tag: %q, %v", tag, err)
	}
	source, err := c.NextText()
	if err != nil || source != "A" {
		t.Fatalf("source: %q, %v", source, err)
	}
	seq, err := c.NextNumber()
	if err != nil || seq != 1 {
		t.Fatalf("seq: %d, %v", seq, err)
	}
	msg, err := c.NextText()
	if err != nil || msg != "hi" {
		t.Fatalf("msg: %q, %v", msg, err)
	}
	if err := c.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
}

func TestCursorWrongKindFails(t *testing.T) {
	f := NewArray(Number(1))
	c, _ := NewCursor(f)
	if _, err := c.NextText(); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestCursorFinishFailsOnTrailing(t *testing.T) {
	f := NewArray(Text("a"), Text("b"))
	c, _ := NewCursor(f)
	if _, err := c.NextText(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Finish(); err == nil {
		t.Fatalf("expected trailing element error")
	}
}

func TestCursorNextEndOfStreamIsDistinguished(t *testing.T) {
	f := NewArray()
	c, _ := NewCursor(f)
	if _, err := c.Next(); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("expected ErrEndOfStream, got %v", err)
	}
}

func TestCursorRequiresArrayFrame(t *testing.T) {
	if _, err := NewCursor(Text("not an array")); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}
