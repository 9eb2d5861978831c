package frame

import "fmt"

// Cursor is a typed positional reader over an Array frame's children
// (spec §4.2). Each typed accessor fails with a protocol error if the next
// element is absent or of the wrong kind.
type Cursor struct {
	items []*Frame
	pos   int
}

// NewCursor builds a Cursor over f's children. f must be an Array frame.
func NewCursor(f *Frame) (*Cursor, error) {
	if f == nil || f.Kind != KindArray {
		return nil, fmt.Errorf("%w: cursor requires an array frame", ErrMalformedFrame)
	}
	return &Cursor{items: f.Array}, nil
}

// Next returns the next child frame regardless of kind, or ErrEndOfStream
// once the cursor is exhausted. Callers that want to terminate iteration
// without treating exhaustion as a hard error (e.g. the tracker response
// parser) should check for ErrEndOfStream specifically.
func (c *Cursor) Next() (*Frame, error) {
	if c == nil || c.pos >= len(c.items) {
		return nil, ErrEndOfStream
	}
	f := c.items[c.pos]
	c.pos++
	return f, nil
}

func (c *Cursor) next(kind Kind) (*Frame, error) {
	f, err := c.Next()
	if err != nil {
		return nil, err
	}
	if f.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrMalformedFrame, kind, f.Kind)
	}
	return f, nil
}

// NextString is an alias for NextText; both are exposed per §4.2's accessor
// list since the spec names them separately.
func (c *Cursor) NextString() (string, error) { return c.NextText() }

// NextText returns the next Text frame's value.
func (c *Cursor) NextText() (string, error) {
	f, err := c.next(KindText)
	if err != nil {
		return "", err
	}
	return f.Text, nil
}

// NextNumber returns the next Number frame's value.
func (c *Cursor) NextNumber() (uint64, error) {
	f, err := c.next(KindNumber)
	if err != nil {
		return 0, err
	}
	return f.Number, nil
}

// NextFloat returns the next Float frame's value.
func (c *Cursor) NextFloat() (float64, error) {
	f, err := c.next(KindFloat)
	if err != nil {
		return 0, err
	}
	return f.Float, nil
}

// NextBytes returns the next Bulk frame's value.
func (c *Cursor) NextBytes() ([]byte, error) {
	f, err := c.next(KindBulk)
	if err != nil {
		return nil, err
	}
	return f.Bulk, nil
}

// NextArray returns the next child as a sub-frame of kind Array, letting
// the caller wrap a new Cursor around it.
func (c *Cursor) NextArray() (*Frame, error) {
	return c.next(KindArray)
}

// NextLatency returns the next child as a Latency frame's (name, ms) pair.
func (c *Cursor) NextLatency() (string, uint32, error) {
	f, err := c.next(KindLatency)
	if err != nil {
		return "", 0, err
	}
	return f.LatName, f.LatMs, nil
}

// Finish fails if unconsumed elements remain.
func (c *Cursor) Finish() error {
	if c == nil {
		return nil
	}
	if c.pos < len(c.items) {
		return fmt.Errorf("%w: %d unconsumed element(s)", ErrMalformedFrame, len(c.items)-c.pos)
	}
	return nil
}
