// Package frame implements the overlay's wire unit: a self-describing
// tagged value, length-delimited on the byte stream (spec §4.1). Frames
// flow independently in each direction; the codec is strictly
// request/response-agnostic.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// Kind tags which variant of the union a Frame holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindFloat
	KindBulk
	KindLatency
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindFloat:
		return "float"
	case KindBulk:
		return "bulk"
	case KindLatency:
		return "latency"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// MaxFrameSize bounds a single frame's payload. Larger length prefixes fail
// the connection per §4.1 ("Oversize or malformed frames fail the
// connection").
const MaxFrameSize = 16 << 20 // 16 MiB

// Frame is the tagged union described in spec §3. Only the fields matching
// Kind are meaningful; the rest are left at their zero value.
type Frame struct {
	Kind Kind

	Text   string
	Number uint64
	Float  float64
	Bulk   []byte

	// Latency fields: a name paired with a millisecond value.
	LatName string
	LatMs   uint32

	Array []*Frame
}

// Text/Number/Float/Bulk/Latency/Array/Null are constructors for the seven
// frame variants named in §3.
func Text(v string) *Frame                      { return &Frame{Kind: KindText, Text: v} }
func Number(v uint64) *Frame                     { return &Frame{Kind: KindNumber, Number: v} }
func Float(v float64) *Frame                     { return &Frame{Kind: KindFloat, Float: v} }
func Bulk(v []byte) *Frame                       { return &Frame{Kind: KindBulk, Bulk: v} }
func Latency(name string, ms uint32) *Frame      { return &Frame{Kind: KindLatency, LatName: name, LatMs: ms} }
func Null() *Frame                               { return &Frame{Kind: KindNull} }
func NewArray(items ...*Frame) *Frame            { return &Frame{Kind: KindArray, Array: items} }

// Errors returned by the codec and its callers. ErrEndOfStream signals a
// clean connection close, not a failure (§4.1, §4.2).
var (
	ErrEndOfStream    = errors.New("frame: end of stream")
	ErrMalformedFrame = errors.New("frame: malformed")
	ErrOversizeFrame  = errors.New("frame: oversize")
)

// wireFrame is the JSON-like textual shape a Frame marshals to. It is kept
// separate from Frame so the tagged union can carry Go-native types
// (uint64, []byte) while the wire form stays a flat, self-describing
// object, matching the teacher's own practice of keeping wire DTOs
// separate from domain types.
type wireFrame struct {
	Type  string       `json:"type"`
	Text  string       `json:"text,omitempty"`
	Num   uint64        `json:"num,omitempty"`
	Flt   float64       `json:"flt,omitempty"`
	Bulk  []byte        `json:"bulk,omitempty"`
	LName string        `json:"lname,omitempty"`
	LMs   uint32        `json:"lms,omitempty"`
	Items []*wireFrame  `json:"items,omitempty"`
}

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func toWire(f *Frame) *wireFrame {
	if f == nil {
		return &wireFrame{Type: KindNull.String()}
	}
	w := &wireFrame{Type: f.Kind.String()}
	switch f.Kind {
	case KindText:
		w.Text = f.Text
	case KindNumber:
		w.Num = f.Number
	case KindFloat:
		w.Flt = f.Float
	case KindBulk:
		w.Bulk = f.Bulk
	case KindLatency:
		w.LName = f.LatName
		w.LMs = f.LatMs
	case KindArray:
		w.Items = make([]*wireFrame, len(f.Array))
		for i, child := range f.Array {
			w.Items[i] = toWire(child)
		}
	}
	return w
}

func fromWire(w *wireFrame) (*Frame, error) {
	if w == nil {
		return Null(), nil
	}
	switch w.Type {
	case KindNull.String():
		return Null(), nil
	case KindText.String():
		return Text(w.Text), nil
	case KindNumber.String():
		return Number(w.Num), nil
	case KindFloat.String():
		return Float(w.Flt), nil
	case KindBulk.String():
		return Bulk(w.Bulk), nil
	case KindLatency.String():
		return Latency(w.LName, w.LMs), nil
	case KindArray.String():
		items := make([]*Frame, len(w.Items))
		for i, child := range w.Items {
			f, err := fromWire(child)
			if err != nil {
				return nil, err
			}
			items[i] = f
		}
		return NewArray(items...), nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedFrame, w.Type)
	}
}

// Marshal renders f as its JSON-like textual representation.
func Marshal(f *Frame) ([]byte, error) {
	return jsonAPI.Marshal(toWire(f))
}

// Unmarshal parses the JSON-like textual representation into a Frame.
func Unmarshal(data []byte) (*Frame, error) {
	var w wireFrame
	if err := jsonAPI.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return fromWire(&w)
}

// WriteFrame encodes f and writes it as a 32-bit big-endian length prefix
// followed by that many payload bytes.
func WriteFrame(w io.Writer, f *Frame) error {
	payload, err := Marshal(f)
	if err != nil {
		return err
	}
	if len(payload) > MaxFrameSize {
		return ErrOversizeFrame
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// ReadFrame blocks until a complete frame has arrived, the stream reaches
// clean end-of-stream (ErrEndOfStream), or an I/O or protocol error
// occurs. A length prefix beyond MaxFrameSize fails the connection
// (ErrOversizeFrame) without attempting to read the claimed payload.
func ReadFrame(r io.Reader) (*Frame, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if isCleanClose(err) {
			return nil, ErrEndOfStream
		}
		return nil, err
	}
	size := binary.BigEndian.Uint32(lenBuf[:])
	if size > MaxFrameSize {
		return nil, ErrOversizeFrame
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if isCleanClose(err) {
			return nil, ErrEndOfStream
		}
		return nil, err
	}
	return Unmarshal(payload)
}

// isCleanClose reports whether err represents the peer closing the
// connection (possibly mid-frame) rather than a transport failure.
func isCleanClose(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
