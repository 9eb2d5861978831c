// Package command implements the overlay's tagged command variants and
// their wire encode/decode (spec §4.3). Apply semantics are deliberately
// not methods on these types: design note §9 calls for "a single apply
// entry point that matches" rather than open polymorphism, so dispatch
// lives in one place (see package server's apply.go) and this package only
// knows how to go between a Command and a Frame.
package command

import (
	"fmt"

	"meshchat/frame"
)

// Tag is the Text value that opens every command's Array frame.
type Tag string

const (
	TagPing      Tag = "ping"
	TagSay       Tag = "say"
	TagWhisper   Tag = "whisper"
	TagRegister  Tag = "register"
	TagAnnounce  Tag = "announce"
	TagBroadcast Tag = "broadcast"
	TagDeliver   Tag = "deliver"
	TagExtension Tag = "extension"
)

// Envelope carries the two identity fields every command but Unknown has:
// the originating peer's name and its per-source sequence number (spec §3).
type Envelope struct {
	Source   string
	Sequence uint64
}

// Command is any decoded overlay command. It is a closed set (Ping, Say,
// Whisper, Register, Announce, Broadcast, Deliver, Extension, Unknown);
// callers dispatch with a type switch rather than calling methods on this
// interface.
type Command interface {
	isCommand()
}

// Ping elicits exactly one Number-frame reply on the same connection and
// is never re-propagated (§4.3).
type Ping struct {
	Envelope
}

// Say carries one chat line for local delivery and mesh-wide broadcast.
type Say struct {
	Envelope
	Message string
}

// Whisper routes a message hop-by-hop along an explicit path. The
// canonical wire form chosen here (resolving §9's Open Question) is
// ["whisper", source, seq, destination, message, path].
type Whisper struct {
	Envelope
	Destination string
	Message     string
	Path        []string
}

// Register is recognized only by the tracker; a peer that receives one in
// peer-to-peer traffic logs an error and otherwise ignores it.
type Register struct {
	Envelope
	IP   string
	Port string
}

// Announce is the periodic topology beacon (§4.8).
type Announce struct {
	Envelope
	IP                string
	Port              uint64
	AvailableIncoming uint64
	City              string
	Lat               float64
	Lng               float64
	Peers             []PeerLatency
}

// PeerLatency names one of an announcing peer's own outbound neighbors,
// with its last-known latency in milliseconds (0 when unmeasured).
type PeerLatency struct {
	Name string
	Ms   uint32
}

// Broadcast carries an opaque byte payload re-broadcast to every peer
// except its source.
type Broadcast struct {
	Envelope
	Data []byte
}

// Deliver names a destination but, per §4.3, is re-broadcast rather than
// routed; a shortest-path variant is an explicit, undemonstrated extension
// point (§9).
type Deliver struct {
	Envelope
	Destination string
	Data        []byte
}

// Extension is the overlay's opaque extension point: extension_id picks a
// handler, payload is passed through uninterpreted by the core.
type Extension struct {
	Envelope
	ExtensionID uint64
	Payload     *frame.Frame
}

// Unknown is any Array frame whose tag isn't recognized. It carries no
// envelope, bypasses the dedup gate, and is never re-propagated.
type Unknown struct {
	Raw *frame.Frame
}

func (Ping) isCommand()      {}
func (Say) isCommand()       {}
func (Whisper) isCommand()   {}
func (Register) isCommand()  {}
func (Announce) isCommand()  {}
func (Broadcast) isCommand() {}
func (Deliver) isCommand()   {}
func (Extension) isCommand() {}
func (Unknown) isCommand()   {}

// Decode interprets a Frame as a Command. An unrecognized tag decodes to
// Unknown with a nil error, matching §4.3's "ignore silently" apply effect
// rather than treating the frame as a protocol error.
func Decode(f *frame.Frame) (Command, error) {
	cur, err := frame.NewCursor(f)
	if err != nil {
		return nil, err
	}
	tag, err := cur.NextText()
	if err != nil {
		return nil, fmt.Errorf("command: reading tag: %w", err)
	}
	switch Tag(tag) {
	case TagPing:
		return decodePing(cur)
	case TagSay:
		return decodeSay(cur)
	case TagWhisper:
		return decodeWhisper(cur)
	case TagRegister:
		return decodeRegister(cur)
	case TagAnnounce:
		return decodeAnnounce(cur)
	case TagBroadcast:
		return decodeBroadcast(cur)
	case TagDeliver:
		return decodeDeliver(cur)
	case TagExtension:
		return decodeExtension(cur)
	default:
		return Unknown{Raw: f}, nil
	}
}

// Encode renders cmd back to its wire Frame.
func Encode(cmd Command) (*frame.Frame, error) {
	switch c := cmd.(type) {
	case Ping:
		return encodePing(c), nil
	case Say:
		return encodeSay(c), nil
	case Whisper:
		return encodeWhisper(c), nil
	case Register:
		return encodeRegister(c), nil
	case Announce:
		return encodeAnnounce(c), nil
	case Broadcast:
		return encodeBroadcast(c), nil
	case Deliver:
		return encodeDeliver(c), nil
	case Extension:
		return encodeExtension(c), nil
	case Unknown:
		return c.Raw, nil
	default:
		return nil, fmt.Errorf("command: encode: unsupported type %T", cmd)
	}
}

func envelope(cur *frame.Cursor) (Envelope, error) {
	source, err := cur.NextText()
	if err != nil {
		return Envelope{}, fmt.Errorf("command: source: %w", err)
	}
	seq, err := cur.NextNumber()
	if err != nil {
		return Envelope{}, fmt.Errorf("command: sequence_number: %w", err)
	}
	return Envelope{Source: source, Sequence: seq}, nil
}

func envelopeFrames(e Envelope) []*frame.Frame {
	return []*frame.Frame{frame.Text(e.Source), frame.Number(e.Sequence)}
}
