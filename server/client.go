package server

import "log"

// ClientMessage is a UI→server message (§6). It is a closed set of two
// variants matching the UI's user-facing commands.
type ClientMessage interface {
	isClientMessage()
}

// UISay asks the server to broadcast a chat line as this peer.
type UISay struct {
	Text string
}

// UIWhisper asks the server to route a direct message to destination.
type UIWhisper struct {
	Destination string
	Text        string
}

func (UISay) isClientMessage()     {}
func (UIWhisper) isClientMessage() {}

// ServerMessage is a server→UI message (§6), emitted for every
// locally-delivered command.
type ServerMessage interface {
	isServerMessage()
}

// ServerSay reports a broadcast chat line delivered locally.
type ServerSay struct {
	From string
	Text string
}

// ServerWhisper reports a direct message delivered locally.
type ServerWhisper struct {
	From string
	To   string
	Text string
}

func (ServerSay) isServerMessage()     {}
func (ServerWhisper) isServerMessage() {}

// clientChannelCapacity bounds the two UI↔server channels. The spec
// describes them as "unbounded message streams" (§6); Go has no native
// unbounded channel, so this repo uses a generously sized buffer and treats
// a full channel as a dropped delivery, consistent with §7's "send-to-
// closed-channel on the client bridge is logged; the server continues" and
// with the non-blocking-send discipline used throughout the peer map.
const clientChannelCapacity = 1024

// newClientChannels constructs the UI↔server channel pair.
func newClientChannels() (toUI chan ServerMessage, fromUI chan ClientMessage) {
	return make(chan ServerMessage, clientChannelCapacity), make(chan ClientMessage, clientChannelCapacity)
}

// deliverToUI performs a non-blocking send to the server→UI channel,
// logging and dropping the message if the UI isn't keeping up.
func deliverToUI(toUI chan<- ServerMessage, msg ServerMessage) {
	select {
	case toUI <- msg:
	default:
		log.Printf("server: dropping message to UI, channel full: %+v", msg)
	}
}
