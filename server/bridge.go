package server

import (
	"log"

	"meshchat/command"
)

// runClientBridge implements §4.7 step 3: receive ClientMessage values
// from the UI and translate them into locally-originated commands. It runs
// for the server's lifetime, reading FromUI until the channel closes.
func (s *Server) runClientBridge() {
	for msg := range s.FromUI {
		switch m := msg.(type) {
		case UISay:
			s.originateSay(m.Text)
		case UIWhisper:
			s.originateWhisper(m.Destination, m.Text)
		default:
			log.Printf("server: client bridge: unhandled message type %T", msg)
		}
	}
}

// originateSay builds a local Say command with a fresh sequence number and
// broadcasts it (§4.7 step 3).
func (s *Server) originateSay(text string) {
	say := command.Say{
		Envelope: command.Envelope{Source: s.Name, Sequence: s.Seq.Next()},
		Message:  text,
	}
	f, err := command.Encode(say)
	if err != nil {
		log.Printf("server: encode local say: %v", err)
		return
	}
	s.Peers.Broadcast(s.Name, f)
}

// originateWhisper builds a local Whisper command addressed to
// destination, routing it along a path computed by findPath (§9's
// BFS-over-adjacency extension point, applied here since Whisper's wire
// format requires an explicit path). A destination with no known path is
// logged and dropped; the UI receives no failure notification, per §7's
// "absence of delivery is the only symptom".
func (s *Server) originateWhisper(destination, text string) {
	path := s.findPath(destination)
	if len(path) == 0 {
		log.Printf("server: no known path to whisper destination %q", destination)
		return
	}
	whisper := command.Whisper{
		Envelope:    command.Envelope{Source: s.Name, Sequence: s.Seq.Next()},
		Destination: destination,
		Message:     text,
		Path:        path,
	}
	hop, rest, ok := whisper.NextHop()
	if !ok {
		return
	}
	whisper.Path = rest
	f, err := command.Encode(whisper)
	if err != nil {
		log.Printf("server: encode local whisper: %v", err)
		return
	}
	s.Peers.SendToPeer(s.Name, hop, f)
}
