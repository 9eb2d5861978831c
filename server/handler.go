package server

import (
	"errors"
	"log"
	"net"

	"github.com/google/uuid"

	"meshchat/command"
	"meshchat/dedup"
	"meshchat/frame"
)

// handleInbound is the per-accepted-socket read loop of §4.6: increment
// the connection counter on entry and decrement on exit, then loop reading
// frames until end-of-stream or an error tears the connection down.
func (s *Server) handleInbound(conn net.Conn) {
	cid := uuid.NewString()
	s.Conns.Inc()
	defer s.Conns.Dec()
	defer conn.Close()

	log.Printf("server: inbound connection %s from %s", cid, conn.RemoteAddr())

	for {
		f, err := frame.ReadFrame(conn)
		if err != nil {
			if errors.Is(err, frame.ErrEndOfStream) {
				log.Printf("server: inbound connection %s closed", cid)
				return
			}
			log.Printf("server: inbound connection %s: read error: %v", cid, err)
			return
		}

		cmd, err := command.Decode(f)
		if err != nil {
			log.Printf("server: inbound connection %s: decode error: %v", cid, err)
			return
		}

		if ping, ok := cmd.(command.Ping); ok {
			if err := frame.WriteFrame(conn, frame.Number(ping.Sequence)); err != nil {
				log.Printf("server: inbound connection %s: ping reply failed: %v", cid, err)
				return
			}
			continue
		}

		source, sequence, gated := command.DedupKey(cmd)
		if gated && !s.Processed.MarkSeen(dedup.Key(source, sequence)) {
			// Already processed within the window: dropped at the gate,
			// without apply and without re-propagation (§3, §4.3).
			continue
		}

		s.apply(cmd, f)
	}
}
