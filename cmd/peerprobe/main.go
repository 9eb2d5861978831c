// Command peerprobe connects to a configured peer, sends Ping frames on an
// interval, and prints round-trip latency to stdout. It is a standalone
// debugging utility that shares the overlay's wire codec but does not join
// the mesh itself: it never registers with a tracker and never appears in
// any peer's adjacency map.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"meshchat/command"
	"meshchat/frame"
	"meshchat/peer"
)

func main() {
	target := flag.String("target", "localhost:5000", "host:port of the peer to probe")
	self := flag.String("name", "peerprobe", "source name to stamp on outgoing Ping frames")
	interval := flag.Duration("interval", 5*time.Second, "delay between ping attempts")
	flag.Parse()

	bo := peer.NewBackoff(time.Second, 30*time.Second)
	seq := uint64(0)

	for {
		conn, err := net.DialTimeout("tcp", *target, 5*time.Second)
		if err != nil {
			wait := bo.Next()
			log.Printf("peerprobe: connect to %s failed: %v, retrying in %v", *target, err, wait)
			time.Sleep(wait)
			continue
		}
		bo.Reset()
		log.Printf("peerprobe: connected to %s", *target)
		probeLoop(conn, *self, &seq, *interval)
		conn.Close()
	}
}

// probeLoop sends one Ping per interval and prints the observed round-trip
// time, returning when the connection breaks so main can reconnect.
func probeLoop(conn net.Conn, self string, seq *uint64, interval time.Duration) {
	for {
		*seq++
		ping := command.Ping{Envelope: command.Envelope{Source: self, Sequence: *seq}}
		f, err := command.Encode(ping)
		if err != nil {
			log.Printf("peerprobe: encode ping: %v", err)
			return
		}

		sent := time.Now()
		if err := frame.WriteFrame(conn, f); err != nil {
			log.Printf("peerprobe: write ping: %v", err)
			return
		}
		resp, err := frame.ReadFrame(conn)
		if err != nil {
			log.Printf("peerprobe: read pong: %v", err)
			return
		}
		rtt := time.Since(sent)
		fmt.Printf("seq=%d rtt=%s reply=%s\n", *seq, rtt, resp.Kind)

		time.Sleep(interval)
	}
}
