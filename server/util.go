package server

import (
	"log"
	"strconv"
)

// mustParseUint parses a bind port string for embedding in an Announce
// frame's Number field. Bind ports are validated at config load time (or by
// the net.Listen call in Start); a malformed value here indicates a
// programming error, not a runtime condition to recover from.
func mustParseUint(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		log.Printf("server: bind port %q is not numeric: %v", s, err)
		return 0
	}
	return v
}
