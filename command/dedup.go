package command

// DedupKey returns the (source, sequence_number) dedup key for cmd, and ok
// is false for Ping and Unknown, which bypass the dedup gate entirely per
// §4.3 ("Ping carries no propagation risk; Unknown carries no identity").
func DedupKey(cmd Command) (source string, sequence uint64, ok bool) {
	switch c := cmd.(type) {
	case Ping:
		return "", 0, false
	case Unknown:
		return "", 0, false
	case Say:
		return c.Source, c.Sequence, true
	case Whisper:
		return c.Source, c.Sequence, true
	case Register:
		return c.Source, c.Sequence, true
	case Announce:
		return c.Source, c.Sequence, true
	case Broadcast:
		return c.Source, c.Sequence, true
	case Deliver:
		return c.Source, c.Sequence, true
	case Extension:
		return c.Source, c.Sequence, true
	default:
		return "", 0, false
	}
}
