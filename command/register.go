package command

import "meshchat/frame"

// decodeRegister parses ["register", peer_name, sequence_number, ip, port].
// Register reuses the peer_name as the envelope source: the tracker has no
// other notion of "who is registering".
func decodeRegister(cur *frame.Cursor) (Command, error) {
	env, err := envelope(cur)
	if err != nil {
		return nil, err
	}
	ip, err := cur.NextText()
	if err != nil {
		return nil, err
	}
	port, err := cur.NextText()
	if err != nil {
		return nil, err
	}
	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return Register{Envelope: env, IP: ip, Port: port}, nil
}

func encodeRegister(c Register) *frame.Frame {
	items := append([]*frame.Frame{frame.Text(string(TagRegister))}, envelopeFrames(c.Envelope)...)
	items = append(items, frame.Text(c.IP), frame.Text(c.Port))
	return frame.NewArray(items...)
}
