package command

import "meshchat/frame"

func decodePing(cur *frame.Cursor) (Command, error) {
	env, err := envelope(cur)
	if err != nil {
		return nil, err
	}
	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return Ping{Envelope: env}, nil
}

func encodePing(c Ping) *frame.Frame {
	items := append([]*frame.Frame{frame.Text(string(TagPing))}, envelopeFrames(c.Envelope)...)
	return frame.NewArray(items...)
}
