package command

import "meshchat/frame"

func decodeSay(cur *frame.Cursor) (Command, error) {
	env, err := envelope(cur)
	if err != nil {
		return nil, err
	}
	msg, err := cur.NextText()
	if err != nil {
		return nil, err
	}
	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return Say{Envelope: env, Message: msg}, nil
}

func encodeSay(c Say) *frame.Frame {
	items := append([]*frame.Frame{frame.Text(string(TagSay))}, envelopeFrames(c.Envelope)...)
	items = append(items, frame.Text(c.Message))
	return frame.NewArray(items...)
}
