package command

import "meshchat/frame"

func decodeBroadcast(cur *frame.Cursor) (Command, error) {
	env, err := envelope(cur)
	if err != nil {
		return nil, err
	}
	data, err := cur.NextBytes()
	if err != nil {
		return nil, err
	}
	if err := cur.Finish(); err != nil {
		return nil, err
	}
	return Broadcast{Envelope: env, Data: data}, nil
}

func encodeBroadcast(c Broadcast) *frame.Frame {
	items := append([]*frame.Frame{frame.Text(string(TagBroadcast))}, envelopeFrames(c.Envelope)...)
	items = append(items, frame.Bulk(c.Data))
	return frame.NewArray(items...)
}
